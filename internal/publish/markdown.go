package publish

import (
	"bytes"
	"fmt"
	"strings"
	"time"

	"journey-cli/internal/model"
)

// RenderItemMarkdown renders one item as a standalone page. stageTitle may be empty.
func RenderItemMarkdown(it model.Item, stageTitle string) string {
	var buf bytes.Buffer
	writeLn := func(s string) {
		buf.WriteString(s)
		buf.WriteString("\n")
	}

	writeLn("# " + strings.TrimSpace(it.Content))
	writeLn("")
	writeLn("## Meta")
	writeLn("")
	writeLn("- ID: " + it.ID)
	if stageTitle != "" {
		writeLn("- Stage: " + stageTitle + " (" + it.StageID + ")")
	} else {
		writeLn("- Stage: " + it.StageID)
	}
	status := it.Status
	if status == "" {
		status = model.StatusInProgress
	}
	writeLn("- Status: " + string(status))
	writeLn(fmt.Sprintf("- Progress: %d%%", it.Progress))

	if desc := strings.TrimSpace(it.Description); desc != "" {
		writeLn("")
		writeLn("## Description")
		writeLn("")
		writeLn(desc)
	}

	if len(it.Subtasks) > 0 {
		writeLn("")
		writeLn("## Subtasks")
		writeLn("")
		for _, st := range it.Subtasks {
			box := " "
			if st.Completed {
				box = "x"
			}
			writeLn("- [" + box + "] " + strings.TrimSpace(st.Text))
		}
	}

	if len(it.Activities) > 0 {
		writeLn("")
		writeLn("## Activity")
		writeLn("")
		for _, a := range it.Activities {
			line := "- " + a.Timestamp.Time.UTC().Format(time.RFC3339)
			if text := strings.TrimSpace(a.Text); text != "" {
				line += " " + text
			}
			if a.File != nil {
				line += fmt.Sprintf(" ([%s](%s))", a.File.Name, a.File.URL)
			}
			writeLn(line)
		}
	}
	return buf.String()
}

// RenderBoardIndexMarkdown lists the stages in display order with links to each item page.
func RenderBoardIndexMarkdown(boardID, title string, stages []model.Stage) string {
	var buf bytes.Buffer
	heading := boardID
	if t := strings.TrimSpace(title); t != "" && t != boardID {
		heading = t + " (" + boardID + ")"
	}
	fmt.Fprintf(&buf, "# %s\n\n", heading)

	for _, st := range stages {
		fmt.Fprintf(&buf, "## %s\n\n", strings.TrimSpace(st.Title))
		if len(st.Items) == 0 {
			buf.WriteString("_No items._\n\n")
			continue
		}
		for _, it := range st.Items {
			status := it.Status
			if status == "" {
				status = model.StatusInProgress
			}
			fmt.Fprintf(&buf, "- [%s](items/%s.md) (%s, %d%%)\n", strings.TrimSpace(it.Content), it.ID, status, it.Progress)
		}
		buf.WriteString("\n")
	}
	return buf.String()
}
