// Package publish writes a board out as a tree of markdown files.
package publish

import (
	"errors"
	"os"
	"path/filepath"
	"strings"

	"journey-cli/internal/model"
)

type WriteOptions struct {
	Title     string
	Overwrite bool
}

type WriteResult struct {
	Written []string `json:"written"`
}

// WriteBoard writes <toDir>/boards/<id>/index.md and one page per item under items/.
func WriteBoard(boardID string, stages []model.Stage, toDir string, opt WriteOptions) (WriteResult, error) {
	boardID = strings.TrimSpace(boardID)
	if boardID == "" {
		return WriteResult{}, errors.New("missing board id")
	}
	toDir = strings.TrimSpace(toDir)
	if toDir == "" {
		return WriteResult{}, errors.New("missing --to")
	}
	if strings.ContainsAny(boardID, `/\`) || boardID == "." || boardID == ".." {
		return WriteResult{}, errors.New("invalid board id: " + boardID)
	}

	boardDir := filepath.Join(filepath.Clean(toDir), "boards", boardID)
	itemsDir := filepath.Join(boardDir, "items")
	if err := os.MkdirAll(itemsDir, 0o755); err != nil {
		return WriteResult{}, err
	}

	indexPath := filepath.Join(boardDir, "index.md")
	if err := writeFile(indexPath, []byte(RenderBoardIndexMarkdown(boardID, opt.Title, stages)), opt.Overwrite); err != nil {
		return WriteResult{}, err
	}
	written := []string{indexPath}

	// Stop on the first failed page.
	for _, st := range stages {
		for _, it := range st.Items {
			p := filepath.Join(itemsDir, filepath.Base(it.ID)+".md")
			if err := writeFile(p, []byte(RenderItemMarkdown(it, st.Title)), opt.Overwrite); err != nil {
				return WriteResult{Written: written}, err
			}
			written = append(written, p)
		}
	}
	return WriteResult{Written: written}, nil
}

func writeFile(path string, b []byte, overwrite bool) error {
	if !overwrite {
		if _, err := os.Stat(path); err == nil {
			return errors.New("file exists (use --overwrite): " + path)
		}
	}
	return os.WriteFile(path, b, 0o644)
}
