package model

import (
	"errors"
	"fmt"
	"strings"
)

// ErrInvalid marks a record that failed boundary validation.
var ErrInvalid = errors.New("invalid record")

func invalid(kind, format string, args ...any) error {
	return fmt.Errorf("%w: %s: %s", ErrInvalid, kind, fmt.Sprintf(format, args...))
}

func (u User) Validate() error {
	if strings.TrimSpace(u.ID) == "" {
		return invalid("user", "missing id")
	}
	if u.Role != "" && !u.Role.Valid() {
		return invalid("user", "unknown role %q", u.Role)
	}
	return nil
}

func (b BoardSummary) Validate() error {
	if strings.TrimSpace(b.ID) == "" {
		return invalid("board", "missing id")
	}
	if b.StageCount < 0 || b.ItemCount < 0 {
		return invalid("board", "negative counts on %s", b.ID)
	}
	return nil
}

func (s Stage) Validate() error {
	if strings.TrimSpace(s.ID) == "" {
		return invalid("stage", "missing id")
	}
	seen := map[string]bool{}
	for _, it := range s.Items {
		if err := it.Validate(); err != nil {
			return err
		}
		if seen[it.ID] {
			return invalid("stage", "duplicate item %s in %s", it.ID, s.ID)
		}
		seen[it.ID] = true
	}
	return nil
}

func (it Item) Validate() error {
	if strings.TrimSpace(it.ID) == "" {
		return invalid("item", "missing id")
	}
	if strings.TrimSpace(it.StageID) == "" {
		return invalid("item", "missing stage_id on %s", it.ID)
	}
	if it.Status != "" && !it.Status.Valid() {
		return invalid("item", "unknown status %q on %s", it.Status, it.ID)
	}
	for i, a := range it.Activities {
		if a.File != nil && strings.TrimSpace(a.File.URL) == "" {
			return invalid("item", "activity %d on %s has a file without url", i, it.ID)
		}
	}
	return nil
}

func (m MatchSuggestion) Validate() error {
	if strings.TrimSpace(m.ID) == "" {
		return invalid("match", "missing id")
	}
	return nil
}

func (f FileRef) Validate() error {
	if strings.TrimSpace(f.URL) == "" {
		return invalid("file", "missing url")
	}
	return nil
}
