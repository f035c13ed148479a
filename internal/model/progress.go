package model

import "math"

// Progress is round(100 * completed / total), 0 when there are no subtasks.
func Progress(subtasks []Subtask) int {
	if len(subtasks) == 0 {
		return 0
	}
	done := 0
	for _, st := range subtasks {
		if st.Completed {
			done++
		}
	}
	return int(math.Round(100 * float64(done) / float64(len(subtasks))))
}

// Normalize fills wire defaults and re-derives Progress from the subtasks.
func (it *Item) Normalize() {
	if it.Status == "" {
		it.Status = StatusInProgress
	}
	if it.Subtasks == nil {
		it.Subtasks = []Subtask{}
	}
	if it.Activities == nil {
		it.Activities = []Activity{}
	}
	it.Progress = Progress(it.Subtasks)
}
