package model

type User struct {
	ID        string     `json:"id"`
	Name      string     `json:"name"`
	Email     string     `json:"email"`
	Role      Role       `json:"role"`
	Age       int        `json:"age"`
	Location  string     `json:"location"`
	Interests StringList `json:"interests"`
}

// NewUser is the signup payload. It is the only place a password leaves the client.
type NewUser struct {
	ID        string   `json:"id"`
	Name      string   `json:"name"`
	Email     string   `json:"email"`
	Password  string   `json:"password"`
	Role      Role     `json:"role"`
	Age       int      `json:"age"`
	Location  string   `json:"location"`
	Interests []string `json:"interests"`
}

type BoardSummary struct {
	ID         string     `json:"id"`
	Title      string     `json:"title"`
	UserID     string     `json:"user_id"`
	StageCount int        `json:"stage_count"`
	ItemCount  int        `json:"item_count"`
	CreatedAt  *Timestamp `json:"created_at,omitempty"`
}

type Stage struct {
	ID        string     `json:"id"`
	Title     string     `json:"title"`
	BoardID   string     `json:"board_id,omitempty"`
	Position  *int       `json:"position,omitempty"`
	CreatedAt *Timestamp `json:"created_at,omitempty"`
	Items     []Item     `json:"items"`
}

type Status string

const (
	StatusInProgress Status = "In Progress"
	StatusDone       Status = "Done"
	StatusSkipped    Status = "Skipped"
)

var Statuses = []Status{StatusInProgress, StatusDone, StatusSkipped}

type Item struct {
	ID          string     `json:"id"`
	Content     string     `json:"content"`
	StageID     string     `json:"stage_id"`
	Description string     `json:"description"`
	Status      Status     `json:"status"`
	Progress    int        `json:"progress"`
	Subtasks    []Subtask  `json:"subtasks"`
	Activities  []Activity `json:"activities"`
}

type Subtask struct {
	Text      string `json:"text"`
	Completed bool   `json:"completed"`
}

type Activity struct {
	Text      string    `json:"text"`
	Timestamp Timestamp `json:"timestamp"`
	File      *FileRef  `json:"file"`
}

type FileRef struct {
	Name string `json:"name"`
	URL  string `json:"url"`
}

type MatchSuggestion struct {
	ID              string   `json:"id"`
	Name            string   `json:"name"`
	Email           string   `json:"email"`
	Location        string   `json:"location"`
	CommonInterests []string `json:"common_interests"`
	WithinAgeRange  bool     `json:"within_age_range"`
	SameLocation    bool     `json:"same_location"`
	MatchScore      float64  `json:"match_score"`
}

type Discipleship struct {
	ID          string     `json:"id,omitempty"`
	DisciplerID string     `json:"discipler_id"`
	DiscipleID  string     `json:"disciple_id"`
	StartDate   *Timestamp `json:"start_date,omitempty"`
}

// Clone returns a deep copy so callers can edit without aliasing the original slices.
func (it Item) Clone() Item {
	out := it
	if it.Subtasks != nil {
		out.Subtasks = make([]Subtask, len(it.Subtasks))
		copy(out.Subtasks, it.Subtasks)
	}
	if it.Activities != nil {
		out.Activities = make([]Activity, len(it.Activities))
		for i, a := range it.Activities {
			if a.File != nil {
				f := *a.File
				a.File = &f
			}
			out.Activities[i] = a
		}
	}
	return out
}

func (s Stage) Clone() Stage {
	out := s
	if s.Position != nil {
		p := *s.Position
		out.Position = &p
	}
	if s.CreatedAt != nil {
		c := *s.CreatedAt
		out.CreatedAt = &c
	}
	out.Items = make([]Item, len(s.Items))
	for i, it := range s.Items {
		out.Items[i] = it.Clone()
	}
	return out
}
