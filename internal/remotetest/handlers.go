package remotetest

import (
	"fmt"
	"io"
	"net/http"
	"regexp"
	"sort"
	"strings"

	"github.com/bytedance/sonic"
	"github.com/google/uuid"
	"github.com/labstack/echo/v4"

	"journey-cli/internal/model"
)

func register(e *echo.Echo, s *Server) {
	e.POST("/auth/signup", signup(s))
	e.POST("/auth/login", login(s))

	b := e.Group("/boards", s.requireUser)
	b.GET("/", listBoards(s))
	b.POST("/", createBoard(s))
	b.GET("/:id", getBoard(s))
	b.POST("/:id/stages", createStage(s))
	b.DELETE("/:id/stages/:stage_id", deleteStage(s))
	b.POST("/:id/items", createItem(s))
	b.PUT("/:id/items/:item_id", updateItem(s))
	b.DELETE("/:id/items/:item_id", deleteItem(s))

	e.POST("/items/:id/files", uploadFile(s))
	e.GET("/files/:item/:name", downloadFile(s))

	u := e.Group("/users")
	u.GET("/suggested-matches", suggestedMatches(s), s.requireUser)
	u.GET("/opposite-role", oppositeRole(s), s.requireUser)
	u.GET("/users/:id", getUser(s))
	u.GET("/:id/boards", userBoards(s))
	u.POST("/discipleship", createDiscipleship(s))
	u.GET("/discipler/:id/disciples", disciples(s))
	u.GET("/disciple/:id/discipler", discipler(s))
}

func signup(s *Server) echo.HandlerFunc {
	return func(c echo.Context) error {
		var nu model.NewUser
		if err := c.Bind(&nu); err != nil {
			return validationErr("body", "invalid body")
		}
		switch {
		case strings.TrimSpace(nu.ID) == "":
			return validationErr("id", "field required")
		case strings.TrimSpace(nu.Name) == "":
			return validationErr("name", "field required")
		case !strings.Contains(nu.Email, "@"):
			return validationErr("email", "value is not a valid email address")
		case nu.Password == "":
			return validationErr("password", "field required")
		case nu.Role != model.RoleDiscipler && nu.Role != model.RoleDisciple:
			return validationErr("role", "role must be Discipler or Disciple")
		}
		s.mu.Lock()
		defer s.mu.Unlock()
		k := strings.ToLower(nu.Email)
		if _, ok := s.accounts[k]; ok {
			return detailErr(http.StatusBadRequest, "Email already registered")
		}
		u := model.User{
			ID:        nu.ID,
			Name:      nu.Name,
			Email:     nu.Email,
			Role:      nu.Role,
			Age:       nu.Age,
			Location:  nu.Location,
			Interests: model.StringList(append([]string{}, nu.Interests...)),
		}
		s.accounts[k] = &account{user: u, password: nu.Password}
		return c.JSON(http.StatusOK, u)
	}
}

func login(s *Server) echo.HandlerFunc {
	return func(c echo.Context) error {
		var in struct {
			Email    string `json:"email"`
			Password string `json:"password"`
		}
		if err := c.Bind(&in); err != nil {
			return validationErr("body", "invalid body")
		}
		s.mu.Lock()
		defer s.mu.Unlock()
		a, ok := s.accounts[strings.ToLower(in.Email)]
		if !ok || a.password != in.Password {
			return detailErr(http.StatusUnauthorized, "Invalid credentials")
		}
		tok, err := s.issueLocked(a.user)
		if err != nil {
			return err
		}
		// User rows come back straight from the table: interests is a JSON string.
		interests, _ := sonic.ConfigStd.Marshal([]string(a.user.Interests))
		return c.JSON(http.StatusOK, map[string]any{
			"access_token": tok,
			"token_type":   "bearer",
			"user": map[string]any{
				"id":        a.user.ID,
				"name":      a.user.Name,
				"email":     a.user.Email,
				"role":      a.user.Role,
				"age":       a.user.Age,
				"location":  a.user.Location,
				"interests": string(interests),
				"password":  nil,
			},
		})
	}
}

func listBoards(s *Server) echo.HandlerFunc {
	return func(c echo.Context) error {
		u := currentUser(c)
		s.mu.Lock()
		defer s.mu.Unlock()
		return c.JSON(http.StatusOK, s.summariesLocked(u.ID))
	}
}

func userBoards(s *Server) echo.HandlerFunc {
	return func(c echo.Context) error {
		s.mu.Lock()
		defer s.mu.Unlock()
		return c.JSON(http.StatusOK, s.summariesLocked(c.Param("id")))
	}
}

// summariesLocked returns userID's boards, newest first.
func (s *Server) summariesLocked(userID string) []model.BoardSummary {
	var rows []*boardRow
	for _, b := range s.boards {
		if b.userID == userID {
			rows = append(rows, b)
		}
	}
	sort.SliceStable(rows, func(i, j int) bool { return rows[i].created.After(rows[j].created) })
	out := make([]model.BoardSummary, 0, len(rows))
	for _, b := range rows {
		stages := s.stagesLocked(b.id)
		items := 0
		for _, st := range stages {
			items += len(st.Items)
		}
		created := model.NewTimestamp(b.created)
		out = append(out, model.BoardSummary{
			ID: b.id, Title: b.title, UserID: b.userID,
			StageCount: len(stages), ItemCount: items, CreatedAt: &created,
		})
	}
	return out
}

var nonSlug = regexp.MustCompile(`[^a-z0-9]+`)

func slugify(s string) string {
	return strings.Trim(nonSlug.ReplaceAllString(strings.ToLower(s), "-"), "-")
}

func createBoard(s *Server) echo.HandlerFunc {
	return func(c echo.Context) error {
		var in struct {
			Title  string `json:"title"`
			UserID string `json:"user_id"`
		}
		if err := c.Bind(&in); err != nil || strings.TrimSpace(in.Title) == "" {
			return validationErr("title", "field required")
		}
		u := currentUser(c)
		s.mu.Lock()
		defer s.mu.Unlock()
		now := s.now()
		id := slugify(in.Title)
		if _, taken := s.boards[id]; taken || id == "" {
			id = fmt.Sprintf("%s-%d", id, now.UnixNano())
		}
		s.boards[id] = &boardRow{id: id, title: in.Title, userID: u.ID, created: now}
		stageID := "newbie_" + id
		s.stages[stageID] = &stageRow{id: stageID, title: "Newbie", boardID: id, position: 1, created: now}
		welcome := model.Item{
			ID:          "item_" + uuid.NewString(),
			Content:     "Welcome to your spiritual journey!",
			StageID:     stageID,
			Description: "This is your first step",
		}
		welcome.Normalize()
		s.items[welcome.ID] = &itemRow{item: welcome, seq: s.nextSeq()}
		return c.JSON(http.StatusOK, map[string]string{"id": id, "title": in.Title, "user_id": u.ID})
	}
}

// ownedBoard answers 404/403 like the remote store when the board is missing or foreign.
func (s *Server) ownedBoardLocked(c echo.Context) (*boardRow, error) {
	b, ok := s.boards[c.Param("id")]
	if !ok {
		return nil, detailErr(http.StatusNotFound, "Board not found")
	}
	if b.userID != currentUser(c).ID {
		return nil, detailErr(http.StatusForbidden, "Not authorized to access this board")
	}
	return b, nil
}

func getBoard(s *Server) echo.HandlerFunc {
	return func(c echo.Context) error {
		s.mu.Lock()
		defer s.mu.Unlock()
		b, err := s.ownedBoardLocked(c)
		if err != nil {
			return err
		}
		out := map[string]any{}
		for _, st := range s.stagesLocked(b.id) {
			out[st.ID] = map[string]any{
				"id":       st.ID,
				"title":    st.Title,
				"position": *st.Position,
				// naive ISO-8601, as the database driver renders it
				"created_at": st.CreatedAt.UTC().Format("2006-01-02T15:04:05.000000"),
				"items":      st.Items,
			}
		}
		return c.JSON(http.StatusOK, map[string]any{"stages": out})
	}
}

func createStage(s *Server) echo.HandlerFunc {
	return func(c echo.Context) error {
		var in struct {
			ID    string `json:"id"`
			Title string `json:"title"`
		}
		if err := c.Bind(&in); err != nil || strings.TrimSpace(in.ID) == "" {
			return validationErr("id", "field required")
		}
		s.mu.Lock()
		defer s.mu.Unlock()
		b, err := s.ownedBoardLocked(c)
		if err != nil {
			return err
		}
		maxPos := 0
		for _, st := range s.stages {
			if st.boardID == b.id && st.position > maxPos {
				maxPos = st.position
			}
		}
		id := in.ID + "_" + b.id
		if _, taken := s.stages[id]; taken {
			return detailErr(http.StatusInternalServerError, "Duplicate entry for stage "+id)
		}
		s.stages[id] = &stageRow{id: id, title: in.Title, boardID: b.id, position: maxPos + 1, created: s.now()}
		return c.JSON(http.StatusOK, map[string]string{"id": id, "title": in.Title, "board_id": b.id})
	}
}

func deleteStage(s *Server) echo.HandlerFunc {
	return func(c echo.Context) error {
		s.mu.Lock()
		defer s.mu.Unlock()
		b, err := s.ownedBoardLocked(c)
		if err != nil {
			return err
		}
		st, ok := s.stages[c.Param("stage_id")]
		if !ok || st.boardID != b.id {
			return c.JSON(http.StatusOK, map[string]string{"message": "Stage deleted successfully"})
		}
		for id, it := range s.items {
			if it.item.StageID == st.id {
				delete(s.items, id)
			}
		}
		delete(s.stages, st.id)
		for _, other := range s.stages {
			if other.boardID == b.id && other.position > st.position {
				other.position--
			}
		}
		return c.JSON(http.StatusOK, map[string]string{"message": "Stage deleted successfully"})
	}
}

func (s *Server) stageOnBoardLocked(boardID, stageID string) bool {
	st, ok := s.stages[stageID]
	return ok && st.boardID == boardID
}

func createItem(s *Server) echo.HandlerFunc {
	return func(c echo.Context) error {
		var it model.Item
		if err := c.Bind(&it); err != nil || strings.TrimSpace(it.ID) == "" {
			return validationErr("id", "field required")
		}
		s.mu.Lock()
		defer s.mu.Unlock()
		b, err := s.ownedBoardLocked(c)
		if err != nil {
			return detailErr(http.StatusForbidden, "Not authorized")
		}
		if !s.stageOnBoardLocked(b.id, it.StageID) {
			return detailErr(http.StatusForbidden, "Not authorized")
		}
		if _, taken := s.items[it.ID]; taken {
			return detailErr(http.StatusInternalServerError, "Duplicate entry for item "+it.ID)
		}
		it.Normalize()
		s.items[it.ID] = &itemRow{item: it, seq: s.nextSeq()}
		return c.JSON(http.StatusOK, map[string]string{"message": "Item created successfully"})
	}
}

func updateItem(s *Server) echo.HandlerFunc {
	return func(c echo.Context) error {
		var it model.Item
		if err := c.Bind(&it); err != nil {
			return validationErr("body", "invalid body")
		}
		s.mu.Lock()
		defer s.mu.Unlock()
		b, err := s.ownedBoardLocked(c)
		if err != nil {
			return detailErr(http.StatusForbidden, "Not authorized")
		}
		row, ok := s.items[c.Param("item_id")]
		if !ok || !s.stageOnBoardLocked(b.id, row.item.StageID) {
			return detailErr(http.StatusForbidden, "Not authorized")
		}
		it.ID = row.item.ID
		row.item = it.Clone()
		return c.JSON(http.StatusOK, map[string]string{"message": "Item updated successfully"})
	}
}

func deleteItem(s *Server) echo.HandlerFunc {
	return func(c echo.Context) error {
		s.mu.Lock()
		defer s.mu.Unlock()
		b, err := s.ownedBoardLocked(c)
		if err != nil {
			return detailErr(http.StatusForbidden, "Not authorized")
		}
		row, ok := s.items[c.Param("item_id")]
		if !ok || !s.stageOnBoardLocked(b.id, row.item.StageID) {
			return detailErr(http.StatusNotFound, "Item not found")
		}
		delete(s.items, row.item.ID)
		return c.JSON(http.StatusOK, map[string]string{"message": "Item deleted successfully"})
	}
}

func uploadFile(s *Server) echo.HandlerFunc {
	return func(c echo.Context) error {
		fh, err := c.FormFile("file")
		if err != nil {
			return validationErr("file", "field required")
		}
		f, err := fh.Open()
		if err != nil {
			return err
		}
		defer f.Close()
		b, err := io.ReadAll(f)
		if err != nil {
			return err
		}
		path := "/files/" + c.Param("id") + "/" + fh.Filename
		s.mu.Lock()
		s.uploads[path] = b
		s.mu.Unlock()
		return c.JSON(http.StatusOK, model.FileRef{Name: fh.Filename, URL: s.URL + path})
	}
}

func downloadFile(s *Server) echo.HandlerFunc {
	return func(c echo.Context) error {
		b, ok := s.Upload("/files/" + c.Param("item") + "/" + c.Param("name"))
		if !ok {
			return detailErr(http.StatusNotFound, "File not found")
		}
		return c.Blob(http.StatusOK, "application/octet-stream", b)
	}
}

func suggestedMatches(s *Server) echo.HandlerFunc {
	return func(c echo.Context) error {
		me := currentUser(c)
		s.mu.Lock()
		defer s.mu.Unlock()
		mine := map[string]bool{}
		for _, in := range me.Interests {
			mine[in] = true
		}
		var ids []string
		for _, a := range s.accounts {
			if a.user.ID != me.ID {
				ids = append(ids, a.user.ID)
			}
		}
		sort.Strings(ids)
		out := make([]model.MatchSuggestion, 0, len(ids))
		for _, id := range ids {
			u := s.userLocked(id)
			common := []string{}
			for _, in := range u.Interests {
				if mine[in] {
					common = append(common, in)
				}
			}
			diff := me.Age - u.Age
			if diff < 0 {
				diff = -diff
			}
			m := model.MatchSuggestion{
				ID:              u.ID,
				Name:            u.Name,
				Email:           u.Email,
				Location:        u.Location,
				CommonInterests: common,
				WithinAgeRange:  diff <= 5,
				SameLocation:    strings.EqualFold(me.Location, u.Location),
			}
			m.MatchScore = float64(len(common))
			if m.WithinAgeRange {
				m.MatchScore++
			}
			if m.SameLocation {
				m.MatchScore++
			}
			out = append(out, m)
		}
		sort.SliceStable(out, func(i, j int) bool { return out[i].MatchScore > out[j].MatchScore })
		return c.JSON(http.StatusOK, out)
	}
}

func (s *Server) userLocked(id string) model.User {
	for _, a := range s.accounts {
		if a.user.ID == id {
			return a.user
		}
	}
	return model.User{}
}

func (s *Server) usersLocked(pred func(model.User) bool) []model.User {
	out := []model.User{}
	for _, a := range s.accounts {
		if pred(a.user) {
			out = append(out, a.user)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}

func oppositeRole(s *Server) echo.HandlerFunc {
	return func(c echo.Context) error {
		want := currentUser(c).Role.Opposite()
		s.mu.Lock()
		defer s.mu.Unlock()
		return c.JSON(http.StatusOK, s.usersLocked(func(u model.User) bool { return u.Role == want }))
	}
}

func getUser(s *Server) echo.HandlerFunc {
	return func(c echo.Context) error {
		s.mu.Lock()
		defer s.mu.Unlock()
		u := s.userLocked(c.Param("id"))
		if u.ID == "" {
			return detailErr(http.StatusNotFound, "User not found")
		}
		return c.JSON(http.StatusOK, u)
	}
}

func createDiscipleship(s *Server) echo.HandlerFunc {
	return func(c echo.Context) error {
		var in model.Discipleship
		if err := c.Bind(&in); err != nil || in.DisciplerID == "" || in.DiscipleID == "" {
			return validationErr("discipler_id", "field required")
		}
		s.mu.Lock()
		defer s.mu.Unlock()
		in.ID = "disc_" + uuid.NewString()
		s.links = append(s.links, in)
		return c.JSON(http.StatusOK, map[string]string{"message": "Discipleship relationship created"})
	}
}

func disciples(s *Server) echo.HandlerFunc {
	return func(c echo.Context) error {
		id := c.Param("id")
		s.mu.Lock()
		defer s.mu.Unlock()
		linked := map[string]bool{}
		for _, l := range s.links {
			if l.DisciplerID == id {
				linked[l.DiscipleID] = true
			}
		}
		return c.JSON(http.StatusOK, s.usersLocked(func(u model.User) bool { return linked[u.ID] }))
	}
}

func discipler(s *Server) echo.HandlerFunc {
	return func(c echo.Context) error {
		id := c.Param("id")
		s.mu.Lock()
		defer s.mu.Unlock()
		for _, l := range s.links {
			if l.DiscipleID == id {
				return c.JSON(http.StatusOK, s.userLocked(l.DisciplerID))
			}
		}
		return c.JSONBlob(http.StatusOK, []byte("null"))
	}
}
