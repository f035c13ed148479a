package api

import (
	"context"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"net/url"
	"sort"

	"journey-cli/internal/model"
)

func esc(id string) string { return url.PathEscape(id) }

func (c *Client) ListBoards(ctx context.Context) ([]model.BoardSummary, error) {
	var out []model.BoardSummary
	err := c.do(ctx, request{method: http.MethodGet, route: "/boards/", path: "/boards/", out: &out})
	if err != nil {
		return nil, err
	}
	for i := range out {
		if err := out[i].Validate(); err != nil {
			return nil, fmt.Errorf("%w: boards[%d]: %v", ErrMalformed, i, err)
		}
	}
	if out == nil {
		out = []model.BoardSummary{}
	}
	return out, nil
}

// CreateBoard returns the id the server assigned.
func (c *Client) CreateBoard(ctx context.Context, title, userID string) (string, error) {
	var out struct {
		ID string `json:"id"`
	}
	err := c.do(ctx, request{
		method: http.MethodPost,
		route:  "/boards/",
		path:   "/boards/",
		body:   map[string]string{"title": title, "user_id": userID},
		out:    &out,
	})
	if err != nil {
		return "", err
	}
	return out.ID, nil
}

type boardResponse struct {
	Stages map[string]model.Stage `json:"stages"`
}

// GetBoard returns the board's stages in identifier order; ordering for display is the
// caller's concern. Every item is normalized and validated.
func (c *Client) GetBoard(ctx context.Context, boardID string) ([]model.Stage, error) {
	var out boardResponse
	err := c.do(ctx, request{
		method: http.MethodGet,
		route:  "/boards/{id}",
		path:   "/boards/" + esc(boardID),
		out:    &out,
	})
	if err != nil {
		return nil, err
	}
	stages := make([]model.Stage, 0, len(out.Stages))
	for key, st := range out.Stages {
		if st.ID == "" {
			st.ID = key
		}
		if st.BoardID == "" {
			st.BoardID = boardID
		}
		if st.Items == nil {
			st.Items = []model.Item{}
		}
		for i := range st.Items {
			if st.Items[i].StageID == "" {
				st.Items[i].StageID = st.ID
			}
			st.Items[i].Normalize()
		}
		if err := st.Validate(); err != nil {
			return nil, fmt.Errorf("%w: stage %q: %v", ErrMalformed, key, err)
		}
		stages = append(stages, st)
	}
	sort.Slice(stages, func(i, j int) bool { return stages[i].ID < stages[j].ID })
	return stages, nil
}

type NewStage struct {
	ID      string `json:"id"`
	Title   string `json:"title"`
	BoardID string `json:"board_id"`
}

func (c *Client) CreateStage(ctx context.Context, s NewStage) (model.Stage, error) {
	var out model.Stage
	err := c.do(ctx, request{
		method: http.MethodPost,
		route:  "/boards/{id}/stages",
		path:   "/boards/" + esc(s.BoardID) + "/stages",
		body:   s,
		out:    &out,
	})
	if err != nil {
		return model.Stage{}, err
	}
	if out.ID == "" {
		out.ID = s.ID
	}
	if out.Items == nil {
		out.Items = []model.Item{}
	}
	return out, nil
}

func (c *Client) DeleteStage(ctx context.Context, boardID, stageID string) error {
	return c.do(ctx, request{
		method: http.MethodDelete,
		route:  "/boards/{id}/stages/{stage_id}",
		path:   "/boards/" + esc(boardID) + "/stages/" + esc(stageID),
	})
}

type NewItem struct {
	ID      string `json:"id"`
	Content string `json:"content"`
	StageID string `json:"stage_id"`
}

func (c *Client) CreateItem(ctx context.Context, boardID string, it NewItem) error {
	return c.do(ctx, request{
		method: http.MethodPost,
		route:  "/boards/{id}/items",
		path:   "/boards/" + esc(boardID) + "/items",
		body:   it,
	})
}

// UpdateItem sends the full record; the server replaces every field.
func (c *Client) UpdateItem(ctx context.Context, boardID string, it model.Item) error {
	it.Normalize()
	if err := it.Validate(); err != nil {
		return err
	}
	return c.do(ctx, request{
		method: http.MethodPut,
		route:  "/boards/{id}/items/{item_id}",
		path:   "/boards/" + esc(boardID) + "/items/" + esc(it.ID),
		body:   it,
	})
}

func (c *Client) DeleteItem(ctx context.Context, boardID, itemID string) error {
	return c.do(ctx, request{
		method: http.MethodDelete,
		route:  "/boards/{id}/items/{item_id}",
		path:   "/boards/" + esc(boardID) + "/items/" + esc(itemID),
	})
}

// UploadFile streams r as the "file" part of a multipart form and returns the stored reference.
func (c *Client) UploadFile(ctx context.Context, itemID, name string, r io.Reader) (model.FileRef, error) {
	pr, pw := io.Pipe()
	mw := multipart.NewWriter(pw)
	go func() {
		part, err := mw.CreateFormFile("file", name)
		if err == nil {
			_, err = io.Copy(part, r)
		}
		if err == nil {
			err = mw.Close()
		}
		pw.CloseWithError(err)
	}()

	var out model.FileRef
	err := c.do(ctx, request{
		method:      http.MethodPost,
		route:       "/items/{id}/files",
		path:        "/items/" + esc(itemID) + "/files",
		raw:         pr,
		contentType: mw.FormDataContentType(),
		out:         &out,
	})
	// Unblocks the writer goroutine when the request ended before the body was drained.
	_ = pr.CloseWithError(io.ErrClosedPipe)
	if err != nil {
		return model.FileRef{}, err
	}
	if out.Name == "" {
		out.Name = name
	}
	if err := out.Validate(); err != nil {
		return model.FileRef{}, fmt.Errorf("%w: upload: %v", ErrMalformed, err)
	}
	return out, nil
}
