package api

import (
	"context"
	"fmt"
	"net/http"

	"journey-cli/internal/model"
)

// SuggestedMatches returns the server-ranked suggestions, order preserved.
func (c *Client) SuggestedMatches(ctx context.Context) ([]model.MatchSuggestion, error) {
	var out []model.MatchSuggestion
	err := c.do(ctx, request{
		method: http.MethodGet,
		route:  "/users/suggested-matches",
		path:   "/users/suggested-matches",
		out:    &out,
	})
	if err != nil {
		return nil, err
	}
	for i := range out {
		if err := out[i].Validate(); err != nil {
			return nil, fmt.Errorf("%w: matches[%d]: %v", ErrMalformed, i, err)
		}
		if out[i].CommonInterests == nil {
			out[i].CommonInterests = []string{}
		}
	}
	if out == nil {
		out = []model.MatchSuggestion{}
	}
	return out, nil
}

func (c *Client) OppositeRoleUsers(ctx context.Context) ([]model.User, error) {
	return c.users(ctx, "/users/opposite-role", "/users/opposite-role")
}

func (c *Client) GetUser(ctx context.Context, id string) (model.User, error) {
	var out model.User
	err := c.do(ctx, request{
		method: http.MethodGet,
		route:  "/users/users/{id}",
		path:   "/users/users/" + esc(id),
		out:    &out,
	})
	if err != nil {
		return model.User{}, err
	}
	if err := out.Validate(); err != nil {
		return model.User{}, fmt.Errorf("%w: user: %v", ErrMalformed, err)
	}
	return out, nil
}

// UserBoards lists the boards owned by userID, newest first.
func (c *Client) UserBoards(ctx context.Context, userID string) ([]model.BoardSummary, error) {
	var out []model.BoardSummary
	err := c.do(ctx, request{
		method: http.MethodGet,
		route:  "/users/{id}/boards",
		path:   "/users/" + esc(userID) + "/boards",
		out:    &out,
	})
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

func (c *Client) CreateDiscipleship(ctx context.Context, disciplerID, discipleID string) error {
	return c.do(ctx, request{
		method: http.MethodPost,
		route:  "/users/discipleship",
		path:   "/users/discipleship",
		body:   model.Discipleship{DisciplerID: disciplerID, DiscipleID: discipleID},
	})
}

func (c *Client) Disciples(ctx context.Context, disciplerID string) ([]model.User, error) {
	return c.users(ctx, "/users/discipler/{id}/disciples", "/users/discipler/"+esc(disciplerID)+"/disciples")
}

// Discipler returns nil when the disciple has none.
func (c *Client) Discipler(ctx context.Context, discipleID string) (*model.User, error) {
	var out *model.User
	err := c.do(ctx, request{
		method: http.MethodGet,
		route:  "/users/disciple/{id}/discipler",
		path:   "/users/disciple/" + esc(discipleID) + "/discipler",
		out:    &out,
	})
	if err != nil {
		return nil, err
	}
	if out != nil {
		if err := out.Validate(); err != nil {
			return nil, fmt.Errorf("%w: discipler: %v", ErrMalformed, err)
		}
	}
	return out, nil
}

func (c *Client) users(ctx context.Context, route, path string) ([]model.User, error) {
	var out []model.User
	if err := c.do(ctx, request{method: http.MethodGet, route: route, path: path, out: &out}); err != nil {
		return nil, err
	}
	for i := range out {
		if err := out[i].Validate(); err != nil {
			return nil, fmt.Errorf("%w: users[%d]: %v", ErrMalformed, i, err)
		}
	}
	if out == nil {
		out = []model.User{}
	}
	return out, nil
}
