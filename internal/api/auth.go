package api

import (
	"context"
	"fmt"
	"net/http"
	"strings"

	"journey-cli/internal/model"
)

type LoginResult struct {
	AccessToken string     `json:"access_token"`
	TokenType   string     `json:"token_type"`
	User        model.User `json:"user"`
}

func (c *Client) Login(ctx context.Context, email, password string) (LoginResult, error) {
	var out LoginResult
	err := c.do(ctx, request{
		method: http.MethodPost,
		route:  "/auth/login",
		path:   "/auth/login",
		body:   map[string]string{"email": email, "password": password},
		out:    &out,
	})
	if err != nil {
		return LoginResult{}, err
	}
	if strings.TrimSpace(out.AccessToken) == "" {
		return LoginResult{}, fmt.Errorf("%w: login: missing access_token", ErrMalformed)
	}
	if err := out.User.Validate(); err != nil {
		return LoginResult{}, fmt.Errorf("%w: login: %v", ErrMalformed, err)
	}
	return out, nil
}

func (c *Client) Signup(ctx context.Context, u model.NewUser) (model.User, error) {
	var out model.User
	err := c.do(ctx, request{
		method: http.MethodPost,
		route:  "/auth/signup",
		path:   "/auth/signup",
		body:   u,
		out:    &out,
	})
	if err != nil {
		return model.User{}, err
	}
	if err := out.Validate(); err != nil {
		return model.User{}, fmt.Errorf("%w: signup: %v", ErrMalformed, err)
	}
	return out, nil
}
