package api

import (
	"context"
	"net/http"
	"strings"

	appErr "judgeview/pkg/errors"
)

// Login exchanges credentials for a bearer token. The client never stores or
// refreshes the token itself; that belongs to the caller's token provider.
func (c *Client) Login(ctx context.Context, username, password string) (*Token, error) {
	if strings.TrimSpace(username) == "" {
		return nil, appErr.ValidationError("username", "required")
	}
	if password == "" {
		return nil, appErr.ValidationError("password", "required")
	}

	var token Token
	err := c.doJSON(ctx, http.MethodPost, "/users/login", nil, UserLogin{Username: username, Password: password}, &token)
	if err != nil {
		if appErr.Is(err, appErr.Unauthorized) {
			return nil, appErr.New(appErr.InvalidCredentials)
		}
		return nil, err
	}
	return &token, nil
}

// Register creates a new account.
func (c *Client) Register(ctx context.Context, payload UserCreate) (*User, error) {
	if strings.TrimSpace(payload.Username) == "" {
		return nil, appErr.ValidationError("username", "required")
	}
	if strings.TrimSpace(payload.Email) == "" {
		return nil, appErr.ValidationError("email", "required")
	}
	if payload.Password == "" {
		return nil, appErr.ValidationError("password", "required")
	}

	var user User
	if err := c.doJSON(ctx, http.MethodPost, "/users/register", nil, payload, &user); err != nil {
		return nil, err
	}
	return &user, nil
}
