package api

import (
	"context"
	"net/http"

	"studynotes-dashboard/internal/models"
)

// Register creates an account. Backends that sign the user in right away
// return tokens, which are stored as with Login.
func (c *Client) Register(ctx context.Context, req models.RegisterRequest) (*models.AuthTokens, error) {
	var tokens models.AuthTokens
	if err := c.do(ctx, http.MethodPost, "/auth/register", req, &tokens); err != nil {
		return nil, err
	}
	if tokens.AccessToken != "" {
		if err := c.SetToken(tokens); err != nil {
			return nil, err
		}
	}
	return &tokens, nil
}

func (c *Client) Login(ctx context.Context, req models.LoginRequest) (*models.AuthTokens, error) {
	var tokens models.AuthTokens
	if err := c.do(ctx, http.MethodPost, "/auth/login", req, &tokens); err != nil {
		return nil, err
	}
	if err := c.SetToken(tokens); err != nil {
		return nil, err
	}
	return &tokens, nil
}

// Logout clears the local token whether or not the backend call succeeds.
func (c *Client) Logout(ctx context.Context) error {
	defer c.ClearToken()
	if !c.IsAuthenticated() {
		return nil
	}
	return c.do(ctx, http.MethodPost, "/auth/logout", nil, nil)
}

func (c *Client) GetMe(ctx context.Context) (*models.User, error) {
	var u models.User
	if err := c.do(ctx, http.MethodGet, "/users/me", nil, &u); err != nil {
		return nil, err
	}
	c.rememberUser(&u)
	return &u, nil
}

func (c *Client) UpdateMe(ctx context.Context, req models.UpdateProfileRequest) (*models.User, error) {
	var u models.User
	if err := c.do(ctx, http.MethodPut, "/users/me", req, &u); err != nil {
		return nil, err
	}
	c.rememberUser(&u)
	return &u, nil
}

func (c *Client) DeleteMe(ctx context.Context) error {
	if err := c.do(ctx, http.MethodDelete, "/users/me", nil, nil); err != nil {
		return err
	}
	c.ClearToken()
	return nil
}
