package apiclient

import (
	"context"
	"errors"
	"net/http"

	"github.com/md-rashed-zaman/groombook/libs/grooming"
)

var ErrNoAccessToken = errors.New("login response carried no access token")

func (c *Client) Register(ctx context.Context, reg grooming.Registration) error {
	return c.do(ctx, http.MethodPost, pathRegister, nil, reg, nil)
}

// Login exchanges credentials for an access token.
func (c *Client) Login(ctx context.Context, creds grooming.Credentials) (string, error) {
	var resp grooming.LoginResponse
	if err := c.do(ctx, http.MethodPost, pathLogin, nil, creds, &resp); err != nil {
		return "", err
	}
	if resp.AccessToken == "" {
		return "", ErrNoAccessToken
	}
	return resp.AccessToken, nil
}

// Me returns the profile of the token's owner.
func (c *Client) Me(ctx context.Context) (*grooming.User, error) {
	var u grooming.User
	if err := c.do(ctx, http.MethodGet, pathMe, nil, nil, &u); err != nil {
		return nil, err
	}
	return &u, nil
}
