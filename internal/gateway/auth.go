package gateway

import (
	"context"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/taskdocs/agentic-web-ui/internal/models"
)

type tokenResponse struct {
	AccessToken string `json:"access_token"`
	TokenType   string `json:"token_type"`
}

type registerRequest struct {
	Username string `json:"username"`
	Email    string `json:"email"`
	Password string `json:"password"`
}

type userResponse struct {
	ID       int64  `json:"id"`
	Username string `json:"username"`
	Email    string `json:"email"`
}

// Login exchanges the credentials for a bearer token via the form-encoded token endpoint. No
// bearer header is attached; this call establishes the credential.
func (c *Client) Login(ctx context.Context, username, password string) (string, error) {
	form := url.Values{}
	form.Set("username", username)
	form.Set("password", password)

	req, err := http.NewRequestWithContext(ctx, http.MethodPost,
		c.baseURL+"/auth/token", strings.NewReader(form.Encode()))
	if err != nil {
		return "", err
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	var res tokenResponse
	if err := c.send("login", req, &res); err != nil {
		return "", err
	}
	return res.AccessToken, nil
}

// Register creates a new account and returns the bearer token the service issues for it.
func (c *Client) Register(ctx context.Context, user models.UserCreate) (string, error) {
	var res tokenResponse
	err := c.sendJSON(ctx, "register", http.MethodPost, "/auth/register", registerRequest{
		Username: user.Username,
		Email:    user.Email,
		Password: user.Password,
	}, &res)
	if err != nil {
		return "", err
	}
	return res.AccessToken, nil
}

// CurrentUser fetches the account behind the stored credential.
func (c *Client) CurrentUser(ctx context.Context) (models.User, error) {
	var res userResponse
	if err := c.getJSON(ctx, "current user", "/auth/me", &res); err != nil {
		return models.User{}, err
	}
	return models.User{ID: res.ID, Username: res.Username, Email: res.Email}, nil
}

// parseTime tolerates timestamps without an explicit zone, which the service emits for upload and
// response times.
func parseTime(s string) time.Time {
	for _, layout := range []string{time.RFC3339Nano, "2006-01-02T15:04:05.999999999"} {
		if t, err := time.Parse(layout, s); err == nil {
			return t
		}
	}
	return time.Time{}
}
