// Package franz talks to the upstream Franz directory and account API. It is
// only reachable when federation (CONNECT_WITH_FRANZ) is enabled; every call
// carries a bounded timeout because the upstream is not under our control.
package franz

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"
)

// The upstream rejects unknown clients, so requests present the desktop
// client's user agent.
const userAgent = "Mozilla/5.0 (Macintosh; Intel Mac OS X 10_14_6) AppleWebKit/537.36 (KHTML, like Gecko) Ferdi/5.3.0-beta.1 Chrome/69.0.3497.128 Electron/4.2.4 Safari/537.36"

const loginSuccessMessage = "Successfully logged in"

// ErrLoginRejected means the upstream answered but did not accept the
// supplied credentials.
var ErrLoginRejected = errors.New("franz: login rejected")

type Client struct {
	baseURL    string
	httpClient *http.Client
}

// NewClient builds a client for the given API root, e.g.
// "https://api.franzinfra.com/v1/".
func NewClient(baseURL string) *Client {
	if !strings.HasSuffix(baseURL, "/") {
		baseURL += "/"
	}
	return &Client{
		baseURL:    baseURL,
		httpClient: &http.Client{Timeout: 10 * time.Second},
	}
}

func (c *Client) get(ctx context.Context, route string, bearer string, out any) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+route, nil)
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	req.Header.Set("User-Agent", userAgent)
	if bearer != "" {
		req.Header.Set("Authorization", "Bearer "+bearer)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("failed to reach franz API: %w", err)
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("failed to read response: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("franz API returned error: %s, status code: %d", string(data), resp.StatusCode)
	}
	if err := json.Unmarshal(data, out); err != nil {
		return fmt.Errorf("failed to parse response: %w", err)
	}
	return nil
}

type loginResponse struct {
	Message string `json:"message"`
	Token   string `json:"token"`
}

// Login exchanges the email plus the legacy sha256 password digest for a
// bearer token.
func (c *Client) Login(ctx context.Context, email string, passwordDigest string) (string, error) {
	body, err := json.Marshal(map[string]any{"isZendeskLogin": false})
	if err != nil {
		return "", err
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"auth/login", bytes.NewReader(body))
	if err != nil {
		return "", fmt.Errorf("failed to create request: %w", err)
	}
	basicToken := base64.StdEncoding.EncodeToString([]byte(email + ":" + passwordDigest))
	req.Header.Set("Authorization", "Basic "+basicToken)
	req.Header.Set("User-Agent", userAgent)
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "*/*")
	req.Header.Set("x-franz-source", "Web")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("failed to reach franz API: %w", err)
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", fmt.Errorf("failed to read response: %w", err)
	}

	var content loginResponse
	if err := json.Unmarshal(data, &content); err != nil {
		return "", fmt.Errorf("failed to parse response: %w", err)
	}
	if content.Message != loginSuccessMessage {
		return "", ErrLoginRejected
	}
	return content.Token, nil
}

// Profile is the subset of the upstream account we import.
type Profile struct {
	Email     string `json:"email"`
	Firstname string `json:"firstname"`
	Lastname  string `json:"lastname"`
}

func (c *Client) Me(ctx context.Context, token string) (*Profile, error) {
	var profile Profile
	if err := c.get(ctx, "me", token, &profile); err != nil {
		return nil, err
	}
	if profile.Email == "" {
		return nil, errors.New("franz: empty profile")
	}
	return &profile, nil
}

// FlexID tolerates upstream identifiers arriving as either JSON strings or
// numbers.
type FlexID string

func (f *FlexID) UnmarshalJSON(data []byte) error {
	var s string
	if err := json.Unmarshal(data, &s); err == nil {
		*f = FlexID(s)
		return nil
	}
	var n json.Number
	if err := json.Unmarshal(data, &n); err != nil {
		return err
	}
	*f = FlexID(n.String())
	return nil
}

// RemoteService is one upstream service. Raw keeps the complete object so an
// import can persist it verbatim as the settings blob.
type RemoteService struct {
	ID       FlexID `json:"id"`
	Name     string `json:"name"`
	RecipeID string `json:"recipeId"`

	Raw json.RawMessage `json:"-"`
}

func (c *Client) Services(ctx context.Context, token string) ([]RemoteService, error) {
	var raw []json.RawMessage
	if err := c.get(ctx, "me/services", token, &raw); err != nil {
		return nil, err
	}
	services := make([]RemoteService, 0, len(raw))
	for _, entry := range raw {
		var service RemoteService
		if err := json.Unmarshal(entry, &service); err != nil {
			return nil, fmt.Errorf("failed to parse service: %w", err)
		}
		service.Raw = entry
		services = append(services, service)
	}
	return services, nil
}

// RemoteWorkspace is one upstream workspace.
type RemoteWorkspace struct {
	Name     string   `json:"name"`
	Order    int      `json:"order"`
	Services []FlexID `json:"services"`
}

func (c *Client) Workspaces(ctx context.Context, token string) ([]RemoteWorkspace, error) {
	var workspaces []RemoteWorkspace
	if err := c.get(ctx, "workspace", token, &workspaces); err != nil {
		return nil, err
	}
	return workspaces, nil
}

// Recipes fetches the upstream public recipe catalog.
func (c *Client) Recipes(ctx context.Context) ([]map[string]any, error) {
	var recipes []map[string]any
	if err := c.get(ctx, "recipes", "", &recipes); err != nil {
		return nil, err
	}
	return recipes, nil
}

func (c *Client) SearchRecipes(ctx context.Context, needle string) ([]map[string]any, error) {
	var recipes []map[string]any
	route := "recipes/search?needle=" + url.QueryEscape(needle)
	if err := c.get(ctx, route, "", &recipes); err != nil {
		return nil, err
	}
	return recipes, nil
}

// DownloadURL is where a client is redirected for an upstream recipe bundle.
func (c *Client) DownloadURL(recipeID string) string {
	return c.baseURL + "recipes/download/" + url.PathEscape(recipeID)
}
