// Package api is the REST client used by the gabgate CLI.
package api

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"
)

const (
	defaultTimeout = 10 * time.Second
	clientHeader   = "client"
)

// ErrUnauthorized matches any 401 response.
var ErrUnauthorized = errors.New("unauthorized")

// Error is a non-2xx response carrying the server's message.
type Error struct {
	StatusCode int
	Message    string
}

func (e *Error) Error() string {
	return fmt.Sprintf("server returned %d: %s", e.StatusCode, e.Message)
}

// Is matches ErrUnauthorized for 401 responses.
func (e *Error) Is(target error) bool {
	return target == ErrUnauthorized && e.StatusCode == http.StatusUnauthorized
}

// User mirrors the server's user representation.
type User struct {
	ID       int64    `json:"id"`
	Email    string   `json:"email"`
	Username string   `json:"username"`
	Friends  []string `json:"friends"`
}

// FriendStatus is one row of the online friends listing.
type FriendStatus struct {
	Username string `json:"username"`
	Online   bool   `json:"online"`
}

type authResponse struct {
	User  User   `json:"user"`
	Token string `json:"token"`
}

type errorBody struct {
	Error string `json:"error"`
}

// Client talks to the gabgate REST API.
type Client struct {
	baseURL    string
	clientType string
	token      string
	http       *http.Client
}

// New creates a client for baseURL identifying itself as clientType.
func New(baseURL, clientType string) *Client {
	return &Client{
		baseURL:    strings.TrimRight(baseURL, "/"),
		clientType: clientType,
		http:       &http.Client{Timeout: defaultTimeout},
	}
}

// WithToken returns a copy that sends the bearer token.
func (c *Client) WithToken(token string) *Client {
	cp := *c
	cp.token = token
	return &cp
}

// Register creates an account and returns the user with a fresh token.
func (c *Client) Register(ctx context.Context, email, username, password string) (*User, string, error) {
	payload := map[string]any{
		"user": map[string]string{"email": email, "username": username, "password": password},
	}
	var resp authResponse
	if err := c.do(ctx, http.MethodPost, "/auth/register", payload, &resp); err != nil {
		return nil, "", err
	}
	return &resp.User, resp.Token, nil
}

// Login exchanges credentials for a token.
func (c *Client) Login(ctx context.Context, email, password string) (*User, string, error) {
	payload := map[string]string{"email": email, "password": password}
	var resp authResponse
	if err := c.do(ctx, http.MethodPost, "/auth/login", payload, &resp); err != nil {
		return nil, "", err
	}
	return &resp.User, resp.Token, nil
}

// UserByUsername looks up a user by exact username.
func (c *Client) UserByUsername(ctx context.Context, username string) (*User, error) {
	var users []User
	if err := c.do(ctx, http.MethodGet, "/users?username="+url.QueryEscape(username), nil, &users); err != nil {
		return nil, err
	}
	if len(users) == 0 {
		return nil, &Error{StatusCode: http.StatusNotFound, Message: "User not found!"}
	}
	return &users[0], nil
}

// User fetches a user by id.
func (c *Client) User(ctx context.Context, id int64) (*User, error) {
	var u User
	if err := c.do(ctx, http.MethodGet, "/users/"+strconv.FormatInt(id, 10), nil, &u); err != nil {
		return nil, err
	}
	return &u, nil
}

// AddFriend adds friendID and returns the caller's updated profile.
func (c *Client) AddFriend(ctx context.Context, friendID int64) (*User, error) {
	var u User
	if err := c.do(ctx, http.MethodPost, "/friends/"+strconv.FormatInt(friendID, 10), nil, &u); err != nil {
		return nil, err
	}
	return &u, nil
}

// RemoveFriend removes friendID and returns the caller's updated profile.
func (c *Client) RemoveFriend(ctx context.Context, friendID int64) (*User, error) {
	var u User
	if err := c.do(ctx, http.MethodDelete, "/friends/"+strconv.FormatInt(friendID, 10), nil, &u); err != nil {
		return nil, err
	}
	return &u, nil
}

// OnlineFriends lists the caller's friends with their presence.
func (c *Client) OnlineFriends(ctx context.Context) ([]FriendStatus, error) {
	var statuses []FriendStatus
	if err := c.do(ctx, http.MethodGet, "/friends/online", nil, &statuses); err != nil {
		return nil, err
	}
	return statuses, nil
}

func (c *Client) do(ctx context.Context, method, path string, payload, out any) error {
	var body io.Reader
	if payload != nil {
		buf, err := json.Marshal(payload)
		if err != nil {
			return fmt.Errorf("encode request: %w", err)
		}
		body = bytes.NewReader(buf)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, body)
	if err != nil {
		return err
	}
	if payload != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if c.clientType != "" {
		req.Header.Set(clientHeader, c.clientType)
	}
	if c.token != "" {
		req.Header.Set("Authorization", "Bearer "+c.token)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("%s %s: %w", method, path, err)
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("read response: %w", err)
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return &Error{StatusCode: resp.StatusCode, Message: errorMessage(data)}
	}
	if out == nil || len(data) == 0 {
		return nil
	}
	if err := json.Unmarshal(data, out); err != nil {
		return fmt.Errorf("decode response: %w", err)
	}
	return nil
}

func errorMessage(data []byte) string {
	var parsed errorBody
	if err := json.Unmarshal(data, &parsed); err == nil && parsed.Error != "" {
		return parsed.Error
	}
	if msg := strings.TrimSpace(string(data)); msg != "" {
		return msg
	}
	return "request failed"
}

// Message extracts a user-facing message from err when the server supplied one.
func Message(err error) (string, bool) {
	var apiErr *Error
	if errors.As(err, &apiErr) {
		return apiErr.Message, true
	}
	return "", false
}
