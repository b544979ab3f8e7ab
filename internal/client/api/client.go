// Package api is the client for the checador HTTP API. Every call reports a
// tagged Outcome so callers can tell an explicit server rejection apart from
// a server that could not be reached.
package api

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"
)

// Outcome classifies the result of a remote call.
type Outcome int

const (
	// OutcomeOK means the server answered and accepted the request.
	OutcomeOK Outcome = iota
	// OutcomeRejected means the server answered with an explicit refusal.
	OutcomeRejected
	// OutcomeUnreachable means no definitive answer: network error, timeout,
	// throttling, server fault or a body the API did not produce.
	OutcomeUnreachable
)

func (o Outcome) String() string {
	switch o {
	case OutcomeOK:
		return "ok"
	case OutcomeRejected:
		return "rejected"
	default:
		return "unreachable"
	}
}

// ErrUnreachable is wrapped by every error of OutcomeUnreachable.
var ErrUnreachable = errors.New("remote api unreachable")

// RejectedError is an explicit refusal from the server.
type RejectedError struct {
	StatusCode int
	Reason     string
	Message    string
	Distance   *float64
}

func (e *RejectedError) Error() string {
	return e.Message
}

// OutcomeOf classifies err as returned by Client methods.
func OutcomeOf(err error) Outcome {
	if err == nil {
		return OutcomeOK
	}
	var rej *RejectedError
	if errors.As(err, &rej) {
		return OutcomeRejected
	}
	return OutcomeUnreachable
}

// Client talks to the API below baseURL, e.g. http://localhost:8080/api.
type Client struct {
	baseURL    string
	httpClient *http.Client
}

// NewClient creates a client whose calls give up after timeout.
func NewClient(baseURL string, timeout time.Duration) *Client {
	return &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		httpClient: &http.Client{
			Timeout: timeout,
		},
	}
}

// envelope covers both the message bodies and ErrorResponse.
type envelope struct {
	Message  string   `json:"message"`
	Reason   string   `json:"reason"`
	Error    string   `json:"error"`
	Code     string   `json:"code"`
	Distance *float64 `json:"distance"`
}

// Login posts credentials. A 200 with success=false is a rejection.
func (c *Client) Login(ctx context.Context, username, password string) (*LoginResponse, error) {
	var out LoginResponse
	if err := c.do(ctx, http.MethodPost, "/auth/login", "", LoginRequest{Username: username, Password: password}, &out); err != nil {
		return nil, err
	}
	if !out.Success {
		return nil, &RejectedError{StatusCode: http.StatusOK, Reason: out.Reason, Message: out.Message}
	}
	return &out, nil
}

// Logout revokes token on the server.
func (c *Client) Logout(ctx context.Context, token string) error {
	return c.do(ctx, http.MethodPost, "/auth/logout", token, nil, nil)
}

// GetUser fetches the identity snapshot of id.
func (c *Client) GetUser(ctx context.Context, token string, id uint) (*Identity, error) {
	var out Identity
	if err := c.do(ctx, http.MethodGet, fmt.Sprintf("/users/%d", id), token, nil, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// RegisterAttendance submits today's attendance. Business rejections come
// back as *RejectedError carrying the reason and, when computed, the distance.
func (c *Client) RegisterAttendance(ctx context.Context, token string, req AttendanceRequest) (*AttendanceResponse, error) {
	var out AttendanceResponse
	if err := c.do(ctx, http.MethodPost, "/attendance/register", token, req, &out); err != nil {
		return nil, err
	}
	if !out.Success {
		return nil, &RejectedError{
			StatusCode: http.StatusOK,
			Reason:     out.Reason,
			Message:    out.Message,
			Distance:   out.Distance,
		}
	}
	return &out, nil
}

// ListUserAttendance returns the attendance history of userID, newest first.
func (c *Client) ListUserAttendance(ctx context.Context, token string, userID uint) ([]AttendanceEvent, error) {
	var out []AttendanceEvent
	if err := c.do(ctx, http.MethodGet, fmt.Sprintf("/attendance/user/%d", userID), token, nil, &out); err != nil {
		return nil, err
	}
	return out, nil
}

// ListToday returns today's attendance of every user. Admin only.
func (c *Client) ListToday(ctx context.Context, token string) ([]AttendanceEvent, error) {
	var out []AttendanceEvent
	if err := c.do(ctx, http.MethodGet, "/attendance/today", token, nil, &out); err != nil {
		return nil, err
	}
	return out, nil
}

func (c *Client) do(ctx context.Context, method, path, token string, in, out interface{}) error {
	var body io.Reader
	if in != nil {
		payload, err := json.Marshal(in)
		if err != nil {
			return fmt.Errorf("marshal request: %w", err)
		}
		body = bytes.NewReader(payload)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, body)
	if err != nil {
		return fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	if in != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("%w: %s %s: %v", ErrUnreachable, method, path, err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("%w: read response body: %v", ErrUnreachable, err)
	}

	switch status := resp.StatusCode; {
	case status == http.StatusOK:
	case transient(status):
		return fmt.Errorf("%w: unexpected status %d", ErrUnreachable, status)
	default:
		return rejected(status, respBody)
	}

	if out == nil {
		return nil
	}
	if err := json.Unmarshal(respBody, out); err != nil {
		return fmt.Errorf("%w: decode response: %v", ErrUnreachable, err)
	}
	return nil
}

// transient reports statuses that carry no answer from the API itself.
func transient(status int) bool {
	switch {
	case status == http.StatusRequestTimeout, status == http.StatusTooManyRequests:
		return true
	case status < http.StatusBadRequest, status >= http.StatusInternalServerError:
		return true
	}
	return false
}

// rejected turns a 4xx body into a RejectedError. A body that is not one of
// the API's JSON envelopes came from something in between, so the API is
// treated as unreachable.
func rejected(status int, body []byte) error {
	var env envelope
	if err := json.Unmarshal(body, &env); err != nil {
		return fmt.Errorf("%w: status %d with undecodable body: %v", ErrUnreachable, status, err)
	}
	if env.Message == "" && env.Error == "" && env.Code == "" && env.Reason == "" {
		return fmt.Errorf("%w: status %d without an api envelope", ErrUnreachable, status)
	}

	rej := &RejectedError{
		StatusCode: status,
		Reason:     env.Reason,
		Message:    env.Message,
		Distance:   env.Distance,
	}
	if rej.Reason == "" {
		rej.Reason = env.Code
	}
	if rej.Message == "" {
		rej.Message = env.Error
	}
	if rej.Message == "" {
		rej.Message = http.StatusText(status)
	}
	return rej
}
