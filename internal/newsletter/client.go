// Package newsletter talks to the remote newsletter and blog API. Every call
// is a single attempt; subscriptions fall back to a local list when the
// backend cannot be reached.
package newsletter

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/andreasstove999/ecommerce-system/storefront-go/internal/logging"
	"github.com/andreasstove999/ecommerce-system/storefront-go/internal/storage"
	"github.com/go-playground/validator/v10"
)

const HeaderCorrelationID = "X-Correlation-Id"

const maxBody = 1 << 20

var (
	ErrInvalidEmail   = errors.New("newsletter: invalid email address")
	ErrInvalidMessage = errors.New("newsletter: subject and body are required")
	ErrNotConfigured  = errors.New("newsletter: backend url not configured")
)

// BackendError is a failed call: a transport error or a non-2xx answer.
type BackendError struct {
	Op      string
	Status  int
	Message string
	Err     error
}

func (e *BackendError) Error() string {
	switch {
	case e.Err != nil:
		return fmt.Sprintf("newsletter backend %s: %v", e.Op, e.Err)
	case e.Message != "":
		return fmt.Sprintf("newsletter backend %s: status %d: %s", e.Op, e.Status, e.Message)
	}
	return fmt.Sprintf("newsletter backend %s: status %d", e.Op, e.Status)
}

func (e *BackendError) Unwrap() error { return e.Err }

// Result is what the storefront shows after a call.
type Result struct {
	Message      string `json:"message"`
	SavedLocally bool   `json:"savedLocally,omitempty"`
}

type Message struct {
	Subject string `json:"subject"`
	Body    string `json:"body"`
}

type Subscriber struct {
	ID           string    `json:"id"`
	Email        string    `json:"email"`
	Active       bool      `json:"active"`
	SubscribedAt time.Time `json:"subscribedAt"`
}

type Like struct {
	Email   string    `json:"email"`
	LikedAt time.Time `json:"likedAt"`
}

type PostLikes struct {
	PostID string `json:"postId"`
	Count  int    `json:"count"`
	Likes  []Like `json:"likes"`
}

type Client struct {
	baseURL    *url.URL
	http       *http.Client
	adminToken string
	fallback   *localList
	logger     *slog.Logger
	validate   *validator.Validate
}

// NewClient builds a client for baseURL. An empty baseURL is allowed: every
// remote call then fails with ErrNotConfigured and subscriptions are kept
// locally.
func NewClient(baseURL string, httpClient *http.Client, adminToken string, fallback storage.Store, logger *slog.Logger) (*Client, error) {
	if httpClient == nil {
		httpClient = http.DefaultClient
	}
	if logger == nil {
		logger = slog.Default()
	}
	c := &Client{
		http:       httpClient,
		adminToken: adminToken,
		fallback:   &localList{port: fallback, logger: logger},
		logger:     logger,
		validate:   validator.New(),
	}
	if strings.TrimSpace(baseURL) != "" {
		u, err := url.Parse(baseURL)
		if err != nil {
			return nil, fmt.Errorf("invalid newsletter base url %q: %w", baseURL, err)
		}
		c.baseURL = u
	}
	return c, nil
}

func (c *Client) normalizeEmail(email string) (string, error) {
	email = strings.ToLower(strings.TrimSpace(email))
	if c.validate.Var(email, "required,email") != nil {
		return "", ErrInvalidEmail
	}
	return email, nil
}

// Subscribe registers email with the backend. When the backend fails the
// address is stored in the local list and the result reports SavedLocally.
func (c *Client) Subscribe(ctx context.Context, email string) (Result, error) {
	email, err := c.normalizeEmail(email)
	if err != nil {
		return Result{}, err
	}

	var res Result
	err = c.do(ctx, "subscribe", http.MethodPost, "/api/newsletter/subscribe", map[string]string{"email": email}, false, &res)
	if err == nil {
		if res.Message == "" {
			res.Message = "Subscribed successfully"
		}
		return res, nil
	}

	c.logger.WarnContext(ctx, "newsletter subscribe failed, saving locally", "error", err)
	if lerr := c.fallback.add(ctx, email); lerr != nil {
		return Result{}, errors.Join(err, lerr)
	}
	return Result{Message: "Subscribed locally, we will sync your subscription later", SavedLocally: true}, nil
}

// Unsubscribe removes email from the backend and from the local list.
func (c *Client) Unsubscribe(ctx context.Context, email string) (Result, error) {
	email, err := c.normalizeEmail(email)
	if err != nil {
		return Result{}, err
	}
	if lerr := c.fallback.remove(ctx, email); lerr != nil {
		c.logger.WarnContext(ctx, "remove local subscriber", "error", lerr)
	}

	var res Result
	if err := c.do(ctx, "unsubscribe", http.MethodPost, "/api/newsletter/unsubscribe", map[string]string{"email": email}, false, &res); err != nil {
		return Result{}, err
	}
	return res, nil
}

// Send mails a newsletter to every subscriber. Admin only.
func (c *Client) Send(ctx context.Context, msg Message) (Result, error) {
	msg.Subject = strings.TrimSpace(msg.Subject)
	msg.Body = strings.TrimSpace(msg.Body)
	if msg.Subject == "" || msg.Body == "" {
		return Result{}, ErrInvalidMessage
	}
	var res Result
	if err := c.do(ctx, "send", http.MethodPost, "/api/newsletter/send", msg, true, &res); err != nil {
		return Result{}, err
	}
	return res, nil
}

func (c *Client) Subscribers(ctx context.Context) ([]Subscriber, error) {
	var out []Subscriber
	if err := c.do(ctx, "list subscribers", http.MethodGet, "/api/newsletter/subscribers", nil, true, &out); err != nil {
		return nil, err
	}
	return out, nil
}

func (c *Client) Subscriber(ctx context.Context, id string) (Subscriber, error) {
	var out Subscriber
	if err := c.do(ctx, "get subscriber", http.MethodGet, "/api/newsletter/subscribers/"+url.PathEscape(id), nil, true, &out); err != nil {
		return Subscriber{}, err
	}
	return out, nil
}

func (c *Client) LikePost(ctx context.Context, postID, email string) (Result, error) {
	email, err := c.normalizeEmail(email)
	if err != nil {
		return Result{}, err
	}
	var res Result
	if err := c.do(ctx, "like post", http.MethodPost, "/api/blog/posts/"+url.PathEscape(postID)+"/like", map[string]string{"email": email}, false, &res); err != nil {
		return Result{}, err
	}
	return res, nil
}

func (c *Client) PostLikes(ctx context.Context, postID string) (PostLikes, error) {
	var out PostLikes
	if err := c.do(ctx, "post likes", http.MethodGet, "/api/blog/posts/"+url.PathEscape(postID)+"/likes", nil, false, &out); err != nil {
		return PostLikes{}, err
	}
	if out.PostID == "" {
		out.PostID = postID
	}
	if out.Count == 0 {
		out.Count = len(out.Likes)
	}
	return out, nil
}

// LocalSubscribers lists addresses saved while the backend was unavailable.
func (c *Client) LocalSubscribers(ctx context.Context) ([]string, error) {
	return c.fallback.list(ctx)
}

func (c *Client) do(ctx context.Context, op, method, path string, body any, admin bool, out any) error {
	if c.baseURL == nil {
		return &BackendError{Op: op, Err: ErrNotConfigured}
	}

	var reader io.Reader
	if body != nil {
		b, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("encode %s request: %w", op, err)
		}
		reader = bytes.NewReader(b)
	}

	u := c.baseURL.ResolveReference(&url.URL{Path: path})
	req, err := http.NewRequestWithContext(ctx, method, u.String(), reader)
	if err != nil {
		return &BackendError{Op: op, Err: err}
	}
	req.Header.Set("Accept", "application/json")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if cid := logging.CorrelationID(ctx); cid != "" {
		req.Header.Set(HeaderCorrelationID, cid)
	}
	if admin && c.adminToken != "" {
		req.Header.Set("Authorization", "Bearer "+c.adminToken)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return &BackendError{Op: op, Err: err}
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(io.LimitReader(resp.Body, maxBody))
	if err != nil {
		return &BackendError{Op: op, Status: resp.StatusCode, Err: err}
	}
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return &BackendError{Op: op, Status: resp.StatusCode, Message: errorMessage(raw)}
	}
	if out == nil || len(bytes.TrimSpace(raw)) == 0 {
		return nil
	}
	if err := json.Unmarshal(raw, out); err != nil {
		return &BackendError{Op: op, Status: resp.StatusCode, Err: fmt.Errorf("decode response: %w", err)}
	}
	return nil
}

func errorMessage(raw []byte) string {
	var body struct {
		Message string `json:"message"`
		Error   string `json:"error"`
	}
	if json.Unmarshal(raw, &body) == nil {
		if body.Message != "" {
			return body.Message
		}
		return body.Error
	}
	return strings.TrimSpace(string(raw))
}
