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
	"strings"
	"sync"
	"time"

	"github.com/dukerupert/list42/internal/model"
)

// SessionCookieName carries the session token on every request.
const SessionCookieName = "list42_session"

// Remote is the slice of the list store the client core depends on.
type Remote interface {
	GetList(ctx context.Context, listID string) (*model.GroceryList, error)
	AddItem(ctx context.Context, listID string, item model.GroceryItem) (*model.GroceryList, error)
	UpdateItem(ctx context.Context, listID string, item model.GroceryItem) (*model.GroceryList, error)
	DeleteItem(ctx context.Context, listID, itemID string) (*model.GroceryList, error)
	ListLists(ctx context.Context) ([]model.ListSummary, error)
	RedeemShareCode(ctx context.Context, code string) (*model.GroceryList, error)
	GetShareCode(ctx context.Context) (string, error)
}

// Config holds list store connection settings.
type Config struct {
	BaseURL      string
	SessionToken string
	Timeout      time.Duration
	HTTPClient   *http.Client
}

// Client talks to the list store REST API.
type Client struct {
	mu         sync.RWMutex
	baseURL    string
	token      string
	httpClient *http.Client
}

var _ Remote = (*Client)(nil)

// NewClient creates a client. BaseURL defaults to http://localhost:8080.
func NewClient(cfg Config) *Client {
	if cfg.BaseURL == "" {
		cfg.BaseURL = "http://localhost:8080"
	}
	if cfg.Timeout == 0 {
		cfg.Timeout = 10 * time.Second
	}
	hc := cfg.HTTPClient
	if hc == nil {
		hc = &http.Client{Timeout: cfg.Timeout}
	}
	return &Client{
		baseURL:    strings.TrimRight(cfg.BaseURL, "/"),
		token:      cfg.SessionToken,
		httpClient: hc,
	}
}

// BaseURL returns the configured base URL without a trailing slash.
func (c *Client) BaseURL() string {
	return c.baseURL
}

// SessionToken returns the token currently attached to requests.
func (c *Client) SessionToken() string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.token
}

// SetSessionToken replaces the token attached to requests.
func (c *Client) SetSessionToken(token string) {
	c.mu.Lock()
	c.token = token
	c.mu.Unlock()
}

func (c *Client) ListLists(ctx context.Context) ([]model.ListSummary, error) {
	var lists []model.ListSummary
	if err := c.do(ctx, http.MethodGet, "/lists/", nil, nil, &lists); err != nil {
		return nil, fmt.Errorf("list lists: %w", err)
	}
	if lists == nil {
		lists = []model.ListSummary{}
	}
	return lists, nil
}

func (c *Client) GetList(ctx context.Context, listID string) (*model.GroceryList, error) {
	var list model.GroceryList
	if err := c.do(ctx, http.MethodGet, listPath(listID), nil, nil, &list); err != nil {
		return nil, fmt.Errorf("get list %s: %w", listID, err)
	}
	return &list, nil
}

func (c *Client) AddItem(ctx context.Context, listID string, item model.GroceryItem) (*model.GroceryList, error) {
	var list model.GroceryList
	if err := c.do(ctx, http.MethodPost, listPath(listID)+"/items", nil, item, &list); err != nil {
		return nil, fmt.Errorf("add item: %w", err)
	}
	return &list, nil
}

func (c *Client) UpdateItem(ctx context.Context, listID string, item model.GroceryItem) (*model.GroceryList, error) {
	var list model.GroceryList
	p := listPath(listID) + "/items/" + url.PathEscape(item.ID)
	if err := c.do(ctx, http.MethodPut, p, nil, item, &list); err != nil {
		return nil, fmt.Errorf("update item: %w", err)
	}
	return &list, nil
}

func (c *Client) DeleteItem(ctx context.Context, listID, itemID string) (*model.GroceryList, error) {
	var list model.GroceryList
	p := listPath(listID) + "/items/" + url.PathEscape(itemID)
	if err := c.do(ctx, http.MethodDelete, p, nil, nil, &list); err != nil {
		return nil, fmt.Errorf("delete item: %w", err)
	}
	return &list, nil
}

func (c *Client) RedeemShareCode(ctx context.Context, code string) (*model.GroceryList, error) {
	var list model.GroceryList
	q := url.Values{"shared": {code}}
	if err := c.do(ctx, http.MethodPost, "/lists/", q, nil, &list); err != nil {
		return nil, fmt.Errorf("redeem share code: %w", err)
	}
	return &list, nil
}

func (c *Client) GetShareCode(ctx context.Context) (string, error) {
	var code string
	if err := c.do(ctx, http.MethodGet, listPath(model.DefaultListID)+"/share-code", nil, nil, &code); err != nil {
		return "", fmt.Errorf("get share code: %w", err)
	}
	return code, nil
}

// Session returns the signed-in user, or ErrUnauthorized.
func (c *Client) Session(ctx context.Context) (*model.SessionInfo, error) {
	var info *model.SessionInfo
	if err := c.do(ctx, http.MethodGet, "/api/auth/get-session", nil, nil, &info); err != nil {
		return nil, fmt.Errorf("get session: %w", err)
	}
	if info == nil {
		return nil, ErrUnauthorized
	}
	return info, nil
}

type signInRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// SignIn exchanges credentials for a session token and starts using it.
func (c *Client) SignIn(ctx context.Context, email, password string) (*model.SessionInfo, error) {
	var info model.SessionInfo
	body := signInRequest{Email: email, Password: password}
	if err := c.do(ctx, http.MethodPost, "/api/auth/sign-in/email", nil, body, &info); err != nil {
		return nil, fmt.Errorf("sign in: %w", err)
	}
	if info.Session.Token == "" {
		return nil, errors.New("sign in: empty session token")
	}
	c.SetSessionToken(info.Session.Token)
	return &info, nil
}

// SignOut ends the session on the server and forgets the token.
func (c *Client) SignOut(ctx context.Context) error {
	err := c.do(ctx, http.MethodPost, "/api/auth/sign-out", nil, nil, nil)
	c.SetSessionToken("")
	if err != nil {
		return fmt.Errorf("sign out: %w", err)
	}
	return nil
}

func listPath(listID string) string {
	if listID == "" {
		listID = model.DefaultListID
	}
	return "/lists/" + url.PathEscape(listID)
}

func (c *Client) do(ctx context.Context, method, path string, query url.Values, in, out any) error {
	u := c.baseURL + path
	if len(query) > 0 {
		u += "?" + query.Encode()
	}

	var body io.Reader
	if in != nil {
		b, err := json.Marshal(in)
		if err != nil {
			return fmt.Errorf("marshal request: %w", err)
		}
		body = bytes.NewReader(b)
	}

	req, err := http.NewRequestWithContext(ctx, method, u, body)
	if err != nil {
		return fmt.Errorf("create request: %w", err)
	}
	if in != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	req.Header.Set("Accept", "application/json")
	if token := c.SessionToken(); token != "" {
		req.AddCookie(&http.Cookie{Name: SessionCookieName, Value: token})
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("%s %s: %w", method, path, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return newStatusError(resp)
	}

	if out == nil || resp.StatusCode == http.StatusNoContent {
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("decode response: %w", err)
	}
	return nil
}
