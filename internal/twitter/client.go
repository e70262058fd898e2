// Package twitter is a minimal X API v2 client covering recent search and
// direct messages.
package twitter

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

	"golang.org/x/oauth2"

	"tweetwatch/internal/models"
)

const (
	searchPath = "/2/tweets/search/recent"
	dmPath     = "/2/dm_conversations/with/%d/messages"

	minResults = 10
	maxResults = 100
)

// ErrRateLimited is returned when the API answers 429.
var ErrRateLimited = errors.New("x api rate limit exceeded")

// APIError is a non-2xx response.
type APIError struct {
	StatusCode int
	Title      string
	Detail     string
}

func (e *APIError) Error() string {
	msg := e.Detail
	if msg == "" {
		msg = e.Title
	}
	if msg == "" {
		msg = http.StatusText(e.StatusCode)
	}
	return fmt.Sprintf("x api: %d %s", e.StatusCode, msg)
}

// SearchQuery is one recent-search request.
type SearchQuery struct {
	Query   string
	SinceID int64 // Zero means no lower bound
	Limit   int
}

// Config configures a Client.
type Config struct {
	BaseURL         string
	BearerToken     string // App-only token used for search
	UserAccessToken string // User-context token used for direct messages
	Timeout         time.Duration
}

// Client talks to the X API.
type Client struct {
	baseURL string
	search  *http.Client
	dm      *http.Client
}

// New returns a Client. The app-only and user-context tokens are attached by
// separate oauth2 transports.
func New(cfg Config) *Client {
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	return &Client{
		baseURL: strings.TrimRight(cfg.BaseURL, "/"),
		search:  newHTTPClient(cfg.BearerToken, timeout),
		dm:      newHTTPClient(cfg.UserAccessToken, timeout),
	}
}

func newHTTPClient(token string, timeout time.Duration) *http.Client {
	src := oauth2.StaticTokenSource(&oauth2.Token{AccessToken: token, TokenType: "Bearer"})
	hc := oauth2.NewClient(context.Background(), src)
	hc.Timeout = timeout
	return hc
}

type searchResponse struct {
	Data []struct {
		ID       string `json:"id"`
		Text     string `json:"text"`
		AuthorID string `json:"author_id"`
	} `json:"data"`
	Includes struct {
		Users []struct {
			ID       string `json:"id"`
			Username string `json:"username"`
		} `json:"users"`
	} `json:"includes"`
	Meta struct {
		ResultCount int    `json:"result_count"`
		NewestID    string `json:"newest_id"`
	} `json:"meta"`
}

// Search runs a recent search and returns the matching posts. The order of
// the returned items is whatever the API returned.
func (c *Client) Search(ctx context.Context, q SearchQuery) ([]models.Item, error) {
	params := url.Values{}
	params.Set("query", q.Query)
	params.Set("max_results", strconv.Itoa(clamp(q.Limit)))
	params.Set("tweet.fields", "author_id")
	params.Set("expansions", "author_id")
	params.Set("user.fields", "username")
	if q.SinceID > 0 {
		params.Set("since_id", strconv.FormatInt(q.SinceID, 10))
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+searchPath+"?"+params.Encode(), nil)
	if err != nil {
		return nil, err
	}

	var body searchResponse
	if err := c.do(c.search, req, &body); err != nil {
		return nil, fmt.Errorf("searching recent posts: %w", err)
	}

	handles := make(map[string]string, len(body.Includes.Users))
	for _, u := range body.Includes.Users {
		handles[u.ID] = u.Username
	}

	items := make([]models.Item, 0, len(body.Data))
	for _, d := range body.Data {
		id, err := strconv.ParseInt(d.ID, 10, 64)
		if err != nil {
			return nil, fmt.Errorf("parsing post id %q: %w", d.ID, err)
		}
		items = append(items, models.Item{
			ID:           id,
			Text:         d.Text,
			AuthorHandle: handles[d.AuthorID],
		})
	}
	return items, nil
}

// SendDirectMessage sends text to the X user with the given id.
func (c *Client) SendDirectMessage(ctx context.Context, recipientID int64, text string) error {
	payload, err := json.Marshal(map[string]string{"text": text})
	if err != nil {
		return err
	}
	endpoint := c.baseURL + fmt.Sprintf(dmPath, recipientID)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(payload))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")
	return c.do(c.dm, req, nil)
}

func (c *Client) do(hc *http.Client, req *http.Request, out any) error {
	req.Header.Set("Accept", "application/json")
	resp, err := hc.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusTooManyRequests {
		return ErrRateLimited
	}
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		apiErr := &APIError{StatusCode: resp.StatusCode}
		var problem struct {
			Title  string `json:"title"`
			Detail string `json:"detail"`
		}
		if b, _ := io.ReadAll(io.LimitReader(resp.Body, 64<<10)); len(b) > 0 {
			if json.Unmarshal(b, &problem) == nil {
				apiErr.Title, apiErr.Detail = problem.Title, problem.Detail
			}
		}
		return apiErr
	}
	if out == nil {
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("decoding response: %w", err)
	}
	return nil
}

func clamp(n int) int {
	if n < minResults {
		return minResults
	}
	if n > maxResults {
		return maxResults
	}
	return n
}
