package twitter

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
)

func newTestClient(t *testing.T, h http.HandlerFunc) *Client {
	t.Helper()
	srv := httptest.NewServer(h)
	t.Cleanup(srv.Close)
	return New(Config{BaseURL: srv.URL + "/", BearerToken: "app-token", UserAccessToken: "user-token"})
}

func TestSearch(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != searchPath {
			t.Errorf("path = %q, want %q", r.URL.Path, searchPath)
		}
		if got := r.Header.Get("Authorization"); got != "Bearer app-token" {
			t.Errorf("Authorization = %q, want app token", got)
		}
		q := r.URL.Query()
		if q.Get("query") != `"golang" OR "rust"` {
			t.Errorf("query = %q", q.Get("query"))
		}
		if q.Get("since_id") != "500" {
			t.Errorf("since_id = %q, want 500", q.Get("since_id"))
		}
		if q.Get("max_results") != "100" {
			t.Errorf("max_results = %q, want 100", q.Get("max_results"))
		}
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{
			"data": [
				{"id": "1790000000000000001", "text": "I love golang", "author_id": "11"},
				{"id": "1790000000000000002", "text": "rust is fine", "author_id": "12"}
			],
			"includes": {"users": [{"id": "11", "username": "gopher"}, {"id": "12", "username": "ferris"}]},
			"meta": {"result_count": 2}
		}`))
	})

	items, err := c.Search(context.Background(), SearchQuery{Query: `"golang" OR "rust"`, SinceID: 500, Limit: 250})
	if err != nil {
		t.Fatalf("Search() error = %v", err)
	}
	if len(items) != 2 {
		t.Fatalf("Search() returned %d items, want 2", len(items))
	}
	if items[0].ID != 1790000000000000001 || items[0].AuthorHandle != "gopher" {
		t.Errorf("items[0] = %+v", items[0])
	}
	if got, want := items[1].Link(), "https://x.com/ferris/status/1790000000000000002"; got != want {
		t.Errorf("items[1].Link() = %q, want %q", got, want)
	}
}

func TestSearch_NoLowerBound(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		q := r.URL.Query()
		if q.Has("since_id") {
			t.Errorf("since_id = %q, want absent", q.Get("since_id"))
		}
		if q.Get("max_results") != "10" {
			t.Errorf("max_results = %q, want 10", q.Get("max_results"))
		}
		w.Write([]byte(`{"meta": {"result_count": 0}}`))
	})

	items, err := c.Search(context.Background(), SearchQuery{Query: `"golang"`, Limit: 1})
	if err != nil {
		t.Fatalf("Search() error = %v", err)
	}
	if len(items) != 0 {
		t.Errorf("Search() returned %d items, want 0", len(items))
	}
}

func TestSearch_Errors(t *testing.T) {
	tests := []struct {
		name       string
		status     int
		body       string
		wantLimit  bool
		wantStatus int
		wantDetail string
	}{
		{"rate limited", http.StatusTooManyRequests, "", true, 0, ""},
		{"unauthorized", http.StatusUnauthorized, `{"title":"Unauthorized","detail":"bad token"}`, false, 401, "bad token"},
		{"server error without body", http.StatusBadGateway, "", false, 502, ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(tt.status)
				w.Write([]byte(tt.body))
			})
			_, err := c.Search(context.Background(), SearchQuery{Query: `"x"`})
			if tt.wantLimit {
				if !errors.Is(err, ErrRateLimited) {
					t.Errorf("Search() error = %v, want %v", err, ErrRateLimited)
				}
				return
			}
			var apiErr *APIError
			if !errors.As(err, &apiErr) {
				t.Fatalf("Search() error = %v, want *APIError", err)
			}
			if apiErr.StatusCode != tt.wantStatus || apiErr.Detail != tt.wantDetail {
				t.Errorf("APIError = %+v", apiErr)
			}
		})
	}
}

func TestSearch_BadID(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"data": [{"id": "not-a-number", "text": "x"}]}`))
	})
	if _, err := c.Search(context.Background(), SearchQuery{Query: `"x"`}); err == nil {
		t.Error("Search() error = nil, want parse error")
	}
}

func TestSendDirectMessage(t *testing.T) {
	var gotText string
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost {
			t.Errorf("method = %s, want POST", r.Method)
		}
		if r.URL.Path != "/2/dm_conversations/with/1001/messages" {
			t.Errorf("path = %q", r.URL.Path)
		}
		if got := r.Header.Get("Authorization"); got != "Bearer user-token" {
			t.Errorf("Authorization = %q, want user token", got)
		}
		var body map[string]string
		if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
			t.Errorf("decoding body: %v", err)
		}
		gotText = body["text"]
		w.WriteHeader(http.StatusCreated)
		w.Write([]byte(`{"data": {"dm_event_id": "1"}}`))
	})

	if err := c.SendDirectMessage(context.Background(), 1001, "hello"); err != nil {
		t.Fatalf("SendDirectMessage() error = %v", err)
	}
	if gotText != "hello" {
		t.Errorf("text = %q, want hello", gotText)
	}
}

func TestSendDirectMessage_Forbidden(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusForbidden)
		w.Write([]byte(`{"title":"Forbidden","detail":"You are not permitted to send messages to this user."}`))
	})

	err := c.SendDirectMessage(context.Background(), 1001, "hello")
	var apiErr *APIError
	if !errors.As(err, &apiErr) || apiErr.StatusCode != http.StatusForbidden {
		t.Errorf("SendDirectMessage() error = %v, want 403 APIError", err)
	}
}

func TestAPIError_Error(t *testing.T) {
	tests := []struct {
		err  *APIError
		want string
	}{
		{&APIError{StatusCode: 401, Title: "Unauthorized", Detail: "bad token"}, "x api: 401 bad token"},
		{&APIError{StatusCode: 403, Title: "Forbidden"}, "x api: 403 Forbidden"},
		{&APIError{StatusCode: 502}, "x api: 502 Bad Gateway"},
	}
	for _, tt := range tests {
		if got := tt.err.Error(); got != tt.want {
			t.Errorf("Error() = %q, want %q", got, tt.want)
		}
	}
}
