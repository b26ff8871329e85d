package github

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strconv"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/xavierca1/lead-inbox/internal/entity"
)

func newTestClient(t *testing.T, h http.HandlerFunc) *Client {
	t.Helper()
	srv := httptest.NewServer(h)
	t.Cleanup(srv.Close)
	return NewClient("tok", "acme/leads", srv.URL, 2*time.Second)
}

func TestCreateIssue(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "/repos/acme/leads/issues", r.URL.Path)
		assert.Equal(t, "Bearer tok", r.Header.Get("Authorization"))
		assert.Equal(t, "application/vnd.github+json", r.Header.Get("Accept"))
		assert.Equal(t, "lead-inbox", r.Header.Get("User-Agent"))
		assert.NotEmpty(t, r.Header.Get("X-GitHub-Api-Version"))

		var req createIssueRequest
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		assert.Equal(t, "[전화] 홍길동 / 남 / 900101", req.Title)
		assert.Equal(t, []string{"type:phone", "site:teeth"}, req.Labels)

		w.WriteHeader(http.StatusCreated)
		fmt.Fprint(w, `{"number":42,"html_url":"https://github.com/acme/leads/issues/42","created_at":"2025-03-14T01:02:03Z","title":"t","body":"b","labels":[{"name":"type:phone"}]}`)
	})

	issue, err := c.CreateIssue(context.Background(), entity.IssueDraft{
		Title:  "[전화] 홍길동 / 남 / 900101",
		Body:   "```json\n{}\n```\n",
		Labels: []string{"type:phone", "site:teeth"},
	})

	require.NoError(t, err)
	assert.Equal(t, 42, issue.Number)
	assert.Equal(t, "https://github.com/acme/leads/issues/42", issue.HTMLURL)
	assert.Equal(t, time.Date(2025, 3, 14, 1, 2, 3, 0, time.UTC), issue.CreatedAt)
	assert.Equal(t, []string{"type:phone"}, issue.Labels)
	assert.Equal(t, "acme/leads", c.Repo())
}

func TestCreateIssueAPIError(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnprocessableEntity)
		fmt.Fprint(w, `{"message":"Validation Failed"}`)
	})

	_, err := c.CreateIssue(context.Background(), entity.IssueDraft{Title: "x"})

	var apiErr *APIError
	require.True(t, errors.As(err, &apiErr))
	assert.Equal(t, http.StatusUnprocessableEntity, apiErr.StatusCode)
	assert.Contains(t, apiErr.Body, "Validation Failed")
}

func TestCreateIssueTimeout(t *testing.T) {
	done := make(chan struct{})
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		select {
		case <-done:
		case <-time.After(2 * time.Second):
		}
	}))
	t.Cleanup(srv.Close)
	t.Cleanup(func() { close(done) })

	c := NewClient("tok", "acme/leads", srv.URL, 50*time.Millisecond)
	_, err := c.CreateIssue(context.Background(), entity.IssueDraft{Title: "x"})

	assert.ErrorIs(t, err, ErrTimeout)
}

func TestListIssuesPaginatesAndSkipsPulls(t *testing.T) {
	var pages []string
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		q := r.URL.Query()
		pages = append(pages, q.Get("page"))
		assert.Equal(t, "all", q.Get("state"))
		assert.Equal(t, "100", q.Get("per_page"))
		assert.Equal(t, "site:teeth,type:phone", q.Get("labels"))

		page, _ := strconv.Atoi(q.Get("page"))
		var batch []map[string]any
		switch page {
		case 1:
			for i := 1; i <= 100; i++ {
				item := map[string]any{"number": i, "created_at": "2025-03-14T01:02:03Z", "title": "t", "body": nil}
				if i == 100 {
					item["pull_request"] = map[string]any{"url": "x"}
				}
				batch = append(batch, item)
			}
		case 2:
			batch = append(batch, map[string]any{"number": 101, "created_at": "2025-03-14T01:02:03Z", "body": "hello"})
		}
		_ = json.NewEncoder(w).Encode(batch)
	})

	issues, err := c.ListIssues(context.Background(), entity.IssueQuery{Labels: []string{"site:teeth", "type:phone"}})

	require.NoError(t, err)
	assert.Equal(t, []string{"1", "2"}, pages)
	require.Len(t, issues, 100)
	assert.Equal(t, 101, issues[99].Number)
	assert.Equal(t, "hello", issues[99].Body)
	assert.Empty(t, issues[0].Body)
}

func TestListIssuesStopsAtPageLimit(t *testing.T) {
	calls := 0
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		calls++
		batch := make([]map[string]any, perPage)
		for i := range batch {
			batch[i] = map[string]any{"number": calls*perPage + i}
		}
		_ = json.NewEncoder(w).Encode(batch)
	})

	issues, err := c.ListIssues(context.Background(), entity.IssueQuery{State: "open"})
	require.NoError(t, err)
	assert.Equal(t, maxPages, calls)
	assert.Len(t, issues, maxPages*perPage)
}

func TestListIssuesErrorKeepsAPIError(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
		fmt.Fprint(w, `{"message":"Bad credentials"}`)
	})

	_, err := c.ListIssues(context.Background(), entity.IssueQuery{})
	var apiErr *APIError
	require.True(t, errors.As(err, &apiErr))
	assert.Equal(t, http.StatusUnauthorized, apiErr.StatusCode)
}

func TestRateLimit(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/rate_limit", r.URL.Path)
		fmt.Fprint(w, `{"resources":{"core":{"limit":5000,"remaining":4321,"used":679,"reset":1741914123}}}`)
	})

	rl, err := c.RateLimit(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 5000, rl.Limit)
	assert.Equal(t, 4321, rl.Remaining)
	assert.Equal(t, time.Unix(1741914123, 0).UTC(), rl.Reset)
}
