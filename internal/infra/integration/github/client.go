// Package github is a small REST client for the Issues API used as the lead store.
package github

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/xavierca1/lead-inbox/internal/entity"
	"github.com/xavierca1/lead-inbox/internal/infra/logger"
)

const (
	DefaultBaseURL = "https://api.github.com"
	apiVersion     = "2022-11-28"
	userAgent      = "lead-inbox"

	perPage  = 100
	maxPages = 50
)

// ErrTimeout is wrapped when the request deadline expires.
var ErrTimeout = errors.New("github: request timed out")

// APIError carries a non-2xx response. Body is kept raw for diagnosis.
type APIError struct {
	StatusCode int
	Body       string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("github: status %d: %s", e.StatusCode, e.Body)
}

type Client struct {
	token      string
	repo       string
	baseURL    string
	httpClient *http.Client
	log        *logger.Logger
}

func NewClient(token, repoFullName, baseURL string, timeout time.Duration) *Client {
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	return &Client{
		token:      token,
		repo:       repoFullName,
		baseURL:    strings.TrimRight(baseURL, "/"),
		httpClient: &http.Client{Timeout: timeout},
		log:        logger.Named("github"),
	}
}

func (c *Client) Repo() string { return c.repo }

// CreateIssue posts a new issue. Issues are never edited afterwards.
func (c *Client) CreateIssue(ctx context.Context, draft entity.IssueDraft) (*entity.Issue, error) {
	payload, err := json.Marshal(createIssueRequest{Title: draft.Title, Body: draft.Body, Labels: draft.Labels})
	if err != nil {
		return nil, fmt.Errorf("erro ao converter issue: %w", err)
	}

	var out issueDTO
	if err := c.do(ctx, http.MethodPost, "/repos/"+c.repo+"/issues", nil, payload, &out); err != nil {
		return nil, err
	}

	c.log.Info().Int("issue", out.Number).Msg("issue criada")
	issue := out.toEntity()
	return &issue, nil
}

// ListIssues walks every page (100 per page, at most 50 pages). Pull
// requests returned by the issues endpoint are skipped.
func (c *Client) ListIssues(ctx context.Context, q entity.IssueQuery) ([]entity.Issue, error) {
	state := q.State
	if state == "" {
		state = "all"
	}

	var issues []entity.Issue
	for page := 1; page <= maxPages; page++ {
		params := url.Values{}
		params.Set("state", state)
		params.Set("per_page", strconv.Itoa(perPage))
		params.Set("page", strconv.Itoa(page))
		if len(q.Labels) > 0 {
			params.Set("labels", strings.Join(q.Labels, ","))
		}

		var batch []issueDTO
		if err := c.do(ctx, http.MethodGet, "/repos/"+c.repo+"/issues", params, nil, &batch); err != nil {
			return nil, fmt.Errorf("list page %d: %w", page, err)
		}

		for _, dto := range batch {
			if dto.PullRequest != nil {
				continue
			}
			issues = append(issues, dto.toEntity())
		}
		if len(batch) < perPage {
			return issues, nil
		}
	}

	c.log.Warn().Int("pages", maxPages).Msg("limite de paginação atingido")
	return issues, nil
}

// RateLimit returns the core bucket. The call itself does not count
// against the limit.
func (c *Client) RateLimit(ctx context.Context) (*RateLimit, error) {
	var out rateLimitResponse
	if err := c.do(ctx, http.MethodGet, "/rate_limit", nil, nil, &out); err != nil {
		return nil, err
	}
	core := out.Resources.Core
	return &RateLimit{
		Limit:     core.Limit,
		Remaining: core.Remaining,
		Used:      core.Used,
		Reset:     time.Unix(core.Reset, 0).UTC(),
	}, nil
}

func (c *Client) do(ctx context.Context, method, path string, params url.Values, payload []byte, out any) error {
	u := c.baseURL + path
	if len(params) > 0 {
		u += "?" + params.Encode()
	}

	var body io.Reader
	if payload != nil {
		body = bytes.NewReader(payload)
	}

	req, err := http.NewRequestWithContext(ctx, method, u, body)
	if err != nil {
		return fmt.Errorf("github: build request: %w", err)
	}
	c.addHeaders(req)
	if payload != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		if isTimeout(err) {
			return fmt.Errorf("%w: %s %s", ErrTimeout, method, path)
		}
		return fmt.Errorf("github: %s %s: %w", method, path, err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		if isTimeout(err) {
			return fmt.Errorf("%w: reading %s", ErrTimeout, path)
		}
		return fmt.Errorf("github: read body: %w", err)
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return &APIError{StatusCode: resp.StatusCode, Body: string(raw)}
	}

	if out == nil {
		return nil
	}
	if err := json.Unmarshal(raw, out); err != nil {
		return fmt.Errorf("github: decode response: %w", err)
	}
	return nil
}

func (c *Client) addHeaders(req *http.Request) {
	req.Header.Set("Accept", "application/vnd.github+json")
	req.Header.Set("X-GitHub-Api-Version", apiVersion)
	req.Header.Set("User-Agent", userAgent)
	if c.token != "" {
		req.Header.Set("Authorization", "Bearer "+c.token)
	}
}

func isTimeout(err error) bool {
	if errors.Is(err, context.DeadlineExceeded) {
		return true
	}
	var ne net.Error
	return errors.As(err, &ne) && ne.Timeout()
}

func (d issueDTO) toEntity() entity.Issue {
	issue := entity.Issue{
		Number:    d.Number,
		HTMLURL:   d.HTMLURL,
		CreatedAt: d.CreatedAt.UTC(),
		Title:     d.Title,
	}
	if d.Body != nil {
		issue.Body = *d.Body
	}
	for _, l := range d.Labels {
		issue.Labels = append(issue.Labels, l.Name)
	}
	return issue
}
