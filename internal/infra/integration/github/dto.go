package github

import "time"

type createIssueRequest struct {
	Title  string   `json:"title"`
	Body   string   `json:"body"`
	Labels []string `json:"labels,omitempty"`
}

type labelDTO struct {
	Name string `json:"name"`
}

type issueDTO struct {
	Number      int        `json:"number"`
	HTMLURL     string     `json:"html_url"`
	CreatedAt   time.Time  `json:"created_at"`
	Title       string     `json:"title"`
	Body        *string    `json:"body"`
	Labels      []labelDTO `json:"labels"`
	PullRequest *struct{}  `json:"pull_request,omitempty"`
}

// RateLimit is the core bucket of GET /rate_limit.
type RateLimit struct {
	Limit     int       `json:"limit"`
	Remaining int       `json:"remaining"`
	Used      int       `json:"used"`
	Reset     time.Time `json:"reset"`
}

type rateLimitResponse struct {
	Resources struct {
		Core struct {
			Limit     int   `json:"limit"`
			Remaining int   `json:"remaining"`
			Used      int   `json:"used"`
			Reset     int64 `json:"reset"`
		} `json:"core"`
	} `json:"resources"`
}
