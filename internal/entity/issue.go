package entity

import "time"

// Issue is the slice of a tracker issue the lead codec depends on.
type Issue struct {
	Number    int
	HTMLURL   string
	CreatedAt time.Time
	Title     string
	Body      string
	Labels    []string
}

// IssueDraft is what the codec produces for a new lead.
type IssueDraft struct {
	Title  string
	Body   string
	Labels []string
}

// IssueQuery filters a listing. Labels are ANDed by the tracker.
type IssueQuery struct {
	Labels []string
	State  string
}
