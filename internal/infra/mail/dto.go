package mail

import "gopkg.in/gomail.v2"

// LeadNoticeData feeds templates/lead_notice.html. It never carries the
// phone number or the identity value.
type LeadNoticeData struct {
	Site        string
	RequestType string
	Name        string
	RequestedAt string
	IssueNumber int
	IssueURL    string
}

// Dialer is satisfied by *gomail.Dialer.
type Dialer interface {
	DialAndSend(m ...*gomail.Message) error
}

type EmailSender struct {
	From   string
	To     []string
	dialer Dialer
}
