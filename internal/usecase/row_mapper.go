package usecase

import (
	"strings"
	"time"

	"github.com/xavierca1/lead-inbox/internal/codec"
	"github.com/xavierca1/lead-inbox/internal/entity"
)

// DisplayLayout is the requested_at format shown to admins.
const DisplayLayout = "2006-01-02 15:04:05"

// KST is the fixed UTC+9 display offset.
var KST = time.FixedZone("KST", 9*60*60)

// ToRow merges a decoded lead with its issue metadata. Site falls back to
// the site: label and then defaultSite; requested_at falls back to the
// issue creation time.
func ToRow(issue entity.Issue, rec entity.LeadRecord, defaultSite string) entity.ExportRow {
	site := strings.TrimSpace(rec.Site)
	if site == "" {
		site = codec.LabelValue(issue.Labels, codec.LabelSitePrefix)
	}
	if site == "" {
		site = defaultSite
	}

	requestedAt := rec.RequestedAt
	if requestedAt.IsZero() {
		requestedAt = issue.CreatedAt
	}
	var shown string
	if !requestedAt.IsZero() {
		shown = requestedAt.In(KST).Format(DisplayLayout)
	}

	number, url := rec.Issue.Number, rec.Issue.URL
	if number == 0 {
		number, url = issue.Number, issue.HTMLURL
	}

	return entity.ExportRow{
		Site:        site,
		RequestedAt: shown,
		RequestType: rec.Type.RequestLabel(),
		Name:        rec.Name,
		BirthOrRRN:  rec.BirthOrRRN,
		Gender:      rec.Gender.Label(),
		Phone:       rec.Phone,
		Type:        rec.Type,
		IssueNumber: number,
		IssueURL:    url,
	}
}


