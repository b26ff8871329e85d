package usecase

import (
	"context"
	"strings"
	"time"

	"github.com/xavierca1/lead-inbox/internal/codec"
	"github.com/xavierca1/lead-inbox/internal/entity"
	"github.com/xavierca1/lead-inbox/internal/infra/logger"
)

const dayLayout = "2006-01-02"

type ListLeadsUseCase struct {
	Codec   *codec.Codec
	Store   IssueStore
	Metrics Metrics
}

func NewListLeadsUseCase(c *codec.Codec, store IssueStore) *ListLeadsUseCase {
	return &ListLeadsUseCase{Codec: c, Store: store, Metrics: noopMetrics{}}
}

type leadFilter struct {
	site     string
	leadType entity.ConsultationType
	from     time.Time
	to       time.Time // exclusive
}

// Execute lists every lead matching the filters, newest first as returned by
// the tracker. Undecodable issues still produce a row.
func (uc *ListLeadsUseCase) Execute(ctx context.Context, input ListLeadsInput) ([]entity.ExportRow, error) {
	f, query, err := parseListInput(input)
	if err != nil {
		return nil, err
	}

	issues, err := uc.Store.ListIssues(ctx, query)
	if err != nil {
		uc.metrics().IntegrationError("github")
		return nil, &TechnicalError{Code: "ISSUE_LIST_FAILED", Message: "failed to list issues", Err: err}
	}

	rows := make([]entity.ExportRow, 0, len(issues))
	for _, issue := range issues {
		if !f.inRange(issue.CreatedAt) {
			continue
		}
		rec, strategy := uc.Codec.DecodeDetailed(issue)
		uc.metrics().DecodeStrategy(strategy)

		row := ToRow(issue, rec, uc.Codec.DefaultSite())
		if f.match(row) {
			rows = append(rows, row)
		}
	}

	logger.C(ctx).Debug().
		Int("issues", len(issues)).
		Int("rows", len(rows)).
		Msg("listagem de leads")
	return rows, nil
}

func parseListInput(in ListLeadsInput) (leadFilter, entity.IssueQuery, error) {
	var f leadFilter
	q := entity.IssueQuery{State: "all"}

	f.site = strings.ToLower(strings.TrimSpace(in.Site))
	if f.site != "" {
		q.Labels = append(q.Labels, codec.LabelSitePrefix+f.site)
	}

	if t := strings.ToLower(strings.TrimSpace(in.Type)); t != "" {
		f.leadType = entity.ConsultationType(t)
		if !f.leadType.Valid() {
			return f, q, &DomainError{Code: "INVALID_TYPE", Message: "type must be phone or online"}
		}
		q.Labels = append(q.Labels, codec.LabelTypePrefix+t)
	}

	switch s := strings.ToLower(strings.TrimSpace(in.State)); s {
	case "":
	case "open", "closed", "all":
		q.State = s
	default:
		return f, q, &DomainError{Code: "INVALID_STATE", Message: "state must be open, closed or all"}
	}

	if in.From != "" {
		t, err := time.Parse(dayLayout, strings.TrimSpace(in.From))
		if err != nil {
			return f, q, &DomainError{Code: "INVALID_DATE", Message: "from must be YYYY-MM-DD"}
		}
		f.from = t
	}
	if in.To != "" {
		t, err := time.Parse(dayLayout, strings.TrimSpace(in.To))
		if err != nil {
			return f, q, &DomainError{Code: "INVALID_DATE", Message: "to must be YYYY-MM-DD"}
		}
		f.to = t.AddDate(0, 0, 1)
	}
	if !f.from.IsZero() && !f.to.IsZero() && !f.from.Before(f.to) {
		return f, q, &DomainError{Code: "INVALID_DATE", Message: "from must not be after to"}
	}

	return f, q, nil
}

func (f leadFilter) inRange(t time.Time) bool {
	if !f.from.IsZero() && t.Before(f.from) {
		return false
	}
	if !f.to.IsZero() && !t.Before(f.to) {
		return false
	}
	return true
}

// match re-applies site/type on the mapped row since the payload can
// disagree with the labels used for the pushed-down query.
func (f leadFilter) match(row entity.ExportRow) bool {
	if f.site != "" && !strings.EqualFold(row.Site, f.site) {
		return false
	}
	if f.leadType != "" && !strings.EqualFold(string(row.Type), string(f.leadType)) {
		return false
	}
	return true
}

func (uc *ListLeadsUseCase) metrics() Metrics {
	if uc.Metrics == nil {
		return noopMetrics{}
	}
	return uc.Metrics
}
