package usecase

import (
	"context"

	"github.com/xavierca1/lead-inbox/internal/entity"
	"github.com/xavierca1/lead-inbox/internal/infra/queue"
)

// IssueStore is the issue tracker that persists leads (GitHub Issues).
type IssueStore interface {
	CreateIssue(ctx context.Context, draft entity.IssueDraft) (*entity.Issue, error)
	ListIssues(ctx context.Context, q entity.IssueQuery) ([]entity.Issue, error)
}

type QueueProducerInterface interface {
	PublishLeadCreated(ctx context.Context, event queue.LeadCreatedEvent) error
}

// Metrics recebe os contadores de domínio. Implementado em middleware.
type Metrics interface {
	LeadSubmitted(site, leadType string)
	DecodeStrategy(strategy string)
	IntegrationError(service string)
}

type noopMetrics struct{}

func (noopMetrics) LeadSubmitted(string, string) {}
func (noopMetrics) DecodeStrategy(string)        {}
func (noopMetrics) IntegrationError(string)      {}
