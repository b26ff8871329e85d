package usecase

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"

	"github.com/xavierca1/lead-inbox/internal/codec"
	"github.com/xavierca1/lead-inbox/internal/entity"
	"github.com/xavierca1/lead-inbox/internal/infra/logger"
	"github.com/xavierca1/lead-inbox/internal/infra/queue"
)

type SubmitLeadUseCase struct {
	Codec    *codec.Codec
	Store    IssueStore
	Receipts entity.ReceiptRepositoryInterface
	Queue    QueueProducerInterface
	Metrics  Metrics
	Now      func() time.Time
}

// NewSubmitLeadUseCase wires the required collaborators. Receipts, Queue and
// Metrics are optional and may be set on the returned value.
func NewSubmitLeadUseCase(c *codec.Codec, store IssueStore) *SubmitLeadUseCase {
	return &SubmitLeadUseCase{
		Codec:   c,
		Store:   store,
		Metrics: noopMetrics{},
		Now:     time.Now,
	}
}

// Execute validates, encodes and stores one lead. Nothing reaches the issue
// tracker when validation fails. A lead is created exactly once: failures in
// the follow-up steps (receipt, event) are logged and do not fail the call.
func (uc *SubmitLeadUseCase) Execute(ctx context.Context, input SubmitLeadInput) (*SubmitLeadOutput, error) {
	input = input.Resolve()

	if errs := ValidateSubmitLeadInput(input); len(errs) > 0 {
		return nil, &DomainError{
			Code:    "VALIDATION_ERROR",
			Message: validationMessage(errs),
			Fields:  errs,
		}
	}

	rec := uc.Codec.Normalize(input.submission(), uc.Now())

	draft, err := uc.Codec.Encode(rec, entity.Diagnostics{UserAgent: input.UserAgent, IP: input.IP})
	if err != nil {
		if errors.Is(err, codec.ErrUnsupportedType) {
			return nil, &DomainError{Code: "UNSUPPORTED_TYPE", Message: err.Error()}
		}
		return nil, &TechnicalError{Code: "ENCODE_ERROR", Message: "failed to encode lead", Err: err}
	}

	issue, err := uc.Store.CreateIssue(ctx, draft)
	if err != nil {
		uc.metrics().IntegrationError("github")
		return nil, &TechnicalError{Code: "ISSUE_CREATE_FAILED", Message: "failed to create issue", Err: err}
	}
	rec.Issue = entity.IssueRef{Number: issue.Number, URL: issue.HTMLURL}

	log := logger.C(ctx)
	log.Info().
		Int("issue", issue.Number).
		Str("site", rec.Site).
		Str("type", string(rec.Type)).
		Msg("✅ lead registrado")

	uc.metrics().LeadSubmitted(rec.Site, string(rec.Type))
	uc.afterCreate(ctx, rec)

	return &SubmitLeadOutput{
		OK:          true,
		Site:        rec.Site,
		Type:        string(rec.Type),
		Issue:       IssueOutput{Number: issue.Number, URL: issue.HTMLURL},
		RequestedAt: rec.RequestedAt,
	}, nil
}

func (uc *SubmitLeadUseCase) afterCreate(ctx context.Context, rec entity.LeadRecord) {
	log := logger.C(ctx)

	if uc.Receipts != nil {
		err := uc.Receipts.Record(ctx, &entity.SubmissionReceipt{
			IssueNumber: rec.Issue.Number,
			IssueURL:    rec.Issue.URL,
			Site:        rec.Site,
			Type:        rec.Type,
			RequestedAt: rec.RequestedAt,
		})
		if err != nil {
			uc.metrics().IntegrationError("database")
			log.Error().Err(err).Int("issue", rec.Issue.Number).Msg("⚠️ falha ao gravar recibo")
		}
	}

	if uc.Queue != nil {
		err := uc.Queue.PublishLeadCreated(ctx, queue.LeadCreatedEvent{
			EventID:     uuid.New().String(),
			IssueNumber: rec.Issue.Number,
			IssueURL:    rec.Issue.URL,
			Site:        rec.Site,
			Type:        string(rec.Type),
			Name:        rec.Name,
			RequestedAt: rec.RequestedAt,
		})
		if err != nil {
			uc.metrics().IntegrationError("rabbitmq")
			log.Error().Err(err).Int("issue", rec.Issue.Number).Msg("⚠️ falha ao publicar evento")
		}
	}
}

func (uc *SubmitLeadUseCase) metrics() Metrics {
	if uc.Metrics == nil {
		return noopMetrics{}
	}
	return uc.Metrics
}
