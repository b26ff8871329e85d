package worker

import (
	"context"
	"time"

	"github.com/xavierca1/lead-inbox/internal/infra/integration/github"
	"github.com/xavierca1/lead-inbox/internal/infra/logger"
)

// lowQuotaRatio: abaixo disso o worker loga em warn
const lowQuotaRatio = 0.10

type RateLimitProbe interface {
	RateLimit(ctx context.Context) (*github.RateLimit, error)
}

type QuotaRecorder interface {
	SetRateLimitRemaining(remaining int)
	IntegrationError(service string)
}

// GitHubQuotaWorker polls the GitHub core rate limit so an exhausted token
// shows up before submissions start failing.
type GitHubQuotaWorker struct {
	probe        RateLimitProbe
	recorder     QuotaRecorder
	tickInterval time.Duration
	log          *logger.Logger
}

func NewGitHubQuotaWorker(probe RateLimitProbe, recorder QuotaRecorder, interval time.Duration) *GitHubQuotaWorker {
	if interval <= 0 {
		interval = 5 * time.Minute
	}
	return &GitHubQuotaWorker{
		probe:        probe,
		recorder:     recorder,
		tickInterval: interval,
		log:          logger.Named("quota-worker"),
	}
}

func (w *GitHubQuotaWorker) Start(ctx context.Context) {
	w.log.Info().Dur("interval", w.tickInterval).Msg("🕒 GitHub quota worker iniciado")

	ticker := time.NewTicker(w.tickInterval)
	defer ticker.Stop()

	w.Check(ctx)

	for {
		select {
		case <-ctx.Done():
			w.log.Info().Msg("⚠️ GitHub quota worker encerrado")
			return
		case <-ticker.C:
			w.Check(ctx)
		}
	}
}

// Check probes once. Returns nil when the probe failed.
func (w *GitHubQuotaWorker) Check(ctx context.Context) *github.RateLimit {
	rl, err := w.probe.RateLimit(ctx)
	if err != nil {
		if w.recorder != nil {
			w.recorder.IntegrationError("github")
		}
		w.log.Error().Err(err).Msg("❌ erro ao consultar rate limit")
		return nil
	}

	if w.recorder != nil {
		w.recorder.SetRateLimitRemaining(rl.Remaining)
	}

	if rl.Limit > 0 && float64(rl.Remaining) < float64(rl.Limit)*lowQuotaRatio {
		w.log.Warn().
			Int("remaining", rl.Remaining).
			Int("limit", rl.Limit).
			Time("reset", rl.Reset).
			Msg("⏱️ quota do GitHub quase esgotada")
	} else {
		w.log.Debug().Int("remaining", rl.Remaining).Int("limit", rl.Limit).Msg("quota do GitHub")
	}
	return rl
}
