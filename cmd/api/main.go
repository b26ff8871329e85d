package main

import (
	"context"
	"database/sql"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rabbitmq/amqp091-go"

	"github.com/xavierca1/lead-inbox/internal/codec"
	"github.com/xavierca1/lead-inbox/internal/config"
	"github.com/xavierca1/lead-inbox/internal/infra/database"
	"github.com/xavierca1/lead-inbox/internal/infra/http/handlers"
	mw "github.com/xavierca1/lead-inbox/internal/infra/http/middleware"
	"github.com/xavierca1/lead-inbox/internal/infra/integration/github"
	"github.com/xavierca1/lead-inbox/internal/infra/logger"
	"github.com/xavierca1/lead-inbox/internal/infra/mail"
	"github.com/xavierca1/lead-inbox/internal/infra/queue"
	"github.com/xavierca1/lead-inbox/internal/infra/worker"
	"github.com/xavierca1/lead-inbox/internal/usecase"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		logger.Get().Fatal().Err(err).Msg("configuração inválida")
	}

	logger.Init(logger.Options{Level: cfg.LogLevel, Format: cfg.LogFormat, Service: "lead-inbox"})
	log := logger.Get()

	if err := cfg.Validate(); err != nil {
		log.Fatal().Err(err).Msg("configuração incompleta")
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	metrics := mw.PrometheusRecorder{}

	// 1. Colaboradores obrigatórios
	gh := github.NewClient(cfg.GitHubToken, cfg.RepoFullName, cfg.GitHubAPIURL, cfg.GitHubTimeout)
	leadCodec := codec.New(cfg.DefaultSite, codec.WithDiagnosticMaxLen(cfg.DiagnosticMaxLen))

	// 2. UseCases
	submitUC := usecase.NewSubmitLeadUseCase(leadCodec, gh)
	submitUC.Metrics = metrics
	listUC := usecase.NewListLeadsUseCase(leadCodec, gh)
	listUC.Metrics = metrics

	// 3. Opcionais: Postgres (recibos) e RabbitMQ (avisos)
	var db *sql.DB
	if cfg.DatabaseURL != "" {
		db, err = database.NewDBConnection(cfg.DatabaseURL)
		if err != nil {
			log.Fatal().Err(err).Msg("falha ao conectar no banco")
		}
		defer db.Close()

		if err := database.EnsureSchema(ctx, db); err != nil {
			log.Fatal().Err(err).Msg("falha ao criar tabela de recibos")
		}
		submitUC.Receipts = database.NewReceiptRepository(db)
	}

	var amqpConn *amqp091.Connection
	if cfg.AMQPURL != "" {
		rabbitMQ, err := queue.NewRabbitMQ(cfg.AMQPURL)
		if err != nil {
			log.Fatal().Err(err).Msg("falha ao conectar no RabbitMQ")
		}
		defer rabbitMQ.Close()
		amqpConn = rabbitMQ.Conn

		submitUC.Queue = queue.NewProducer(rabbitMQ.Ch)

		var notifier queue.LeadNotifier
		if cfg.Mail.Enabled() {
			notifier = mail.NewEmailSender(cfg.Mail.Host, cfg.Mail.Port, cfg.Mail.User, cfg.Mail.Password, cfg.Mail.From, cfg.Mail.NotifyTo)
		}
		// 3.1 Worker (consome a fila e manda o e-mail)
		w := queue.NewWorker(rabbitMQ.Ch, notifier)
		go func() {
			if err := w.Start(ctx, queue.QueueName); err != nil {
				log.Error().Err(err).Msg("worker de avisos parou")
			}
		}()
	}

	// 4. Worker de quota do GitHub
	go worker.NewGitHubQuotaWorker(gh, metrics, cfg.QuotaCheckInterval).Start(ctx)

	// 5. Handlers e rotas
	router := newRouter(routerDeps{
		Lead:  handlers.NewLeadHandler(submitUC),
		Admin: handlers.NewAdminHandler(listUC),
		Ops: handlers.NewOpsHandler(handlers.OpsInfo{
			Commit:         cfg.Commit,
			URL:            cfg.PublicURL,
			Repo:           gh.Repo(),
			HasGitHubToken: cfg.GitHubToken != "",
			HasRepo:        cfg.RepoFullName != "",
			HasAdminToken:  cfg.AdminToken != "",
		}, gh),
		Health:         handlers.NewHealthHandler(db, amqpConn, cfg.GitHubToken != "" && cfg.RepoFullName != "", cfg.Version),
		AdminToken:     cfg.AdminToken,
		AllowedOrigins: cfg.AllowedOrigins,
		SlowRequest:    cfg.SlowRequest,
	})

	srv := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
		// a listagem pode paginar várias vezes no GitHub
		WriteTimeout: 2 * time.Minute,
	}

	go func() {
		log.Info().Str("addr", srv.Addr).Str("repo", gh.Repo()).Msg("🔥 lead-inbox rodando")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatal().Err(err).Msg("servidor parou")
		}
	}()

	<-ctx.Done()
	log.Info().Msg("encerrando...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("shutdown forçado")
	}
}
