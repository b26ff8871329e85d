package queue

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	amqp "github.com/rabbitmq/amqp091-go"

	"github.com/xavierca1/lead-inbox/internal/infra/logger"
)

var ErrPoisonMessage = errors.New("mensagem malformada")

// LeadNotifier avisa a equipe sobre um novo lead (e-mail, etc)
type LeadNotifier interface {
	SendLeadNotice(ctx context.Context, event LeadCreatedEvent) error
}

// Consumer is the subset of *amqp.Channel the worker needs.
type Consumer interface {
	Consume(queue, consumer string, autoAck, exclusive, noLocal, noWait bool, args amqp.Table) (<-chan amqp.Delivery, error)
}

type Worker struct {
	Channel  Consumer
	Notifier LeadNotifier
	log      *logger.Logger
}

func NewWorker(ch Consumer, notifier LeadNotifier) *Worker {
	return &Worker{
		Channel:  ch,
		Notifier: notifier,
		log:      logger.Named("lead-worker"),
	}
}

// Start consumes until ctx is cancelled or the delivery channel closes.
func (w *Worker) Start(ctx context.Context, queueName string) error {
	msgs, err := w.Channel.Consume(
		queueName,
		"",    // consumer
		false, // auto-ack (manual é mais seguro)
		false, // exclusive
		false, // no-local
		false, // no-wait
		nil,
	)
	if err != nil {
		return fmt.Errorf("falha ao registrar consumidor RabbitMQ: %w", err)
	}

	w.log.Info().Str("queue", queueName).Msg("👂 worker aguardando mensagens")

	for {
		select {
		case <-ctx.Done():
			w.log.Info().Msg("worker encerrado")
			return nil
		case d, ok := <-msgs:
			if !ok {
				return errors.New("canal de entregas fechado")
			}
			w.handle(ctx, d)
		}
	}
}

func (w *Worker) handle(ctx context.Context, d amqp.Delivery) {
	if err := w.Process(ctx, d.Body); err != nil {
		w.log.Error().Err(err).Str("message_id", d.MessageId).Msg("❌ falha ao processar lead")
		// sem requeue: vai para a DLQ
		_ = d.Nack(false, false)
		return
	}
	_ = d.Ack(false)
}

// Process handles one message body.
func (w *Worker) Process(ctx context.Context, body []byte) error {
	var event LeadCreatedEvent
	if err := json.Unmarshal(body, &event); err != nil {
		return fmt.Errorf("%w: %v", ErrPoisonMessage, err)
	}
	if event.IssueNumber == 0 {
		return fmt.Errorf("%w: issue_number ausente", ErrPoisonMessage)
	}

	if w.Notifier == nil {
		w.log.Debug().Int("issue", event.IssueNumber).Msg("notificador não configurado, apenas logando")
		return nil
	}

	if err := w.Notifier.SendLeadNotice(ctx, event); err != nil {
		return fmt.Errorf("notify lead #%d: %w", event.IssueNumber, err)
	}

	w.log.Info().Int("issue", event.IssueNumber).Str("site", event.Site).Msg("✅ aviso de lead enviado")
	return nil
}
