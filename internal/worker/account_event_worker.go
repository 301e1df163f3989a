package worker

import (
	"context"
	"fmt"
	"log/slog"
	"sync"

	amqp "github.com/rabbitmq/amqp091-go"

	"kanban-auth/internal/model"
	"kanban-auth/internal/platform/rabbitmq"
)

type BoardCacheEvicter interface {
	DeleteBoards(ctx context.Context, userID uint) error
}

// AccountEventWorker consumes account events and evicts the cached board list
// of deleted accounts, so every instance sharing the cache drops it even when
// the deletion was served elsewhere.
type AccountEventWorker struct {
	conn      *amqp.Connection
	cache     BoardCacheEvicter
	queueName string
	logger    *slog.Logger

	cancel context.CancelFunc
	wg     sync.WaitGroup
}

func NewAccountEventWorker(conn *amqp.Connection, cache BoardCacheEvicter, queueName string, logger *slog.Logger) *AccountEventWorker {
	return &AccountEventWorker{
		conn:      conn,
		cache:     cache,
		queueName: queueName,
		logger:    logger,
	}
}

func (w *AccountEventWorker) Start(ctx context.Context) error {
	if w.cancel != nil {
		return nil
	}

	workerCtx, cancel := context.WithCancel(ctx)
	w.cancel = cancel

	ch, err := w.conn.Channel()
	if err != nil {
		cancel()
		return fmt.Errorf("open worker channel failed: %w", err)
	}

	if err := rabbitmq.DeclareQueue(ch, w.queueName); err != nil {
		_ = ch.Close()
		cancel()
		return err
	}

	deliveries, err := ch.Consume(
		w.queueName,
		"",
		false,
		false,
		false,
		false,
		nil,
	)
	if err != nil {
		_ = ch.Close()
		cancel()
		return fmt.Errorf("consume queue failed: %w", err)
	}

	w.wg.Add(1)
	go func() {
		defer w.wg.Done()
		defer ch.Close()

		for {
			select {
			case <-workerCtx.Done():
				return
			case d, ok := <-deliveries:
				if !ok {
					return
				}
				if err := w.Handle(workerCtx, d.Body); err != nil {
					w.logger.WarnContext(workerCtx, "account event dropped", "error", err)
					_ = d.Nack(false, false)
					continue
				}
				_ = d.Ack(false)
			}
		}
	}()

	return nil
}

// Handle processes one delivery body.
func (w *AccountEventWorker) Handle(ctx context.Context, body []byte) error {
	event, err := rabbitmq.DecodeEvent(body)
	if err != nil {
		return err
	}

	switch event.Type {
	case model.AccountEventDeleted:
		if w.cache != nil {
			if err := w.cache.DeleteBoards(ctx, event.UserID); err != nil {
				return fmt.Errorf("evict boards of user %d failed: %w", event.UserID, err)
			}
		}
		w.logger.InfoContext(ctx, "account deleted", "user_id", event.UserID)
	default:
		w.logger.DebugContext(ctx, "account event", "type", event.Type, "user_id", event.UserID)
	}
	return nil
}

func (w *AccountEventWorker) Close() {
	if w.cancel != nil {
		w.cancel()
	}
	w.wg.Wait()
}
