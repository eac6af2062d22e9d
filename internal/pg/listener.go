package pg

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"time"

	"github.com/jackc/pgx/v5"

	"github.com/quickmatch/lobby-service/internal/feed"
)

// Listener держит выделенное соединение под LISTEN и переливает
// NOTIFY-payload'ы в шину событий. Репозитории шлют pg_notify в той же
// транзакции, что и запись, поэтому шина видит только закоммиченные
// изменения в порядке коммитов этого инстанса.
type Listener struct {
	dsn     string
	bus     *feed.Bus
	backoff time.Duration
}

func NewListener(dsn string, bus *feed.Bus) *Listener {
	return &Listener{
		dsn:     dsn,
		bus:     bus,
		backoff: time.Second,
	}
}

// Run блокирует до отмены контекста. Соединение пересоздаётся после
// любой ошибки с простым фиксированным backoff, пропущенные за время
// реконнекта события клиенты добирают свежим снапшотом.
func (l *Listener) Run(ctx context.Context) error {
	for {
		if err := l.listenOnce(ctx); err != nil {
			if ctx.Err() != nil {
				return ctx.Err()
			}
			slog.Warn("feed listener disconnected", "err", err)
		}

		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(l.backoff):
		}
	}
}

func (l *Listener) listenOnce(ctx context.Context) error {
	conn, err := pgx.Connect(ctx, l.dsn)
	if err != nil {
		return err
	}
	defer func() {
		closeCtx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
		defer cancel()
		_ = conn.Close(closeCtx)
	}()

	if _, err := conn.Exec(ctx, "LISTEN "+feed.Channel); err != nil {
		return err
	}
	slog.Info("feed listener attached", "channel", feed.Channel)

	for {
		n, err := conn.WaitForNotification(ctx)
		if err != nil {
			return err
		}

		var ev feed.ChangeEvent
		if err := json.Unmarshal([]byte(n.Payload), &ev); err != nil {
			slog.Warn("feed listener: bad payload dropped", "err", err)
			continue
		}
		l.bus.Publish(ev)
	}
}

// IsCancel — отличает штатную остановку от сбоя соединения.
func IsCancel(err error) bool {
	return errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded)
}
