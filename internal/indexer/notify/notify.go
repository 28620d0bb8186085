// Package notify announces committed index files over Kafka and applies
// those announcements on the search side by loading the new file and
// dropping cached results.
package notify

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/KhaiTheTran/SystemsProgramming/internal/catalog"
	apperrors "github.com/KhaiTheTran/SystemsProgramming/pkg/errors"
	"github.com/KhaiTheTran/SystemsProgramming/pkg/kafka"
	"github.com/KhaiTheTran/SystemsProgramming/pkg/resilience"
)

// EventType tags IndexComplete messages.
const EventType = "index.complete"

// IndexComplete is the payload published after an index file is written.
type IndexComplete struct {
	EventID   string    `json:"event_id"`
	Path      string    `json:"path"`
	Documents int       `json:"documents"`
	Words     int       `json:"words"`
	Bytes     int64     `json:"bytes"`
	Checksum  uint32    `json:"checksum"`
	CreatedAt time.Time `json:"created_at"`
}

// EventProducer is the subset of kafka.Producer the Publisher needs.
type EventProducer interface {
	Publish(ctx context.Context, event kafka.Event) error
}

type Publisher struct {
	producer EventProducer
	logger   *slog.Logger
}

func NewPublisher(producer EventProducer) *Publisher {
	return &Publisher{
		producer: producer,
		logger:   slog.Default().With("component", "index-notify"),
	}
}

// Publish announces e, keyed by its path so that rebuilds of one file stay
// ordered on a single partition.
func (p *Publisher) Publish(ctx context.Context, e catalog.Entry) (IndexComplete, error) {
	event := IndexComplete{
		EventID:   uuid.NewString(),
		Path:      e.Path,
		Documents: e.Documents,
		Words:     e.Words,
		Bytes:     e.Bytes,
		Checksum:  e.Checksum,
		CreatedAt: e.CreatedAt,
	}
	if event.CreatedAt.IsZero() {
		event.CreatedAt = time.Now().UTC()
	}
	if err := p.producer.Publish(ctx, kafka.Event{Key: e.Path, Type: EventType, Value: event}); err != nil {
		return IndexComplete{}, err
	}
	p.logger.Info("index completion published", "event_id", event.EventID, "path", event.Path)
	return event, nil
}

// FileLoader opens or reopens an index file for searching.
type FileLoader interface {
	ReloadFile(path string, validate bool) error
}

// Invalidator drops cached search results.
type Invalidator interface {
	Invalidate(ctx context.Context) error
}

// Handler returns a kafka.MessageHandler that loads each announced file
// into loader and then clears inv, if set. Opening is retried with retry
// unless the file is corrupt. Undecodable messages are logged and dropped.
func Handler(loader FileLoader, inv Invalidator, validate bool, retry resilience.RetryConfig) kafka.MessageHandler {
	logger := slog.Default().With("component", "index-notify")
	return func(ctx context.Context, key []byte, value []byte) error {
		event, err := kafka.DecodeJSON[IndexComplete](value)
		if err != nil {
			logger.Error("failed to decode index completion", "error", err, "key", string(key))
			return nil
		}
		if event.Path == "" {
			logger.Error("index completion without a path", "event_id", event.EventID)
			return nil
		}

		err = resilience.Retry(ctx, "reload-index-file", retry, func() error {
			err := loader.ReloadFile(event.Path, validate)
			if errors.Is(err, apperrors.ErrCorruption) || errors.Is(err, apperrors.ErrInvalidArgument) {
				return resilience.Permanent(err)
			}
			return err
		})
		if err != nil {
			if errors.Is(err, apperrors.ErrCorruption) {
				logger.Error("announced index file is corrupt, skipping",
					"event_id", event.EventID, "path", event.Path, "error", err)
				return nil
			}
			return err
		}

		if inv != nil {
			if err := inv.Invalidate(ctx); err != nil {
				logger.Warn("cache invalidation failed", "path", event.Path, "error", err)
			}
		}
		logger.Info("index file loaded from notification",
			"event_id", event.EventID,
			"path", event.Path,
			"documents", event.Documents,
		)
		return nil
	}
}
