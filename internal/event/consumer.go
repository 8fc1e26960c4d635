// Package event keeps the catalog index in sync with product change events.
package event

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/segmentio/kafka-go"
	"go.uber.org/zap"

	"github.com/kaurinho-svg/waura-backend/internal/domain"
)

// Event actions carried in the topic name suffix.
const (
	actionCreated = "created"
	actionUpdated = "updated"
	actionDeleted = "deleted"
)

// maxHandlerRetries bounds attempts per message before it is committed and
// skipped as a poison pill.
const maxHandlerRetries = 3

// Indexer is the slice of the catalog engine the consumer writes to.
type Indexer interface {
	Index(ctx context.Context, p *domain.Product) error
	Delete(ctx context.Context, id string) error
}

// Config holds consumer settings. Empty brokers disable the consumer.
type Config struct {
	Brokers     []string
	GroupID     string
	TopicPrefix string
}

// deleteEvent is the payload of a deletion; create/update events carry the
// full product document.
type deleteEvent struct {
	ID string `json:"id"`
}

// Consumer reads product change events and applies them to the index.
type Consumer struct {
	reader    *kafka.Reader
	engine    Indexer
	log       *zap.Logger
	closeOnce sync.Once
}

// Topics returns the topic names the consumer subscribes to.
func Topics(prefix string) []string {
	return []string{
		prefix + "." + actionCreated,
		prefix + "." + actionUpdated,
		prefix + "." + actionDeleted,
	}
}

// NewConsumer creates a consumer over the three product change topics.
// Returns nil when no brokers are configured.
func NewConsumer(cfg Config, engine Indexer, log *zap.Logger) *Consumer {
	if len(cfg.Brokers) == 0 {
		return nil
	}
	r := kafka.NewReader(kafka.ReaderConfig{
		Brokers:     cfg.Brokers,
		GroupID:     cfg.GroupID,
		GroupTopics: Topics(cfg.TopicPrefix),
	})
	return &Consumer{reader: r, engine: engine, log: log}
}

// Run consumes until the context is canceled. Malformed events are logged
// and committed so they never block the partition.
func (c *Consumer) Run(ctx context.Context) error {
	c.log.Info("index sync consumer started",
		zap.Strings("topics", c.reader.Config().GroupTopics),
		zap.String("group", c.reader.Config().GroupID),
	)

	for {
		msg, err := c.reader.FetchMessage(ctx)
		if err != nil {
			if ctx.Err() != nil {
				c.log.Info("index sync consumer stopping")
				return c.Close()
			}
			c.log.Error("fetch message", zap.Error(err))
			continue
		}

		if err := c.handleWithRetry(ctx, msg); err != nil {
			c.log.Error("event dropped after retries",
				zap.String("topic", msg.Topic),
				zap.Int64("offset", msg.Offset),
				zap.Error(err),
			)
		}
		if err := c.reader.CommitMessages(ctx, msg); err != nil {
			if ctx.Err() != nil {
				return c.Close()
			}
			c.log.Error("commit message", zap.Error(err))
		}
	}
}

func (c *Consumer) handleWithRetry(ctx context.Context, msg kafka.Message) error {
	var lastErr error
	for attempt := 1; attempt <= maxHandlerRetries; attempt++ {
		lastErr = c.handle(ctx, msg)
		if lastErr == nil {
			return nil
		}
		if errIsMalformed(lastErr) {
			// Retrying cannot fix a bad payload.
			return lastErr
		}
		if attempt < maxHandlerRetries {
			select {
			case <-ctx.Done():
				return lastErr
			case <-time.After(time.Duration(attempt) * 100 * time.Millisecond):
			}
		}
	}
	return lastErr
}

func (c *Consumer) handle(ctx context.Context, msg kafka.Message) error {
	action := msg.Topic[strings.LastIndexByte(msg.Topic, '.')+1:]
	switch action {
	case actionCreated, actionUpdated:
		var p domain.Product
		if err := json.Unmarshal(msg.Value, &p); err != nil {
			return malformedErr{fmt.Errorf("decode product event: %w", err)}
		}
		if p.ID == "" {
			return malformedErr{fmt.Errorf("product event without id")}
		}
		return c.engine.Index(ctx, &p)
	case actionDeleted:
		var ev deleteEvent
		if err := json.Unmarshal(msg.Value, &ev); err != nil {
			return malformedErr{fmt.Errorf("decode delete event: %w", err)}
		}
		if ev.ID == "" {
			return malformedErr{fmt.Errorf("delete event without id")}
		}
		return c.engine.Delete(ctx, ev.ID)
	default:
		return malformedErr{fmt.Errorf("unknown event action %q", action)}
	}
}

type malformedErr struct{ error }

func (e malformedErr) Unwrap() error { return e.error }

func errIsMalformed(err error) bool {
	_, ok := err.(malformedErr)
	return ok
}

// Close closes the underlying reader. Safe to call more than once.
func (c *Consumer) Close() error {
	var err error
	c.closeOnce.Do(func() {
		err = c.reader.Close()
	})
	return err
}
