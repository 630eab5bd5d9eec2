package events

import (
	"context"
	"encoding/json"
	"sync"
	"time"

	"github.com/segmentio/kafka-go"
	log "github.com/sirupsen/logrus"
)

// KafkaPublisher writes envelopes to one topic, keyed by correlation id so
// events for the same order stay ordered within a partition.
type KafkaPublisher struct {
	w        *kafka.Writer
	producer string
	logger   *log.Entry

	mu      sync.RWMutex
	closed  bool
	inbox   chan kafka.Message
	closeCh chan struct{}
}

func NewKafkaPublisher(brokers []string, topic, producer string, buf int) *KafkaPublisher {
	return &KafkaPublisher{
		w: &kafka.Writer{
			Addr:         kafka.TCP(brokers...),
			Topic:        topic,
			Balancer:     &kafka.Hash{},
			RequiredAcks: kafka.RequireAll,
			Async:        true,
		},
		producer: producer,
		inbox:    make(chan kafka.Message, buf),
		closeCh:  make(chan struct{}),
		logger:   log.NewEntry(log.StandardLogger()).WithField("component", "events"),
	}
}

func (p *KafkaPublisher) Start(ctx context.Context) {
	go func() {
		for {
			select {
			case <-ctx.Done():
				p.Close()
				for m := range p.inbox {
					p.write(m)
				}
				_ = p.w.Close()
				close(p.closeCh)
				return
			case m, ok := <-p.inbox:
				if !ok {
					_ = p.w.Close()
					close(p.closeCh)
					return
				}
				p.write(m)
			}
		}
	}()
}

func (p *KafkaPublisher) write(m kafka.Message) {
	if err := p.w.WriteMessages(context.Background(), m); err != nil {
		p.logger.WithError(err).Warn("event publish failed")
	}
}

func (p *KafkaPublisher) Publish(eventType, correlationID string, payload any) {
	env, err := NewEnvelope(eventType, p.producer, correlationID, payload)
	if err != nil {
		p.logger.WithError(err).Warn("event marshal failed")
		return
	}
	raw, err := json.Marshal(env)
	if err != nil {
		p.logger.WithError(err).Warn("envelope marshal failed")
		return
	}
	p.mu.RLock()
	defer p.mu.RUnlock()
	if p.closed {
		p.logger.Warn("publisher closed, dropping event")
		return
	}
	select {
	case p.inbox <- kafka.Message{Key: []byte(correlationID), Value: raw, Time: time.Now()}:
	default:
		p.logger.Warn("event inbox full, dropping event")
	}
}

// Close flushes buffered messages and stops the writer goroutine. Publish
// after Close drops the event; Close is idempotent.
func (p *KafkaPublisher) Close() {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.closed {
		return
	}
	p.closed = true
	close(p.inbox)
}

func (p *KafkaPublisher) WaitClosed() { <-p.closeCh }

var _ Publisher = (*KafkaPublisher)(nil)
