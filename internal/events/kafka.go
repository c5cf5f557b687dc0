package events

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/IBM/sarama"
	"github.com/smallbiznis/snelcrm/internal/config"
	"github.com/smallbiznis/snelcrm/internal/observability/tracing"
	"go.uber.org/zap"
)

var ErrPublisherClosed = errors.New("publisher_closed")

// KafkaPublisher hands events to a sarama AsyncProducer. Delivery results
// are drained in the background and only logged.
type KafkaPublisher struct {
	producer sarama.AsyncProducer
	topic    string
	log      *zap.Logger

	// done unblocks publishers waiting on a full input before Close takes
	// the write lock. mu keeps every send ahead of AsyncClose.
	done      chan struct{}
	closeOnce sync.Once
	mu        sync.RWMutex
	closed    bool
	wg        sync.WaitGroup
}

func newSaramaConfig(cfg config.KafkaConfig) *sarama.Config {
	sc := sarama.NewConfig()
	sc.ClientID = cfg.ClientID
	sc.Producer.RequiredAcks = sarama.WaitForAll
	sc.Producer.Compression = sarama.CompressionSnappy
	sc.Producer.Idempotent = false
	sc.Producer.Flush.Frequency = 100 * time.Millisecond
	sc.Producer.Retry.Max = 5
	sc.Producer.Retry.Backoff = 200 * time.Millisecond
	sc.Producer.Return.Successes = true
	sc.Producer.Return.Errors = true
	sc.Producer.Partitioner = sarama.NewHashPartitioner
	return sc
}

func NewKafkaPublisher(cfg config.KafkaConfig, log *zap.Logger) (*KafkaPublisher, error) {
	if len(cfg.Brokers) == 0 {
		return nil, errors.New("kafka brokers are required")
	}
	producer, err := sarama.NewAsyncProducer(cfg.Brokers, newSaramaConfig(cfg))
	if err != nil {
		return nil, fmt.Errorf("create kafka producer: %w", err)
	}
	return newKafkaPublisher(producer, cfg.Topic, log), nil
}

func newKafkaPublisher(producer sarama.AsyncProducer, topic string, log *zap.Logger) *KafkaPublisher {
	p := &KafkaPublisher{
		producer: producer,
		topic:    topic,
		log:      log.Named("events.kafka"),
		done:     make(chan struct{}),
	}
	p.wg.Add(2)
	go p.drainSuccesses()
	go p.drainErrors()
	return p
}

func (p *KafkaPublisher) Publish(ctx context.Context, evt Event) error {
	value, err := json.Marshal(evt)
	if err != nil {
		return fmt.Errorf("marshal event %s: %w", evt.Type, err)
	}

	msg := &sarama.ProducerMessage{
		Topic:    p.topic,
		Key:      sarama.StringEncoder(evt.Subject),
		Value:    sarama.ByteEncoder(value),
		Metadata: evt,
		Headers: []sarama.RecordHeader{
			{Key: []byte("event_type"), Value: []byte(evt.Type)},
			{Key: []byte("event_id"), Value: []byte(evt.ID)},
		},
	}
	carrier := &headerCarrier{msg: msg}
	tracing.InjectContext(ctx, carrier)

	p.mu.RLock()
	defer p.mu.RUnlock()
	if p.closed {
		return ErrPublisherClosed
	}
	select {
	case <-p.done:
		return ErrPublisherClosed
	default:
	}
	select {
	case p.producer.Input() <- msg:
		return nil
	case <-p.done:
		return ErrPublisherClosed
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (p *KafkaPublisher) drainSuccesses() {
	defer p.wg.Done()
	for msg := range p.producer.Successes() {
		evt, _ := msg.Metadata.(Event)
		p.log.Debug("event delivered",
			zap.String("event_id", evt.ID),
			zap.String("event_type", evt.Type),
			zap.Int32("partition", msg.Partition),
			zap.Int64("offset", msg.Offset),
		)
	}
}

func (p *KafkaPublisher) drainErrors() {
	defer p.wg.Done()
	for perr := range p.producer.Errors() {
		evt, _ := perr.Msg.Metadata.(Event)
		p.log.Warn("event delivery failed",
			zap.String("event_id", evt.ID),
			zap.String("event_type", evt.Type),
			zap.Error(perr.Err),
		)
	}
}

// Close flushes buffered messages and waits for the drain goroutines.
func (p *KafkaPublisher) Close() error {
	p.closeOnce.Do(func() { close(p.done) })

	p.mu.Lock()
	if p.closed {
		p.mu.Unlock()
		return nil
	}
	p.closed = true
	p.mu.Unlock()

	p.producer.AsyncClose()
	p.wg.Wait()
	return nil
}

// headerCarrier adapts record headers to the otel propagation carrier.
type headerCarrier struct {
	msg *sarama.ProducerMessage
}

func (c *headerCarrier) Get(key string) string {
	for _, h := range c.msg.Headers {
		if string(h.Key) == key {
			return string(h.Value)
		}
	}
	return ""
}

func (c *headerCarrier) Set(key, value string) {
	for i, h := range c.msg.Headers {
		if string(h.Key) == key {
			c.msg.Headers[i].Value = []byte(value)
			return
		}
	}
	c.msg.Headers = append(c.msg.Headers, sarama.RecordHeader{Key: []byte(key), Value: []byte(value)})
}

func (c *headerCarrier) Keys() []string {
	keys := make([]string, 0, len(c.msg.Headers))
	for _, h := range c.msg.Headers {
		keys = append(keys, string(h.Key))
	}
	return keys
}
