package events

import (
	"context"       // Write deadlines
	"encoding/json" // Message values
	"strconv"       // Message keys
	"sync"          // Guards close against sends
	"time"          // Timeouts

	"github.com/pkg/errors"         // Error wrapping
	"github.com/segmentio/kafka-go" // Kafka client
	"github.com/sirupsen/logrus"    // Logging library
)

var (
	// ErrPublisherClosed is returned after Close
	ErrPublisherClosed = errors.New("publisher closed")
	// ErrQueueFull is returned when the background writer is too far behind
	ErrQueueFull = errors.New("publish queue full")
)

const (
	queueSize    = 256              // Events waiting for the writer
	writeTimeout = 10 * time.Second // Per message, brokers included
)

type messageWriter interface {
	WriteMessages(ctx context.Context, msgs ...kafka.Message) error
	Close() error
}

// KafkaPublisher writes events as JSON messages keyed by order id, so every
// event of one order lands on the same partition. Messages are queued and
// written by a background worker; OrderPlaced never waits on the brokers.
type KafkaPublisher struct {
	writer messageWriter      // Kafka writer
	topic  string             // Destination topic
	queue  chan kafka.Message // Messages waiting for the worker
	done   chan struct{}      // Closed when the worker exits
	mu     sync.RWMutex       // Guards closed and queue
	closed bool               // Set by Close
}

func NewKafkaPublisher(brokers []string, topic string) *KafkaPublisher {
	writer := &kafka.Writer{
		Addr:         kafka.TCP(brokers...),
		Topic:        topic,
		Balancer:     &kafka.Hash{},
		RequiredAcks: kafka.RequireOne,
		BatchTimeout: 10 * time.Millisecond,
		MaxAttempts:  3,
		ErrorLogger: kafka.LoggerFunc(func(msg string, args ...interface{}) {
			logrus.Errorf("kafka producer: "+msg, args...)
		}),
	}
	return newKafkaPublisher(writer, topic, queueSize)
}

func newKafkaPublisher(writer messageWriter, topic string, size int) *KafkaPublisher {
	p := &KafkaPublisher{
		writer: writer,
		topic:  topic,
		queue:  make(chan kafka.Message, size),
		done:   make(chan struct{}),
	}
	go p.run()
	return p
}

// run drains the queue until Close
func (p *KafkaPublisher) run() {
	defer close(p.done)
	for msg := range p.queue {
		ctx, cancel := context.WithTimeout(context.Background(), writeTimeout)
		err := p.writer.WriteMessages(ctx, msg)
		cancel()
		if err != nil {
			logrus.WithFields(logrus.Fields{
				"topic":    p.topic,
				"order_id": string(msg.Key),
				"error":    err.Error(),
			}).Error("Could not publish order event")
		}
	}
}

// OrderPlaced queues the event. It fails only when the event cannot be
// encoded, the queue is full or the publisher is closed.
func (p *KafkaPublisher) OrderPlaced(_ context.Context, evt OrderPlaced) error {
	value, err := json.Marshal(evt)
	if err != nil {
		return errors.Wrap(err, "encode order placed event")
	}
	msg := kafka.Message{
		Key:   []byte(strconv.FormatUint(uint64(evt.OrderID), 10)),
		Value: value,
		Headers: []kafka.Header{
			{Key: "event", Value: []byte("order.placed")},
		},
	}

	p.mu.RLock()
	defer p.mu.RUnlock()
	if p.closed {
		return ErrPublisherClosed
	}
	select {
	case p.queue <- msg:
		return nil
	default:
		return errors.Wrapf(ErrQueueFull, "order %d", evt.OrderID)
	}
}

// Close stops accepting events, flushes the queue and closes the writer.
func (p *KafkaPublisher) Close() error {
	p.mu.Lock()
	if p.closed {
		p.mu.Unlock()
		return nil
	}
	p.closed = true
	close(p.queue)
	p.mu.Unlock()

	<-p.done
	return p.writer.Close()
}
