// Package events publishes completed orders to external consumers.
package events

import (
	"context"
	"encoding/json"
	"strconv"
	"time"

	"github.com/MatheusdoNAm/AutoAtendimento/internal/order"
	"github.com/MatheusdoNAm/AutoAtendimento/log2"
	"github.com/google/uuid"
	"github.com/juju/errors"
	"github.com/segmentio/kafka-go"
)

const EventTypeOrderPaid = "order.paid"

type Publisher interface {
	PublishOrder(ctx context.Context, o *order.Order) error
	Close() error
}

type OrderEvent struct {
	ID        string       `json:"id"`
	Type      string       `json:"type"`
	Terminal  int          `json:"terminal"`
	Order     *order.Order `json:"order"`
	Timestamp time.Time    `json:"timestamp"`
}

// subset of *kafka.Writer
type messageWriter interface {
	WriteMessages(ctx context.Context, msgs ...kafka.Message) error
	Close() error
}

type KafkaPublisher struct {
	log      *log2.Log
	writer   messageWriter
	terminal int
}

var _ Publisher = (*KafkaPublisher)(nil)

func NewKafkaPublisher(log *log2.Log, brokers []string, topic string, terminal int) (*KafkaPublisher, error) {
	if len(brokers) == 0 || topic == "" {
		return nil, errors.NotValidf("events kafka brokers=%v topic=%q", brokers, topic)
	}
	w := &kafka.Writer{
		Addr:         kafka.TCP(brokers...),
		Topic:        topic,
		Balancer:     &kafka.Hash{},
		WriteTimeout: 10 * time.Second,
		RequiredAcks: kafka.RequireOne,
	}
	return newKafkaPublisher(log, w, terminal), nil
}

func newKafkaPublisher(log *log2.Log, w messageWriter, terminal int) *KafkaPublisher {
	return &KafkaPublisher{log: log, writer: w, terminal: terminal}
}

func (p *KafkaPublisher) PublishOrder(ctx context.Context, o *order.Order) error {
	event := OrderEvent{
		ID:        uuid.NewString(),
		Type:      EventTypeOrderPaid,
		Terminal:  p.terminal,
		Order:     o,
		Timestamp: time.Now().UTC(),
	}
	b, err := json.Marshal(event)
	if err != nil {
		return errors.Annotate(err, "events marshal")
	}
	msg := kafka.Message{
		Key:   []byte(strconv.FormatUint(uint64(o.Number), 10)),
		Value: b,
		Headers: []kafka.Header{
			{Key: "event_type", Value: []byte(event.Type)},
			{Key: "event_id", Value: []byte(event.ID)},
		},
	}
	if err := p.writer.WriteMessages(ctx, msg); err != nil {
		return errors.Annotatef(err, "events publish order=%d", o.Number)
	}
	p.log.Debugf("events.publish order=%d event=%s", o.Number, event.ID)
	return nil
}

func (p *KafkaPublisher) Close() error { return p.writer.Close() }

type Noop struct{}

var _ Publisher = Noop{}

func (Noop) PublishOrder(context.Context, *order.Order) error { return nil }
func (Noop) Close() error                                   { return nil }
