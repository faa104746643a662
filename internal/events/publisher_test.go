package events

import (
	"context"
	"encoding/json"
	"fmt"
	"testing"

	"github.com/MatheusdoNAm/AutoAtendimento/currency"
	"github.com/MatheusdoNAm/AutoAtendimento/internal/order"
	"github.com/MatheusdoNAm/AutoAtendimento/log2"
	"github.com/juju/errors"
	"github.com/segmentio/kafka-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeWriter struct {
	msgs   []kafka.Message
	err    error
	closed bool
}

func (w *fakeWriter) WriteMessages(ctx context.Context, msgs ...kafka.Message) error {
	if w.err != nil {
		return w.err
	}
	w.msgs = append(w.msgs, msgs...)
	return nil
}
func (w *fakeWriter) Close() error { w.closed = true; return nil }

func TestKafkaPublisher(t *testing.T) {
	t.Parallel()
	w := &fakeWriter{}
	p := newKafkaPublisher(log2.NewTest(t, log2.LDebug), w, 3)
	o := &order.Order{
		Number: 17, Method: order.MethodCash, Total: 650, Tendered: 1000,
		Lines:  []order.Line{{Code: 1, Name: "coxinha", Qty: 1, UnitPrice: 650}},
		Change: map[currency.Nominal]uint{200: 1, 100: 1, 50: 1},
	}
	require.NoError(t, p.PublishOrder(context.Background(), o))
	require.Len(t, w.msgs, 1)
	msg := w.msgs[0]
	assert.Equal(t, "17", string(msg.Key))
	assert.Equal(t, "event_type", msg.Headers[0].Key)
	assert.Equal(t, EventTypeOrderPaid, string(msg.Headers[0].Value))

	var event OrderEvent
	require.NoError(t, json.Unmarshal(msg.Value, &event))
	assert.Equal(t, 3, event.Terminal)
	assert.Equal(t, string(msg.Headers[1].Value), event.ID)
	assert.Equal(t, o.Lines, event.Order.Lines)
	assert.Equal(t, o.Change, event.Order.Change)

	require.NoError(t, p.Close())
	assert.True(t, w.closed)
}

func TestKafkaPublisherError(t *testing.T) {
	t.Parallel()
	cause := fmt.Errorf("broker down")
	p := newKafkaPublisher(log2.NewTest(t, log2.LDebug), &fakeWriter{err: cause}, 0)
	err := p.PublishOrder(context.Background(), &order.Order{Number: 1})
	assert.Equal(t, cause, errors.Cause(err))
	assert.Contains(t, err.Error(), "order=1")
}

func TestNewKafkaPublisherInvalid(t *testing.T) {
	t.Parallel()
	_, err := NewKafkaPublisher(log2.NewTest(t, log2.LDebug), nil, "orders", 0)
	assert.True(t, errors.IsNotValid(err))
}
