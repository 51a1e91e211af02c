package events

import (
	"context"
	"fmt"
	"sync"
	"time"

	jsoniter "github.com/json-iterator/go"
	amqp "github.com/rabbitmq/amqp091-go"

	"github.com/andreasstove999/ecommerce-system/services/shop-cart-go/internal/cart"
)

var json = jsoniter.ConfigCompatibleWithStandardLibrary

// Sequencer hands out per-partition sequence numbers.
type Sequencer interface {
	NextSequence(ctx context.Context, partitionKey string) (int64, error)
}

type channel interface {
	PublishWithContext(ctx context.Context, exchange, key string, mandatory, immediate bool, msg amqp.Publishing) error
	Close() error
}

type PublisherOptions struct {
	Producer string
	// CorrelationID extracts the request correlation id, if any.
	CorrelationID func(ctx context.Context) string
}

// Publisher emits cart change events to the events exchange.
type Publisher struct {
	mu            sync.Mutex
	ch            channel
	seq           Sequencer
	producer      string
	correlationID func(ctx context.Context) string
	now           func() time.Time
}

func NewPublisher(conn *amqp.Connection, seq Sequencer, opts PublisherOptions) (*Publisher, error) {
	ch, err := conn.Channel()
	if err != nil {
		return nil, fmt.Errorf("open channel: %w", err)
	}

	if err := declareEventsExchange(ch); err != nil {
		_ = ch.Close()
		return nil, fmt.Errorf("declare events exchange: %w", err)
	}

	return newPublisher(ch, seq, opts), nil
}

func newPublisher(ch channel, seq Sequencer, opts PublisherOptions) *Publisher {
	producer := opts.Producer
	if producer == "" {
		producer = producerName
	}
	correlationID := opts.CorrelationID
	if correlationID == nil {
		correlationID = func(context.Context) string { return "" }
	}
	return &Publisher{
		ch:            ch,
		seq:           seq,
		producer:      producer,
		correlationID: correlationID,
		now:           func() time.Time { return time.Now().UTC() },
	}
}

func (p *Publisher) Close() error {
	return p.ch.Close()
}

func (p *Publisher) PublishCartChanged(ctx context.Context, ev cart.ChangeEvent) error {
	routingKey, err := routingKeyFor(ev.Type)
	if err != nil {
		return err
	}

	meta := EventMeta{
		CorrelationID: p.correlationID(ctx),
		PartitionKey:  cartPartitionKey(ev.CartID),
	}

	seq, err := p.seq.NextSequence(ctx, meta.PartitionKey)
	if err != nil {
		return fmt.Errorf("reserve sequence: %w", err)
	}

	env := newCartChangedEvent(ev, meta, seq, p.producer, p.now())
	body, err := json.Marshal(env)
	if err != nil {
		return fmt.Errorf("marshal %s envelope: %w", ev.Type, err)
	}

	return p.publishJSON(ctx, routingKey, env.EventID, env.CorrelationID, body)
}

func (p *Publisher) publishJSON(ctx context.Context, routingKey, messageID, correlationID string, body []byte) error {
	pubCtx, cancel := context.WithTimeout(ctx, 3*time.Second)
	defer cancel()

	p.mu.Lock()
	defer p.mu.Unlock()

	return p.ch.PublishWithContext(
		pubCtx,
		EventsExchange,
		routingKey,
		false,
		false,
		amqp.Publishing{
			ContentType:   "application/json",
			DeliveryMode:  amqp.Persistent,
			MessageId:     messageID,
			CorrelationId: correlationID,
			Body:          body,
		},
	)
}
