// Package bus adapts RabbitMQ to the pub/sub contract the services are
// written against: topics on one exchange, at-least-once delivery, and an
// explicit Ack/Drop outcome per consumed message.
package bus

import (
	"context"
	"fmt"
	"sync"

	amqp "github.com/rabbitmq/amqp091-go"

	"burger-bar/internal/common/logger"
	"burger-bar/internal/connections/rabbitmq"
	"burger-bar/internal/metrics"
	"burger-bar/internal/trace"
)

// Exchange carries every topic in the system.
const Exchange = "orderpubsub"

// Subscription maps one topic to the local route that consumes it. Each
// service returns its subscriptions from a pure function; the client
// declares the matching topology at startup.
type Subscription struct {
	PubsubName string
	Topic      string
	Route      string
}

// Result is the consumer outcome. Ack confirms the message; Drop discards
// it without redelivery. There is no requeue variant: redelivery is the
// broker's job and drop-on-error is deliberate.
type Result int

const (
	Ack Result = iota
	Drop
)

func (r Result) String() string {
	if r == Ack {
		return "ack"
	}
	return "drop"
}

// Delivery is one consumed message.
type Delivery struct {
	Topic string
	Body  []byte
}

// Handler processes one delivery. The ctx carries the trace ID extracted
// from the message headers.
type Handler func(ctx context.Context, d Delivery) Result

// Publisher is the outbound half, satisfied by Client.
type Publisher interface {
	Publish(ctx context.Context, topic string, body []byte) error
}

type Client struct {
	rmq *rabbitmq.Client
	lg  *logger.Logger
}

func New(rmq *rabbitmq.Client, lg *logger.Logger) *Client {
	return &Client{rmq: rmq, lg: lg}
}

// QueueName is the durable queue backing a topic subscription.
func QueueName(topic string) string { return topic + ".q" }

// Publish sends body to topic and waits for the broker's confirm. The
// trace ID from ctx is forwarded in the message headers.
func (c *Client) Publish(ctx context.Context, topic string, body []byte) error {
	return c.rmq.Publish(ctx, Exchange, topic, body, headersFromContext(ctx))
}

// Subscribe declares the exchange, a queue per subscription, and consumes
// until ctx is canceled. handlers is keyed by route; every subscription
// must have one. In-flight deliveries are drained before returning.
func (c *Client) Subscribe(ctx context.Context, subs []Subscription, handlers map[string]Handler, prefetch int) error {
	if prefetch <= 0 {
		prefetch = 1
	}
	ch, err := c.rmq.Channel()
	if err != nil {
		return fmt.Errorf("open channel: %w", err)
	}
	defer ch.Close()

	if err := ch.ExchangeDeclare(Exchange, "topic", true, false, false, false, nil); err != nil {
		return fmt.Errorf("declare exchange %s: %w", Exchange, err)
	}
	for _, sub := range subs {
		if _, ok := handlers[sub.Route]; !ok {
			return fmt.Errorf("no handler for route %s", sub.Route)
		}
		q := QueueName(sub.Topic)
		if _, err := ch.QueueDeclare(q, true, false, false, false, nil); err != nil {
			return fmt.Errorf("declare queue %s: %w", q, err)
		}
		if err := ch.QueueBind(q, sub.Topic, Exchange, false, nil); err != nil {
			return fmt.Errorf("bind queue %s: %w", q, err)
		}
	}
	if err := ch.Qos(prefetch, 0, false); err != nil {
		return err
	}

	var wg sync.WaitGroup
	tags := make([]string, 0, len(subs))
	for _, sub := range subs {
		tag := "consumer-" + sub.Topic
		msgs, err := ch.Consume(QueueName(sub.Topic), tag, false, false, false, false, nil)
		if err != nil {
			return fmt.Errorf("consume %s: %w", sub.Topic, err)
		}
		tags = append(tags, tag)

		h := handlers[sub.Route]
		topic := sub.Topic
		wg.Add(1)
		go func() {
			defer wg.Done()
			for d := range msgs {
				dctx := contextFromHeaders(ctx, d.Headers)
				res := h(dctx, Delivery{Topic: topic, Body: d.Body})
				switch res {
				case Ack:
					_ = d.Ack(false)
				default:
					// No dead-letter exchange on these queues: a nack
					// without requeue discards the message for good.
					_ = d.Nack(false, false)
				}
				metrics.EventsConsumed.WithLabelValues(topic, res.String()).Inc()
			}
		}()
	}

	<-ctx.Done()
	for _, tag := range tags {
		_ = ch.Cancel(tag, false)
	}
	wg.Wait()
	return nil
}

func headersFromContext(ctx context.Context) amqp.Table {
	id, ok := trace.ID(ctx)
	if !ok {
		return nil
	}
	return amqp.Table{trace.Header: id}
}

func contextFromHeaders(ctx context.Context, headers amqp.Table) context.Context {
	if id, ok := headers[trace.Header].(string); ok && id != "" {
		return trace.WithID(ctx, id)
	}
	return ctx
}
