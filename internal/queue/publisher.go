package queue

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	amqp "github.com/rabbitmq/amqp091-go"
	"go.uber.org/zap"
)

// Publisher emits reservation events for asynchronous consumers.
type Publisher interface {
	Publish(ctx context.Context, event ReservationEvent) error
	Close()
}

type amqpPublisher struct {
	conn     *amqp.Connection
	channel  *amqp.Channel
	exchange string
	log      *zap.Logger
}

// NewPublisher connects to the AMQP broker and declares a durable topic
// exchange for reservation events. An empty url returns a no-op publisher so
// the service runs without a broker.
func NewPublisher(url, exchange string, log *zap.Logger) (Publisher, error) {
	if url == "" {
		log.Info("AMQP URL not set, event publishing disabled")
		return &noopPublisher{}, nil
	}

	conn, err := amqp.Dial(url)
	if err != nil {
		return nil, fmt.Errorf("dial amqp: %w", err)
	}

	channel, err := conn.Channel()
	if err != nil {
		conn.Close()
		return nil, fmt.Errorf("open amqp channel: %w", err)
	}

	if err := channel.ExchangeDeclare(
		exchange,
		"topic",
		true,  // durable
		false, // auto-delete
		false, // internal
		false, // no-wait
		nil,
	); err != nil {
		channel.Close()
		conn.Close()
		return nil, fmt.Errorf("declare exchange %s: %w", exchange, err)
	}

	return &amqpPublisher{
		conn:     conn,
		channel:  channel,
		exchange: exchange,
		log:      log.With(zap.String("component", "publisher")),
	}, nil
}

func (p *amqpPublisher) Publish(ctx context.Context, event ReservationEvent) error {
	body, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("marshal event %s: %w", event.Type, err)
	}

	pubCtx, cancel := context.WithTimeout(ctx, 3*time.Second)
	defer cancel()

	err = p.channel.PublishWithContext(pubCtx,
		p.exchange,
		event.Type, // routing key
		false,      // mandatory
		false,      // immediate
		amqp.Publishing{
			ContentType:  "application/json",
			DeliveryMode: amqp.Persistent,
			Timestamp:    event.OccurredAt,
			Body:         body,
		},
	)
	if err != nil {
		p.log.Error("Failed to publish reservation event",
			zap.Error(err),
			zap.String("type", event.Type),
			zap.String("reservation_id", event.ReservationID),
		)
		return fmt.Errorf("publish %s: %w", event.Type, err)
	}

	p.log.Debug("Reservation event published",
		zap.String("type", event.Type),
		zap.String("reservation_id", event.ReservationID),
	)
	return nil
}

func (p *amqpPublisher) Close() {
	if p.channel != nil {
		p.channel.Close()
	}
	if p.conn != nil {
		p.conn.Close()
	}
}

type noopPublisher struct{}

func (*noopPublisher) Publish(context.Context, ReservationEvent) error { return nil }
func (*noopPublisher) Close()                                          {}
