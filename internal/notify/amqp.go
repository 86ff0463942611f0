package notify

import (
	"context"
	"encoding/json"
	"fmt"

	amqp "github.com/rabbitmq/amqp091-go"
)

// AMQP publishes notification events to a topic exchange for a delivery
// worker to render and send. Routing key is "notify.<template>".
type AMQP struct {
	conn     *amqp.Connection
	ch       *amqp.Channel
	exchange string
}

func NewAMQP(url, exchange string) (*AMQP, error) {
	conn, err := amqp.Dial(url)
	if err != nil {
		return nil, fmt.Errorf("dial rabbitmq: %w", err)
	}
	ch, err := conn.Channel()
	if err != nil {
		_ = conn.Close()
		return nil, fmt.Errorf("open channel: %w", err)
	}
	if err := ch.ExchangeDeclare(exchange, "topic", true, false, false, false, nil); err != nil {
		_ = ch.Close()
		_ = conn.Close()
		return nil, fmt.Errorf("declare exchange: %w", err)
	}
	return &AMQP{conn: conn, ch: ch, exchange: exchange}, nil
}

type notificationEvent struct {
	Identity string         `json:"identity"`
	Template string         `json:"template"`
	Data     map[string]any `json:"data,omitempty"`
}

func (a *AMQP) Send(ctx context.Context, identity, template string, data map[string]any) error {
	body, err := json.Marshal(notificationEvent{
		Identity: identity,
		Template: template,
		Data:     data,
	})
	if err != nil {
		return fmt.Errorf("encode notification: %w", err)
	}
	return a.ch.PublishWithContext(ctx, a.exchange, "notify."+template, false, false, amqp.Publishing{
		ContentType: "application/json",
		Body:        body,
	})
}

func (a *AMQP) Close() error {
	if a.ch != nil {
		_ = a.ch.Close()
	}
	if a.conn != nil {
		return a.conn.Close()
	}
	return nil
}
