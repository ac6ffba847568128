package services

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"time"

	amqp "github.com/rabbitmq/amqp091-go"
)

// Типы событий для уведомлений
const (
	EventAccessRequested = "access_requested"
	EventAccessGranted   = "access_granted"
	EventAccessRejected  = "access_rejected"
	EventAccessRevoked   = "access_revoked"
	EventCommentCreated  = "comment_created"
)

// Event - уведомление для конкретного пользователя (Recipient)
type Event struct {
	Event     string    `json:"event"`
	Recipient string    `json:"recipient"`
	Actor     string    `json:"actor"`
	PostID    string    `json:"post_id"`
	Message   string    `json:"message,omitempty"`
	CreatedAt time.Time `json:"created_at"`
}

func (e Event) routingKey() string {
	return "user." + e.Recipient
}

// EventBus публикует события в topic exchange RabbitMQ
type EventBus struct {
	conn     *amqp.Connection
	channel  *amqp.Channel
	exchange string
}

// DialRabbitMQ открывает соединение и объявляет exchange
func DialRabbitMQ(url, exchange string) (*EventBus, error) {
	conn, err := amqp.Dial(url)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to RabbitMQ: %w", err)
	}
	channel, err := conn.Channel()
	if err != nil {
		conn.Close()
		return nil, fmt.Errorf("failed to open channel: %w", err)
	}
	if err := channel.ExchangeDeclare(
		exchange,
		"topic",
		true,  // durable
		false, // auto-delete
		false, // internal
		false, // no-wait
		nil,   // args
	); err != nil {
		conn.Close()
		return nil, fmt.Errorf("failed to declare exchange: %w", err)
	}
	log.Printf("RabbitMQ initialized successfully, exchange: %s", exchange)
	return &EventBus{conn: conn, channel: channel, exchange: exchange}, nil
}

func (b *EventBus) Publish(ctx context.Context, event Event) error {
	if b == nil || b.channel == nil {
		return fmt.Errorf("RabbitMQ channel not initialized")
	}
	body, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("failed to marshal event: %w", err)
	}
	return b.channel.PublishWithContext(ctx,
		b.exchange,
		event.routingKey(),
		false, // mandatory
		false, // immediate
		amqp.Publishing{
			ContentType: "application/json",
			Timestamp:   event.CreatedAt,
			Body:        body,
		},
	)
}

// StartConsumer слушает события user.* и пушит их в WebSocket-соединения получателей
func (b *EventBus) StartConsumer(ctx context.Context, queueName string, ws *WSConnManager) error {
	if b == nil || b.channel == nil {
		return fmt.Errorf("RabbitMQ channel not initialized")
	}
	q, err := b.channel.QueueDeclare(
		queueName,
		true,  // durable
		false, // auto-delete
		false, // exclusive
		false, // no-wait
		nil,   // args
	)
	if err != nil {
		return fmt.Errorf("failed to declare queue: %w", err)
	}
	if err := b.channel.QueueBind(q.Name, "user.*", b.exchange, false, nil); err != nil {
		return fmt.Errorf("failed to bind queue: %w", err)
	}
	msgs, err := b.channel.Consume(
		q.Name,
		"",
		true,  // auto-ack
		false, // exclusive
		false, // no-local
		false, // no-wait
		nil,
	)
	if err != nil {
		return fmt.Errorf("failed to start consumer: %w", err)
	}

	go func() {
		for {
			select {
			case <-ctx.Done():
				return
			case msg, ok := <-msgs:
				if !ok {
					log.Println("RabbitMQ delivery channel closed")
					return
				}
				var event Event
				if err := json.Unmarshal(msg.Body, &event); err != nil {
					log.Println("Failed to unmarshal event:", err)
					continue
				}
				ws.Send(event.Recipient, msg.Body)
			}
		}
	}()
	return nil
}

func (b *EventBus) Close() error {
	if b == nil || b.conn == nil {
		return nil
	}
	return b.conn.Close()
}
