package events

import (
	"context"
	"encoding/json"
	"fmt"
	"log"

	"campus-market-api/internal/dto"
	"campus-market-api/internal/model"
	"campus-market-api/internal/repository"

	amqp "github.com/rabbitmq/amqp091-go"
)

// Consumer turns order events into notification rows for the order's
// owner. It runs alongside the API server and shares its database.
type Consumer struct {
	conn             *amqp.Connection
	channel          *amqp.Channel
	notificationRepo repository.NotificationRepository
}

func NewConsumer(url string, notificationRepo repository.NotificationRepository) (*Consumer, error) {
	conn, err := amqp.Dial(url)
	if err != nil {
		return nil, fmt.Errorf("dial rabbitmq: %w", err)
	}

	ch, err := conn.Channel()
	if err != nil {
		conn.Close()
		return nil, fmt.Errorf("open channel: %w", err)
	}

	if err := declareTopology(ch); err != nil {
		ch.Close()
		conn.Close()
		return nil, err
	}

	return &Consumer{
		conn:             conn,
		channel:          ch,
		notificationRepo: notificationRepo,
	}, nil
}

func (c *Consumer) Start(ctx context.Context) error {
	msgs, err := c.channel.Consume(
		orderQueue,
		"campus-market-api", // consumer tag
		false,               // auto-ack
		false,               // exclusive
		false,               // no-local
		false,               // no-wait
		nil,
	)
	if err != nil {
		return fmt.Errorf("register consumer: %w", err)
	}

	go func() {
		for msg := range msgs {
			c.processMessage(ctx, msg)
		}
	}()

	return nil
}

func (c *Consumer) processMessage(ctx context.Context, msg amqp.Delivery) {
	var event dto.OrderEvent
	if err := json.Unmarshal(msg.Body, &event); err != nil {
		log.Printf("discarding malformed order event: %v", err)
		msg.Nack(false, false)
		return
	}

	notification := notificationForEvent(&event)
	if notification == nil {
		log.Printf("unknown order event type: %s", event.Type)
		msg.Ack(false)
		return
	}

	if err := c.notificationRepo.Create(ctx, nil, notification); err != nil {
		log.Printf("create notification for order %d: %v", event.OrderID, err)
		// requeue once via the broker; duplicates are acceptable here
		msg.Nack(false, true)
		return
	}

	msg.Ack(false)
}

func notificationForEvent(event *dto.OrderEvent) *model.Notification {
	switch event.Type {
	case EventOrderCreated:
		return &model.Notification{
			UserID:  event.UserID,
			Type:    "order",
			Title:   "Order placed",
			Message: fmt.Sprintf("Your order #%d for %.2f was placed.", event.OrderID, event.Total),
			Link:    fmt.Sprintf("/orders/%d", event.OrderID),
		}
	case EventOrderCancelled:
		return &model.Notification{
			UserID:  event.UserID,
			Type:    "order",
			Title:   "Order cancelled",
			Message: fmt.Sprintf("Your order #%d was cancelled.", event.OrderID),
			Link:    fmt.Sprintf("/orders/%d", event.OrderID),
		}
	case EventOrderStatusChanged:
		return &model.Notification{
			UserID:  event.UserID,
			Type:    "order",
			Title:   "Order update",
			Message: fmt.Sprintf("Your order #%d is now %s.", event.OrderID, event.Status),
			Link:    fmt.Sprintf("/orders/%d", event.OrderID),
		}
	}

	return nil
}

func (c *Consumer) Close() error {
	if err := c.channel.Close(); err != nil {
		return err
	}
	return c.conn.Close()
}
