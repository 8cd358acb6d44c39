// Package kafka publishes committed ledger entries as integration events.
package kafka

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/api-sage/account-transaction-processor/src/internal/domain"
	"github.com/segmentio/kafka-go"
)

type transactionCompletedEvent struct {
	TransactionID string  `json:"transactionId"`
	Type          string  `json:"type"`
	SenderID      *string `json:"senderId"`
	ReceiverID    *string `json:"receiverId"`
	Amount        string  `json:"amount"`
	CreatedAt     string  `json:"createdAt"`
}

type Publisher struct {
	writer *kafka.Writer
}

func NewPublisher(brokers []string, topic string) *Publisher {
	return &Publisher{
		writer: &kafka.Writer{
			Addr:     kafka.TCP(brokers...),
			Topic:    topic,
			Balancer: &kafka.LeastBytes{},
		},
	}
}

func (p *Publisher) PublishTransactionCompleted(ctx context.Context, entry domain.Transaction) error {
	event := transactionCompletedEvent{
		TransactionID: entry.ID,
		Type:          string(entry.Type),
		SenderID:      entry.SenderID,
		ReceiverID:    entry.ReceiverID,
		Amount:        entry.Amount.StringFixed(2),
		CreatedAt:     entry.CreatedAt.Format(time.RFC3339),
	}

	data, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("marshal transaction completed event: %w", err)
	}

	return p.writer.WriteMessages(ctx, kafka.Message{
		Key:   []byte(entry.ID),
		Value: data,
	})
}

func (p *Publisher) Close() error {
	return p.writer.Close()
}
