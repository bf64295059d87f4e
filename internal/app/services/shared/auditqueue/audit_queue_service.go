package auditqueue

import (
	"context"
	"fmt"
	"schoolpay-service/internal/app/config"
	"schoolpay-service/internal/app/contracts"
	"schoolpay-service/internal/app/models"
	"schoolpay-service/internal/pkg/constvars"
	"schoolpay-service/internal/pkg/exceptions"
	"schoolpay-service/internal/pkg/utils"
	"sync"

	"github.com/goccy/go-json"
	amqp "github.com/rabbitmq/amqp091-go"
	"go.uber.org/zap"
)

// Service manages the RabbitMQ queues carrying audit trail entries. The
// ledger write is the system of record, so consumers drain this queue at
// their own pace and failures park on the DLQ.
type Service struct {
	ch        *amqp.Channel
	log       *zap.Logger
	queueName string
	dlqName   string
	prefetch  int
	confirms  chan amqp.Confirmation
	mu        sync.Mutex
}

// NewService declares the durable queues, enables publisher confirms and
// sets QoS for the worker side.
func NewService(conn *amqp.Connection, log *zap.Logger, auditConfig config.Audit) (*Service, error) {
	ch, err := conn.Channel()
	if err != nil {
		return nil, err
	}

	_, err = ch.QueueDeclare(
		auditConfig.QueueName, // name
		true,                  // durable
		false,                 // autoDelete
		false,                 // exclusive
		false,                 // noWait
		nil,                   // args
	)
	if err != nil {
		return nil, err
	}

	_, err = ch.QueueDeclare(
		auditConfig.DeadLetterName,
		true,
		false,
		false,
		false,
		nil,
	)
	if err != nil {
		return nil, err
	}

	prefetch := auditConfig.Prefetch
	if prefetch <= 0 {
		prefetch = 1
	}
	if err := ch.Qos(prefetch, 0, false); err != nil {
		return nil, err
	}

	if err := ch.Confirm(false); err != nil {
		return nil, err
	}

	svc := &Service{
		ch:        ch,
		log:       log,
		queueName: auditConfig.QueueName,
		dlqName:   auditConfig.DeadLetterName,
		prefetch:  prefetch,
		confirms:  ch.NotifyPublish(make(chan amqp.Confirmation, 1)),
	}

	return svc, nil
}

// QueuedEntry represents a fetched delivery and its decoded entry.
type QueuedEntry struct {
	DeliveryTag uint64
	Entry       models.AuditEntry
}

// Append publishes an audit entry to the standard queue with persistence
// and waits for the broker confirm. Implements contracts.AuditTrailService.
func (s *Service) Append(ctx context.Context, entry *models.AuditEntry) error {
	requestID := utils.RequestIDFromContext(ctx)
	s.log.Info("AuditQueue.Append called",
		zap.String(constvars.LoggingRequestIDKey, requestID),
		zap.String(constvars.LoggingReferenceKey, entry.Reference),
	)

	return s.publish(ctx, s.queueName, entry)
}

// AppendToDeadQueue parks an entry that the worker could not persist.
func (s *Service) AppendToDeadQueue(ctx context.Context, entry *models.AuditEntry) error {
	requestID := utils.RequestIDFromContext(ctx)
	s.log.Info("AuditQueue.AppendToDeadQueue called",
		zap.String(constvars.LoggingRequestIDKey, requestID),
		zap.String(constvars.LoggingAuditEntryIDKey, entry.ID),
	)

	return s.publish(ctx, s.dlqName, entry)
}

// FetchN retrieves up to n entries using basic.get without auto-ack.
func (s *Service) FetchN(ctx context.Context, n int) ([]QueuedEntry, error) {
	if n <= 0 {
		n = 1
	}
	items := make([]QueuedEntry, 0, n)

	for i := 0; i < n; i++ {
		d, ok, err := s.ch.Get(s.queueName, false)
		if err != nil {
			return nil, err
		}
		if !ok {
			break
		}

		var entry models.AuditEntry
		if err := json.Unmarshal(d.Body, &entry); err != nil {
			// Undecodable payloads would loop forever on requeue.
			_ = d.Nack(false, false)
			s.log.Warn("AuditQueue.FetchN dropping undecodable message",
				zap.String(constvars.LoggingQueueNameKey, s.queueName),
				zap.Error(err),
			)
			continue
		}
		items = append(items, QueuedEntry{DeliveryTag: d.DeliveryTag, Entry: entry})
	}

	return items, nil
}

// Ack acknowledges a delivery so it is removed from the queue.
func (s *Service) Ack(deliveryTag uint64) error {
	return s.ch.Ack(deliveryTag, false)
}

// Nack returns a delivery to the queue for another attempt.
func (s *Service) Nack(deliveryTag uint64) error {
	return s.ch.Nack(deliveryTag, false, true)
}

func (s *Service) publish(ctx context.Context, queueName string, entry *models.AuditEntry) error {
	body, err := json.Marshal(entry)
	if err != nil {
		return exceptions.ErrCannotMarshalJSON(err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	msg := amqp.Publishing{
		ContentType:  constvars.MIMEApplicationJSON,
		Body:         body,
		DeliveryMode: amqp.Persistent,
	}

	if err := s.ch.PublishWithContext(ctx, "", queueName, false, false, msg); err != nil {
		return exceptions.ErrRabbitMQPublishMessage(err, queueName)
	}

	select {
	case confirmed := <-s.confirms:
		if !confirmed.Ack {
			return exceptions.ErrRabbitMQPublishMessage(fmt.Errorf("message not confirmed"), queueName)
		}
	case <-ctx.Done():
		return exceptions.ErrRabbitMQPublishMessage(ctx.Err(), queueName)
	}
	return nil
}

var _ contracts.AuditTrailService = (*Service)(nil)
