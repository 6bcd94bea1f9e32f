package queue

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/mahirjain10/s3-thumbnailer/internal/logger"
	"github.com/mahirjain10/s3-thumbnailer/internal/thumbnail"
	"github.com/mahirjain10/s3-thumbnailer/internal/types"
	"github.com/mahirjain10/s3-thumbnailer/internal/utils"
	"github.com/prometheus/client_golang/prometheus"
	amqp "github.com/rabbitmq/amqp091-go"
)

const (
	statusPattern    = "status"
	statusRoutingKey = "status"
	reconnectDelay   = 5 * time.Second
	publishTimeout   = 5 * time.Second

	outcomeLabel      = "outcome"
	outcomeAck        = "ack"
	outcomeRequeue    = "requeue"
	outcomeDeadLetter = "dead_letter"
)

// EventHandler is satisfied by *thumbnail.Thumbnailer.
type EventHandler interface {
	Handle(ctx context.Context, event types.S3Event) error
}

// StatusPublisher is satisfied by *amqp.Channel.
type StatusPublisher interface {
	PublishWithContext(ctx context.Context, exchange, key string, mandatory, immediate bool, msg amqp.Publishing) error
}

type Config struct {
	URL            string
	Queue          string
	StatusExchange string
	Workers        int
}

type RabbitMqService struct {
	handler EventHandler
	config  Config
	log     *slog.Logger

	deliveries *prometheus.CounterVec
}

func NewRabbitMqService(l *slog.Logger, handler EventHandler, c Config, metricRegistry prometheus.Registerer) *RabbitMqService {
	deliveries := prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name:      "deliveries_total",
			Namespace: "thumbnailer",
			Subsystem: "queue",
			Help:      "count of processed deliveries by outcome",
		},
		[]string{outcomeLabel},
	)
	metricRegistry.MustRegister(deliveries)

	return &RabbitMqService{
		handler:    handler,
		config:     c,
		log:        l.With(logger.ComponentKey, "queue", "queue_name", c.Queue),
		deliveries: deliveries,
	}
}

// ProcessMessage runs one delivery through the handler and reports the outcome
// on status when it is non-nil. A non-nil result is always a ProcessingError
// carrying the requeue decision.
func (service *RabbitMqService) ProcessMessage(ctx context.Context, d amqp.Delivery, status StatusPublisher) error {
	service.log.Debug("received message", "message_id", d.MessageId, "redelivered", d.Redelivered)

	var event types.S3Event
	if err := utils.ParseJSON(d.Body, &event); err != nil {
		err = fmt.Errorf("%w: %v", types.ErrInvalidEvent, err)
		service.publishStatus(ctx, status, d, event, err)
		return ProcessingError{Err: err, Requeue: false}
	}

	err := service.handler.Handle(ctx, event)
	service.publishStatus(ctx, status, d, event, err)
	if err != nil {
		// A delivery gets one more chance at most.
		return ProcessingError{Err: err, Requeue: ShouldRequeue(err) && !d.Redelivered}
	}
	return nil
}

func (service *RabbitMqService) handleDelivery(ctx context.Context, d amqp.Delivery, status StatusPublisher) {
	err := service.ProcessMessage(ctx, d, status)
	if err == nil {
		service.deliveries.WithLabelValues(outcomeAck).Inc()
		if ackErr := d.Ack(false); ackErr != nil {
			service.log.Error("failed to ack message", logger.ErrorKey, ackErr)
		}
		return
	}

	requeue := false
	var procErr ProcessingError
	if errors.As(err, &procErr) {
		requeue = procErr.Requeue
	}

	if requeue {
		service.deliveries.WithLabelValues(outcomeRequeue).Inc()
	} else {
		service.deliveries.WithLabelValues(outcomeDeadLetter).Inc()
	}
	service.log.Warn("message failed", "requeue", requeue, logger.ErrorKey, err)

	if nackErr := d.Nack(false, requeue); nackErr != nil {
		service.log.Error("failed to nack message", logger.ErrorKey, nackErr)
	}
}

// publishStatus reports the outcome of a delivery. Failures here are logged
// and never change how the delivery itself is settled.
func (service *RabbitMqService) publishStatus(ctx context.Context, status StatusPublisher, d amqp.Delivery, event types.S3Event, procErr error) {
	if status == nil || service.config.StatusExchange == "" {
		return
	}

	message := newStatusMessage(d, event, procErr)
	body, err := utils.SerializeJSON(message)
	if err != nil {
		service.log.Error("failed to serialize status message", logger.ErrorKey, err)
		return
	}

	ctx, cancel := context.WithTimeout(ctx, publishTimeout)
	defer cancel()

	err = status.PublishWithContext(ctx,
		service.config.StatusExchange,
		statusRoutingKey,
		false,
		false,
		amqp.Publishing{
			ContentType: "application/json",
			MessageId:   message.Data.ID,
			Body:        body,
		})
	if err != nil {
		service.log.Warn("failed to publish status", logger.ErrorKey, err)
	}
}

func newStatusMessage(d amqp.Delivery, event types.S3Event, procErr error) *types.StatusMessage {
	id := d.MessageId
	if id == "" {
		id = uuid.NewString()
	}

	data := types.StatusData{ID: id, Status: types.PROCESSED}
	if src, _, err := thumbnail.SourceFromEvent(event); err == nil {
		dst := thumbnail.DestinationFor(src)
		data.SourceBucket, data.SourceKey = src.Bucket, src.Key
		data.DestinationBucket, data.DestinationKey = dst.Bucket, dst.Key
	}
	if procErr != nil {
		data.Status = types.FAILED
		data.ErrorMsg = procErr.Error()
		data.DestinationBucket, data.DestinationKey = "", ""
	}

	return &types.StatusMessage{Pattern: statusPattern, Data: data}
}

// Start consumes until ctx is cancelled, reconnecting whenever the broker
// drops the connection.
func (service *RabbitMqService) Start(ctx context.Context) error {
	var wg sync.WaitGroup
	for i := 0; i < service.config.Workers; i++ {
		wg.Add(1)
		go func(workerNo int) {
			defer wg.Done()
			service.consume(ctx, workerNo)
		}(i + 1)
	}

	wg.Wait()
	service.log.Info("all consumers stopped")
	return nil
}

func (service *RabbitMqService) consume(ctx context.Context, workerNo int) {
	log := service.log.With("worker", workerNo)

	for {
		if ctx.Err() != nil {
			return
		}

		err := service.consumeOnce(ctx, log)
		if err != nil {
			log.Error("consumer stopped", logger.ErrorKey, err)
		}

		select {
		case <-ctx.Done():
			log.Info("shutting down")
			return
		case <-time.After(reconnectDelay):
		}
	}
}

// consumeOnce owns one connection, and the status channel opened on it, for
// as long as it stays open.
func (service *RabbitMqService) consumeOnce(ctx context.Context, log *slog.Logger) error {
	conn, err := connect(service.config.URL)
	if err != nil {
		return err
	}
	defer conn.Close()

	ch, msgs, err := openEventChannel(conn, service.config.Queue)
	if err != nil {
		return err
	}
	defer ch.Close()

	var status StatusPublisher
	if service.config.StatusExchange != "" {
		statusCh, err := openStatusChannel(conn, service.config.StatusExchange)
		if err != nil {
			return err
		}
		defer statusCh.Close()
		status = statusCh
	}
	log.Info("worker started, waiting for messages")

	return service.serve(ctx, msgs, status)
}

// serve settles deliveries until ctx is cancelled. Cancellation stops the
// intake only: a delivery already received runs to completion.
func (service *RabbitMqService) serve(ctx context.Context, msgs <-chan amqp.Delivery, status StatusPublisher) error {
	for {
		select {
		case <-ctx.Done():
			return nil
		case d, ok := <-msgs:
			if !ok {
				return errors.New("delivery channel closed")
			}
			service.handleDelivery(context.WithoutCancel(ctx), d, status)
		}
	}
}
