package notifications

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"busline/pkg/logger"

	"github.com/IBM/sarama"
)

type ConsumerConfig struct {
	Brokers              []string
	GroupID              string
	Topics               []string
	SessionTimeout       time.Duration
	Heartbeat            time.Duration
	OffsetOldest         bool
	MaxRetries           int
	RetryBackoffDuration time.Duration
}

func DefaultConsumerConfig() *ConsumerConfig {
	return &ConsumerConfig{
		Brokers:              []string{"localhost:9092"},
		GroupID:              "ticket-dispatcher",
		Topics:               []string{"booking-events"},
		SessionTimeout:       30 * time.Second,
		Heartbeat:            3 * time.Second,
		OffsetOldest:         false,
		MaxRetries:           3,
		RetryBackoffDuration: time.Second,
	}
}

// TicketDispatcher consumes booking events and hands every confirmed booking
// to a TicketSender.
type TicketDispatcher struct {
	group  sarama.ConsumerGroup
	config *ConsumerConfig
	sender TicketSender
	log    *logger.Logger

	cancel context.CancelFunc
	wg     sync.WaitGroup
}

func NewTicketDispatcher(config *ConsumerConfig, sender TicketSender) (*TicketDispatcher, error) {
	saramaConfig := sarama.NewConfig()
	saramaConfig.Consumer.Group.Session.Timeout = config.SessionTimeout
	saramaConfig.Consumer.Group.Heartbeat.Interval = config.Heartbeat
	saramaConfig.Consumer.Return.Errors = true
	saramaConfig.Consumer.Offsets.AutoCommit.Enable = true
	saramaConfig.Consumer.Offsets.AutoCommit.Interval = time.Second
	if config.OffsetOldest {
		saramaConfig.Consumer.Offsets.Initial = sarama.OffsetOldest
	} else {
		saramaConfig.Consumer.Offsets.Initial = sarama.OffsetNewest
	}

	group, err := sarama.NewConsumerGroup(config.Brokers, config.GroupID, saramaConfig)
	if err != nil {
		return nil, fmt.Errorf("failed to create consumer group: %w", err)
	}
	return newTicketDispatcher(group, config, sender), nil
}

func newTicketDispatcher(group sarama.ConsumerGroup, config *ConsumerConfig, sender TicketSender) *TicketDispatcher {
	return &TicketDispatcher{
		group:  group,
		config: config,
		sender: sender,
		log:    logger.GetDefault().WithComponent("ticket-dispatcher"),
	}
}

// Start runs the consume loop until ctx is cancelled or Stop is called.
func (d *TicketDispatcher) Start(ctx context.Context) {
	ctx, d.cancel = context.WithCancel(ctx)

	d.wg.Add(2)
	go func() {
		defer d.wg.Done()
		for err := range d.group.Errors() {
			d.log.Error("consumer group error", "error", err)
		}
	}()
	go func() {
		defer d.wg.Done()
		for {
			if err := d.group.Consume(ctx, d.config.Topics, d); err != nil {
				if errors.Is(err, sarama.ErrClosedConsumerGroup) {
					return
				}
				d.log.Error("error consuming booking events", "error", err)
			}
			if ctx.Err() != nil {
				return
			}
		}
	}()
	d.log.Info("ticket dispatcher started", "topics", d.config.Topics, "group", d.config.GroupID)
}

func (d *TicketDispatcher) Stop() error {
	if d.cancel != nil {
		d.cancel()
	}
	err := d.group.Close()
	d.wg.Wait()
	if err != nil {
		return fmt.Errorf("failed to close consumer group: %w", err)
	}
	d.log.Info("ticket dispatcher stopped")
	return nil
}

func (d *TicketDispatcher) Setup(sarama.ConsumerGroupSession) error   { return nil }
func (d *TicketDispatcher) Cleanup(sarama.ConsumerGroupSession) error { return nil }

func (d *TicketDispatcher) ConsumeClaim(session sarama.ConsumerGroupSession, claim sarama.ConsumerGroupClaim) error {
	for {
		select {
		case message, ok := <-claim.Messages():
			if !ok || message == nil {
				return nil
			}
			if err := d.handleMessage(session.Context(), message); err != nil {
				d.log.Error("failed to dispatch ticket",
					"topic", message.Topic, "partition", message.Partition, "offset", message.Offset, "error", err)
				continue
			}
			session.MarkMessage(message, "")

		case <-session.Context().Done():
			return nil
		}
	}
}

// handleMessage decodes one record. Events other than booking.confirmed are
// acknowledged without action.
func (d *TicketDispatcher) handleMessage(ctx context.Context, message *sarama.ConsumerMessage) error {
	event, err := BookingEventFromJSON(message.Value)
	if err != nil {
		return fmt.Errorf("failed to unmarshal booking event: %w", err)
	}
	if event.Type != EventBookingConfirmed {
		return nil
	}
	return d.sendWithRetry(ctx, event)
}

func (d *TicketDispatcher) sendWithRetry(ctx context.Context, event *BookingEvent) error {
	backoff := d.config.RetryBackoffDuration

	var err error
	for attempt := 0; attempt <= d.config.MaxRetries; attempt++ {
		if err = d.sender.SendTicket(ctx, event); err == nil {
			return nil
		}
		if attempt == d.config.MaxRetries {
			break
		}

		delay := backoff * time.Duration(1<<attempt)
		d.log.Warn("retrying ticket dispatch", "booking_token", event.BookingToken, "attempt", attempt+1, "delay", delay)
		select {
		case <-time.After(delay):
		case <-ctx.Done():
			return ctx.Err()
		}
	}
	return err
}
