package notifications

import (
	"busline/internal/shared/config"
)

// Setup builds the booking event publisher and the ticket dispatcher. With
// Kafka disabled it returns a NoopPublisher and no dispatcher.
func Setup(cfg config.KafkaConfig, sender TicketSender) (Publisher, *TicketDispatcher, error) {
	if !cfg.Enabled {
		return NoopPublisher{}, nil, nil
	}

	producerConfig := DefaultKafkaProducerConfig()
	producerConfig.Brokers = cfg.Brokers
	producerConfig.Topic = cfg.Topic

	publisher, err := NewKafkaPublisher(producerConfig)
	if err != nil {
		return nil, nil, err
	}

	consumerConfig := DefaultConsumerConfig()
	consumerConfig.Brokers = cfg.Brokers
	consumerConfig.GroupID = cfg.ConsumerGroup
	consumerConfig.Topics = []string{cfg.Topic}

	dispatcher, err := NewTicketDispatcher(consumerConfig, sender)
	if err != nil {
		_ = publisher.Close()
		return nil, nil, err
	}
	return publisher, dispatcher, nil
}
