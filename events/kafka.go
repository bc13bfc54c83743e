package events

import (
	"context"

	"github.com/IBM/sarama"
	"github.com/pkg/errors"
)

// Kafka publishes each event type to the topic of the same name.
type Kafka struct {
	producer sarama.SyncProducer
}

func NewKafka(brokers []string) (*Kafka, error) {
	if len(brokers) == 0 {
		return nil, errors.New("no kafka brokers configured")
	}
	config := sarama.NewConfig()
	config.Producer.Return.Successes = true
	config.Producer.RequiredAcks = sarama.WaitForAll

	producer, err := sarama.NewSyncProducer(brokers, config)
	if err != nil {
		return nil, errors.Wrap(err, "kafka producer")
	}
	return &Kafka{producer: producer}, nil
}

func newKafka(producer sarama.SyncProducer) *Kafka {
	return &Kafka{producer: producer}
}

func (k *Kafka) Publish(_ context.Context, eventType string, data any) error {
	b, err := encode(eventType, data)
	if err != nil {
		return err
	}
	_, _, err = k.producer.SendMessage(&sarama.ProducerMessage{
		Topic: eventType,
		Value: sarama.ByteEncoder(b),
	})
	return errors.Wrapf(err, "send %s", eventType)
}

func (k *Kafka) Close() error {
	return k.producer.Close()
}
