package events

import (
	"bytes"
	"context"
	"encoding/json"
	"testing"

	"github.com/IBM/sarama"
	"github.com/IBM/sarama/mocks"
	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEncodeEnvelope(t *testing.T) {
	b, err := encode(PaymentSettled, map[string]string{"payment_id": "p1"})
	require.NoError(t, err)

	var env struct {
		ID        string            `json:"id"`
		EventType string            `json:"event_type"`
		Data      map[string]string `json:"data"`
	}
	require.NoError(t, json.Unmarshal(b, &env))
	assert.NotEmpty(t, env.ID)
	assert.Equal(t, PaymentSettled, env.EventType)
	assert.Equal(t, "p1", env.Data["payment_id"])
}

func TestKafkaPublishUsesEventTopic(t *testing.T) {
	producer := mocks.NewSyncProducer(t, nil)
	producer.ExpectSendMessageWithCheckerFunctionAndSucceed(func(val []byte) error {
		if !bytes.Contains(val, []byte(BookingCreated)) {
			return errors.New("missing event type")
		}
		return nil
	})

	k := newKafka(producer)
	require.NoError(t, k.Publish(context.Background(), BookingCreated, map[string]string{"booking_id": "b1"}))
	require.NoError(t, k.Close())
}

func TestKafkaPublishFailure(t *testing.T) {
	producer := mocks.NewSyncProducer(t, nil)
	producer.ExpectSendMessageAndFail(sarama.ErrOutOfBrokers)

	k := newKafka(producer)
	err := k.Publish(context.Background(), CartAdded, nil)
	assert.ErrorIs(t, err, sarama.ErrOutOfBrokers)
	require.NoError(t, k.Close())
}

type failingPublisher struct{}

func (failingPublisher) Publish(context.Context, string, any) error { return errors.New("down") }
func (failingPublisher) Close() error                               { return nil }

func TestEmitLogsFailures(t *testing.T) {
	var buf bytes.Buffer
	log := logrus.New()
	log.SetOutput(&buf)

	Emit(context.Background(), failingPublisher{}, logrus.NewEntry(log), RoomDeleted, nil)
	assert.Contains(t, buf.String(), "publish event")

	Emit(context.Background(), nil, logrus.NewEntry(log), RoomDeleted, nil)
}
