package events

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/IBM/sarama"
	"github.com/IBM/sarama/mocks"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

var testKafkaConfig = KafkaConfig{
	TopicMovements:    "inventory.movements",
	TopicReservations: "inventory.reservations",
	TopicCatalog:      "inventory.catalog",
}

func TestKafkaEventPublisher_TopicSelection(t *testing.T) {
	publisher := &KafkaEventPublisher{logger: zap.NewNop(), config: testKafkaConfig}

	cases := []struct {
		event Event
		topic string
		kind  string
	}{
		{StockMovementRecorded{ProductID: uuid.New()}, "inventory.movements", "StockMovementRecorded"},
		{ReservationChanged{Action: "reserved"}, "inventory.reservations", "StockReserved"},
		{ReservationChanged{Action: "released"}, "inventory.reservations", "StockReleased"},
		{CatalogChanged{Entity: "product"}, "inventory.catalog", "CatalogChanged"},
	}

	for _, tc := range cases {
		topic, err := publisher.topicFor(tc.event)
		assert.NoError(t, err)
		assert.Equal(t, tc.topic, topic)
		assert.Equal(t, tc.kind, tc.event.EventType())
	}
}

func TestKafkaEventPublisher_Publish(t *testing.T) {
	producer := mocks.NewSyncProducer(t, nil)
	productID := uuid.New()

	producer.ExpectSendMessageWithMessageCheckerFunctionAndSucceed(func(msg *sarama.ProducerMessage) error {
		if msg.Topic != "inventory.movements" {
			return errors.New("unexpected topic " + msg.Topic)
		}
		key, _ := msg.Key.Encode()
		if string(key) != productID.String() {
			return errors.New("partition key is not the product id")
		}
		value, _ := msg.Value.Encode()
		var decoded StockMovementRecorded
		if err := json.Unmarshal(value, &decoded); err != nil {
			return err
		}
		if decoded.Quantity != 15 || decoded.TransactionType != "IN" {
			return errors.New("unexpected payload")
		}
		if len(msg.Headers) != 3 || string(msg.Headers[0].Value) != "StockMovementRecorded" {
			return errors.New("missing event-type header")
		}
		return nil
	})

	publisher := NewKafkaEventPublisherWithProducer(producer, testKafkaConfig, zap.NewNop())
	err := publisher.Publish(context.Background(), StockMovementRecorded{
		TransactionID:   uuid.New(),
		ProductID:       productID,
		LocationID:      uuid.New(),
		TransactionType: "IN",
		Quantity:        15,
		QuantityAfter:   15,
		OccurredAt:      time.Now(),
	})

	require.NoError(t, err)
	require.NoError(t, publisher.Close())
}

func TestKafkaEventPublisher_RetriesThenFails(t *testing.T) {
	producer := mocks.NewSyncProducer(t, nil)
	for i := 0; i < 3; i++ {
		producer.ExpectSendMessageAndFail(sarama.ErrOutOfBrokers)
	}

	publisher := NewKafkaEventPublisherWithProducer(producer, testKafkaConfig, zap.NewNop())
	publisher.baseDelay = time.Millisecond

	err := publisher.Publish(context.Background(), CatalogChanged{Entity: "location", EntityID: uuid.New(), Action: "created"})

	require.Error(t, err)
	assert.ErrorIs(t, err, sarama.ErrOutOfBrokers)
	require.NoError(t, publisher.Close())
}

func TestKafkaEventPublisher_CancelledContext(t *testing.T) {
	producer := mocks.NewSyncProducer(t, nil)
	publisher := NewKafkaEventPublisherWithProducer(producer, testKafkaConfig, zap.NewNop())

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	err := publisher.Publish(ctx, CatalogChanged{EntityID: uuid.New()})
	assert.ErrorIs(t, err, context.Canceled)
	require.NoError(t, publisher.Close())
}
