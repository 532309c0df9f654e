package notify

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/pesansayur/storefront/internal/domain"
	kafkaGo "github.com/segmentio/kafka-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go/modules/kafka"
)

type mockWriter struct {
	messages []kafkaGo.Message
	err      error
	closed   bool
}

func (m *mockWriter) WriteMessages(_ context.Context, msgs ...kafkaGo.Message) error {
	if m.err != nil {
		return m.err
	}
	m.messages = append(m.messages, msgs...)
	return nil
}

func (m *mockWriter) Close() error {
	m.closed = true
	return nil
}

func TestKafkaSink_Deliver(t *testing.T) {
	w := &mockWriter{}
	sink := NewKafkaSinkWithWriter(w)

	order := domain.Order{ID: "ORD-KAFKA", Subtotal: 20000, Total: 29000, ShippingCost: 9000}
	require.NoError(t, sink.Deliver(context.Background(), OrderPlaced(order)))

	require.Len(t, w.messages, 1)
	msg := w.messages[0]
	assert.Equal(t, "ORD-KAFKA", string(msg.Key))
	require.Len(t, msg.Headers, 1)
	assert.Equal(t, "event_type", msg.Headers[0].Key)
	assert.Equal(t, EventOrderPlaced, string(msg.Headers[0].Value))

	var decoded domain.Order
	require.NoError(t, json.Unmarshal(msg.Value, &decoded))
	assert.Equal(t, order.ID, decoded.ID)
	assert.Equal(t, order.Total, decoded.Total)
}

func TestKafkaSink_WriteError(t *testing.T) {
	sink := NewKafkaSinkWithWriter(&mockWriter{err: errors.New("no brokers")})

	err := sink.Deliver(context.Background(), CouponApplied("HEMAT", 1000))
	require.Error(t, err)
	assert.Contains(t, err.Error(), EventCouponApplied)
}

func TestNewKafkaSink_KeepsKeyOnOnePartition(t *testing.T) {
	sink := NewKafkaSink("", "localhost:9092")
	w, ok := sink.writer.(*kafkaGo.Writer)
	require.True(t, ok)
	assert.Equal(t, DefaultTopic, w.Topic)
	require.IsType(t, &kafkaGo.Hash{}, w.Balancer)

	partitions := []int{0, 1, 2, 3, 4, 5}
	first := w.Balancer.Balance(kafkaGo.Message{Key: []byte("ORD-1")}, partitions...)
	for i := 0; i < 10; i++ {
		assert.Equal(t, first, w.Balancer.Balance(kafkaGo.Message{Key: []byte("ORD-1")}, partitions...))
	}
}

func TestKafkaSink_Close(t *testing.T) {
	w := &mockWriter{}
	require.NoError(t, NewKafkaSinkWithWriter(w).Close())
	assert.True(t, w.closed)
}

func setupKafka(t *testing.T) string {
	ctx := context.Background()

	kafkaContainer, err := kafka.Run(ctx, "confluentinc/confluent-local:7.5.0")
	require.NoError(t, err)
	t.Cleanup(func() {
		if err := kafkaContainer.Terminate(ctx); err != nil {
			t.Logf("failed to terminate kafka container: %v", err)
		}
	})

	brokers, err := kafkaContainer.Brokers(ctx)
	require.NoError(t, err)
	require.NotEmpty(t, brokers)
	return brokers[0]
}

func createTopic(t *testing.T, brokerAddr, topic string) {
	conn, err := kafkaGo.Dial("tcp", brokerAddr)
	require.NoError(t, err)
	defer conn.Close()

	controller, err := conn.Controller()
	require.NoError(t, err)

	controllerConn, err := kafkaGo.Dial("tcp", fmt.Sprintf("%s:%d", controller.Host, controller.Port))
	require.NoError(t, err)
	defer controllerConn.Close()

	err = controllerConn.CreateTopics(kafkaGo.TopicConfig{
		Topic:             topic,
		NumPartitions:     1,
		ReplicationFactor: 1,
	})
	if err != nil {
		t.Logf("topic creation error (may already exist): %v", err)
	}
}

func TestKafkaSink_PublishesToBroker(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test in short mode")
	}

	broker := setupKafka(t)
	createTopic(t, broker, DefaultTopic)
	time.Sleep(5 * time.Second)

	sink := NewKafkaSink(DefaultTopic, broker)
	defer sink.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	require.NoError(t, sink.Deliver(ctx, OrderPlaced(domain.Order{ID: "ORD-IT", Total: 1000, Subtotal: 1000})))

	reader := kafkaGo.NewReader(kafkaGo.ReaderConfig{
		Brokers:  []string{broker},
		Topic:    DefaultTopic,
		GroupID:  "notify-test",
		MinBytes: 1,
		MaxBytes: 10e6,
	})
	defer reader.Close()

	msg, err := reader.ReadMessage(ctx)
	require.NoError(t, err)
	assert.Equal(t, "ORD-IT", string(msg.Key))
}
