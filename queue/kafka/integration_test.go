//go:build integration

package kafka

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	kafkago "github.com/segmentio/kafka-go"
	"github.com/stretchr/testify/suite"
	kafkatestcontainers "github.com/testcontainers/testcontainers-go/modules/kafka"

	"github.com/pure-golang/bulkmail/queue"
)

type KafkaSuite struct {
	suite.Suite
	brokers        []string
	kafkaContainer *kafkatestcontainers.KafkaContainer
}

func TestKafkaSuite(t *testing.T) {
	suite.Run(t, new(KafkaSuite))
}

func (s *KafkaSuite) SetupSuite() {
	if testing.Short() {
		s.T().Skip("integration test is skipped")
	}

	ctx := context.Background()

	kafkaContainer, err := kafkatestcontainers.Run(ctx, "confluentinc/cp-kafka:7.6.0",
		kafkatestcontainers.WithClusterID("test-cluster-"+uuid.NewString()),
	)
	s.Require().NoError(err, "failed to start Kafka container")
	s.kafkaContainer = kafkaContainer

	s.brokers, err = kafkaContainer.Brokers(ctx)
	s.Require().NoError(err, "failed to get Kafka brokers")
}

func (s *KafkaSuite) TearDownSuite() {
	if s.kafkaContainer != nil {
		if err := s.kafkaContainer.Terminate(context.Background()); err != nil {
			s.T().Logf("Failed to terminate Kafka container: %v", err)
		}
	}
}

func (s *KafkaSuite) TestPublishAndRead() {
	ctx, cancel := context.WithTimeout(context.Background(), time.Minute)
	defer cancel()

	prefix := "it-" + uuid.NewString()[:8] + "."
	dialer, err := NewDialer(Config{
		Brokers:     s.brokers,
		DialTimeout: 10 * time.Second,
		MaxAttempts: 10,
		TopicPrefix: prefix,
	}, nil)
	s.Require().NoError(err)
	s.Require().NoError(dialer.Ping(ctx))

	pub := NewPublisher(dialer, PublisherConfig{})
	s.T().Cleanup(func() { s.NoError(pub.Close()) })

	// Тема создаётся первой записью, брокеру может понадобиться время
	s.Require().Eventually(func() bool {
		return pub.Publish(ctx, queue.Message{
			Topic:   "batchlog.appended",
			Key:     "b1",
			Headers: map[string]string{"batch-id": "b1"},
			Body:    map[string]string{"id": "b1"},
		}) == nil
	}, 30*time.Second, time.Second)

	reader := kafkago.NewReader(kafkago.ReaderConfig{
		Brokers: s.brokers,
		Topic:   prefix + "batchlog.appended",
	})
	s.T().Cleanup(func() { _ = reader.Close() })

	msg, err := reader.ReadMessage(ctx)
	s.Require().NoError(err)
	s.Equal("b1", string(msg.Key))
	s.JSONEq(`{"id":"b1"}`, string(msg.Value))
}
