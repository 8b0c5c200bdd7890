package events

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pure-golang/bulkmail/queue/kafka"
)

func TestNew_None(t *testing.T) {
	pub, err := New(context.Background(), Config{Provider: ProviderNone})
	require.NoError(t, err)
	assert.Nil(t, pub)
}

func TestNew_Unknown(t *testing.T) {
	_, err := New(context.Background(), Config{Provider: "nats"})
	assert.Error(t, err)
}

func TestNew_KafkaWithoutBrokers(t *testing.T) {
	_, err := New(context.Background(), Config{Provider: ProviderKafka, Kafka: kafka.Config{}})
	assert.Error(t, err)
}

func TestNew_RabbitMQWithoutURL(t *testing.T) {
	_, err := New(context.Background(), Config{Provider: ProviderRabbitMQ})
	assert.Error(t, err)
}
