package kafka

import "time"

// Config содержит параметры подключения к Kafka
type Config struct {
	Brokers     []string      `envconfig:"KAFKA_BROKERS"`                     // список брокеров Kafka (например: localhost:9092)
	DialTimeout time.Duration `envconfig:"KAFKA_DIALER_TIMEOUT" default:"10s"` // таймаут подключения
	MaxAttempts int           `envconfig:"KAFKA_MAX_ATTEMPTS" default:"3"`     // попытки записи сообщения
	// TopicPrefix добавляется к Topic каждого сообщения
	TopicPrefix string `envconfig:"KAFKA_TOPIC_PREFIX" default:"bulkmail."`
}
