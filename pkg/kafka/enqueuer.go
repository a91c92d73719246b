package kafka

import (
	"time"

	"github.com/Astemirdum/library-management/pkg/circuit_breaker"
	"github.com/IBM/sarama"
	jsoniter "github.com/json-iterator/go"
)

type Enqueuer interface {
	Enqueue(key string, v any) error
}

func NewEnqueuer(producer sarama.SyncProducer, topic string) *enqueuerImpl {
	return &enqueuerImpl{
		producer: producer,
		topic:    topic,
		cb:       circuit_breaker.New(20, 30*time.Second, 0.5, 2),
	}
}

type enqueuerImpl struct {
	producer sarama.SyncProducer
	topic    string
	cb       circuit_breaker.CircuitBreaker
}

// Enqueue sends v as JSON keyed by key. While the breaker is open it
// returns circuit_breaker.ErrOpenCB without touching the broker.
func (q *enqueuerImpl) Enqueue(key string, v any) error {
	data, err := jsoniter.ConfigCompatibleWithStandardLibrary.Marshal(v)
	if err != nil {
		return err
	}
	msg := &sarama.ProducerMessage{
		Topic: q.topic,
		Key:   sarama.StringEncoder(key),
		Value: sarama.ByteEncoder(data),
	}
	return q.cb.Call(func() error {
		_, _, err := q.producer.SendMessage(msg)
		return err
	})
}

func (q *enqueuerImpl) Close() error {
	return q.producer.Close()
}

// NopEnqueuer drops every message. Used when no broker is configured.
type NopEnqueuer struct{}

func (NopEnqueuer) Enqueue(string, any) error { return nil }
