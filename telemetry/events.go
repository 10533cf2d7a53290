package telemetry

import (
	"encoding/json"
	"log/slog"
	"time"

	"github.com/IBM/sarama"
)

// AnalyzeEvent is the record published for every computed analysis.
type AnalyzeEvent struct {
	ID           string    `json:"id"`
	Domain       string    `json:"domain"`
	Lang         string    `json:"lang"`
	Sentiment    string    `json:"sentiment"`
	ModelVersion string    `json:"model_version"`
	CacheHit     bool      `json:"cache_hit"`
	LatencyMS    int64     `json:"latency_ms"`
	CostCents    int       `json:"cost_cents"`
	Tokens       int       `json:"tokens"`
	EmittedAt    time.Time `json:"emitted_at"`
}

// Publisher streams analyze events to Kafka for the observability
// collaborator. It is strictly fire-and-forget: a nil publisher or a
// produce failure never touches the request path.
type Publisher struct {
	producer sarama.AsyncProducer
	topic    string
	log      *slog.Logger
}

// NewPublisher connects an async producer. Returns nil when no brokers are
// configured; callers treat a nil *Publisher as a no-op.
func NewPublisher(brokers []string, topic string, log *slog.Logger) (*Publisher, error) {
	if len(brokers) == 0 {
		return nil, nil
	}

	saramaConfig := sarama.NewConfig()
	saramaConfig.Version = sarama.V3_6_0_0
	saramaConfig.Producer.Return.Successes = false
	saramaConfig.Producer.Return.Errors = true
	saramaConfig.Producer.RequiredAcks = sarama.WaitForLocal

	producer, err := sarama.NewAsyncProducer(brokers, saramaConfig)
	if err != nil {
		return nil, err
	}

	p := &Publisher{producer: producer, topic: topic, log: log}

	go func() {
		for err := range producer.Errors() {
			p.log.Warn("analyze event publish failed", "error", err)
		}
	}()

	return p, nil
}

// Publish enqueues one event. Never blocks request handling beyond the
// channel send to the producer's buffer.
func (p *Publisher) Publish(event AnalyzeEvent) {
	if p == nil {
		return
	}
	event.EmittedAt = time.Now().UTC()

	payload, err := json.Marshal(event)
	if err != nil {
		p.log.Warn("analyze event marshal failed", "error", err)
		return
	}

	p.producer.Input() <- &sarama.ProducerMessage{
		Topic: p.topic,
		Key:   sarama.StringEncoder(event.ID),
		Value: sarama.ByteEncoder(payload),
	}
}

// Close drains and shuts down the producer.
func (p *Publisher) Close() error {
	if p == nil {
		return nil
	}
	return p.producer.Close()
}
