package notify

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/segmentio/kafka-go"

	"github.com/chronoswap/skillflux/internal/models"
)

// Summary is the human-readable digest pushed to the notification sink.
type Summary struct {
	ID           string              `json:"id"`
	Headline     string              `json:"headline"`
	MarketHealth models.MarketHealth `json:"market_health"`
	TopSkills    []string            `json:"top_skills"`
	DataSource   string              `json:"data_source"`
	GeneratedAt  time.Time           `json:"generated_at"`
}

// Publisher pushes analysis summaries to Kafka for downstream notification
// consumers (dashboard toasts, alert bots).
type Publisher struct {
	writer *kafka.Writer
	Topic  string
}

func NewPublisher(brokers []string, topic string) *Publisher {
	writer := &kafka.Writer{
		Addr:                   kafka.TCP(brokers...),
		Topic:                  topic,
		RequiredAcks:           kafka.RequireAll,
		Balancer:               &kafka.Hash{},
		AllowAutoTopicCreation: true,
	}
	return &Publisher{writer: writer, Topic: topic}
}

// PublishAnalysis derives a Summary from the result and writes it out.
func (p *Publisher) PublishAnalysis(ctx context.Context, result *models.MarketAnalysisResult) error {
	summary := Summarize(result)

	value, err := json.Marshal(summary)
	if err != nil {
		return fmt.Errorf("marshal summary: %w", err)
	}

	msg := kafka.Message{
		Key:   []byte(summary.ID),
		Value: value,
	}

	if err := p.writer.WriteMessages(ctx, msg); err != nil {
		return fmt.Errorf("kafka write: %w", err)
	}
	return nil
}

func (p *Publisher) Close() error {
	return p.writer.Close()
}

// Summarize renders a MarketAnalysisResult into notification copy.
func Summarize(result *models.MarketAnalysisResult) Summary {
	top := result.MarketSummary.TopPayingSkills

	headline := fmt.Sprintf("Skill market is %s", result.MarketHealth)
	if len(top) > 0 {
		headline = fmt.Sprintf("Skill market is %s; top rates in %s",
			result.MarketHealth, strings.Join(top, ", "))
	}

	return Summary{
		ID:           uuid.NewString(),
		Headline:     headline,
		MarketHealth: result.MarketHealth,
		TopSkills:    top,
		DataSource:   result.DataSource,
		GeneratedAt:  time.Now(),
	}
}
