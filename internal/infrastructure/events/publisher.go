package events

import (
	"context"
	"encoding/json"
	"strings"
	"time"

	"github.com/segmentio/kafka-go"
	"github.com/sirupsen/logrus"

	domain "github.com/mohammadpnp/data-import/internal/domain/dataimport"
)

type Config struct {
	Brokers []string
	Topic   string
}

// ParseBrokers splits a comma-separated broker list.
func ParseBrokers(brokers string) []string {
	var out []string
	for _, b := range strings.Split(brokers, ",") {
		if b = strings.TrimSpace(b); b != "" {
			out = append(out, b)
		}
	}
	return out
}

// JobFinishedEvent is the message published for every finished import job.
type JobFinishedEvent struct {
	JobCode    string    `json:"job_code"`
	ItemType   string    `json:"item_type"`
	Process    string    `json:"process"`
	Status     string    `json:"status"`
	Site       string    `json:"site,omitempty"`
	RowCount   int       `json:"row_count"`
	Message    string    `json:"message,omitempty"`
	LogFile    string    `json:"log_file,omitempty"`
	StartedAt  time.Time `json:"started_at"`
	FinishedAt time.Time `json:"finished_at"`
}

type messageWriter interface {
	WriteMessages(ctx context.Context, msgs ...kafka.Message) error
	Close() error
}

// Publisher sends job events to Kafka, keyed by job code. Publish failures
// are logged and never fail the import.
type Publisher struct {
	writer messageWriter
	log    logrus.FieldLogger
}

func NewPublisher(cfg Config, log logrus.FieldLogger) *Publisher {
	writer := &kafka.Writer{
		Addr:                   kafka.TCP(cfg.Brokers...),
		Topic:                  cfg.Topic,
		Balancer:               &kafka.LeastBytes{},
		BatchSize:              100,
		BatchTimeout:           10 * time.Millisecond,
		RequiredAcks:           kafka.RequireOne,
		AllowAutoTopicCreation: true,
	}
	return newPublisher(writer, log)
}

func newPublisher(writer messageWriter, log logrus.FieldLogger) *Publisher {
	return &Publisher{writer: writer, log: log}
}

func (p *Publisher) JobFinished(ctx context.Context, job domain.ImportJob) {
	event := JobFinishedEvent{
		JobCode:   job.Code,
		ItemType:  job.ItemType,
		Process:   string(job.Process),
		Status:    string(job.Status),
		Site:      job.Site,
		RowCount:  job.RowCount,
		Message:   job.Description,
		LogFile:   job.LogFile,
		StartedAt: job.StartedAt,
	}
	if job.FinishedAt != nil {
		event.FinishedAt = *job.FinishedAt
	}

	value, err := json.Marshal(event)
	if err != nil {
		p.log.WithField("job_code", job.Code).Errorf("encode job event: %v", err)
		return
	}
	msg := kafka.Message{
		Key:   []byte(job.Code),
		Value: value,
		Headers: []kafka.Header{
			{Key: "item_type", Value: []byte(job.ItemType)},
			{Key: "status", Value: []byte(job.Status)},
		},
	}
	if err := p.writer.WriteMessages(ctx, msg); err != nil {
		p.log.WithField("job_code", job.Code).Errorf("publish job event: %v", err)
	}
}

func (p *Publisher) Close() error {
	return p.writer.Close()
}
