package queue

import (
	"context"
	"fmt"
	"sync"

	"writerid-portal/internal/config"

	"github.com/aws/aws-sdk-go/aws"
	"github.com/aws/aws-sdk-go/aws/session"
	"github.com/aws/aws-sdk-go/service/sqs"
	"github.com/aws/aws-sdk-go/service/sqs/sqsiface"
	"github.com/go-redis/redis/v8"
)

// Sender dispatches messages without waiting for them to be processed.
type Sender interface {
	Send(ctx context.Context, msg Message) error
}

// New builds the configured sender. redisClient may be nil unless the backend is redis.
func New(cfg config.QueueConfig, redisClient *redis.Client) (Sender, error) {
	switch cfg.Backend {
	case "redis":
		if redisClient == nil {
			return nil, fmt.Errorf("queue backend redis requires a redis client")
		}
		return NewRedisSender(redisClient, cfg.Name), nil
	case "sqs":
		sess, err := session.NewSession(&aws.Config{
			Region:   aws.String(cfg.AWSRegion),
			Endpoint: endpoint(cfg.AWSEndpoint),
		})
		if err != nil {
			return nil, fmt.Errorf("create aws session: %w", err)
		}
		return NewSQSSender(sqs.New(sess), cfg.SQSQueueURL), nil
	case "memory":
		return NewMemorySender(), nil
	default:
		return nil, fmt.Errorf("unknown queue backend: %s", cfg.Backend)
	}
}

func endpoint(e string) *string {
	if e == "" {
		return nil
	}
	return aws.String(e)
}

// RedisSender appends envelopes to a redis list consumed with BLPOP.
type RedisSender struct {
	client redis.Cmdable
	queue  string
}

// NewRedisSender creates a sender for the named list.
func NewRedisSender(client redis.Cmdable, queue string) *RedisSender {
	return &RedisSender{client: client, queue: queue}
}

// Send implements Sender.
func (s *RedisSender) Send(ctx context.Context, msg Message) error {
	data, err := Encode(msg)
	if err != nil {
		return err
	}
	if err := s.client.RPush(ctx, s.queue, data).Err(); err != nil {
		return fmt.Errorf("push %s message to %s: %w", msg.TaskType(), s.queue, err)
	}
	return nil
}

// SQSSender publishes envelopes to an SQS queue.
type SQSSender struct {
	svc      sqsiface.SQSAPI
	queueURL string
}

// NewSQSSender creates a sender for queueURL.
func NewSQSSender(svc sqsiface.SQSAPI, queueURL string) *SQSSender {
	return &SQSSender{svc: svc, queueURL: queueURL}
}

// Send implements Sender.
func (s *SQSSender) Send(ctx context.Context, msg Message) error {
	data, err := Encode(msg)
	if err != nil {
		return err
	}
	input := &sqs.SendMessageInput{
		QueueUrl:    aws.String(s.queueURL),
		MessageBody: aws.String(string(data)),
		MessageAttributes: map[string]*sqs.MessageAttributeValue{
			"task": {DataType: aws.String("String"), StringValue: aws.String(msg.TaskType())},
		},
	}
	if _, err := s.svc.SendMessageWithContext(ctx, input); err != nil {
		return fmt.Errorf("send %s message to sqs: %w", msg.TaskType(), err)
	}
	return nil
}

// MemorySender records encoded envelopes in order.
type MemorySender struct {
	mu   sync.Mutex
	sent [][]byte
	err  error
}

// NewMemorySender creates an empty recorder.
func NewMemorySender() *MemorySender {
	return &MemorySender{}
}

// Send implements Sender.
func (s *MemorySender) Send(ctx context.Context, msg Message) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.err != nil {
		return s.err
	}
	data, err := Encode(msg)
	if err != nil {
		return err
	}
	s.sent = append(s.sent, data)
	return nil
}

// FailWith makes subsequent sends return err; nil restores normal behaviour.
func (s *MemorySender) FailWith(err error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.err = err
}

// Messages decodes everything sent so far.
func (s *MemorySender) Messages() ([]Message, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	msgs := make([]Message, 0, len(s.sent))
	for _, data := range s.sent {
		msg, err := Decode(data)
		if err != nil {
			return nil, err
		}
		msgs = append(msgs, msg)
	}
	return msgs, nil
}
