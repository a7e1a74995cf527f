package messenger

import (
	"encoding/json"
	"github.com/aws/aws-sdk-go/aws"
	"github.com/aws/aws-sdk-go/aws/credentials"
	"github.com/aws/aws-sdk-go/aws/session"
	"github.com/aws/aws-sdk-go/service/sqs"
	"github.com/aws/aws-sdk-go/service/sqs/sqsiface"
	"go.uber.org/zap"
	"sync"
)

type MessageService interface {
	SendMessage(queue Queue, body []byte) error
	PollMessages(queue Queue, ch chan<- *sqs.Message)
	DeleteMessage(queue Queue, msg *sqs.Message) error
}

type Queue string

var (
	SettlementQueue     Queue = "settlement"
	ReconciliationQueue Queue = "reconciliation"
)

type Messenger struct {
	client sqsiface.SQSAPI
	prefix string

	mu   sync.Mutex
	urls map[Queue]string
}

type AwsConfig struct {
	Region    string
	AccessKey string
	SecretKey string
	Endpoint  string
}

func NewSession(cfg AwsConfig) (*session.Session, error) {
	awsConfig := aws.NewConfig().WithRegion(cfg.Region)
	if cfg.AccessKey != "" {
		awsConfig = awsConfig.WithCredentials(credentials.NewStaticCredentials(cfg.AccessKey, cfg.SecretKey, ""))
	}
	if cfg.Endpoint != "" {
		awsConfig = awsConfig.WithEndpoint(cfg.Endpoint)
	}

	return session.NewSession(awsConfig)
}

func NewMessenger(client sqsiface.SQSAPI, prefix string) MessageService {
	return &Messenger{client: client, prefix: prefix, urls: map[Queue]string{}}
}

func (m *Messenger) SendMessage(queue Queue, body []byte) error {
	url, err := m.queueUrl(queue)
	if err != nil {
		return err
	}

	_, err = m.client.SendMessage(&sqs.SendMessageInput{
		QueueUrl:    aws.String(url),
		MessageBody: aws.String(string(body)),
	})
	if err != nil {
		zap.L().With(zap.Error(err), zap.String("queue", m.name(queue))).Error("[Queue] Failed to send message")
		return err
	}

	zap.L().With(zap.String("queue", m.name(queue))).Info("[Queue] Published message")

	return nil
}

func (m *Messenger) PollMessages(queue Queue, ch chan<- *sqs.Message) {
	url, err := m.queueUrl(queue)
	if err != nil {
		close(ch)
		return
	}

	for {
		output, err := m.client.ReceiveMessage(&sqs.ReceiveMessageInput{
			QueueUrl:            aws.String(url),
			MaxNumberOfMessages: aws.Int64(10),
			WaitTimeSeconds:     aws.Int64(20),
		})
		if err != nil {
			zap.L().With(zap.Error(err), zap.String("queue", m.name(queue))).Error("[Queue] Failed to receive messages")
			close(ch)
			return
		}

		for _, message := range output.Messages {
			ch <- message
		}
	}
}

func (m *Messenger) DeleteMessage(queue Queue, msg *sqs.Message) error {
	url, err := m.queueUrl(queue)
	if err != nil {
		return err
	}

	_, err = m.client.DeleteMessage(&sqs.DeleteMessageInput{
		QueueUrl:      aws.String(url),
		ReceiptHandle: msg.ReceiptHandle,
	})

	return err
}

func (m *Messenger) queueUrl(queue Queue) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if url, ok := m.urls[queue]; ok {
		return url, nil
	}

	output, err := m.client.GetQueueUrl(&sqs.GetQueueUrlInput{QueueName: aws.String(m.name(queue))})
	if err != nil {
		zap.L().With(zap.Error(err), zap.String("queue", m.name(queue))).Error("[Queue] Failed to get queue url")
		return "", err
	}
	m.urls[queue] = aws.StringValue(output.QueueUrl)

	return m.urls[queue], nil
}

func (m *Messenger) name(queue Queue) string {
	return m.prefix + string(queue)
}

// Publish sends v to the queue as json.
func Publish(service MessageService, queue Queue, v interface{}) error {
	body, err := json.Marshal(v)
	if err != nil {
		return err
	}

	return service.SendMessage(queue, body)
}
