package messenger

import (
	"errors"
	"github.com/ZilDuck/zilliqa-marketplace/internal/entity"
	"github.com/aws/aws-sdk-go/aws"
	"github.com/aws/aws-sdk-go/service/sqs"
	"github.com/aws/aws-sdk-go/service/sqs/sqsiface"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"math/big"
	"testing"
	"time"
)

type fakeSqs struct {
	sqsiface.SQSAPI
	urlLookups int
	sent       []*sqs.SendMessageInput
	deleted    []*sqs.DeleteMessageInput
	received   [][]*sqs.Message
	sendErr    error
}

func (f *fakeSqs) GetQueueUrl(input *sqs.GetQueueUrlInput) (*sqs.GetQueueUrlOutput, error) {
	f.urlLookups++
	return &sqs.GetQueueUrlOutput{QueueUrl: aws.String("https://sqs.local/" + aws.StringValue(input.QueueName))}, nil
}

func (f *fakeSqs) SendMessage(input *sqs.SendMessageInput) (*sqs.SendMessageOutput, error) {
	if f.sendErr != nil {
		return nil, f.sendErr
	}
	f.sent = append(f.sent, input)
	return &sqs.SendMessageOutput{}, nil
}

func (f *fakeSqs) DeleteMessage(input *sqs.DeleteMessageInput) (*sqs.DeleteMessageOutput, error) {
	f.deleted = append(f.deleted, input)
	return &sqs.DeleteMessageOutput{}, nil
}

func (f *fakeSqs) ReceiveMessage(*sqs.ReceiveMessageInput) (*sqs.ReceiveMessageOutput, error) {
	if len(f.received) == 0 {
		return nil, errors.New("queue drained")
	}
	messages := f.received[0]
	f.received = f.received[1:]
	return &sqs.ReceiveMessageOutput{Messages: messages}, nil
}

func TestPublish(t *testing.T) {
	client := &fakeSqs{}
	m := NewMessenger(client, "marketplace-")

	settlement := entity.Settlement{Id: "abc", Kind: entity.SaleSettlement, Price: big.NewInt(100)}
	require.NoError(t, Publish(m, SettlementQueue, settlement))
	require.NoError(t, Publish(m, SettlementQueue, settlement))

	require.Len(t, client.sent, 2)
	assert.Equal(t, "https://sqs.local/marketplace-settlement", aws.StringValue(client.sent[0].QueueUrl))
	assert.Contains(t, aws.StringValue(client.sent[0].MessageBody), `"price":100`)
	assert.Equal(t, 1, client.urlLookups)
}

func TestSendMessage_Error(t *testing.T) {
	client := &fakeSqs{sendErr: errors.New("throttled")}

	err := NewMessenger(client, "").SendMessage(ReconciliationQueue, []byte("{}"))
	assert.EqualError(t, err, "throttled")
}

func TestPollAndDelete(t *testing.T) {
	client := &fakeSqs{received: [][]*sqs.Message{
		{{Body: aws.String("a"), ReceiptHandle: aws.String("ra")}, {Body: aws.String("b"), ReceiptHandle: aws.String("rb")}},
	}}
	m := NewMessenger(client, "p-")

	ch := make(chan *sqs.Message, 10)
	go m.PollMessages(SettlementQueue, ch)

	bodies := make([]string, 0)
	timeout := time.After(time.Second)
	for len(bodies) < 2 {
		select {
		case msg, ok := <-ch:
			require.True(t, ok)
			bodies = append(bodies, aws.StringValue(msg.Body))
			require.NoError(t, m.DeleteMessage(SettlementQueue, msg))
		case <-timeout:
			require.FailNow(t, "messages not polled")
		}
	}

	assert.Equal(t, []string{"a", "b"}, bodies)
	assert.Len(t, client.deleted, 2)
	assert.Equal(t, "ra", aws.StringValue(client.deleted[0].ReceiptHandle))
}
