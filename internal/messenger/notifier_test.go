package messenger

import (
	"errors"
	"github.com/ZilDuck/zilliqa-marketplace/internal/dev"
	"github.com/ZilDuck/zilliqa-marketplace/internal/entity"
	"github.com/ZilDuck/zilliqa-marketplace/internal/event"
	"github.com/aws/aws-sdk-go/aws"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"math/big"
	"testing"
)

func TestNotifier_Notify(t *testing.T) {
	client := &fakeSqs{}
	notifier := NewNotifier(NewMessenger(client, "mp-"))

	settlement := entity.Settlement{Id: "s1", Kind: entity.AuctionSettlement, Price: big.NewInt(5)}
	require.NoError(t, notifier.Notify(event.SettlementEvent, settlement))

	devErr := dev.NewError("Settlement", "DisburseFailed", errors.New("bank down"), nil)
	require.NoError(t, notifier.Notify(event.ReconciliationEvent, devErr))

	require.Len(t, client.sent, 2)
	assert.Equal(t, "https://sqs.local/mp-settlement", aws.StringValue(client.sent[0].QueueUrl))
	assert.Equal(t, "https://sqs.local/mp-reconciliation", aws.StringValue(client.sent[1].QueueUrl))
	assert.Contains(t, aws.StringValue(client.sent[1].MessageBody), `"error":"bank down"`)
}

func TestNotifier_UnexpectedMessage(t *testing.T) {
	client := &fakeSqs{}

	err := NewNotifier(NewMessenger(client, "")).Notify(event.SettlementEvent, "nope")

	assert.ErrorIs(t, err, ErrUnexpectedEvent)
	assert.Empty(t, client.sent)
}
