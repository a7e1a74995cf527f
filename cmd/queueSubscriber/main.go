package main

import (
	"encoding/json"
	"github.com/ZilDuck/zilliqa-marketplace/internal/config"
	"github.com/ZilDuck/zilliqa-marketplace/internal/config/di"
	"github.com/ZilDuck/zilliqa-marketplace/internal/dev"
	"github.com/ZilDuck/zilliqa-marketplace/internal/elastic_search"
	"github.com/ZilDuck/zilliqa-marketplace/internal/entity"
	"github.com/ZilDuck/zilliqa-marketplace/internal/event"
	"github.com/ZilDuck/zilliqa-marketplace/internal/indexer"
	"github.com/ZilDuck/zilliqa-marketplace/internal/messenger"
	"github.com/aws/aws-sdk-go/service/sqs"
	"go.uber.org/zap"
	"sync"
)

var (
	messageService     messenger.MessageService
	elastic            elastic_search.Index
	marketplaceIndexer indexer.MarketplaceIndexer
)

func main() {
	config.Init()

	container, err := di.NewContainer(config.Get())
	if err != nil {
		zap.L().With(zap.Error(err)).Fatal("Failed to build container")
	}

	messageService, err = container.SafeGetMessenger()
	if err != nil {
		zap.L().With(zap.Error(err)).Fatal("Queues are not configured")
	}

	if elastic, err = container.SafeGetElastic(); err == nil {
		marketplaceIndexer = indexer.NewMarketplaceIndexer(elastic)
	}

	var wg sync.WaitGroup
	wg.Add(2)
	go func() {
		defer wg.Done()
		pollSettlements()
	}()
	go func() {
		defer wg.Done()
		pollReconciliations()
	}()
	wg.Wait()
}

func pollSettlements() {
	zap.L().Info("Subscribing to settlements")
	messages := make(chan *sqs.Message, 10)
	go messageService.PollMessages(messenger.SettlementQueue, messages)

	for message := range messages {
		var settlement entity.Settlement
		if err := json.Unmarshal([]byte(*message.Body), &settlement); err != nil {
			zap.L().With(zap.Error(err)).Error("Failed to read message")
			continue
		}
		zap.L().With(
			zap.String("id", settlement.Id),
			zap.String("kind", string(settlement.Kind)),
			zap.String("asset", settlement.Key().String()),
			zap.String("price", entity.AmountString(settlement.Price)),
		).Info("Settlement received")

		index(event.SettlementEvent, settlement)

		if err := messageService.DeleteMessage(messenger.SettlementQueue, message); err != nil {
			zap.L().With(zap.Error(err)).Error("Failed to delete message")
		}
	}
}

func pollReconciliations() {
	zap.L().Info("Subscribing to reconciliations")
	messages := make(chan *sqs.Message, 10)
	go messageService.PollMessages(messenger.ReconciliationQueue, messages)

	for message := range messages {
		var devErr dev.Error
		if err := json.Unmarshal([]byte(*message.Body), &devErr); err != nil {
			zap.L().With(zap.Error(err)).Error("Failed to read message")
			continue
		}
		zap.L().With(
			zap.String("id", devErr.Id),
			zap.String("name", devErr.Name),
			zap.String("error", devErr.Error),
			zap.Any("extra", devErr.Extra),
		).Warn("Reconciliation required")

		index(event.ReconciliationEvent, devErr)

		if err := messageService.DeleteMessage(messenger.ReconciliationQueue, message); err != nil {
			zap.L().With(zap.Error(err)).Error("Failed to delete message")
		}
	}
}

func index(eventType event.Type, msg interface{}) {
	if marketplaceIndexer == nil {
		return
	}
	if err := marketplaceIndexer.Index(eventType, msg); err != nil {
		zap.L().With(zap.Error(err)).Error("Failed to index message")
		return
	}
	elastic.Persist()
}
