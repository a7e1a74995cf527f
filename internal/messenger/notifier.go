package messenger

import (
	"errors"
	"github.com/ZilDuck/zilliqa-marketplace/internal/dev"
	"github.com/ZilDuck/zilliqa-marketplace/internal/entity"
	"github.com/ZilDuck/zilliqa-marketplace/internal/event"
	"go.uber.org/zap"
)

var ErrUnexpectedEvent = errors.New("unexpected event")

// Notifier publishes settlements and reconciliation errors to their queues.
type Notifier struct {
	service MessageService
}

func NewNotifier(service MessageService) Notifier {
	return Notifier{service}
}

func (n Notifier) Subscribe(manager *event.Manager) {
	for _, eventType := range []event.Type{event.SettlementEvent, event.ReconciliationEvent} {
		eventType := eventType
		manager.AddListener(eventType, func(msg interface{}) {
			if err := n.Notify(eventType, msg); err != nil {
				zap.L().With(zap.Error(err), zap.String("type", string(eventType))).Error("Notifier: Failed to publish event")
			}
		})
	}
}

func (n Notifier) Notify(eventType event.Type, msg interface{}) error {
	switch m := msg.(type) {
	case entity.Settlement:
		return Publish(n.service, SettlementQueue, m)
	case dev.Error:
		return Publish(n.service, ReconciliationQueue, m)
	}

	zap.L().With(zap.String("type", string(eventType))).Warn("Notifier: Unexpected message")
	return ErrUnexpectedEvent
}
