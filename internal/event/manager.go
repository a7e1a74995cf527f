package event

import (
	"go.uber.org/zap"
	"sync"
)

const listenerBuffer = 256

type Emitter interface {
	Emit(eventType Type, msg interface{})
}

type Listener struct {
	eventType Type
	channel   chan interface{}
}

// Manager fans events out to listeners. Each listener receives its events in emit order on its own goroutine.
type Manager struct {
	mu        sync.RWMutex
	listeners []*Listener
}

func NewManager() *Manager {
	return &Manager{listeners: make([]*Listener, 0)}
}

func (m *Manager) AddListener(eventType Type, callback func(msg interface{})) {
	zap.L().With(zap.String("type", string(eventType))).Debug("EventManager: AddListener")

	listener := &Listener{
		eventType: eventType,
		channel:   make(chan interface{}, listenerBuffer),
	}

	m.mu.Lock()
	m.listeners = append(m.listeners, listener)
	m.mu.Unlock()

	go func() {
		for msg := range listener.channel {
			callback(msg)
		}
	}()
}

func (m *Manager) Emit(eventType Type, msg interface{}) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	if len(m.listeners) == 0 {
		zap.L().Debug("No event listeners available")
	}
	for _, listener := range m.listeners {
		if listener.eventType == eventType {
			zap.L().With(zap.String("type", string(eventType))).Debug("EventManager: Emitting event")
			listener.channel <- msg
		}
	}
}

var defaultManager = NewManager()

func Default() *Manager {
	return defaultManager
}

func AddEventListener(eventType Type, callback func(msg interface{})) {
	defaultManager.AddListener(eventType, callback)
}

func EmitEvent(eventType Type, msg interface{}) {
	defaultManager.Emit(eventType, msg)
}
