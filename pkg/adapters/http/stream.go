package http

import (
	"context"
	"encoding/json"
	"log/slog"
	"sync"

	"github.com/aretw0/furrow/pkg/domain"
)

// allSessions is the subscription key of clients following every session.
const allSessions = ""

// Message is one serialized lifecycle event.
type Message struct {
	Type domain.EventType
	Data []byte
}

// StreamManager fans lifecycle events out to SSE subscribers.
type StreamManager struct {
	mu          sync.RWMutex
	subscribers map[string]map[chan Message]struct{} // SessionID -> Set of Channels
	logger      *slog.Logger
}

// NewStreamManager creates an empty StreamManager.
func NewStreamManager(logger *slog.Logger) *StreamManager {
	return &StreamManager{
		subscribers: make(map[string]map[chan Message]struct{}),
		logger:      logger,
	}
}

// Subscribe registers a buffered channel for sessionID, or for every session
// when sessionID is empty. The returned func unsubscribes and closes it.
func (sm *StreamManager) Subscribe(sessionID string) (<-chan Message, func()) {
	sm.mu.Lock()
	defer sm.mu.Unlock()

	ch := make(chan Message, 64)
	if _, ok := sm.subscribers[sessionID]; !ok {
		sm.subscribers[sessionID] = make(map[chan Message]struct{})
	}
	sm.subscribers[sessionID][ch] = struct{}{}

	var once sync.Once
	return ch, func() {
		once.Do(func() {
			sm.mu.Lock()
			defer sm.mu.Unlock()
			subs := sm.subscribers[sessionID]
			delete(subs, ch)
			close(ch)
			if len(subs) == 0 {
				delete(sm.subscribers, sessionID)
			}
		})
	}
}

// Broadcast delivers msg to the subscribers of sessionID and of every
// session. Slow clients lose messages rather than block the scheduler.
func (sm *StreamManager) Broadcast(sessionID string, msg Message) {
	sm.mu.RLock()
	defer sm.mu.RUnlock()

	keys := []string{allSessions}
	if sessionID != allSessions {
		keys = append(keys, sessionID)
	}
	for _, key := range keys {
		for ch := range sm.subscribers[key] {
			select {
			case ch <- msg:
			default:
				sm.logger.Warn("SSE client buffer full, dropping message", "session_id", sessionID, "type", msg.Type)
			}
		}
	}
}

func (sm *StreamManager) publish(sessionID string, t domain.EventType, event any) {
	data, err := json.Marshal(event)
	if err != nil {
		sm.logger.Error("event encode failed", "type", t, "err", err)
		return
	}
	sm.Broadcast(sessionID, Message{Type: t, Data: data})
}

// Hooks returns lifecycle hooks that publish every event.
func (sm *StreamManager) Hooks() domain.LifecycleHooks {
	return domain.LifecycleHooks{
		OnEpoch: func(_ context.Context, e *domain.EpochEvent) {
			sm.publish(e.SessionID, domain.EventEpoch, e)
		},
		OnGuardTrip: func(_ context.Context, e *domain.GuardEvent) {
			sm.publish(e.SessionID, domain.EventGuardTrip, e)
		},
		OnRestart: func(_ context.Context, e *domain.RestartEvent) {
			sm.publish(e.SessionID, domain.EventRestart, e)
		},
	}
}
