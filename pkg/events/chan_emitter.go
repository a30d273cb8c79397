package events

import (
	"context"
	"sync"
)

// ChanEmitter — стандартная реализация Emitter через канал.
//
// Thread-safe. Emit после Close молча отбрасывает событие.
type ChanEmitter struct {
	mu        sync.RWMutex
	ch        chan Event
	done      chan struct{}
	closeOnce sync.Once
	closed    bool
}

// NewChanEmitter создаёт новый ChanEmitter с буферизованным каналом.
//
// Если buffer = 0, канал будет небуферизованным (blocking).
func NewChanEmitter(buffer int) *ChanEmitter {
	return &ChanEmitter{
		ch:   make(chan Event, buffer),
		done: make(chan struct{}),
	}
}

// Emit отправляет событие в канал.
// Отменённый context прерывает ожидание.
func (e *ChanEmitter) Emit(ctx context.Context, event Event) {
	// Read lock держится на время отправки: Close не закроет канал под отправителем
	e.mu.RLock()
	defer e.mu.RUnlock()
	if e.closed {
		return
	}

	select {
	case e.ch <- event:
	case <-ctx.Done():
	case <-e.done:
	}
}

// Subscribe возвращает Subscriber для чтения событий.
//
// Все подписчики читают один канал: каждое событие получит только один из них.
func (e *ChanEmitter) Subscribe() Subscriber {
	return &chanSubscriber{ch: e.ch}
}

// Close закрывает канал событий. Повторный вызов безопасен.
func (e *ChanEmitter) Close() {
	e.closeOnce.Do(func() {
		// Сначала будим заблокированных отправителей, потом ждём их выхода
		close(e.done)

		e.mu.Lock()
		defer e.mu.Unlock()
		e.closed = true
		close(e.ch)
	})
}

// chanSubscriber реализует Subscriber интерфейс.
type chanSubscriber struct {
	ch <-chan Event
}

// Events возвращает read-only канал событий.
func (s *chanSubscriber) Events() <-chan Event {
	return s.ch
}

// Close — no-op: канал общий и закрывается через ChanEmitter.Close().
func (s *chanSubscriber) Close() {}

var _ Emitter = (*ChanEmitter)(nil)

var _ Subscriber = (*chanSubscriber)(nil)
