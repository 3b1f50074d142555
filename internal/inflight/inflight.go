// Package inflight impede duas mutações simultâneas sobre a mesma solicitação.
// A segunda tentativa é recusada (não enfileirada).
package inflight

import (
	"context"
	"errors"
	"sync"
)

var ErrBusy = errors.New("another change is in progress for this item")

// Locker reserva um id. release deve ser chamado ao fim da mutação.
type Locker interface {
	Acquire(ctx context.Context, id string) (release func(), err error)
}

type Memory struct {
	mu   sync.Mutex
	busy map[string]struct{}
}

func NewMemory() *Memory {
	return &Memory{busy: make(map[string]struct{})}
}

func (m *Memory) Acquire(_ context.Context, id string) (func(), error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.busy[id]; ok {
		return nil, ErrBusy
	}
	m.busy[id] = struct{}{}
	var once sync.Once
	return func() {
		once.Do(func() {
			m.mu.Lock()
			delete(m.busy, id)
			m.mu.Unlock()
		})
	}, nil
}

func (m *Memory) Pending() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.busy)
}
