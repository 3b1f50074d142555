package query

import (
	"sync"

	"github.com/Project-FinanceHUB/financehub/internal/models"
)

type memoKey struct {
	version uint64
	scope   string
	params  Params
}

// Memo guarda resultados de Run por (versão do snapshot, escopo do ator, params).
// Uma versão nova descarta tudo, então o cache nunca diverge da coleção.
type Memo struct {
	mu      sync.Mutex
	version uint64
	max     int
	entries map[memoKey]Result
}

func NewMemo(max int) *Memo {
	if max <= 0 {
		max = 256
	}
	return &Memo{max: max, entries: make(map[memoKey]Result)}
}

func (m *Memo) Run(version uint64, scope string, reqs []models.Solicitacao, p Params) Result {
	key := memoKey{version: version, scope: scope, params: p}

	m.mu.Lock()
	if version != m.version {
		m.entries = make(map[memoKey]Result)
		m.version = version
	}
	if res, ok := m.entries[key]; ok {
		m.mu.Unlock()
		return res
	}
	m.mu.Unlock()

	res := Run(reqs, p)

	m.mu.Lock()
	defer m.mu.Unlock()
	if version == m.version {
		if len(m.entries) >= m.max {
			m.entries = make(map[memoKey]Result)
		}
		m.entries[key] = res
	}
	return res
}

func (m *Memo) Len() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.entries)
}
