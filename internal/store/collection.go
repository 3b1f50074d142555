// Package store mantém a cópia em memória da coleção de solicitações. Toda
// mutação otimista passa por aqui e incrementa a versão.
package store

import (
	"context"
	"errors"
	"slices"
	"sync"

	"golang.org/x/sync/singleflight"

	"github.com/Project-FinanceHUB/financehub/internal/models"
)

var ErrNotFound = errors.New("solicitacao not found in collection")

// Loader busca a coleção canônica (normalmente o repositório Mongo).
type Loader func(ctx context.Context) ([]models.Solicitacao, error)

type Collection struct {
	mu      sync.RWMutex
	items   []models.Solicitacao
	version uint64
	loaded  bool

	load  Loader
	group singleflight.Group
}

func NewCollection(load Loader) *Collection {
	return &Collection{load: load}
}

// Load recarrega do Loader. Chamadas concorrentes compartilham a mesma ida ao banco.
// Se a coleção já carregada mudou durante a leitura, o resultado é descartado
// (a leitura pode ser anterior à mudança); o próximo Load tenta de novo.
func (c *Collection) Load(ctx context.Context) error {
	_, err, _ := c.group.Do("load", func() (any, error) {
		v0 := c.Version()
		items, err := c.load(ctx)
		if err != nil {
			return nil, err
		}
		c.mu.Lock()
		defer c.mu.Unlock()
		if c.loaded && c.version != v0 {
			return nil, nil
		}
		c.items = cloneAll(items)
		c.version++
		c.loaded = true
		return nil, nil
	})
	return err
}

// Invalidate força o próximo Ensure a recarregar, ex.: depois de um timeout
// em que não se sabe se a escrita chegou ao banco.
func (c *Collection) Invalidate() {
	c.mu.Lock()
	c.loaded = false
	c.mu.Unlock()
}

// Ensure carrega apenas na primeira vez.
func (c *Collection) Ensure(ctx context.Context) error {
	c.mu.RLock()
	loaded := c.loaded
	c.mu.RUnlock()
	if loaded {
		return nil
	}
	return c.Load(ctx)
}

// Snapshot devolve uma cópia e a versão correspondente.
func (c *Collection) Snapshot() ([]models.Solicitacao, uint64) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return cloneAll(c.items), c.version
}

func (c *Collection) Version() uint64 {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.version
}

func (c *Collection) Get(id string) (models.Solicitacao, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	if i := c.index(id); i >= 0 {
		return c.items[i].Clone(), true
	}
	return models.Solicitacao{}, false
}

// Insert coloca a solicitação no topo (mais recente primeiro).
func (c *Collection) Insert(s models.Solicitacao) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.items = slices.Insert(c.items, 0, s.Clone())
	c.version++
}

// Apply altera a solicitação id e devolve o valor anterior para rollback.
func (c *Collection) Apply(id string, fn func(*models.Solicitacao)) (models.Solicitacao, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	i := c.index(id)
	if i < 0 {
		return models.Solicitacao{}, ErrNotFound
	}
	prev := c.items[i].Clone()
	next := c.items[i].Clone()
	fn(&next)
	c.items[i] = next
	c.version++
	return prev, nil
}

// Remove tira a solicitação e devolve a posição para Restore.
func (c *Collection) Remove(id string) (models.Solicitacao, int, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	i := c.index(id)
	if i < 0 {
		return models.Solicitacao{}, -1, ErrNotFound
	}
	prev := c.items[i]
	c.items = slices.Delete(c.items, i, i+1)
	c.version++
	return prev, i, nil
}

// Put sincroniza uma solicitação lida do banco: substitui no lugar ou insere no topo.
func (c *Collection) Put(s models.Solicitacao) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if i := c.index(s.ID); i >= 0 {
		c.items[i] = s.Clone()
	} else {
		c.items = slices.Insert(c.items, 0, s.Clone())
	}
	c.version++
}

// Replace desfaz um Apply. Se o id sumiu nesse meio tempo não faz nada.
func (c *Collection) Replace(s models.Solicitacao) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	i := c.index(s.ID)
	if i < 0 {
		return false
	}
	c.items[i] = s.Clone()
	c.version++
	return true
}

// Restore devolve um item removido à posição original (ou ao fim).
func (c *Collection) Restore(s models.Solicitacao, pos int) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.index(s.ID) >= 0 {
		return
	}
	if pos < 0 || pos > len(c.items) {
		pos = len(c.items)
	}
	c.items = slices.Insert(c.items, pos, s.Clone())
	c.version++
}

// Discard desfaz um Insert.
func (c *Collection) Discard(id string) bool {
	_, _, err := c.Remove(id)
	return err == nil
}

func (c *Collection) index(id string) int {
	return slices.IndexFunc(c.items, func(s models.Solicitacao) bool { return s.ID == id })
}

func cloneAll(in []models.Solicitacao) []models.Solicitacao {
	out := make([]models.Solicitacao, len(in))
	for i, s := range in {
		out[i] = s.Clone()
	}
	return out
}
