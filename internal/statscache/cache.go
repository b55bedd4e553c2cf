// Package statscache guarda o payload de estatísticas com TTL. É um
// objeto construído no main e injetado nos handlers; não existe estado de
// cache em nível de pacote.
package statscache

import (
	"sync"
	"time"
)

type Cache[T any] struct {
	mu  sync.Mutex
	ttl time.Duration
	now func() time.Time

	computedAt time.Time
	payload    T
	filled     bool
}

func New[T any](ttl time.Duration) *Cache[T] {
	return &Cache[T]{ttl: ttl, now: time.Now}
}

// Get devolve o payload do cache quando ainda válido, senão chama compute
// e guarda o resultado. O lock cobre o compute, então há no máximo um
// recálculo em andamento; cached informa de onde veio a resposta.
func (c *Cache[T]) Get(force bool, compute func() (T, error)) (payload T, cached bool, err error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if !force && c.filled && c.now().Sub(c.computedAt) < c.ttl {
		return c.payload, true, nil
	}

	payload, err = compute()
	if err != nil {
		var zero T
		return zero, false, err
	}
	c.payload = payload
	c.computedAt = c.now()
	c.filled = true
	return payload, false, nil
}
