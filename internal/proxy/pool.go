// Package proxy maintains the rotating pool of outbound proxies.
package proxy

import (
	"context"
	"fmt"
	"net/url"
	"sync"

	"github.com/jonesrussell/webwatch/internal/domain"
	"github.com/jonesrussell/webwatch/internal/logger"
)

// Source lists the proxies currently enabled in storage.
type Source interface {
	ListEnabled(ctx context.Context) ([]*domain.Proxy, error)
}

// Pool hands out proxies round-robin and can be reloaded from storage
// without restarting the process. Entries with an unparseable URL are
// skipped at reload time, not at hand-out time.
type Pool struct {
	source Source
	log    logger.Interface

	mu      sync.Mutex
	entries []*entry
	next    int
}

type entry struct {
	id  string
	url *url.URL
}

// NewPool creates an empty pool over the given source.
func NewPool(source Source, log logger.Interface) *Pool {
	return &Pool{
		source: source,
		log:    log.WithComponent("proxy-pool"),
	}
}

// Reload replaces the pool contents with the enabled proxies from
// storage. The rotation cursor resets; a reload failure keeps the
// previous set.
func (p *Pool) Reload(ctx context.Context) error {
	proxies, err := p.source.ListEnabled(ctx)
	if err != nil {
		return fmt.Errorf("failed to reload proxies: %w", err)
	}

	entries := make([]*entry, 0, len(proxies))
	for _, proxy := range proxies {
		parsed, parseErr := url.Parse(proxy.URL)
		if parseErr != nil {
			p.log.Warn("skipping proxy with invalid URL",
				"proxy_id", proxy.ID,
				"error", parseErr.Error(),
			)
			continue
		}
		entries = append(entries, &entry{id: proxy.ID, url: parsed})
	}

	p.mu.Lock()
	p.entries = entries
	p.next = 0
	p.mu.Unlock()

	p.log.Debug("proxy pool reloaded", "count", len(entries))
	return nil
}

// Next returns the next proxy in rotation, nil when the pool is empty.
func (p *Pool) Next() *url.URL {
	p.mu.Lock()
	defer p.mu.Unlock()

	if len(p.entries) == 0 {
		return nil
	}
	picked := p.entries[p.next%len(p.entries)]
	p.next = (p.next + 1) % len(p.entries)
	return picked.url
}

// Get returns the proxy with the given ID, nil when absent. Sites pinned
// to a specific proxy use this instead of the rotation.
func (p *Pool) Get(id string) *url.URL {
	p.mu.Lock()
	defer p.mu.Unlock()

	for _, e := range p.entries {
		if e.id == id {
			return e.url
		}
	}
	return nil
}

// Size returns the number of usable proxies in the pool.
func (p *Pool) Size() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return len(p.entries)
}
