package links

import (
	"context"
	"fmt"
	"time"
)

// BaselineStore is the durable seen-link set the diff runs against.
type BaselineStore interface {
	FilterKnown(ctx context.Context, siteID string, candidates []string) (map[string]bool, error)
	InsertIfAbsent(ctx context.Context, siteID string, urls []string, seenAt time.Time) error
}

// Differ computes the set of newly observed links for a site. Treating
// "new" as a set difference against a durable baseline makes the crawl
// idempotent: re-crawling an unchanged page yields zero new links no
// matter how often it runs.
type Differ struct {
	store BaselineStore
}

// NewDiffer creates a differ over the given baseline store.
func NewDiffer(store BaselineStore) *Differ {
	return &Differ{store: store}
}

// Diff returns candidates not yet in the site's baseline and records them.
// Recording uses insert-if-absent, so concurrent or repeated diffs never
// error on duplicates.
func (d *Differ) Diff(ctx context.Context, siteID string, candidates []string) ([]string, error) {
	if len(candidates) == 0 {
		return nil, nil
	}

	known, err := d.store.FilterKnown(ctx, siteID, candidates)
	if err != nil {
		return nil, fmt.Errorf("load baseline: %w", err)
	}

	var fresh []string
	for _, candidate := range candidates {
		if !known[candidate] {
			fresh = append(fresh, candidate)
		}
	}

	if len(fresh) > 0 {
		if insertErr := d.store.InsertIfAbsent(ctx, siteID, fresh, time.Now().UTC()); insertErr != nil {
			return nil, fmt.Errorf("record baseline: %w", insertErr)
		}
	}

	return fresh, nil
}
