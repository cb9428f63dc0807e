// Package cache holds computed reports keyed by the store revision they were
// built from, so repeated CLI or worker calls skip the engine when nothing
// changed.
package cache

import (
	"context"
	"time"
)

// Cache is a keyed store of computed values.
type Cache[T any] interface {
	Get(key string) (T, bool)
	Set(key string, data T)
	Delete(key string)
	Purge()
	Size() int
}

// Cleaner is implemented by caches whose entries expire.
type Cleaner interface {
	CleanExpired() int
}

// Janitor periodically drops expired entries from registered caches.
type Janitor struct {
	caches    []Cleaner
	onCleaned func(n int)
}

// NewJanitor returns a janitor for the given caches. onCleaned, when not nil,
// is called after every sweep that removed at least one entry.
func NewJanitor(onCleaned func(n int), caches ...Cleaner) *Janitor {
	return &Janitor{caches: caches, onCleaned: onCleaned}
}

// Sweep cleans every registered cache once and returns how many entries
// were removed.
func (j *Janitor) Sweep() int {
	total := 0
	for _, c := range j.caches {
		total += c.CleanExpired()
	}
	if total > 0 && j.onCleaned != nil {
		j.onCleaned(total)
	}
	return total
}

// Run sweeps every interval until ctx is done.
func (j *Janitor) Run(ctx context.Context, interval time.Duration) error {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			j.Sweep()
		case <-ctx.Done():
			return nil
		}
	}
}
