package probe

import (
	"context"
	"log/slog"
	"sync"
)

// Cache fronts a Prober with an asynchronously-filled duration table.
// Lookup never blocks: a miss kicks off one background probe and
// reports the duration as unknown until the probe lands. The command
// executor polls Lookup while waiting for a LOAD's real duration.
type Cache struct {
	prober Prober
	logger *slog.Logger

	mu        sync.Mutex
	durations map[string]float64
	inflight  map[string]bool
}

func NewCache(prober Prober, logger *slog.Logger) *Cache {
	return &Cache{
		prober:    prober,
		logger:    logger,
		durations: make(map[string]float64),
		inflight:  make(map[string]bool),
	}
}

// Lookup returns the cached duration for path and whether it is known
// yet. An unknown path starts a single background probe.
func (c *Cache) Lookup(ctx context.Context, path string) (float64, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if d, ok := c.durations[path]; ok {
		return d, true
	}
	if !c.inflight[path] {
		c.inflight[path] = true
		go c.fill(ctx, path)
	}
	return 0, false
}

// Set records a duration directly, used by tests and by callers that
// already know the answer.
func (c *Cache) Set(path string, seconds float64) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.durations[path] = seconds
	delete(c.inflight, path)
}

func (c *Cache) fill(ctx context.Context, path string) {
	dur, err := c.prober.Duration(context.WithoutCancel(ctx), path)

	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.inflight, path)
	if err != nil {
		if c.logger != nil {
			c.logger.Warn("duration probe failed", "path", path, "error", err)
		}
		return
	}
	c.durations[path] = dur
}
