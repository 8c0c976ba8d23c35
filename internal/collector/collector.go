package collector

import (
	"context"
	"log/slog"
	"time"

	"github.com/nhdewitt/sysprobe/internal/protocol"
)

type CollectFunc func(context.Context) ([]protocol.Metric, error)

// Collector drives a CollectFunc on a fixed interval and forwards each
// metric, wrapped in an Envelope, to out.
type Collector struct {
	hostname string
	out      chan<- protocol.Envelope
	logger   *slog.Logger
}

func New(hostname string, out chan<- protocol.Envelope, logger *slog.Logger) *Collector {
	if logger == nil {
		logger = slog.Default()
	}
	return &Collector{
		hostname: hostname,
		out:      out,
		logger:   logger,
	}
}

// send handles channel send with context cancellation
func (c *Collector) send(ctx context.Context, m protocol.Metric) {
	select {
	case c.out <- protocol.NewEnvelope(c.hostname, m):
	case <-ctx.Done():
	}
}

// Run collects once immediately, then once per interval until ctx is done
// or limit collections have run. A limit of zero means no limit. Collect
// is only ever called from the goroutine running Run.
func (c *Collector) Run(ctx context.Context, interval time.Duration, limit int, collect CollectFunc) {
	runs := 0
	collectAndSend := func() {
		defer func() {
			if r := recover(); r != nil {
				c.logger.Error("panic recovered in collector", "panic", r)
			}
		}()
		runs++

		data, err := collect(ctx)
		if err != nil {
			c.logger.Warn("collection failed", "error", err)
			return
		}

		for _, m := range data {
			if m == nil {
				continue
			}
			c.send(ctx, m)
		}
	}

	// Collect Baseline
	collectAndSend()
	if limit > 0 && runs >= limit {
		return
	}

	// Start ticker
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			collectAndSend()
			if limit > 0 && runs >= limit {
				return
			}
		}
	}
}
