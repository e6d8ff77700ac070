package service

import (
	"context"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog/log"

	"github.com/feralgames/frontline/internal/engine"
	"github.com/feralgames/frontline/internal/repository"
)

// DecayScheduler drives periodic influence decay sweeps. The primary
// trigger is a Redis key with a TTL matching the decay interval: when
// it expires, a keyspace notification fires the sweep and the key is
// re-armed. A polling fallback catches missed expirations when
// keyspace notifications are unavailable.
type DecayScheduler struct {
	rdb      *redis.Client
	cache    repository.LiveCache
	eng      *engine.Engine
	interval time.Duration

	mu        sync.Mutex
	lastSweep time.Time
}

// NewDecayScheduler creates a DecayScheduler.
func NewDecayScheduler(rdb *redis.Client, cache repository.LiveCache, eng *engine.Engine) *DecayScheduler {
	interval := time.Duration(eng.Tuning().Decay.IntervalSec) * time.Second
	return &DecayScheduler{
		rdb:       rdb,
		cache:     cache,
		eng:       eng,
		interval:  interval,
		lastSweep: time.Now(),
	}
}

// Start arms the timer, then listens for expirations until ctx is
// cancelled. Blocks; run in a goroutine.
func (d *DecayScheduler) Start(ctx context.Context) {
	if err := d.cache.ArmDecayTimer(ctx, d.interval); err != nil {
		log.Error().Err(err).Msg("Failed to arm decay timer, relying on poller")
	}
	go d.listenKeyspace(ctx)
	d.pollMissedSweeps(ctx)
}

// listenKeyspace subscribes to Redis keyspace notifications for expired keys.
func (d *DecayScheduler) listenKeyspace(ctx context.Context) {
	pubsub := d.rdb.PSubscribe(ctx, "__keyevent@0__:expired")
	defer pubsub.Close()

	log.Info().Dur("interval", d.interval).Msg("Decay timer listener started")
	ch := pubsub.Channel()
	for {
		select {
		case <-ctx.Done():
			return
		case msg, ok := <-ch:
			if !ok {
				return
			}
			if msg.Payload != "world:decay_timer" {
				continue
			}
			d.sweep(ctx, "timer")
		}
	}
}

// pollMissedSweeps periodically checks whether a sweep is overdue and
// runs it. Covers Redis instances without notify-keyspace-events.
func (d *DecayScheduler) pollMissedSweeps(ctx context.Context) {
	ticker := time.NewTicker(10 * time.Second)
	defer ticker.Stop()

	log.Info().Msg("Decay sweep poller started (10s interval)")
	for {
		select {
		case <-ctx.Done():
			log.Info().Msg("Decay sweep poller stopped")
			return
		case <-ticker.C:
			d.mu.Lock()
			overdue := time.Since(d.lastSweep) > d.interval+5*time.Second
			d.mu.Unlock()
			if overdue {
				d.sweep(ctx, "poller")
			}
		}
	}
}

// sweep runs one decay pass and re-arms the timer. Concurrent triggers
// from the listener and the poller collapse into one sweep.
func (d *DecayScheduler) sweep(ctx context.Context, trigger string) {
	d.mu.Lock()
	if time.Since(d.lastSweep) < d.interval/2 {
		d.mu.Unlock()
		return
	}
	d.lastSweep = time.Now()
	d.mu.Unlock()

	changed := d.eng.DecaySweep(time.Now().UTC())
	log.Info().Str("trigger", trigger).Int("territories", changed).Msg("Decay sweep completed")

	if err := d.cache.ArmDecayTimer(ctx, d.interval); err != nil {
		log.Error().Err(err).Msg("Failed to re-arm decay timer")
	}
}
