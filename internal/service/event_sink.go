package service

import (
	"context"
	"sync/atomic"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/feralgames/frontline/internal/model"
	"github.com/feralgames/frontline/internal/repository"
)

// AsyncEventSink journals applied influence changes without blocking
// the engine. Append hands the event to a buffered channel; a single
// writer goroutine appends to Postgres and mirrors the fresh value and
// sequence into Redis. When the buffer fills, the incoming event is
// dropped and counted; the live store stays authoritative, so a
// dropped event costs replay fidelity, not correctness.
type AsyncEventSink struct {
	events repository.EventRepository
	cache  repository.LiveCache
	ch     chan model.TerritorialEvent
	done   chan struct{}

	dropped atomic.Int64
}

const sinkBuffer = 4096

// NewAsyncEventSink creates the sink. Call Start before use and Stop
// on shutdown to drain the buffer.
func NewAsyncEventSink(events repository.EventRepository, cache repository.LiveCache) *AsyncEventSink {
	return &AsyncEventSink{
		events: events,
		cache:  cache,
		ch:     make(chan model.TerritorialEvent, sinkBuffer),
		done:   make(chan struct{}),
	}
}

// Append implements the engine event sink. Never blocks.
func (s *AsyncEventSink) Append(ev model.TerritorialEvent) {
	select {
	case s.ch <- ev:
	default:
		n := s.dropped.Add(1)
		log.Warn().
			Int("territoryId", ev.TerritoryID).
			Int64("seq", ev.Seq).
			Int64("totalDropped", n).
			Msg("Event sink buffer full, dropping event")
	}
}

// Start launches the writer goroutine.
func (s *AsyncEventSink) Start(ctx context.Context) {
	go s.run(ctx)
}

// Stop closes the intake and waits for the writer to drain.
func (s *AsyncEventSink) Stop() {
	close(s.ch)
	<-s.done
}

func (s *AsyncEventSink) run(ctx context.Context) {
	defer close(s.done)
	for ev := range s.ch {
		s.write(ctx, ev)
	}
}

// write persists one event. The journal append retries once after a
// short pause; the Redis mirror is best-effort.
func (s *AsyncEventSink) write(ctx context.Context, ev model.TerritorialEvent) {
	if _, err := s.events.Append(ctx, ev); err != nil {
		log.Error().Err(err).Int("territoryId", ev.TerritoryID).Int64("seq", ev.Seq).
			Msg("Event append failed, retrying")
		time.Sleep(250 * time.Millisecond)
		if _, err := s.events.Append(ctx, ev); err != nil {
			log.Error().Err(err).Int("territoryId", ev.TerritoryID).Int64("seq", ev.Seq).
				Msg("Event append failed twice, event lost from journal")
		}
	}

	if s.cache == nil {
		return
	}
	row := model.InfluenceRow{
		TerritoryID: ev.TerritoryID,
		FactionID:   ev.FactionID,
		Value:       ev.Value,
		LastUpdated: ev.CreatedAt,
	}
	if err := s.cache.SetInfluence(ctx, row); err != nil {
		log.Warn().Err(err).Int("territoryId", ev.TerritoryID).Msg("Redis influence mirror failed")
	}
	if err := s.cache.SetSeq(ctx, ev.TerritoryID, ev.Seq); err != nil {
		log.Warn().Err(err).Int("territoryId", ev.TerritoryID).Msg("Redis seq mirror failed")
	}
}
