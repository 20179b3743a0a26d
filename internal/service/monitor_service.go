package service

import (
	"context"
	"log"
	"time"

	"github.com/SanduniLK/MediLink/internal/models"
	"github.com/SanduniLK/MediLink/internal/signaling"
	"github.com/SanduniLK/MediLink/internal/store"
)

// MonitorService is the background worker. It reports signaling
// registry stats and sweeps call sessions that got stuck in
// "connecting" (for example after a crash left a dangling ring timer).
type MonitorService struct {
	store    store.DocumentStore
	registry *signaling.Registry
	calls    *CallService
	interval time.Duration
	staleAge time.Duration
}

func NewMonitorService(st store.DocumentStore, registry *signaling.Registry, calls *CallService, ringTimeout time.Duration) *MonitorService {
	return &MonitorService{
		store:    st,
		registry: registry,
		calls:    calls,
		interval: 15 * time.Second,
		staleAge: 2 * ringTimeout,
	}
}

// Start begins the background worker loop
func (m *MonitorService) Start(ctx context.Context) {
	ticker := time.NewTicker(m.interval)
	defer ticker.Stop()

	log.Printf("Background worker started - polling every %s", m.interval)

	for {
		select {
		case <-ctx.Done():
			log.Println("Background worker stopped")
			return
		case <-ticker.C:
			m.reportStats()
			m.sweepStaleSessions(ctx)
		}
	}
}

func (m *MonitorService) reportStats() {
	stats := m.registry.Stats()
	log.Printf("signaling: %d connections, %d patient rooms, %d call rooms",
		stats.Connections, stats.PatientRooms, stats.CallRooms)
}

// sweepStaleSessions ends connecting sessions older than staleAge.
func (m *MonitorService) sweepStaleSessions(ctx context.Context) {
	docs, err := m.store.QueryDocuments(ctx, models.CollectionActiveCalls, []store.Filter{
		store.Eq("status", models.CallConnecting),
	}, "")
	if err != nil {
		log.Printf("Error fetching connecting sessions: %v", err)
		return
	}

	cutoff := time.Now().Add(-m.staleAge)
	for _, doc := range docs {
		var session models.CallSession
		if err := store.Decode(doc, &session); err != nil {
			continue
		}
		if session.StartedAt.After(cutoff) {
			continue
		}
		log.Printf("call: sweeping stale session %s (ringing since %v)", doc.ID, session.StartedAt)
		if _, err := m.calls.End(ctx, doc.ID, models.EndedByTimeout, "stale session swept"); err != nil {
			log.Printf("Error sweeping session %s: %v", doc.ID, err)
		}
	}
}
