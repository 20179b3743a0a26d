package service

import (
	"context"
	"fmt"
	"log"
	"sync"
	"time"

	"github.com/SanduniLK/MediLink/internal/models"
	"github.com/SanduniLK/MediLink/internal/signaling"
	"github.com/SanduniLK/MediLink/internal/store"
	"github.com/google/uuid"
)

// CallService drives the video consultation lifecycle: a doctor rings a
// patient, the patient answers or rejects, and either side (or the ring
// timer) ends the session. Sessions are persisted before any fan-out so
// a crash never loses the record.
type CallService struct {
	store       store.DocumentStore
	registry    *signaling.Registry
	ringTimeout time.Duration

	mu     sync.Mutex
	timers map[string]*time.Timer
	locks  map[string]*sync.Mutex
}

func NewCallService(st store.DocumentStore, registry *signaling.Registry, ringTimeout time.Duration) *CallService {
	return &CallService{
		store:       st,
		registry:    registry,
		ringTimeout: ringTimeout,
		timers:      make(map[string]*time.Timer),
		locks:       make(map[string]*sync.Mutex),
	}
}

// roomLock serializes lifecycle transitions for one room. The existing
// session check and the session write must not interleave across
// concurrent initiates.
func (s *CallService) roomLock(roomID string) *sync.Mutex {
	s.mu.Lock()
	defer s.mu.Unlock()
	l, ok := s.locks[roomID]
	if !ok {
		l = &sync.Mutex{}
		s.locks[roomID] = l
	}
	return l
}

// InitiateParams carries everything needed to ring a patient. RoomID is
// the appointment id and doubles as the session key.
type InitiateParams struct {
	RoomID           string
	PatientID        string
	PatientName      string
	DoctorID         string
	DoctorName       string
	ConsultationType string
}

// Initiate creates a connecting session and rings the patient's
// personal room. An existing non-ended session for the room blocks a
// second call.
func (s *CallService) Initiate(ctx context.Context, p InitiateParams) (*models.CallSession, error) {
	if p.RoomID == "" || p.PatientID == "" || p.DoctorID == "" {
		return nil, fmt.Errorf("%w: roomId, patientId and doctorId are required", ErrValidation)
	}

	lock := s.roomLock(p.RoomID)
	lock.Lock()
	defer lock.Unlock()

	doc, err := s.store.GetDocument(ctx, models.CollectionActiveCalls, p.RoomID)
	switch {
	case err == nil:
		var existing models.CallSession
		if err := store.Decode(doc, &existing); err != nil {
			return nil, err
		}
		if existing.Status != models.CallEnded {
			return nil, fmt.Errorf("%w: room %s has a %s session", ErrSessionAlreadyActive, p.RoomID, existing.Status)
		}
	case err != store.ErrNotFound:
		return nil, err
	}

	now := time.Now()
	session := models.CallSession{
		ID:               p.RoomID,
		CallID:           uuid.NewString(),
		AppointmentID:    p.RoomID,
		DoctorID:         p.DoctorID,
		DoctorName:       p.DoctorName,
		PatientID:        p.PatientID,
		PatientName:      p.PatientName,
		ConsultationType: p.ConsultationType,
		Status:           models.CallConnecting,
		DoctorJoined:     true,
		StartedAt:        now,
		CreatedAt:        now,
	}
	fields, err := store.Fields(session)
	if err != nil {
		return nil, err
	}
	if err := s.store.SetDocument(ctx, models.CollectionActiveCalls, p.RoomID, fields); err != nil {
		return nil, err
	}

	if err := s.store.UpdateDocument(ctx, models.CollectionAppointments, p.RoomID, map[string]any{
		"callStatus": models.CallConnecting,
		"updatedAt":  now,
	}); err != nil {
		log.Printf("call: could not flag appointment %s as ringing: %v", p.RoomID, err)
	}

	delivered := s.registry.Broadcast(signaling.PersonalRoom(p.PatientID), signaling.EventIncomingCall, map[string]any{
		"roomId":           p.RoomID,
		"callId":           session.CallID,
		"doctorId":         p.DoctorID,
		"doctorName":       p.DoctorName,
		"consultationType": p.ConsultationType,
	}, "")
	log.Printf("call: %s ringing patient %s (%d connections reached)", p.RoomID, p.PatientID, delivered)

	s.armRingTimer(p.RoomID)
	return &session, nil
}

func (s *CallService) armRingTimer(roomID string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if t, ok := s.timers[roomID]; ok {
		t.Stop()
	}
	s.timers[roomID] = time.AfterFunc(s.ringTimeout, func() {
		s.expire(roomID)
	})
}

func (s *CallService) cancelRingTimer(roomID string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if t, ok := s.timers[roomID]; ok {
		t.Stop()
		delete(s.timers, roomID)
	}
}

// expire ends a session that is still connecting when the ring timer
// fires. The status check and the end happen under the room lock so a
// patient answering at the same moment keeps their call.
func (s *CallService) expire(roomID string) {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	lock := s.roomLock(roomID)
	lock.Lock()
	defer lock.Unlock()

	session, err := s.GetSession(ctx, roomID)
	if err != nil {
		return
	}
	if session.Status != models.CallConnecting {
		return
	}
	log.Printf("call: %s rang out after %s", roomID, s.ringTimeout)
	if _, err := s.endLocked(ctx, roomID, models.EndedByTimeout, "no answer"); err != nil {
		log.Printf("call: failed to expire %s: %v", roomID, err)
	}
}

// PatientJoin moves a rung session to connected. Joining an already
// connected session is a no-op.
func (s *CallService) PatientJoin(ctx context.Context, roomID string) (*models.CallSession, error) {
	lock := s.roomLock(roomID)
	lock.Lock()
	defer lock.Unlock()

	session, err := s.GetSession(ctx, roomID)
	if err != nil {
		return nil, err
	}
	switch session.Status {
	case models.CallConnected:
		return session, nil
	case models.CallEnded:
		return nil, fmt.Errorf("%w: session %s already ended", ErrInvalidState, roomID)
	}

	now := time.Now()
	err = s.store.UpdateDocument(ctx, models.CollectionActiveCalls, roomID, map[string]any{
		"status":        models.CallConnected,
		"patientJoined": true,
	})
	if err != nil {
		return nil, err
	}
	if err := s.store.UpdateDocument(ctx, models.CollectionAppointments, roomID, map[string]any{
		"callStatus": models.CallConnected,
		"updatedAt":  now,
	}); err != nil {
		log.Printf("call: could not flag appointment %s as connected: %v", roomID, err)
	}

	s.cancelRingTimer(roomID)
	session.Status = models.CallConnected
	session.PatientJoined = true
	return session, nil
}

// Reject ends a ringing session on the patient's behalf and tells the
// doctor. Rejecting an already ended session is a no-op.
func (s *CallService) Reject(ctx context.Context, roomID, reason string) error {
	lock := s.roomLock(roomID)
	lock.Lock()
	defer lock.Unlock()

	session, err := s.GetSession(ctx, roomID)
	if err != nil {
		return err
	}
	if session.Status == models.CallEnded {
		return nil
	}

	now := time.Now()
	err = s.store.UpdateDocument(ctx, models.CollectionActiveCalls, roomID, map[string]any{
		"status":    models.CallEnded,
		"endedAt":   now,
		"endedBy":   models.EndedByPatient,
		"endReason": reason,
	})
	if err != nil {
		return err
	}
	s.cancelRingTimer(roomID)

	payload := map[string]any{
		"roomId":    roomID,
		"patientId": session.PatientID,
		"reason":    reason,
	}
	if c, ok := s.registry.FindByIdentity(signaling.IdentityDoctor, session.DoctorID); ok {
		c.Enqueue(signaling.Message{Event: signaling.EventCallRejected, Data: payload})
	} else {
		s.registry.Broadcast(roomID, signaling.EventCallRejected, payload, "")
	}
	return nil
}

// End terminates a session from either side or the ring timer.
// Idempotent on already ended sessions.
func (s *CallService) End(ctx context.Context, roomID, endedBy, reason string) (*models.CallSession, error) {
	lock := s.roomLock(roomID)
	lock.Lock()
	defer lock.Unlock()
	return s.endLocked(ctx, roomID, endedBy, reason)
}

// endLocked does the work of End. The caller holds the room lock.
func (s *CallService) endLocked(ctx context.Context, roomID, endedBy, reason string) (*models.CallSession, error) {
	session, err := s.GetSession(ctx, roomID)
	if err != nil {
		return nil, err
	}
	if session.Status == models.CallEnded {
		return session, nil
	}

	now := time.Now()
	err = s.store.UpdateDocument(ctx, models.CollectionActiveCalls, roomID, map[string]any{
		"status":    models.CallEnded,
		"endedAt":   now,
		"endedBy":   endedBy,
		"endReason": reason,
	})
	if err != nil {
		return nil, err
	}
	if err := s.store.UpdateDocument(ctx, models.CollectionAppointments, roomID, map[string]any{
		"callStatus": models.CallEnded,
		"status":     "completed",
		"updatedAt":  now,
	}); err != nil {
		log.Printf("call: could not close appointment %s: %v", roomID, err)
	}

	s.cancelRingTimer(roomID)
	s.registry.Broadcast(roomID, signaling.EventCallEnded, map[string]any{
		"roomId":  roomID,
		"endedBy": endedBy,
		"reason":  reason,
	}, "")
	s.registry.ClearRoom(roomID)

	session.Status = models.CallEnded
	session.EndedAt = &now
	session.EndedBy = endedBy
	session.EndReason = reason
	log.Printf("call: %s ended by %s", roomID, endedBy)
	return session, nil
}

// GetSession loads a session by room id.
func (s *CallService) GetSession(ctx context.Context, roomID string) (*models.CallSession, error) {
	doc, err := s.store.GetDocument(ctx, models.CollectionActiveCalls, roomID)
	if err != nil {
		if err == store.ErrNotFound {
			return nil, fmt.Errorf("%w: call session %s", ErrNotFound, roomID)
		}
		return nil, err
	}
	var session models.CallSession
	if err := store.Decode(doc, &session); err != nil {
		return nil, err
	}
	return &session, nil
}

// Stop cancels all pending ring timers. Called on shutdown.
func (s *CallService) Stop() {
	s.mu.Lock()
	defer s.mu.Unlock()
	for id, t := range s.timers {
		t.Stop()
		delete(s.timers, id)
	}
}
