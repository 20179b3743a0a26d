package service

import (
	"context"
	"fmt"
	"log"
	"sync"
	"time"

	"github.com/SanduniLK/MediLink/internal/config"
	"github.com/SanduniLK/MediLink/internal/models"
	"github.com/SanduniLK/MediLink/internal/store"
)

// QueueService runs the per-schedule walk-in queue. All state lives in
// the document store; the in-memory locks only serialize concurrent
// mutations of the same schedule within this process.
type QueueService struct {
	store store.DocumentStore
	cfg   config.QueueConfig

	mu    sync.Mutex
	locks map[string]*sync.Mutex
}

func NewQueueService(st store.DocumentStore, cfg config.QueueConfig) *QueueService {
	return &QueueService{
		store: st,
		cfg:   cfg,
		locks: make(map[string]*sync.Mutex),
	}
}

func (s *QueueService) scheduleLock(scheduleID string) *sync.Mutex {
	s.mu.Lock()
	defer s.mu.Unlock()
	l, ok := s.locks[scheduleID]
	if !ok {
		l = &sync.Mutex{}
		s.locks[scheduleID] = l
	}
	return l
}

// commitBatch applies an atomic batch, retrying transient failures with
// a doubling backoff.
func (s *QueueService) commitBatch(ctx context.Context, ops []store.WriteOp) error {
	backoff := s.cfg.RetryBackoff
	var err error
	for attempt := 0; attempt <= s.cfg.WriteRetries; attempt++ {
		if attempt > 0 {
			log.Printf("queue: retrying batch write (attempt %d): %v", attempt, err)
			select {
			case <-time.After(backoff):
			case <-ctx.Done():
				return ctx.Err()
			}
			backoff *= 2
		}
		err = s.store.AtomicBatch(ctx, ops)
		if err == nil || !store.IsTransient(err) {
			return err
		}
	}
	return err
}

// StartQueueResult reports the outcome of starting a queue.
type StartQueueResult struct {
	Queue         models.Queue `json:"queue"`
	TotalPatients int          `json:"totalPatients"`
}

// StartQueue snapshots the schedule's physical appointments into a new
// queue document, assigns contiguous tokens in booking order and moves
// the schedule to in-progress, all in one atomic batch.
func (s *QueueService) StartQueue(ctx context.Context, scheduleID string) (*StartQueueResult, error) {
	lock := s.scheduleLock(scheduleID)
	lock.Lock()
	defer lock.Unlock()

	schedDoc, err := s.store.GetDocument(ctx, models.CollectionSchedules, scheduleID)
	if err != nil {
		if err == store.ErrNotFound {
			return nil, fmt.Errorf("%w: schedule %s", ErrNotFound, scheduleID)
		}
		return nil, err
	}
	var schedule models.DoctorSchedule
	if err := store.Decode(schedDoc, &schedule); err != nil {
		return nil, err
	}
	if schedule.QueueStarted && schedule.Status == models.ScheduleInProgress {
		return nil, fmt.Errorf("%w: queue already started for schedule %s", ErrInvalidState, scheduleID)
	}

	docs, err := s.store.QueryDocuments(ctx, models.CollectionAppointments, []store.Filter{
		store.Eq("scheduleId", scheduleID),
		store.Eq("appointmentType", models.AppointmentPhysical),
	}, "createdAt")
	if err != nil {
		return nil, err
	}
	if len(docs) == 0 {
		return nil, fmt.Errorf("%w: no physical appointments for schedule %s", ErrNoEligibleAppointments, scheduleID)
	}

	now := time.Now()
	queueID := fmt.Sprintf("queue_%s_%d", scheduleID, now.UnixMilli())

	entries := make([]models.QueueEntry, 0, len(docs))
	ops := make([]store.WriteOp, 0, len(docs)+2)
	for i, doc := range docs {
		var appt models.Appointment
		if err := store.Decode(doc, &appt); err != nil {
			return nil, err
		}
		token := i + 1
		entries = append(entries, models.QueueEntry{
			AppointmentID:   doc.ID,
			PatientID:       appt.PatientID,
			PatientName:     appt.PatientName,
			TokenNumber:     token,
			Status:          models.QueueStatusWaiting,
			CheckedIn:       false,
			AppointmentType: appt.AppointmentType,
			PatientAge:      appt.PatientAge,
			PatientGender:   appt.PatientGender,
			PatientPhone:    appt.PatientPhone,
		})
		ops = append(ops, store.WriteOp{
			Collection: models.CollectionAppointments,
			ID:         doc.ID,
			Fields: map[string]any{
				"tokenNumber": token,
				"queueStatus": models.QueueStatusWaiting,
				"queueId":     queueID,
				"checkedIn":   false,
				"updatedAt":   now,
			},
		})
	}

	queue := models.Queue{
		ID:                queueID,
		ScheduleID:        scheduleID,
		DoctorID:          schedule.DoctorID,
		DoctorName:        schedule.DoctorName,
		MedicalCenterID:   schedule.MedicalCenterID,
		MedicalCenterName: schedule.MedicalCenterName,
		Status:            models.ScheduleInProgress,
		StartTime:         now,
		CurrentToken:      1,
		TotalPatients:     len(entries),
		MaxPatients:       len(entries),
		Patients:          entries,
		IsActive:          true,
		CreatedAt:         now,
		UpdatedAt:         now,
	}
	queueFields, err := store.Fields(queue)
	if err != nil {
		return nil, err
	}
	ops = append(ops, store.WriteOp{
		Collection: models.CollectionQueues,
		ID:         queueID,
		Fields:     queueFields,
		Replace:    true,
	})
	ops = append(ops, store.WriteOp{
		Collection: models.CollectionSchedules,
		ID:         scheduleID,
		Fields: map[string]any{
			"status":         models.ScheduleInProgress,
			"queueStarted":   true,
			"queueStartTime": now,
			"currentToken":   1,
			"totalPatients":  len(entries),
			"queueId":        queueID,
			"updatedAt":      now,
		},
	})

	if err := s.commitBatch(ctx, ops); err != nil {
		return nil, err
	}
	log.Printf("queue: started %s with %d physical patients", queueID, len(entries))
	return &StartQueueResult{Queue: queue, TotalPatients: len(entries)}, nil
}

// CheckInResult is returned when a patient checks in at the desk.
type CheckInResult struct {
	AppointmentID string    `json:"appointmentId"`
	PatientID     string    `json:"patientId"`
	TokenNumber   int       `json:"tokenNumber"`
	CheckInTime   time.Time `json:"checkInTime"`
}

// CheckIn marks the patient's physical appointment on the schedule as
// checked in. Re-checking in overwrites the previous check-in time.
func (s *QueueService) CheckIn(ctx context.Context, scheduleID, patientID string) (*CheckInResult, error) {
	docs, err := s.store.QueryDocuments(ctx, models.CollectionAppointments, []store.Filter{
		store.Eq("scheduleId", scheduleID),
		store.Eq("patientId", patientID),
		store.Eq("appointmentType", models.AppointmentPhysical),
	}, "")
	if err != nil {
		return nil, err
	}
	if len(docs) == 0 {
		return nil, fmt.Errorf("%w: no physical appointment for patient %s on schedule %s", ErrNotFound, patientID, scheduleID)
	}

	var appt models.Appointment
	if err := store.Decode(docs[0], &appt); err != nil {
		return nil, err
	}

	now := time.Now()
	err = s.store.UpdateDocument(ctx, models.CollectionAppointments, docs[0].ID, map[string]any{
		"checkedIn":   true,
		"checkInTime": now,
		"queueStatus": models.QueueStatusCheckedIn,
		"updatedAt":   now,
	})
	if err != nil {
		return nil, err
	}

	s.syncQueueEntry(ctx, scheduleID, docs[0].ID, map[string]any{
		"checkedIn": true,
		"status":    models.QueueStatusCheckedIn,
	})
	return &CheckInResult{
		AppointmentID: docs[0].ID,
		PatientID:     patientID,
		TokenNumber:   appt.TokenNumber,
		CheckInTime:   now,
	}, nil
}

// AdvanceResult reports the queue state after calling the next patient.
type AdvanceResult struct {
	QueueActive   bool `json:"queueActive"`
	CurrentToken  int  `json:"currentToken,omitempty"`
	TotalPatients int  `json:"totalPatients"`
}

// Advance completes the consultation at the current token and calls the
// next one. A token with no matching appointment is an empty slot and is
// skipped without error. When the last token is passed the schedule and
// queue are closed.
func (s *QueueService) Advance(ctx context.Context, scheduleID string) (*AdvanceResult, error) {
	lock := s.scheduleLock(scheduleID)
	lock.Lock()
	defer lock.Unlock()

	schedDoc, err := s.store.GetDocument(ctx, models.CollectionSchedules, scheduleID)
	if err != nil {
		if err == store.ErrNotFound {
			return nil, fmt.Errorf("%w: schedule %s", ErrNotFound, scheduleID)
		}
		return nil, err
	}
	var schedule models.DoctorSchedule
	if err := store.Decode(schedDoc, &schedule); err != nil {
		return nil, err
	}
	if schedule.Status != models.ScheduleInProgress {
		return nil, fmt.Errorf("%w: schedule %s is %s, not in-progress", ErrInvalidState, scheduleID, schedule.Status)
	}

	now := time.Now()
	current := schedule.CurrentToken
	ops := []store.WriteOp{}

	if doc, ok := s.appointmentByToken(ctx, scheduleID, current); ok {
		ops = append(ops, store.WriteOp{
			Collection: models.CollectionAppointments,
			ID:         doc.ID,
			Fields: map[string]any{
				"queueStatus":         models.QueueStatusCompleted,
				"status":              models.QueueStatusCompleted,
				"consultationEndTime": now,
				"updatedAt":           now,
			},
		})
	}

	next := current + 1
	if next > schedule.TotalPatients {
		ops = append(ops, store.WriteOp{
			Collection: models.CollectionSchedules,
			ID:         scheduleID,
			Fields: map[string]any{
				"status":    models.ScheduleCompleted,
				"updatedAt": now,
			},
		})
		if schedule.QueueID != "" {
			ops = append(ops, store.WriteOp{
				Collection: models.CollectionQueues,
				ID:         schedule.QueueID,
				Fields: map[string]any{
					"isActive":  false,
					"status":    models.ScheduleCompleted,
					"updatedAt": now,
				},
			})
		}
		if err := s.commitBatch(ctx, ops); err != nil {
			return nil, err
		}
		log.Printf("queue: schedule %s completed after token %d", scheduleID, current)
		return &AdvanceResult{QueueActive: false, TotalPatients: schedule.TotalPatients}, nil
	}

	if doc, ok := s.appointmentByToken(ctx, scheduleID, next); ok {
		ops = append(ops, store.WriteOp{
			Collection: models.CollectionAppointments,
			ID:         doc.ID,
			Fields: map[string]any{
				"queueStatus":           models.QueueStatusInConsultation,
				"consultationStartTime": now,
				"updatedAt":             now,
			},
		})
	}
	ops = append(ops, store.WriteOp{
		Collection: models.CollectionSchedules,
		ID:         scheduleID,
		Fields: map[string]any{
			"currentToken": next,
			"updatedAt":    now,
		},
	})
	if schedule.QueueID != "" {
		ops = append(ops, store.WriteOp{
			Collection: models.CollectionQueues,
			ID:         schedule.QueueID,
			Fields: map[string]any{
				"currentToken": next,
				"updatedAt":    now,
			},
		})
	}

	if err := s.commitBatch(ctx, ops); err != nil {
		return nil, err
	}
	return &AdvanceResult{QueueActive: true, CurrentToken: next, TotalPatients: schedule.TotalPatients}, nil
}

func (s *QueueService) appointmentByToken(ctx context.Context, scheduleID string, token int) (store.Document, bool) {
	docs, err := s.store.QueryDocuments(ctx, models.CollectionAppointments, []store.Filter{
		store.Eq("scheduleId", scheduleID),
		store.Eq("appointmentType", models.AppointmentPhysical),
		store.Eq("tokenNumber", token),
	}, "")
	if err != nil || len(docs) == 0 {
		return store.Document{}, false
	}
	return docs[0], true
}

// syncQueueEntry mirrors an appointment status change into the active
// queue snapshot. Best effort; the appointment is the source of truth.
func (s *QueueService) syncQueueEntry(ctx context.Context, scheduleID, appointmentID string, fields map[string]any) {
	queue, err := s.activeQueue(ctx, scheduleID)
	if err != nil {
		return
	}
	changed := false
	for i := range queue.Patients {
		if queue.Patients[i].AppointmentID != appointmentID {
			continue
		}
		if v, ok := fields["checkedIn"].(bool); ok {
			queue.Patients[i].CheckedIn = v
		}
		if v, ok := fields["status"].(string); ok {
			queue.Patients[i].Status = v
		}
		changed = true
	}
	if !changed {
		return
	}
	patients, err := store.Fields(struct {
		Patients []models.QueueEntry `bson:"patients"`
	}{queue.Patients})
	if err != nil {
		return
	}
	patients["updatedAt"] = time.Now()
	if err := s.store.UpdateDocument(ctx, models.CollectionQueues, queue.ID, patients); err != nil {
		log.Printf("queue: failed to sync entry for appointment %s: %v", appointmentID, err)
	}
}

func (s *QueueService) activeQueue(ctx context.Context, scheduleID string) (*models.Queue, error) {
	docs, err := s.store.QueryDocuments(ctx, models.CollectionQueues, []store.Filter{
		store.Eq("scheduleId", scheduleID),
		store.Eq("isActive", true),
	}, "")
	if err != nil {
		return nil, err
	}
	if len(docs) == 0 {
		return nil, fmt.Errorf("%w: no active queue for schedule %s", ErrNotFound, scheduleID)
	}
	var queue models.Queue
	if err := store.Decode(docs[0], &queue); err != nil {
		return nil, err
	}
	return &queue, nil
}

// GetQueueForSchedule returns the active queue for a schedule.
func (s *QueueService) GetQueueForSchedule(ctx context.Context, scheduleID string) (*models.Queue, error) {
	return s.activeQueue(ctx, scheduleID)
}

// PatientQueueView is the patient-facing live position in a running
// queue.
type PatientQueueView struct {
	QueueID              string `json:"queueId"`
	ScheduleID           string `json:"scheduleId"`
	DoctorName           string `json:"doctorName"`
	MedicalCenterName    string `json:"medicalCenterName"`
	TokenNumber          int    `json:"tokenNumber"`
	CurrentToken         int    `json:"currentToken"`
	PatientsAhead        int    `json:"patientsAhead"`
	EstimatedWaitMinutes int    `json:"estimatedWaitMinutes"`
	CheckedIn            bool   `json:"checkedIn"`
	QueueStatus          string `json:"queueStatus"`
}

// GetQueueForPatient finds the patient's place in the first running
// queue among their upcoming physical appointments.
func (s *QueueService) GetQueueForPatient(ctx context.Context, patientID string) (*PatientQueueView, error) {
	docs, err := s.store.QueryDocuments(ctx, models.CollectionAppointments, []store.Filter{
		store.Eq("patientId", patientID),
		store.Eq("appointmentType", models.AppointmentPhysical),
		store.In("status", []string{"confirmed", "scheduled", models.QueueStatusWaiting}),
	}, "")
	if err != nil {
		return nil, err
	}

	for _, doc := range docs {
		var appt models.Appointment
		if err := store.Decode(doc, &appt); err != nil {
			continue
		}
		schedDoc, err := s.store.GetDocument(ctx, models.CollectionSchedules, appt.ScheduleID)
		if err != nil {
			continue
		}
		var schedule models.DoctorSchedule
		if err := store.Decode(schedDoc, &schedule); err != nil {
			continue
		}
		if schedule.Status != models.ScheduleInProgress {
			continue
		}

		ahead := appt.TokenNumber - schedule.CurrentToken
		if ahead < 0 {
			ahead = 0
		}
		queueID := schedule.QueueID
		if queueID == "" {
			queueID = "queue_" + appt.ScheduleID
		}
		return &PatientQueueView{
			QueueID:              queueID,
			ScheduleID:           appt.ScheduleID,
			DoctorName:           schedule.DoctorName,
			MedicalCenterName:    schedule.MedicalCenterName,
			TokenNumber:          appt.TokenNumber,
			CurrentToken:         schedule.CurrentToken,
			PatientsAhead:        ahead,
			EstimatedWaitMinutes: ahead * s.cfg.MinutesPerPatient,
			CheckedIn:            appt.CheckedIn,
			QueueStatus:          appt.QueueStatus,
		}, nil
	}
	return nil, fmt.Errorf("%w: no active queue for patient %s", ErrNotFound, patientID)
}

// ActiveQueuesForCenter lists running queues at a medical center.
func (s *QueueService) ActiveQueuesForCenter(ctx context.Context, centerID string) ([]models.Queue, error) {
	docs, err := s.store.QueryDocuments(ctx, models.CollectionQueues, []store.Filter{
		store.Eq("medicalCenterId", centerID),
		store.Eq("isActive", true),
	}, "")
	if err != nil {
		return nil, err
	}
	queues := make([]models.Queue, 0, len(docs))
	for _, doc := range docs {
		var q models.Queue
		if err := store.Decode(doc, &q); err != nil {
			return nil, err
		}
		queues = append(queues, q)
	}
	return queues, nil
}

// PatientAppointment is an appointment enriched with live queue
// position when its schedule's queue is running.
type PatientAppointment struct {
	models.Appointment
	QueueActive     bool `json:"queueActive"`
	CurrentToken    int  `json:"currentToken,omitempty"`
	PositionInQueue int  `json:"positionInQueue,omitempty"`
}

// PatientAppointments lists a patient's appointments, newest first,
// with queue positions attached where a queue is running.
func (s *QueueService) PatientAppointments(ctx context.Context, patientID string) ([]PatientAppointment, error) {
	docs, err := s.store.QueryDocuments(ctx, models.CollectionAppointments, []store.Filter{
		store.Eq("patientId", patientID),
	}, "createdAt")
	if err != nil {
		return nil, err
	}

	schedules := map[string]*models.DoctorSchedule{}
	out := make([]PatientAppointment, 0, len(docs))
	for _, doc := range docs {
		var appt models.Appointment
		if err := store.Decode(doc, &appt); err != nil {
			return nil, err
		}
		enriched := PatientAppointment{Appointment: appt}

		if appt.ScheduleID != "" {
			schedule, ok := schedules[appt.ScheduleID]
			if !ok {
				schedule = nil
				if schedDoc, err := s.store.GetDocument(ctx, models.CollectionSchedules, appt.ScheduleID); err == nil {
					var sc models.DoctorSchedule
					if err := store.Decode(schedDoc, &sc); err == nil {
						schedule = &sc
					}
				}
				schedules[appt.ScheduleID] = schedule
			}
			if schedule != nil && schedule.Status == models.ScheduleInProgress && appt.TokenNumber > 0 {
				enriched.QueueActive = true
				enriched.CurrentToken = schedule.CurrentToken
				pos := appt.TokenNumber - schedule.CurrentToken + 1
				if pos < 0 {
					pos = 0
				}
				enriched.PositionInQueue = pos
			}
		}
		out = append(out, enriched)
	}
	return out, nil
}
