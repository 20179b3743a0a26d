package service

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/SanduniLK/MediLink/internal/config"
	"github.com/SanduniLK/MediLink/internal/models"
	"github.com/SanduniLK/MediLink/internal/store"
)

func testQueueConfig() config.QueueConfig {
	return config.QueueConfig{
		MinutesPerPatient: 15,
		WriteRetries:      3,
		RetryBackoff:      time.Millisecond,
	}
}

func seedSchedule(t *testing.T, st *store.MemoryStore, id string) {
	t.Helper()
	fields, err := store.Fields(models.DoctorSchedule{
		DoctorID:          "doc-1",
		DoctorName:        "Dr. Perera",
		MedicalCenterID:   "mc-1",
		MedicalCenterName: "City Medical Center",
		Date:              "2026-09-01",
		StartTime:         "09:00",
		EndTime:           "12:00",
		Status:            models.ScheduleScheduled,
		CreatedAt:         time.Now(),
	})
	if err != nil {
		t.Fatal(err)
	}
	if err := st.SetDocument(context.Background(), models.CollectionSchedules, id, fields); err != nil {
		t.Fatal(err)
	}
}

func seedAppointment(t *testing.T, st *store.MemoryStore, id, scheduleID, patientID, apptType string, createdAt time.Time) {
	t.Helper()
	fields, err := store.Fields(models.Appointment{
		PatientID:       patientID,
		PatientName:     "Patient " + patientID,
		DoctorID:        "doc-1",
		ScheduleID:      scheduleID,
		AppointmentType: apptType,
		Status:          "confirmed",
		CreatedAt:       createdAt,
	})
	if err != nil {
		t.Fatal(err)
	}
	if err := st.SetDocument(context.Background(), models.CollectionAppointments, id, fields); err != nil {
		t.Fatal(err)
	}
}

func seedQueueScenario(t *testing.T, st *store.MemoryStore, scheduleID string, patients int) {
	t.Helper()
	seedSchedule(t, st, scheduleID)
	base := time.Now().Add(-time.Hour)
	for i := 1; i <= patients; i++ {
		seedAppointment(t, st,
			fmt.Sprintf("appt-%d", i), scheduleID, fmt.Sprintf("pat-%d", i),
			models.AppointmentPhysical, base.Add(time.Duration(i)*time.Minute))
	}
}

func TestStartQueue(t *testing.T) {
	ctx := context.Background()

	t.Run("assigns contiguous tokens in booking order", func(t *testing.T) {
		st := store.NewMemoryStore()
		seedQueueScenario(t, st, "sch-1", 3)
		// Video appointments never enter the walk-in queue.
		seedAppointment(t, st, "appt-video", "sch-1", "pat-v", models.AppointmentVideo, time.Now())

		svc := NewQueueService(st, testQueueConfig())
		result, err := svc.StartQueue(ctx, "sch-1")
		if err != nil {
			t.Fatal(err)
		}
		if result.TotalPatients != 3 {
			t.Fatalf("expected 3 patients, got %d", result.TotalPatients)
		}
		if len(result.Queue.Patients) != 3 {
			t.Fatalf("expected 3 queue entries, got %d", len(result.Queue.Patients))
		}
		for i, entry := range result.Queue.Patients {
			if entry.TokenNumber != i+1 {
				t.Fatalf("entry %d has token %d", i, entry.TokenNumber)
			}
			if entry.PatientID != fmt.Sprintf("pat-%d", i+1) {
				t.Fatalf("entry %d is patient %s, booking order broken", i, entry.PatientID)
			}
		}
		if result.Queue.CurrentToken != 1 {
			t.Fatalf("expected currentToken 1, got %d", result.Queue.CurrentToken)
		}
		if !result.Queue.IsActive {
			t.Fatal("queue should start active")
		}

		doc, err := st.GetDocument(ctx, models.CollectionSchedules, "sch-1")
		if err != nil {
			t.Fatal(err)
		}
		var schedule models.DoctorSchedule
		if err := store.Decode(doc, &schedule); err != nil {
			t.Fatal(err)
		}
		if schedule.Status != models.ScheduleInProgress {
			t.Fatalf("schedule status %s, want in-progress", schedule.Status)
		}
		if schedule.TotalPatients != 3 {
			t.Fatalf("schedule totalPatients %d, want 3", schedule.TotalPatients)
		}
	})

	t.Run("unknown schedule", func(t *testing.T) {
		st := store.NewMemoryStore()
		svc := NewQueueService(st, testQueueConfig())
		_, err := svc.StartQueue(ctx, "missing")
		if !errors.Is(err, ErrNotFound) {
			t.Fatalf("expected ErrNotFound, got %v", err)
		}
	})

	t.Run("no physical appointments", func(t *testing.T) {
		st := store.NewMemoryStore()
		seedSchedule(t, st, "sch-1")
		seedAppointment(t, st, "appt-video", "sch-1", "pat-v", models.AppointmentVideo, time.Now())

		svc := NewQueueService(st, testQueueConfig())
		_, err := svc.StartQueue(ctx, "sch-1")
		if !errors.Is(err, ErrNoEligibleAppointments) {
			t.Fatalf("expected ErrNoEligibleAppointments, got %v", err)
		}
	})

	t.Run("double start rejected", func(t *testing.T) {
		st := store.NewMemoryStore()
		seedQueueScenario(t, st, "sch-1", 2)

		svc := NewQueueService(st, testQueueConfig())
		if _, err := svc.StartQueue(ctx, "sch-1"); err != nil {
			t.Fatal(err)
		}
		_, err := svc.StartQueue(ctx, "sch-1")
		if !errors.Is(err, ErrInvalidState) {
			t.Fatalf("expected ErrInvalidState, got %v", err)
		}
	})

	t.Run("retries transient write failures", func(t *testing.T) {
		st := store.NewMemoryStore()
		seedQueueScenario(t, st, "sch-1", 2)
		st.FailNextWrites = 2

		svc := NewQueueService(st, testQueueConfig())
		if _, err := svc.StartQueue(ctx, "sch-1"); err != nil {
			t.Fatalf("expected retries to absorb transient failures, got %v", err)
		}
	})
}

func TestCheckIn(t *testing.T) {
	ctx := context.Background()

	t.Run("marks arrival", func(t *testing.T) {
		st := store.NewMemoryStore()
		seedQueueScenario(t, st, "sch-1", 2)
		svc := NewQueueService(st, testQueueConfig())
		if _, err := svc.StartQueue(ctx, "sch-1"); err != nil {
			t.Fatal(err)
		}

		result, err := svc.CheckIn(ctx, "sch-1", "pat-2")
		if err != nil {
			t.Fatal(err)
		}
		if result.TokenNumber != 2 {
			t.Fatalf("expected token 2, got %d", result.TokenNumber)
		}

		doc, err := st.GetDocument(ctx, models.CollectionAppointments, "appt-2")
		if err != nil {
			t.Fatal(err)
		}
		var appt models.Appointment
		if err := store.Decode(doc, &appt); err != nil {
			t.Fatal(err)
		}
		if !appt.CheckedIn {
			t.Fatal("appointment not marked checked in")
		}
		if appt.QueueStatus != models.QueueStatusCheckedIn {
			t.Fatalf("queueStatus %s, want checked-in", appt.QueueStatus)
		}
	})

	t.Run("no appointment on the schedule", func(t *testing.T) {
		st := store.NewMemoryStore()
		seedQueueScenario(t, st, "sch-1", 1)
		svc := NewQueueService(st, testQueueConfig())
		_, err := svc.CheckIn(ctx, "sch-1", "stranger")
		if !errors.Is(err, ErrNotFound) {
			t.Fatalf("expected ErrNotFound, got %v", err)
		}
	})
}

func TestAdvance(t *testing.T) {
	ctx := context.Background()

	t.Run("walks the queue to completion", func(t *testing.T) {
		st := store.NewMemoryStore()
		seedQueueScenario(t, st, "sch-1", 3)
		svc := NewQueueService(st, testQueueConfig())
		if _, err := svc.StartQueue(ctx, "sch-1"); err != nil {
			t.Fatal(err)
		}

		result, err := svc.Advance(ctx, "sch-1")
		if err != nil {
			t.Fatal(err)
		}
		if !result.QueueActive || result.CurrentToken != 2 {
			t.Fatalf("expected active queue at token 2, got %+v", result)
		}

		// Token 1 should be completed now.
		doc, _ := st.GetDocument(ctx, models.CollectionAppointments, "appt-1")
		var first models.Appointment
		if err := store.Decode(doc, &first); err != nil {
			t.Fatal(err)
		}
		if first.QueueStatus != models.QueueStatusCompleted {
			t.Fatalf("token 1 queueStatus %s, want completed", first.QueueStatus)
		}

		// Token 2 should be in consultation.
		doc, _ = st.GetDocument(ctx, models.CollectionAppointments, "appt-2")
		var second models.Appointment
		if err := store.Decode(doc, &second); err != nil {
			t.Fatal(err)
		}
		if second.QueueStatus != models.QueueStatusInConsultation {
			t.Fatalf("token 2 queueStatus %s, want in-consultation", second.QueueStatus)
		}

		if result, err = svc.Advance(ctx, "sch-1"); err != nil {
			t.Fatal(err)
		}
		if !result.QueueActive || result.CurrentToken != 3 {
			t.Fatalf("expected active queue at token 3, got %+v", result)
		}

		if result, err = svc.Advance(ctx, "sch-1"); err != nil {
			t.Fatal(err)
		}
		if result.QueueActive {
			t.Fatal("queue should be finished after the last token")
		}

		doc, _ = st.GetDocument(ctx, models.CollectionSchedules, "sch-1")
		var schedule models.DoctorSchedule
		if err := store.Decode(doc, &schedule); err != nil {
			t.Fatal(err)
		}
		if schedule.Status != models.ScheduleCompleted {
			t.Fatalf("schedule status %s, want completed", schedule.Status)
		}

		_, err = svc.GetQueueForSchedule(ctx, "sch-1")
		if !errors.Is(err, ErrNotFound) {
			t.Fatalf("finished queue should no longer be active, got %v", err)
		}
	})

	t.Run("rejects schedules that are not running", func(t *testing.T) {
		st := store.NewMemoryStore()
		seedSchedule(t, st, "sch-1")
		svc := NewQueueService(st, testQueueConfig())
		_, err := svc.Advance(ctx, "sch-1")
		if !errors.Is(err, ErrInvalidState) {
			t.Fatalf("expected ErrInvalidState, got %v", err)
		}

		seedQueueScenario(t, st, "sch-2", 1)
		if _, err := svc.StartQueue(ctx, "sch-2"); err != nil {
			t.Fatal(err)
		}
		if _, err := svc.Advance(ctx, "sch-2"); err != nil {
			t.Fatal(err)
		}
		// Completed schedules stay completed.
		_, err = svc.Advance(ctx, "sch-2")
		if !errors.Is(err, ErrInvalidState) {
			t.Fatalf("expected ErrInvalidState after completion, got %v", err)
		}
	})

	t.Run("skips tokens without an appointment", func(t *testing.T) {
		st := store.NewMemoryStore()
		seedQueueScenario(t, st, "sch-1", 3)
		svc := NewQueueService(st, testQueueConfig())
		if _, err := svc.StartQueue(ctx, "sch-1"); err != nil {
			t.Fatal(err)
		}

		// Simulate a cancelled appointment leaving a hole at token 2.
		if err := st.UpdateDocument(ctx, models.CollectionAppointments, "appt-2", map[string]any{
			"tokenNumber": 0,
		}); err != nil {
			t.Fatal(err)
		}

		result, err := svc.Advance(ctx, "sch-1")
		if err != nil {
			t.Fatal(err)
		}
		if !result.QueueActive || result.CurrentToken != 2 {
			t.Fatalf("empty slot should still take a turn, got %+v", result)
		}
		if result, err = svc.Advance(ctx, "sch-1"); err != nil {
			t.Fatal(err)
		}
		if !result.QueueActive || result.CurrentToken != 3 {
			t.Fatalf("expected token 3 after the empty slot, got %+v", result)
		}
	})
}

func TestGetQueueForPatient(t *testing.T) {
	ctx := context.Background()

	st := store.NewMemoryStore()
	seedQueueScenario(t, st, "sch-1", 4)
	svc := NewQueueService(st, testQueueConfig())
	if _, err := svc.StartQueue(ctx, "sch-1"); err != nil {
		t.Fatal(err)
	}

	t.Run("reports position and wait estimate", func(t *testing.T) {
		view, err := svc.GetQueueForPatient(ctx, "pat-3")
		if err != nil {
			t.Fatal(err)
		}
		if view.TokenNumber != 3 || view.CurrentToken != 1 {
			t.Fatalf("unexpected view %+v", view)
		}
		if view.PatientsAhead != 2 {
			t.Fatalf("patientsAhead %d, want 2", view.PatientsAhead)
		}
		if view.EstimatedWaitMinutes != 30 {
			t.Fatalf("estimatedWaitMinutes %d, want 30", view.EstimatedWaitMinutes)
		}
	})

	t.Run("never reports a negative wait", func(t *testing.T) {
		if _, err := svc.Advance(ctx, "sch-1"); err != nil {
			t.Fatal(err)
		}
		if _, err := svc.Advance(ctx, "sch-1"); err != nil {
			t.Fatal(err)
		}
		// pat-3 is in consultation now, no one is ahead.
		view, err := svc.GetQueueForPatient(ctx, "pat-3")
		if err != nil {
			t.Fatal(err)
		}
		if view.PatientsAhead != 0 || view.EstimatedWaitMinutes != 0 {
			t.Fatalf("expected zero wait, got %+v", view)
		}
	})

	t.Run("no running queue", func(t *testing.T) {
		_, err := svc.GetQueueForPatient(ctx, "nobody")
		if !errors.Is(err, ErrNotFound) {
			t.Fatalf("expected ErrNotFound, got %v", err)
		}
	})
}

func TestActiveQueuesForCenter(t *testing.T) {
	ctx := context.Background()

	st := store.NewMemoryStore()
	seedQueueScenario(t, st, "sch-1", 2)
	seedSchedule(t, st, "sch-2")
	seedAppointment(t, st, "appt-b1", "sch-2", "pat-b1", models.AppointmentPhysical, time.Now())
	svc := NewQueueService(st, testQueueConfig())

	if _, err := svc.StartQueue(ctx, "sch-1"); err != nil {
		t.Fatal(err)
	}
	if _, err := svc.StartQueue(ctx, "sch-2"); err != nil {
		t.Fatal(err)
	}
	// Finish sch-2 so only sch-1 stays active.
	if _, err := svc.Advance(ctx, "sch-2"); err != nil {
		t.Fatal(err)
	}

	queues, err := svc.ActiveQueuesForCenter(ctx, "mc-1")
	if err != nil {
		t.Fatal(err)
	}
	if len(queues) != 1 {
		t.Fatalf("expected 1 active queue, got %d", len(queues))
	}
	if queues[0].ScheduleID != "sch-1" {
		t.Fatalf("unexpected schedule %s", queues[0].ScheduleID)
	}
}

func TestPatientAppointments(t *testing.T) {
	ctx := context.Background()

	st := store.NewMemoryStore()
	seedQueueScenario(t, st, "sch-1", 3)
	svc := NewQueueService(st, testQueueConfig())
	if _, err := svc.StartQueue(ctx, "sch-1"); err != nil {
		t.Fatal(err)
	}
	if _, err := svc.Advance(ctx, "sch-1"); err != nil {
		t.Fatal(err)
	}

	appts, err := svc.PatientAppointments(ctx, "pat-3")
	if err != nil {
		t.Fatal(err)
	}
	if len(appts) != 1 {
		t.Fatalf("expected 1 appointment, got %d", len(appts))
	}
	if !appts[0].QueueActive {
		t.Fatal("queue position should be attached while the queue runs")
	}
	if appts[0].CurrentToken != 2 {
		t.Fatalf("currentToken %d, want 2", appts[0].CurrentToken)
	}
	if appts[0].PositionInQueue != 2 {
		t.Fatalf("positionInQueue %d, want 2", appts[0].PositionInQueue)
	}
}
