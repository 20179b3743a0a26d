package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/SanduniLK/MediLink/internal/models"
	"github.com/SanduniLK/MediLink/internal/store"
)

func TestDashboard(t *testing.T) {
	ctx := context.Background()
	st := store.NewMemoryStore()

	seedQueueScenario(t, st, "sch-1", 3)
	seedAppointment(t, st, "appt-v1", "sch-1", "pat-v1", models.AppointmentVideo, time.Now())

	queues := NewQueueService(st, testQueueConfig())
	if _, err := queues.StartQueue(ctx, "sch-1"); err != nil {
		t.Fatal(err)
	}
	if _, err := queues.Advance(ctx, "sch-1"); err != nil {
		t.Fatal(err)
	}

	svc := NewScheduleService(st)
	stats, err := svc.Dashboard(ctx, "doc-1")
	if err != nil {
		t.Fatal(err)
	}
	if stats.TotalSchedules != 1 || stats.ActiveQueues != 1 {
		t.Fatalf("unexpected schedule counts %+v", stats)
	}
	if stats.TotalAppointments != 4 {
		t.Fatalf("totalAppointments %d, want 4", stats.TotalAppointments)
	}
	if stats.PhysicalAppointments != 3 || stats.VideoAppointments != 1 {
		t.Fatalf("unexpected type split %+v", stats)
	}
	if stats.PatientsSeen != 1 {
		t.Fatalf("patientsSeen %d, want 1", stats.PatientsSeen)
	}
	if stats.PatientsWaiting != 1 {
		t.Fatalf("patientsWaiting %d, want 1", stats.PatientsWaiting)
	}
}

func TestSchedulesForDoctor(t *testing.T) {
	ctx := context.Background()
	st := store.NewMemoryStore()
	seedSchedule(t, st, "sch-1")

	svc := NewScheduleService(st)
	schedules, err := svc.SchedulesForDoctor(ctx, "doc-1")
	if err != nil {
		t.Fatal(err)
	}
	if len(schedules) != 1 || schedules[0].ID != "sch-1" {
		t.Fatalf("got %+v", schedules)
	}

	if _, err := svc.GetSchedule(ctx, "missing"); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}
