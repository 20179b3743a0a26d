package service

import (
	"context"
	"fmt"

	"github.com/SanduniLK/MediLink/internal/models"
	"github.com/SanduniLK/MediLink/internal/store"
)

type ScheduleService struct {
	store store.DocumentStore
}

func NewScheduleService(st store.DocumentStore) *ScheduleService {
	return &ScheduleService{store: st}
}

// SchedulesForDoctor lists a doctor's schedules, most recent date last.
func (s *ScheduleService) SchedulesForDoctor(ctx context.Context, doctorID string) ([]models.DoctorSchedule, error) {
	docs, err := s.store.QueryDocuments(ctx, models.CollectionSchedules, []store.Filter{
		store.Eq("doctorId", doctorID),
	}, "date")
	if err != nil {
		return nil, err
	}
	schedules := make([]models.DoctorSchedule, 0, len(docs))
	for _, doc := range docs {
		var schedule models.DoctorSchedule
		if err := store.Decode(doc, &schedule); err != nil {
			return nil, err
		}
		schedules = append(schedules, schedule)
	}
	return schedules, nil
}

// GetSchedule loads one schedule by id.
func (s *ScheduleService) GetSchedule(ctx context.Context, scheduleID string) (*models.DoctorSchedule, error) {
	doc, err := s.store.GetDocument(ctx, models.CollectionSchedules, scheduleID)
	if err != nil {
		if err == store.ErrNotFound {
			return nil, fmt.Errorf("%w: schedule %s", ErrNotFound, scheduleID)
		}
		return nil, err
	}
	var schedule models.DoctorSchedule
	if err := store.Decode(doc, &schedule); err != nil {
		return nil, err
	}
	return &schedule, nil
}

// DashboardStats aggregates a doctor's workload across their schedules.
type DashboardStats struct {
	TotalSchedules       int `json:"totalSchedules"`
	ActiveQueues         int `json:"activeQueues"`
	TotalAppointments    int `json:"totalAppointments"`
	PhysicalAppointments int `json:"physicalAppointments"`
	VideoAppointments    int `json:"videoAppointments"`
	PatientsSeen         int `json:"patientsSeen"`
	PatientsWaiting      int `json:"patientsWaiting"`
}

// Dashboard builds the doctor's home screen counters.
func (s *ScheduleService) Dashboard(ctx context.Context, doctorID string) (*DashboardStats, error) {
	stats := &DashboardStats{}

	schedDocs, err := s.store.QueryDocuments(ctx, models.CollectionSchedules, []store.Filter{
		store.Eq("doctorId", doctorID),
	}, "")
	if err != nil {
		return nil, err
	}
	stats.TotalSchedules = len(schedDocs)
	for _, doc := range schedDocs {
		var schedule models.DoctorSchedule
		if err := store.Decode(doc, &schedule); err != nil {
			continue
		}
		if schedule.Status == models.ScheduleInProgress {
			stats.ActiveQueues++
		}
	}

	apptDocs, err := s.store.QueryDocuments(ctx, models.CollectionAppointments, []store.Filter{
		store.Eq("doctorId", doctorID),
	}, "")
	if err != nil {
		return nil, err
	}
	stats.TotalAppointments = len(apptDocs)
	for _, doc := range apptDocs {
		var appt models.Appointment
		if err := store.Decode(doc, &appt); err != nil {
			continue
		}
		switch appt.AppointmentType {
		case models.AppointmentPhysical:
			stats.PhysicalAppointments++
		case models.AppointmentVideo:
			stats.VideoAppointments++
		}
		switch appt.QueueStatus {
		case models.QueueStatusCompleted:
			stats.PatientsSeen++
		case models.QueueStatusWaiting, models.QueueStatusCheckedIn:
			stats.PatientsWaiting++
		}
	}
	return stats, nil
}
