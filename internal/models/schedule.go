package models

import "time"

// Schedule statuses.
const (
	ScheduleScheduled  = "scheduled"
	ScheduleInProgress = "in-progress"
	ScheduleCompleted  = "completed"
)

// DoctorSchedule is a dated availability slot owned by the scheduling
// subsystem. The queue engine reads it and writes back queue progress.
type DoctorSchedule struct {
	ID                string     `bson:"_id,omitempty" json:"id"`
	DoctorID          string     `bson:"doctorId" json:"doctorId"`
	DoctorName        string     `bson:"doctorName" json:"doctorName"`
	MedicalCenterID   string     `bson:"medicalCenterId" json:"medicalCenterId"`
	MedicalCenterName string     `bson:"medicalCenterName" json:"medicalCenterName"`
	Date              string     `bson:"date" json:"date"`
	StartTime         string     `bson:"startTime" json:"startTime"`
	EndTime           string     `bson:"endTime" json:"endTime"`
	Status            string     `bson:"status" json:"status"`
	QueueStarted      bool       `bson:"queueStarted" json:"queueStarted"`
	QueueStartTime    *time.Time `bson:"queueStartTime,omitempty" json:"queueStartTime,omitempty"`
	CurrentToken      int        `bson:"currentToken,omitempty" json:"currentToken,omitempty"`
	TotalPatients     int        `bson:"totalPatients,omitempty" json:"totalPatients,omitempty"`
	QueueID           string     `bson:"queueId,omitempty" json:"queueId,omitempty"`
	CreatedAt         time.Time  `bson:"createdAt" json:"createdAt"`
	UpdatedAt         time.Time  `bson:"updatedAt" json:"updatedAt"`
}
