package models

import "time"

// QueueEntry is a denormalized snapshot of one queued appointment, taken
// when the queue is started. Tokens are 1-based and contiguous.
type QueueEntry struct {
	AppointmentID   string `bson:"appointmentId" json:"appointmentId"`
	PatientID       string `bson:"patientId" json:"patientId"`
	PatientName     string `bson:"patientName" json:"patientName"`
	TokenNumber     int    `bson:"tokenNumber" json:"tokenNumber"`
	Status          string `bson:"status" json:"status"`
	CheckedIn       bool   `bson:"checkedIn" json:"checkedIn"`
	AppointmentType string `bson:"appointmentType" json:"appointmentType"`
	PatientAge      int    `bson:"patientAge,omitempty" json:"patientAge,omitempty"`
	PatientGender   string `bson:"patientGender,omitempty" json:"patientGender,omitempty"`
	PatientPhone    string `bson:"patientPhone,omitempty" json:"patientPhone,omitempty"`
}

// Queue is the persisted walk-in queue for one schedule. At most one
// active queue exists per schedule; completion clears IsActive but the
// document is kept for history.
type Queue struct {
	ID                string       `bson:"_id,omitempty" json:"queueId"`
	ScheduleID        string       `bson:"scheduleId" json:"scheduleId"`
	DoctorID          string       `bson:"doctorId" json:"doctorId"`
	DoctorName        string       `bson:"doctorName" json:"doctorName"`
	MedicalCenterID   string       `bson:"medicalCenterId" json:"medicalCenterId"`
	MedicalCenterName string       `bson:"medicalCenterName" json:"medicalCenterName"`
	Status            string       `bson:"status" json:"status"`
	StartTime         time.Time    `bson:"startTime" json:"queueStartTime"`
	CurrentToken      int          `bson:"currentToken" json:"currentToken"`
	TotalPatients     int          `bson:"totalPatients" json:"totalPatients"`
	MaxPatients       int          `bson:"maxPatients" json:"maxPatients"`
	Patients          []QueueEntry `bson:"patients" json:"patients"`
	IsActive          bool         `bson:"isActive" json:"isActive"`
	CreatedAt         time.Time    `bson:"createdAt" json:"createdAt"`
	UpdatedAt         time.Time    `bson:"updatedAt" json:"updatedAt"`
}
