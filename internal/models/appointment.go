package models

import "time"

// Appointment modalities.
const (
	AppointmentPhysical = "physical"
	AppointmentVideo    = "video"
)

// Queue statuses carried on an appointment while its schedule's queue is
// running.
const (
	QueueStatusWaiting        = "waiting"
	QueueStatusCheckedIn      = "checked-in"
	QueueStatusInConsultation = "in-consultation"
	QueueStatusCompleted      = "completed"
)

type Appointment struct {
	ID                string     `bson:"_id,omitempty" json:"id"`
	PatientID         string     `bson:"patientId" json:"patientId"`
	PatientName       string     `bson:"patientName" json:"patientName"`
	PatientAge        int        `bson:"patientAge,omitempty" json:"patientAge,omitempty"`
	PatientGender     string     `bson:"patientGender,omitempty" json:"patientGender,omitempty"`
	PatientPhone      string     `bson:"patientPhone,omitempty" json:"patientPhone,omitempty"`
	DoctorID          string     `bson:"doctorId" json:"doctorId"`
	DoctorName        string     `bson:"doctorName" json:"doctorName"`
	MedicalCenterID   string     `bson:"medicalCenterId" json:"medicalCenterId"`
	MedicalCenterName string     `bson:"medicalCenterName" json:"medicalCenterName"`
	ScheduleID        string     `bson:"scheduleId" json:"scheduleId"`
	Date              string     `bson:"date" json:"date"`
	Time              string     `bson:"time" json:"time"`
	AppointmentType   string     `bson:"appointmentType" json:"appointmentType"`
	Status            string     `bson:"status" json:"status"`
	Fees              float64    `bson:"fees,omitempty" json:"fees,omitempty"`
	PaymentStatus     string     `bson:"paymentStatus,omitempty" json:"paymentStatus,omitempty"`
	TokenNumber       int        `bson:"tokenNumber,omitempty" json:"tokenNumber,omitempty"`
	QueueStatus       string     `bson:"queueStatus,omitempty" json:"queueStatus,omitempty"`
	CheckedIn         bool       `bson:"checkedIn" json:"checkedIn"`
	CheckInTime       *time.Time `bson:"checkInTime,omitempty" json:"checkInTime,omitempty"`
	ConsultationStart *time.Time `bson:"consultationStartTime,omitempty" json:"consultationStartTime,omitempty"`
	ConsultationEnd   *time.Time `bson:"consultationEndTime,omitempty" json:"consultationEndTime,omitempty"`
	CallStatus        string     `bson:"callStatus,omitempty" json:"callStatus,omitempty"`
	CreatedAt         time.Time  `bson:"createdAt" json:"createdAt"`
	UpdatedAt         time.Time  `bson:"updatedAt" json:"updatedAt"`
}
