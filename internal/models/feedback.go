package models

import "time"

// Feedback is a patient rating for a completed consultation.
type Feedback struct {
	ID            string    `bson:"_id,omitempty" json:"id"`
	AppointmentID string    `bson:"appointmentId" json:"appointmentId"`
	PatientID     string    `bson:"patientId" json:"patientId"`
	PatientName   string    `bson:"patientName" json:"patientName"`
	DoctorID      string    `bson:"doctorId" json:"doctorId"`
	Rating        int       `bson:"rating" json:"rating"`
	Comment       string    `bson:"comment,omitempty" json:"comment,omitempty"`
	CreatedAt     time.Time `bson:"createdAt" json:"createdAt"`
}

// DoctorRating is the aggregate view over a doctor's feedback.
type DoctorRating struct {
	DoctorID      string  `json:"doctorId"`
	AverageRating float64 `json:"averageRating"`
	TotalReviews  int     `json:"totalReviews"`
}
