package models

import "time"

// Call session statuses. Status only moves forward; ended is terminal.
const (
	CallConnecting = "connecting"
	CallConnected  = "connected"
	CallEnded      = "ended"
)

// Parties that can terminate a session.
const (
	EndedByDoctor  = "doctor"
	EndedByPatient = "patient"
	EndedByTimeout = "timeout"
)

// CallSession is the durable record of one consultation attempt, keyed
// by the call room id (the appointment id). Never deleted.
type CallSession struct {
	ID               string     `bson:"_id,omitempty" json:"roomId"`
	CallID           string     `bson:"callId" json:"callId"`
	AppointmentID    string     `bson:"appointmentId" json:"appointmentId"`
	DoctorID         string     `bson:"doctorId" json:"doctorId"`
	DoctorName       string     `bson:"doctorName" json:"doctorName"`
	PatientID        string     `bson:"patientId" json:"patientId"`
	PatientName      string     `bson:"patientName" json:"patientName"`
	ConsultationType string     `bson:"consultationType" json:"consultationType"`
	Status           string     `bson:"status" json:"status"`
	DoctorJoined     bool       `bson:"doctorJoined" json:"doctorJoined"`
	PatientJoined    bool       `bson:"patientJoined" json:"patientJoined"`
	StartedAt        time.Time  `bson:"startedAt" json:"startedAt"`
	EndedAt          *time.Time `bson:"endedAt,omitempty" json:"endedAt,omitempty"`
	EndedBy          string     `bson:"endedBy,omitempty" json:"endedBy,omitempty"`
	EndReason        string     `bson:"endReason,omitempty" json:"endReason,omitempty"`
	CreatedAt        time.Time  `bson:"createdAt" json:"createdAt"`
}
