package signaling

import "encoding/json"

// Inbound events, names fixed by the mobile/web clients.
const (
	EventPatientJoin       = "patient-join"
	EventDoctorStartCall   = "doctor-start-call"
	EventPatientAnswerCall = "patient-answer-call"
	EventPatientRejectCall = "patient-reject-call"
	EventWebRTCOffer       = "webrtc-offer"
	EventWebRTCAnswer      = "webrtc-answer"
	EventICECandidate      = "ice-candidate"
	EventJoinCallRoom      = "join-call-room"
	EventLeaveCallRoom     = "leave-call-room"
	EventEndCall           = "end-call"
	EventMediaStateChanged = "media-state-changed"
)

// Outbound events.
const (
	EventPatientRoomJoined = "patient-room-joined"
	EventIncomingCall      = "incoming-call"
	EventCallAnswered      = "call-answered"
	EventCallRejected      = "call-rejected"
	EventCallEnded         = "call-ended"
	EventCallError         = "call-error"
	EventUserJoined        = "user-joined"
	EventUserLeft          = "user-left"
	EventRoomSizeUpdate    = "room-size-update"
)

// Identity types bound to a connection.
const (
	IdentityPatient = "patient"
	IdentityDoctor  = "doctor"
)

// Identity is the logical party behind a connection.
type Identity struct {
	Type string `json:"type"`
	ID   string `json:"id"`
	Name string `json:"name,omitempty"`
}

// personalRoomPrefix namespaces per-patient notification rooms.
const personalRoomPrefix = "patient_"

// PersonalRoom returns the notification room name for a patient.
func PersonalRoom(patientID string) string {
	return personalRoomPrefix + patientID
}

// Envelope is the wire frame for every signaling message.
type Envelope struct {
	Event string          `json:"event"`
	Data  json.RawMessage `json:"data"`
}

// Message is an outbound signaling frame.
type Message struct {
	Event string `json:"event"`
	Data  any    `json:"data"`
}

// PatientJoinMessage identifies the patient behind a connection. Older
// clients send a bare patient id string, newer ones an object; both are
// normalized here so nothing downstream branches on payload shape.
type PatientJoinMessage struct {
	PatientID string `json:"patientId"`
	UserName  string `json:"userName"`
}

func (m *PatientJoinMessage) UnmarshalJSON(b []byte) error {
	var id string
	if err := json.Unmarshal(b, &id); err == nil {
		m.PatientID = id
		return nil
	}
	type plain PatientJoinMessage
	var p plain
	if err := json.Unmarshal(b, &p); err != nil {
		return err
	}
	*m = PatientJoinMessage(p)
	return nil
}

// RoomMessage carries a call room id, accepted either bare or wrapped.
type RoomMessage struct {
	RoomID string `json:"roomId"`
}

func (m *RoomMessage) UnmarshalJSON(b []byte) error {
	var id string
	if err := json.Unmarshal(b, &id); err == nil {
		m.RoomID = id
		return nil
	}
	type plain RoomMessage
	var p plain
	if err := json.Unmarshal(b, &p); err != nil {
		return err
	}
	*m = RoomMessage(p)
	return nil
}

// StartCallMessage is the doctor's request to ring a patient.
type StartCallMessage struct {
	PatientID        string `json:"patientId"`
	PatientName      string `json:"patientName"`
	RoomID           string `json:"roomId"`
	DoctorID         string `json:"doctorId"`
	DoctorName       string `json:"doctorName"`
	ConsultationType string `json:"consultationType"`
}

// AnswerCallMessage is the patient accepting an incoming call.
type AnswerCallMessage struct {
	RoomID string          `json:"roomId"`
	Answer json.RawMessage `json:"answer"`
}

// RejectCallMessage is the patient declining an incoming call.
type RejectCallMessage struct {
	RoomID string `json:"roomId"`
	Reason string `json:"reason"`
}

// EndCallMessage terminates an active call.
type EndCallMessage struct {
	RoomID  string `json:"roomId"`
	EndedBy string `json:"endedBy"`
}
