package models

// Document store collection names.
const (
	CollectionUsers         = "users"
	CollectionRefreshTokens = "refreshTokens"
	CollectionAppointments  = "appointments"
	CollectionSchedules     = "doctorSchedules"
	CollectionQueues        = "doctorQueues"
	CollectionActiveCalls   = "activeCalls"
	CollectionFeedback      = "feedback"
)
