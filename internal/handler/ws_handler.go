package handler

import (
	"context"
	"encoding/json"
	"log"
	"time"

	"github.com/SanduniLK/MediLink/internal/models"
	"github.com/SanduniLK/MediLink/internal/service"
	"github.com/SanduniLK/MediLink/internal/signaling"
	"github.com/gin-gonic/gin"
)

// WSHandler terminates websocket connections and routes signaling
// events to the call service, the room registry and the relay.
type WSHandler struct {
	registry    *signaling.Registry
	relay       *signaling.Relay
	callService *service.CallService
}

func NewWSHandler(registry *signaling.Registry, relay *signaling.Relay, callService *service.CallService) *WSHandler {
	return &WSHandler{
		registry:    registry,
		relay:       relay,
		callService: callService,
	}
}

// Serve upgrades the request and starts the connection pumps.
func (h *WSHandler) Serve(c *gin.Context) {
	if err := signaling.ServeWS(h.registry, h.dispatch, c.Writer, c.Request); err != nil {
		log.Printf("signaling: upgrade failed: %v", err)
	}
}

func (h *WSHandler) dispatch(client *signaling.Client, event string, data json.RawMessage) {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	switch event {
	case signaling.EventPatientJoin:
		h.handlePatientJoin(client, data)
	case signaling.EventDoctorStartCall:
		h.handleDoctorStartCall(ctx, client, data)
	case signaling.EventPatientAnswerCall:
		h.handlePatientAnswer(ctx, client, data)
	case signaling.EventPatientRejectCall:
		h.handlePatientReject(ctx, client, data)
	case signaling.EventWebRTCOffer, signaling.EventWebRTCAnswer, signaling.EventICECandidate:
		h.handleRelay(client, event, data)
	case signaling.EventJoinCallRoom:
		h.handleJoinRoom(client, data)
	case signaling.EventLeaveCallRoom:
		h.handleLeaveRoom(client, data)
	case signaling.EventEndCall:
		h.handleEndCall(ctx, client, data)
	case signaling.EventMediaStateChanged:
		h.handleMediaState(client, data)
	default:
		log.Printf("signaling: connection %s sent unknown event %q", client.ID, event)
	}
}

func (h *WSHandler) sendError(client *signaling.Client, message string) {
	client.Enqueue(signaling.Message{
		Event: signaling.EventCallError,
		Data:  map[string]any{"message": message},
	})
}

func (h *WSHandler) handlePatientJoin(client *signaling.Client, data json.RawMessage) {
	var msg signaling.PatientJoinMessage
	if err := json.Unmarshal(data, &msg); err != nil || msg.PatientID == "" {
		h.sendError(client, "patientId is required")
		return
	}

	h.registry.Bind(client.ID, signaling.Identity{
		Type: signaling.IdentityPatient,
		ID:   msg.PatientID,
		Name: msg.UserName,
	})
	room := h.registry.JoinPersonalRoom(client.ID, msg.PatientID)
	client.Enqueue(signaling.Message{
		Event: signaling.EventPatientRoomJoined,
		Data:  map[string]any{"room": room, "patientId": msg.PatientID},
	})
}

func (h *WSHandler) handleDoctorStartCall(ctx context.Context, client *signaling.Client, data json.RawMessage) {
	var msg signaling.StartCallMessage
	if err := json.Unmarshal(data, &msg); err != nil {
		h.sendError(client, "malformed doctor-start-call payload")
		return
	}

	h.registry.Bind(client.ID, signaling.Identity{
		Type: signaling.IdentityDoctor,
		ID:   msg.DoctorID,
		Name: msg.DoctorName,
	})

	_, err := h.callService.Initiate(ctx, service.InitiateParams{
		RoomID:           msg.RoomID,
		PatientID:        msg.PatientID,
		PatientName:      msg.PatientName,
		DoctorID:         msg.DoctorID,
		DoctorName:       msg.DoctorName,
		ConsultationType: msg.ConsultationType,
	})
	if err != nil {
		h.sendError(client, err.Error())
		return
	}
	// The doctor enters the call room only once the session exists.
	h.registry.Join(client.ID, msg.RoomID)
}

func (h *WSHandler) handlePatientAnswer(ctx context.Context, client *signaling.Client, data json.RawMessage) {
	var msg signaling.AnswerCallMessage
	if err := json.Unmarshal(data, &msg); err != nil || msg.RoomID == "" {
		h.sendError(client, "roomId is required")
		return
	}

	if _, err := h.callService.PatientJoin(ctx, msg.RoomID); err != nil {
		h.sendError(client, err.Error())
		return
	}
	h.registry.Join(client.ID, msg.RoomID)
	h.registry.Broadcast(msg.RoomID, signaling.EventCallAnswered, map[string]any{
		"roomId": msg.RoomID,
		"answer": msg.Answer,
	}, client.ID)
}

func (h *WSHandler) handlePatientReject(ctx context.Context, client *signaling.Client, data json.RawMessage) {
	var msg signaling.RejectCallMessage
	if err := json.Unmarshal(data, &msg); err != nil || msg.RoomID == "" {
		h.sendError(client, "roomId is required")
		return
	}
	if err := h.callService.Reject(ctx, msg.RoomID, msg.Reason); err != nil {
		h.sendError(client, err.Error())
	}
}

func (h *WSHandler) handleRelay(client *signaling.Client, event string, data json.RawMessage) {
	var payload map[string]any
	if err := json.Unmarshal(data, &payload); err != nil {
		h.sendError(client, "malformed "+event+" payload")
		return
	}
	target, _ := payload["to"].(string)
	h.relay.Relay(event, client.ID, target, payload)
}

func (h *WSHandler) handleJoinRoom(client *signaling.Client, data json.RawMessage) {
	var msg signaling.RoomMessage
	if err := json.Unmarshal(data, &msg); err != nil || msg.RoomID == "" {
		h.sendError(client, "roomId is required")
		return
	}

	size := h.registry.Join(client.ID, msg.RoomID)
	ident, _ := h.registry.IdentityOf(client.ID)
	h.registry.Broadcast(msg.RoomID, signaling.EventUserJoined, map[string]any{
		"roomId":   msg.RoomID,
		"clientId": client.ID,
		"userType": ident.Type,
		"userName": ident.Name,
	}, client.ID)
	h.registry.Broadcast(msg.RoomID, signaling.EventRoomSizeUpdate, map[string]any{
		"roomId": msg.RoomID,
		"size":   size,
	}, "")
}

func (h *WSHandler) handleLeaveRoom(client *signaling.Client, data json.RawMessage) {
	var msg signaling.RoomMessage
	if err := json.Unmarshal(data, &msg); err != nil || msg.RoomID == "" {
		return
	}

	h.registry.Leave(client.ID, msg.RoomID)
	h.registry.Broadcast(msg.RoomID, signaling.EventUserLeft, map[string]any{
		"roomId":   msg.RoomID,
		"clientId": client.ID,
	}, "")
	h.registry.Broadcast(msg.RoomID, signaling.EventRoomSizeUpdate, map[string]any{
		"roomId": msg.RoomID,
		"size":   h.registry.RoomSize(msg.RoomID),
	}, "")
}

func (h *WSHandler) handleEndCall(ctx context.Context, client *signaling.Client, data json.RawMessage) {
	var msg signaling.EndCallMessage
	if err := json.Unmarshal(data, &msg); err != nil || msg.RoomID == "" {
		h.sendError(client, "roomId is required")
		return
	}

	endedBy := msg.EndedBy
	if endedBy == "" {
		endedBy = models.EndedByDoctor
		if ident, ok := h.registry.IdentityOf(client.ID); ok && ident.Type == signaling.IdentityPatient {
			endedBy = models.EndedByPatient
		}
	}
	if _, err := h.callService.End(ctx, msg.RoomID, endedBy, ""); err != nil {
		h.sendError(client, err.Error())
	}
}

func (h *WSHandler) handleMediaState(client *signaling.Client, data json.RawMessage) {
	var payload map[string]any
	if err := json.Unmarshal(data, &payload); err != nil {
		return
	}
	roomID, _ := payload["roomId"].(string)
	if roomID == "" {
		return
	}
	payload["from"] = client.ID
	h.registry.Broadcast(roomID, signaling.EventMediaStateChanged, payload, client.ID)
}
