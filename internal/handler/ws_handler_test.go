package handler

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/SanduniLK/MediLink/internal/service"
	"github.com/SanduniLK/MediLink/internal/signaling"
	"github.com/SanduniLK/MediLink/internal/store"
)

func newTestWSHandler(t *testing.T) (*WSHandler, *signaling.Registry) {
	t.Helper()
	st := store.NewMemoryStore()
	registry := signaling.NewRegistry()
	relay := signaling.NewRelay(registry)
	calls := service.NewCallService(st, registry, time.Minute)
	t.Cleanup(calls.Stop)
	return NewWSHandler(registry, relay, calls), registry
}

func drainMessages(c *signaling.Client) []signaling.Message {
	var msgs []signaling.Message
	for {
		select {
		case m := <-c.Outbox():
			msgs = append(msgs, m)
		default:
			return msgs
		}
	}
}

func TestDoctorStartCall(t *testing.T) {
	t.Run("joins the call room once the session exists", func(t *testing.T) {
		h, registry := newTestWSHandler(t)

		doctor := signaling.NewClient("conn-doc")
		registry.Register(doctor)

		payload, _ := json.Marshal(signaling.StartCallMessage{
			RoomID:      "room-1",
			PatientID:   "pat-1",
			PatientName: "Patient One",
			DoctorID:    "doc-1",
			DoctorName:  "Dr. Perera",
		})
		h.dispatch(doctor, signaling.EventDoctorStartCall, payload)

		if size := registry.RoomSize("room-1"); size != 1 {
			t.Fatalf("room size %d, want 1", size)
		}
		if msgs := drainMessages(doctor); len(msgs) != 0 {
			t.Fatalf("doctor should get no error, got %+v", msgs)
		}
	})

	t.Run("stays out of the room when the call is refused", func(t *testing.T) {
		h, registry := newTestWSHandler(t)

		doctor := signaling.NewClient("conn-doc")
		registry.Register(doctor)

		payload, _ := json.Marshal(signaling.StartCallMessage{
			RoomID:   "room-1",
			DoctorID: "doc-1",
		})
		h.dispatch(doctor, signaling.EventDoctorStartCall, payload)

		if size := registry.RoomSize("room-1"); size != 0 {
			t.Fatalf("refused caller should not be in the room, got size %d", size)
		}
		msgs := drainMessages(doctor)
		if len(msgs) != 1 || msgs[0].Event != signaling.EventCallError {
			t.Fatalf("expected one call-error, got %+v", msgs)
		}
	})
}
