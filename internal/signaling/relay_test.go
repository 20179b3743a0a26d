package signaling

import "testing"

func TestRelayDirect(t *testing.T) {
	r := NewRegistry()
	relay := NewRelay(r)
	register(t, r, "sender")
	receiver := register(t, r, "receiver")

	n := relay.Relay(EventWebRTCOffer, "sender", "receiver", map[string]any{
		"to":  "receiver",
		"sdp": "v=0...",
	})
	if n != 1 {
		t.Fatalf("reached %d, want 1", n)
	}

	msgs := drainClient(receiver)
	if len(msgs) != 1 || msgs[0].Event != EventWebRTCOffer {
		t.Fatalf("got %+v", msgs)
	}
	data := msgs[0].Data.(map[string]any)
	if data["from"] != "sender" {
		t.Fatalf("from %v", data["from"])
	}
	if _, ok := data["to"]; ok {
		t.Fatal("routing field must be stripped")
	}
	if data["sdp"] != "v=0..." {
		t.Fatal("payload must pass through untouched")
	}
}

func TestRelayToRoom(t *testing.T) {
	r := NewRegistry()
	relay := NewRelay(r)
	sender := register(t, r, "sender")
	peer := register(t, r, "peer")
	r.Join("sender", "room-1")
	r.Join("peer", "room-1")

	n := relay.Relay(EventICECandidate, "sender", "room-1", map[string]any{
		"candidate": "candidate:1",
	})
	if n != 1 {
		t.Fatalf("reached %d, want 1", n)
	}
	if msgs := drainClient(sender); len(msgs) != 0 {
		t.Fatalf("sender must never hear its own relay, got %+v", msgs)
	}
	msgs := drainClient(peer)
	if len(msgs) != 1 || msgs[0].Event != EventICECandidate {
		t.Fatalf("got %+v", msgs)
	}
}

func TestRelayUnknownTarget(t *testing.T) {
	r := NewRegistry()
	relay := NewRelay(r)
	register(t, r, "sender")

	if n := relay.Relay(EventWebRTCAnswer, "sender", "nobody", map[string]any{}); n != 0 {
		t.Fatalf("unknown target reached %d connections", n)
	}
	if n := relay.Relay(EventWebRTCAnswer, "sender", "", map[string]any{}); n != 0 {
		t.Fatal("empty target must be dropped")
	}
	if n := relay.Relay(EventWebRTCAnswer, "sender", "sender", map[string]any{}); n != 0 {
		t.Fatal("self target must be dropped")
	}
}
