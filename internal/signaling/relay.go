package signaling

// Relay is the store-and-forward leg of WebRTC session establishment.
// Offers, answers and ICE candidates pass through untouched; the relay
// never inspects SDP or candidate contents. Unresolvable targets are
// dropped silently, with no retry and no buffering.
type Relay struct {
	registry *Registry
}

func NewRelay(registry *Registry) *Relay {
	return &Relay{registry: registry}
}

// Relay forwards a signaling payload from one connection to a target,
// which may be a connection id or a room name. The sender never receives
// its own message. Returns the number of connections reached.
func (r *Relay) Relay(event, fromClientID, target string, payload map[string]any) int {
	if target == "" || target == fromClientID {
		return 0
	}

	data := make(map[string]any, len(payload)+1)
	for k, v := range payload {
		if k == "to" {
			continue
		}
		data[k] = v
	}
	data["from"] = fromClientID

	if c, ok := r.registry.Client(target); ok {
		if c.Enqueue(Message{Event: event, Data: data}) {
			return 1
		}
		return 0
	}

	return r.registry.Broadcast(target, event, data, fromClientID)
}
