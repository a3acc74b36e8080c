package domain

// Envelope is the JSON frame written to subscriber connections.
type Envelope struct {
	Type     string `json:"type"`
	Response any    `json:"response,omitempty"`
	ReplyTo  string `json:"replyTo,omitempty"`
}

// BroadcastResponse flattens the payload and adds both event names. action
// keeps older clients working while rtmEvent carries the canonical name.
type BroadcastResponse struct {
	Payload
	Action   string `json:"action"`
	RTMEvent string `json:"rtmEvent"`
}

// NewBroadcastEnvelope renders c for the subscription identified by replyTo.
func NewBroadcastEnvelope(c Consumable, replyTo string) Envelope {
	return Envelope{
		Type: c.Topic().ChannelType(),
		Response: BroadcastResponse{
			Payload:  c.Payload(),
			Action:   c.Kind().LegacyName(),
			RTMEvent: c.Kind().Name(),
		},
		ReplyTo: replyTo,
	}
}
