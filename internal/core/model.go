package core

// EventType tags a raw webcast record with its wire message type. The set of
// types with dedicated reshaping rules is closed; anything else passes through
// the generic flattening untouched.
type EventType string

const (
	EventChat          EventType = "WebcastChatMessage"
	EventEmoteChat     EventType = "WebcastEmoteChatMessage"
	EventGift          EventType = "WebcastGiftMessage"
	EventQuestionNew   EventType = "WebcastQuestionNewMessage"
	EventRoomUserSeq   EventType = "WebcastRoomUserSeqMessage"
	EventLinkMicBattle EventType = "WebcastLinkMicBattle"
)

// Envelope is one raw event as delivered by the external streaming client:
// an event-type tag plus the still-nested payload. Payloads must be decoded
// with json.Number so 64-bit identifiers survive intact.
type Envelope struct {
	Event string         `json:"event"`
	Data  map[string]any `json:"data"`
}

// Record is a normalized, flat event record ready for a downstream sink.
type Record map[string]any
