// Package broadcast defines the outbound event contract of the auction
// core. The core depends only on the Publisher interface; transports
// (websocket hub, message broker) plug in behind it. Delivery is
// at-least-once and ordered best-effort per topic: observers that miss an
// event self-correct on the next periodic status re-broadcast.
package broadcast

import (
	"encoding/json"
	"time"
)

// EventType identifies the kind of event carried by an envelope.
type EventType string

const (
	TypeBidAccepted       EventType = "auction.bid_accepted"
	TypeAuctionStatus     EventType = "auction.status"
	TypeParticipantNotice EventType = "auction.participant_notice"
)

// Event is the message envelope published on auction topics.
type Event struct {
	Type      EventType `json:"type"`
	Timestamp time.Time `json:"timestamp"`
	Payload   any       `json:"payload"`
}

// NewEvent creates an event with the current timestamp.
func NewEvent(eventType EventType, payload any) Event {
	return Event{
		Type:      eventType,
		Timestamp: time.Now().UTC(),
		Payload:   payload,
	}
}

// JSON serializes the event to JSON bytes.
func (e Event) JSON() ([]byte, error) {
	return json.Marshal(e)
}

// Publisher delivers events to every subscriber of a topic.
// Implementations must be safe for concurrent use; publish failures must
// never propagate into auction state changes.
type Publisher interface {
	Publish(topic string, event Event) error
}

// StatusTopic is the per-auction topic carrying bid and lifecycle events.
func StatusTopic(auctionID string) string {
	return "auction." + auctionID + ".status"
}

// ParticipantTopic is the per-auction topic carrying join/leave notices.
func ParticipantTopic(auctionID string) string {
	return "auction." + auctionID + ".participants"
}

// BidAcceptedPayload is the payload for auction.bid_accepted events.
type BidAcceptedPayload struct {
	AuctionID string    `json:"auction_id"`
	BidID     string    `json:"bid_id"`
	BidderID  string    `json:"bidder_id"`
	Amount    float64   `json:"amount"`
	IsAutoBid bool      `json:"is_auto_bid"`
	Winning   bool      `json:"winning"`
	PlacedAt  time.Time `json:"placed_at"`
}

// StatusPayload is the payload for auction.status events. It is a full
// snapshot so late or reconnecting observers converge from any single
// event.
type StatusPayload struct {
	AuctionID            string  `json:"auction_id"`
	Status               string  `json:"status"`
	SecondsRemaining     int64   `json:"seconds_remaining"`
	RemainingBidderSlots int     `json:"remaining_bidder_slots"`
	CurrentBidAmount     float64 `json:"current_bid_amount"`
	CurrentBidderID      string  `json:"current_bidder_id,omitempty"`
	Observers            int     `json:"observers"`
	StatusLine           string  `json:"status_line"`
}

// ParticipantNoticePayload is the payload for participant notices.
type ParticipantNoticePayload struct {
	AuctionID string `json:"auction_id"`
	UserID    string `json:"user_id"`
	Joined    bool   `json:"joined"`
	Notice    string `json:"notice"`
}
