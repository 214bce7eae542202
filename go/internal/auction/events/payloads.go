package events

import (
	"github.com/mcdev12/auctionhouse/go/internal/models"
)

// Event payload types shared between the engine, the gateway and the chat transport

// PlayerPayload is the payload for PlayerNominated and PlayerUnsold events
type PlayerPayload struct {
	Player models.Player `json:"player"`
}

// BidPayload is the payload for BidPlaced and StealStarted events
type BidPayload struct {
	Player  string `json:"player"`
	Manager string `json:"manager"`
	Amount  int64  `json:"amount"`
}

// SoldPayload is the payload for a PlayerSold event
type SoldPayload struct {
	Player          string `json:"player"`
	Manager         string `json:"manager"`
	Price           int64  `json:"price"`
	RemainingBudget int64  `json:"remaining_budget"`
}

// DraftStartedPayload is the payload for a DraftStarted event
type DraftStartedPayload struct {
	Order      []string `json:"order"`
	ZeroBudget int      `json:"zero_budget"`
}

// DraftTurnPayload is the payload for DraftTurn and DraftSkipped events
type DraftTurnPayload struct {
	Manager string `json:"manager"`
	Pick    int    `json:"pick"`
}

// DraftPickPayload is the payload for DraftPicked and DraftFinalized events.
// StealPrice is zero when nobody could afford to steal the pick.
type DraftPickPayload struct {
	Player     string `json:"player"`
	Manager    string `json:"manager"`
	StealPrice int64  `json:"steal_price,omitempty"`
	Stolen     bool   `json:"stolen,omitempty"`
}

// VoidPayload is the payload for a CountdownVoided event
type VoidPayload struct {
	Countdown string `json:"countdown"`
	Player    string `json:"player"`
	Reason    string `json:"reason"`
}

// PhasePayload is the payload for Paused and Resumed events
type PhasePayload struct {
	Phase models.Phase `json:"phase"`
}

// ManagerPayload is the payload for manager lifecycle and BudgetExhausted events
type ManagerPayload struct {
	Name   string `json:"name"`
	Budget int64  `json:"budget"`
}

// CapPayload is the payload for a CapSet event
type CapPayload struct {
	Cap int `json:"cap"`
}

// RetainedPayload is the payload for a PlayerRetained event
type RetainedPayload struct {
	Player  string `json:"player"`
	Manager string `json:"manager"`
}

// QueuePayload is the payload for QueueBuilt and QueueSkipped events
type QueuePayload struct {
	Size    int    `json:"size,omitempty"`
	Skipped string `json:"skipped,omitempty"`
}

// ResetPayload is the payload for a Reset event
type ResetPayload struct {
	CatalogRestored bool `json:"catalog_restored"`
}

// CountdownPayload is the payload for a CountdownStarted event
type CountdownPayload struct {
	Countdown string `json:"countdown"`
	Player    string `json:"player"`
	Manager   string `json:"manager"`
	Seconds   int    `json:"seconds"`
}
