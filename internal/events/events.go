// Package events carries auction lifecycle events to external observers.
// Delivery is best effort; engine correctness never depends on it.
package events

import (
	"time"

	"github.com/shopspring/decimal"

	"github.com/starboard-ventures/BDX-auction/internal/identity"
	"github.com/starboard-ventures/BDX-auction/internal/models"
)

type Type string

const (
	TypeAuctionCreated   Type = "auction_created"
	TypeBidPlaced        Type = "bid_placed"
	TypeBiddingEnded     Type = "bidding_ended"
	TypeNoBidCancelled   Type = "no_bid_cancelled"
	TypeBidSelected      Type = "bid_selected"
	TypeSelectionEnded   Type = "selection_ended"
	TypeDealPaid         Type = "deal_paid"
	TypeDealRefunded     Type = "deal_refunded"
	TypeAuctionCancelled Type = "auction_cancelled"
	TypeAuctionCompleted Type = "auction_completed"
)

type Event struct {
	AuctionID string    `json:"auctionId"`
	Type      Type      `json:"type"`
	At        time.Time `json:"at"`
	Payload   any       `json:"payload,omitempty"`
}

// Sink receives engine events. Publish must not block the caller for long;
// the engine holds the auction lock while publishing.
type Sink interface {
	Publish(Event)
}

type SinkFunc func(Event)

func (f SinkFunc) Publish(e Event) { f(e) }

type BidPlaced struct {
	Bidder identity.Address `json:"bidder"`
	Amount decimal.Decimal  `json:"amount"`
	State  models.BidState  `json:"state"`
	Kind   models.BidKind   `json:"kind"`
}

type BidSelected struct {
	Bidder        identity.Address `json:"bidder"`
	Amount        decimal.Decimal  `json:"amount"`
	SelectedCount int              `json:"selectedCount"`
}

type DealPaid struct {
	Bidder       identity.Address `json:"bidder"`
	Amount       decimal.Decimal  `json:"amount"`
	FullySettled bool             `json:"fullySettled"`
}

type DealRefunded struct {
	Bidder identity.Address `json:"bidder"`
	Refund decimal.Decimal  `json:"refund"`
	Payout decimal.Decimal  `json:"payout"`
}

type StateChanged struct {
	State models.AuctionState `json:"state"`
}
