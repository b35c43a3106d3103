package models

import (
	"time"

	"github.com/shopspring/decimal"

	"github.com/starboard-ventures/BDX-auction/internal/identity"
)

type AuctionState string

const (
	AuctionBidding        AuctionState = "BIDDING"
	AuctionNoBidCancelled AuctionState = "NO_BID_CANCELLED"
	AuctionSelection      AuctionState = "SELECTION"
	AuctionVerification   AuctionState = "VERIFICATION"
	AuctionCancelled      AuctionState = "CANCELLED"
	AuctionCompleted      AuctionState = "COMPLETED"
)

// Terminal reports whether no further operation can move the auction.
func (s AuctionState) Terminal() bool {
	switch s {
	case AuctionNoBidCancelled, AuctionCancelled, AuctionCompleted:
		return true
	}
	return false
}

type BidState string

const (
	BidBidding          BidState = "BIDDING"
	BidPendingSelection BidState = "PENDING_SELECTION"
	BidSelected         BidState = "SELECTED"
	BidRefunded         BidState = "REFUNDED"
	BidCancelled        BidState = "CANCELLED"
	BidPaid             BidState = "PAID"
	BidRefundSettled    BidState = "REFUND_SETTLED"
)

type AuctionKind string

const (
	KindBid   AuctionKind = "BID"
	KindFixed AuctionKind = "FIXED"
	KindBoth  AuctionKind = "BOTH"
)

type BidKind string

const (
	BidKindBid    BidKind = "BID"
	BidKindBuyNow BidKind = "BUY_NOW"
)

// Allows reports whether an auction of this kind accepts the given bid kind.
func (k AuctionKind) Allows(b BidKind) bool {
	switch k {
	case KindBid:
		return b == BidKindBid
	case KindFixed:
		return b == BidKindBuyNow
	case KindBoth:
		return b == BidKindBid || b == BidKindBuyNow
	}
	return false
}

// Bid is the per-bidder escrow record. Total only grows while the auction is
// in BIDDING; Remainder tracks the not-yet-settled portion once selected.
// Bids are never deleted, terminal states are kept for audit.
type Bid struct {
	Bidder    identity.Address
	Total     decimal.Decimal
	Remainder decimal.Decimal
	Kind      BidKind
	State     BidState
	PlacedAt  time.Time
	UpdatedAt time.Time
}

// AuctionView is the read-only snapshot handed to the HTTP and store layers.
type AuctionView struct {
	ID            string
	State         AuctionState
	Kind          AuctionKind
	Admin         identity.Address
	Client        identity.Address
	UnitPrice     decimal.Decimal
	Quantity      int64
	FixedPrice    decimal.Decimal
	Quota         int
	SelectedCount int
	EscrowBalance decimal.Decimal
	Deadline      time.Time
	Bids          []Bid
	CreatedAt     time.Time
	UpdatedAt     time.Time
}

type OfferState string

const (
	OfferOpen      OfferState = "OPEN"
	OfferAccepted  OfferState = "ACCEPTED"
	OfferCancelled OfferState = "CANCELLED"
)

// Offer is a pre-negotiated bid a provider publishes for clients to accept.
// TotalPrice covers TotalSize; acceptance pro-rates it to an auction's
// quantity.
type Offer struct {
	ID         string
	Provider   identity.Address
	TotalPrice decimal.Decimal
	TotalSize  int64
	Copies     int
	State      OfferState
	CreatedAt  time.Time
}
