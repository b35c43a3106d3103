// Package auction implements the escrow-backed settlement state machine:
// bid accounting, quota-bounded winner selection, multi-step payout/refund
// and full-refund cancellation, gated by auction state and caller role.
package auction

import (
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/starboard-ventures/BDX-auction/internal/events"
	"github.com/starboard-ventures/BDX-auction/internal/identity"
	"github.com/starboard-ventures/BDX-auction/internal/ledger"
	"github.com/starboard-ventures/BDX-auction/internal/models"
)

// Params carries the factory inputs for one procurement request.
type Params struct {
	Asset      ledger.AssetLedger
	Admin      identity.Address
	Client     identity.Address
	UnitPrice  decimal.Decimal
	Quantity   int64
	FixedPrice decimal.Decimal // optional; defaults to UnitPrice * Quantity
	Quota      int
	Deadline   time.Time
	Kind       models.AuctionKind

	// OfferCaller is the only identity allowed through the OfferBid entry
	// point. Empty disables the offer path.
	OfferCaller identity.Address

	Sink events.Sink
}

// Auction is one settlement instance. All operations serialize on the
// instance mutex; a failed operation leaves no partial state behind.
type Auction struct {
	mu sync.Mutex

	id     string
	escrow identity.Address
	asset  ledger.AssetLedger

	admin       identity.Address
	client      identity.Address
	offerCaller identity.Address

	unitPrice  decimal.Decimal
	quantity   int64
	fixedPrice decimal.Decimal
	quota      int
	deadline   time.Time
	kind       models.AuctionKind

	state    models.AuctionState
	order    []identity.Address
	bids     map[identity.Address]*models.Bid
	selected int
	escrowed decimal.Decimal

	sink      events.Sink
	createdAt time.Time
	updatedAt time.Time
}

// New validates factory parameters and constructs an auction in BIDDING.
func New(p Params) (*Auction, error) {
	if p.Asset == nil {
		return nil, errors.New("payment asset required")
	}
	if p.Admin.IsZero() || p.Client.IsZero() {
		return nil, errors.New("admin and client required")
	}
	if p.Quota <= 0 {
		return nil, errors.New("quota must be positive")
	}
	if p.Kind == "" {
		p.Kind = models.KindBid
	}
	switch p.Kind {
	case models.KindBid, models.KindFixed, models.KindBoth:
	default:
		return nil, fmt.Errorf("unknown auction kind %q", p.Kind)
	}
	if p.Kind == models.KindFixed && p.Quota != 1 {
		return nil, errors.New("fixed price auction requires quota of 1")
	}
	if p.UnitPrice.IsNegative() {
		return nil, errors.New("unit price must not be negative")
	}
	if p.Quantity <= 0 {
		return nil, errors.New("quantity must be positive")
	}

	fixed := p.FixedPrice
	if fixed.IsZero() {
		fixed = p.UnitPrice.Mul(decimal.NewFromInt(p.Quantity))
	}
	if fixed.IsNegative() {
		return nil, errors.New("fixed price must not be negative")
	}

	id := uuid.NewString()
	escrow, err := identity.FromKey(identity.DefaultHRP, []byte("auction/"+id))
	if err != nil {
		return nil, err
	}

	now := time.Now().UTC()
	a := &Auction{
		id:          id,
		escrow:      escrow,
		asset:       p.Asset,
		admin:       p.Admin,
		client:      p.Client,
		offerCaller: p.OfferCaller,
		unitPrice:   p.UnitPrice,
		quantity:    p.Quantity,
		fixedPrice:  fixed,
		quota:       p.Quota,
		deadline:    p.Deadline,
		kind:        p.Kind,
		state:       models.AuctionBidding,
		bids:        make(map[identity.Address]*models.Bid),
		sink:        p.Sink,
		createdAt:   now,
		updatedAt:   now,
	}
	a.emit(events.TypeAuctionCreated, events.StateChanged{State: a.state})
	return a, nil
}

func (a *Auction) ID() string { return a.id }

// EscrowAccount is the ledger account bidders approve as spender.
func (a *Auction) EscrowAccount() identity.Address { return a.escrow }

func (a *Auction) Deadline() time.Time { return a.deadline }

func (a *Auction) Admin() identity.Address { return a.admin }

// State returns the current lifecycle phase.
func (a *Auction) State() models.AuctionState {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.state
}

// EscrowBalance is the sum of all outstanding bid remainders.
func (a *Auction) EscrowBalance() decimal.Decimal {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.escrowed
}

// Bid returns a copy of the bidder's record.
func (a *Auction) Bid(bidder identity.Address) (models.Bid, bool) {
	a.mu.Lock()
	defer a.mu.Unlock()
	b, ok := a.bids[bidder]
	if !ok {
		return models.Bid{}, false
	}
	return *b, true
}

// Snapshot copies the full state for the HTTP and store layers. Bids come
// back in arrival order.
func (a *Auction) Snapshot() models.AuctionView {
	a.mu.Lock()
	defer a.mu.Unlock()

	view := models.AuctionView{
		ID:            a.id,
		State:         a.state,
		Kind:          a.kind,
		Admin:         a.admin,
		Client:        a.client,
		UnitPrice:     a.unitPrice,
		Quantity:      a.quantity,
		FixedPrice:    a.fixedPrice,
		Quota:         a.quota,
		SelectedCount: a.selected,
		EscrowBalance: a.escrowed,
		Deadline:      a.deadline,
		CreatedAt:     a.createdAt,
		UpdatedAt:     a.updatedAt,
	}
	for _, addr := range a.order {
		view.Bids = append(view.Bids, *a.bids[addr])
	}
	return view
}

// EndBidding closes the bidding phase. With no bidders the auction dies as
// NO_BID_CANCELLED; otherwise live bids move to PENDING_SELECTION and the
// auction enters SELECTION.
func (a *Auction) EndBidding(caller identity.Address) error {
	a.mu.Lock()
	defer a.mu.Unlock()

	if caller != a.admin {
		return ErrNotAdmin
	}
	if a.state != models.AuctionBidding {
		return ErrAuctionNotBidding
	}

	if len(a.order) == 0 {
		a.setState(models.AuctionNoBidCancelled)
		a.emit(events.TypeNoBidCancelled, events.StateChanged{State: a.state})
		return nil
	}

	for _, b := range a.bids {
		if b.State == models.BidBidding {
			b.State = models.BidPendingSelection
			b.UpdatedAt = time.Now().UTC()
		}
	}
	a.setState(models.AuctionSelection)
	a.emit(events.TypeBiddingEnded, events.StateChanged{State: a.state})
	return nil
}

// Cancel aborts the auction from BIDDING or SELECTION and refunds every
// bidder in full. Later phases are irreversible.
func (a *Auction) Cancel(caller identity.Address) error {
	a.mu.Lock()
	defer a.mu.Unlock()

	if caller != a.admin && caller != a.client {
		return ErrNotAdminOrClient
	}
	if a.state != models.AuctionBidding && a.state != models.AuctionSelection {
		return ErrNotBiddingOrSelection
	}

	for _, addr := range a.order {
		b := a.bids[addr]
		if b.Remainder.IsPositive() {
			if err := a.asset.Transfer(a.escrow, b.Bidder, b.Remainder); err != nil {
				return err
			}
			a.escrowed = a.escrowed.Sub(b.Remainder)
			b.Remainder = decimal.Zero
		}
		if b.State != models.BidCancelled {
			b.State = models.BidCancelled
			b.UpdatedAt = time.Now().UTC()
		}
	}
	a.setState(models.AuctionCancelled)
	a.emit(events.TypeAuctionCancelled, events.StateChanged{State: a.state})
	return nil
}

func (a *Auction) setState(s models.AuctionState) {
	a.state = s
	a.updatedAt = time.Now().UTC()
}

func (a *Auction) emit(t events.Type, payload any) {
	if a.sink == nil {
		return
	}
	a.sink.Publish(events.Event{
		AuctionID: a.id,
		Type:      t,
		At:        time.Now().UTC(),
		Payload:   payload,
	})
}

// bidFor returns the bidder's record, creating and registering it on first
// contact. Insertion order doubles as arrival order.
func (a *Auction) bidFor(bidder identity.Address, kind models.BidKind) *models.Bid {
	if b, ok := a.bids[bidder]; ok {
		return b
	}
	now := time.Now().UTC()
	b := &models.Bid{
		Bidder:    bidder,
		Total:     decimal.Zero,
		Remainder: decimal.Zero,
		Kind:      kind,
		State:     models.BidBidding,
		PlacedAt:  now,
		UpdatedAt: now,
	}
	a.bids[bidder] = b
	a.order = append(a.order, bidder)
	return b
}

// refundPending returns escrow to every bid still awaiting selection and
// marks it REFUNDED. Retracted bids keep their CANCELLED status but any
// escrow they still hold goes back too. Used by the explicit EndSelection and
// by the quota-filled auto close; both must land on identical accounting.
func (a *Auction) refundPending() error {
	for _, addr := range a.order {
		b := a.bids[addr]
		switch b.State {
		case models.BidBidding, models.BidPendingSelection, models.BidCancelled:
		default:
			continue
		}
		if b.Remainder.IsPositive() {
			if err := a.asset.Transfer(a.escrow, b.Bidder, b.Remainder); err != nil {
				return err
			}
			a.escrowed = a.escrowed.Sub(b.Remainder)
			b.Remainder = decimal.Zero
		}
		if b.State != models.BidCancelled {
			b.State = models.BidRefunded
		}
		b.UpdatedAt = time.Now().UTC()
	}
	return nil
}

// enterVerification sweeps unselected bids and moves to VERIFICATION. A
// quota of zero-value selections completes immediately.
func (a *Auction) enterVerification() error {
	if err := a.refundPending(); err != nil {
		return err
	}
	a.setState(models.AuctionVerification)
	a.maybeComplete()
	return nil
}

// maybeComplete derives completion from the remainder sum: once no selected
// bid holds escrow, the auction is COMPLETED. Checked, never scheduled.
func (a *Auction) maybeComplete() {
	if a.state != models.AuctionVerification {
		return
	}
	for _, b := range a.bids {
		if b.State == models.BidSelected && b.Remainder.IsPositive() {
			return
		}
	}
	for _, b := range a.bids {
		if b.State == models.BidSelected {
			b.State = models.BidPaid
			b.UpdatedAt = time.Now().UTC()
		}
	}
	a.setState(models.AuctionCompleted)
	a.emit(events.TypeAuctionCompleted, events.StateChanged{State: a.state})
}
