package auction

import (
	"time"

	"github.com/shopspring/decimal"

	"github.com/starboard-ventures/BDX-auction/internal/events"
	"github.com/starboard-ventures/BDX-auction/internal/identity"
	"github.com/starboard-ventures/BDX-auction/internal/ledger"
	"github.com/starboard-ventures/BDX-auction/internal/models"
)

// PlaceBid escrows funds for the caller. A zero amount with kind BID is the
// retract signal: it moves nothing and marks any existing bid CANCELLED.
// A BUY_NOW at the exact fixed price is selected instantly and may close the
// auction straight into VERIFICATION.
func (a *Auction) PlaceBid(caller identity.Address, amount decimal.Decimal, kind models.BidKind) (models.Bid, error) {
	a.mu.Lock()
	defer a.mu.Unlock()

	if a.state != models.AuctionBidding {
		return models.Bid{}, ErrAuctionNotBidding
	}
	if !a.kind.Allows(kind) {
		return models.Bid{}, ErrBidKindNotAllowed
	}
	if amount.IsNegative() {
		return models.Bid{}, ErrAmountNotPositive
	}
	// A completed purchase holds its quota slot; it cannot be demoted by a
	// later increment or retract from the same bidder.
	if b, ok := a.bids[caller]; ok && b.State == models.BidSelected {
		return models.Bid{}, ErrBidAlreadySelected
	}

	if kind == models.BidKindBid && amount.IsZero() {
		b := a.bidFor(caller, kind)
		if b.State != models.BidCancelled {
			b.State = models.BidCancelled
			b.UpdatedAt = time.Now().UTC()
		}
		a.emit(events.TypeBidPlaced, events.BidPlaced{
			Bidder: caller, Amount: amount, State: b.State, Kind: kind,
		})
		return *b, nil
	}

	switch kind {
	case models.BidKindBid:
		return a.placeStandardBid(caller, amount)
	default:
		return a.placeBuyNow(caller, amount)
	}
}

func (a *Auction) placeStandardBid(caller identity.Address, amount decimal.Decimal) (models.Bid, error) {
	existing := decimal.Zero
	if b, ok := a.bids[caller]; ok {
		existing = b.Total
	}
	// The floor applies to the first deposit only; later increments grow an
	// already-admitted bid.
	if existing.IsZero() && existing.Add(amount).LessThan(a.unitPrice) {
		return models.Bid{}, ErrBidBelowMinPrice
	}
	if err := a.pullEscrow(caller, amount); err != nil {
		return models.Bid{}, err
	}

	b := a.bidFor(caller, models.BidKindBid)
	b.Total = b.Total.Add(amount)
	b.Remainder = b.Remainder.Add(amount)
	b.Kind = models.BidKindBid
	b.State = models.BidBidding
	b.UpdatedAt = time.Now().UTC()
	a.escrowed = a.escrowed.Add(amount)

	a.emit(events.TypeBidPlaced, events.BidPlaced{
		Bidder: caller, Amount: amount, State: b.State, Kind: b.Kind,
	})
	return *b, nil
}

func (a *Auction) placeBuyNow(caller identity.Address, amount decimal.Decimal) (models.Bid, error) {
	if !amount.Equal(a.fixedPrice) {
		return models.Bid{}, ErrPriceMismatch
	}
	if amount.IsPositive() {
		if err := a.pullEscrow(caller, amount); err != nil {
			return models.Bid{}, err
		}
	}

	b := a.bidFor(caller, models.BidKindBuyNow)
	// An earlier standard bid by the same bidder is superseded: its escrow
	// goes back before the purchase replaces it.
	if b.Remainder.IsPositive() {
		if err := a.asset.Transfer(a.escrow, caller, b.Remainder); err != nil {
			return models.Bid{}, err
		}
		a.escrowed = a.escrowed.Sub(b.Remainder)
	}
	b.Total = amount
	b.Remainder = amount
	b.Kind = models.BidKindBuyNow
	b.State = models.BidSelected
	b.UpdatedAt = time.Now().UTC()
	a.selected++
	a.escrowed = a.escrowed.Add(amount)

	a.emit(events.TypeBidPlaced, events.BidPlaced{
		Bidder: caller, Amount: amount, State: b.State, Kind: b.Kind,
	})

	if a.selected >= a.quota {
		if err := a.enterVerification(); err != nil {
			return models.Bid{}, err
		}
	}
	return *b, nil
}

// OfferBid is the restricted entry point for the offer/acceptance front-end:
// a pre-negotiated purchase placed on behalf of a provider. Only the
// registered offer caller may invoke it.
func (a *Auction) OfferBid(caller, bidder identity.Address, amount decimal.Decimal) (models.Bid, error) {
	a.mu.Lock()
	defer a.mu.Unlock()

	if a.offerCaller.IsZero() || caller != a.offerCaller {
		return models.Bid{}, ErrInvalidCaller
	}
	if a.state != models.AuctionBidding {
		return models.Bid{}, ErrAuctionNotBidding
	}
	if !amount.IsPositive() {
		return models.Bid{}, ErrAmountNotPositive
	}
	if b, ok := a.bids[bidder]; ok && b.State == models.BidSelected {
		return models.Bid{}, ErrBidAlreadySelected
	}
	if err := a.pullEscrow(bidder, amount); err != nil {
		return models.Bid{}, err
	}

	b := a.bidFor(bidder, models.BidKindBuyNow)
	if b.Remainder.IsPositive() {
		if err := a.asset.Transfer(a.escrow, bidder, b.Remainder); err != nil {
			return models.Bid{}, err
		}
		a.escrowed = a.escrowed.Sub(b.Remainder)
	}
	b.Total = amount
	b.Remainder = amount
	b.Kind = models.BidKindBuyNow
	b.State = models.BidSelected
	b.UpdatedAt = time.Now().UTC()
	a.selected++
	a.escrowed = a.escrowed.Add(amount)

	a.emit(events.TypeBidPlaced, events.BidPlaced{
		Bidder: bidder, Amount: amount, State: b.State, Kind: b.Kind,
	})

	if a.selected >= a.quota {
		if err := a.enterVerification(); err != nil {
			return models.Bid{}, err
		}
	}
	return *b, nil
}

// pullEscrow moves amount from the bidder into the auction's escrow account,
// surfacing allowance and balance shortfalls as distinct errors before the
// ledger movement.
func (a *Auction) pullEscrow(bidder identity.Address, amount decimal.Decimal) error {
	if a.asset.Allowance(bidder, a.escrow).LessThan(amount) {
		return ledger.ErrInsufficientAllowance
	}
	if a.asset.BalanceOf(bidder).LessThan(amount) {
		return ledger.ErrInsufficientBalance
	}
	return a.asset.TransferFrom(a.escrow, bidder, a.escrow, amount)
}
