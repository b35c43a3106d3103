package auction

import (
	"time"

	"github.com/shopspring/decimal"

	"github.com/starboard-ventures/BDX-auction/internal/events"
	"github.com/starboard-ventures/BDX-auction/internal/identity"
	"github.com/starboard-ventures/BDX-auction/internal/models"
)

// SetBidDealSuccess releases confirm from the bidder's escrowed remainder to
// the client. Confirmations may come in any number of installments; the bid
// settles as PAID once its remainder reaches zero.
func (a *Auction) SetBidDealSuccess(caller, bidder identity.Address, confirm decimal.Decimal) (models.Bid, error) {
	a.mu.Lock()
	defer a.mu.Unlock()

	if caller != a.admin && caller != bidder {
		return models.Bid{}, ErrNotAdminOrBidder
	}
	if a.state != models.AuctionVerification {
		return models.Bid{}, ErrAuctionNotVerification
	}
	b, ok := a.bids[bidder]
	if !ok || b.State != models.BidSelected {
		return models.Bid{}, ErrDealNotSelected
	}
	if !confirm.IsPositive() {
		return models.Bid{}, ErrConfirmNotPositive
	}
	if confirm.GreaterThan(b.Remainder) {
		return models.Bid{}, ErrInsufficientRemainder
	}

	if err := a.asset.Transfer(a.escrow, a.client, confirm); err != nil {
		return models.Bid{}, err
	}
	b.Remainder = b.Remainder.Sub(confirm)
	a.escrowed = a.escrowed.Sub(confirm)
	settled := b.Remainder.IsZero()
	if settled {
		b.State = models.BidPaid
	}
	b.UpdatedAt = time.Now().UTC()

	a.emit(events.TypeDealPaid, events.DealPaid{
		Bidder: bidder, Amount: confirm, FullySettled: settled,
	})
	a.maybeComplete()
	return *b, nil
}

// SetBidDealRefund closes out a selected bid: refund goes back to the
// bidder, the rest of the remainder is paid to the client as earned, and the
// bid settles as REFUND_SETTLED.
func (a *Auction) SetBidDealRefund(caller, bidder identity.Address, refund decimal.Decimal) (models.Bid, error) {
	a.mu.Lock()
	defer a.mu.Unlock()

	if caller != a.admin {
		return models.Bid{}, ErrNotAdmin
	}
	if a.state != models.AuctionVerification {
		return models.Bid{}, ErrAuctionNotVerification
	}
	b, ok := a.bids[bidder]
	if !ok || b.State != models.BidSelected {
		return models.Bid{}, ErrDealNotSelected
	}
	if !refund.IsPositive() {
		return models.Bid{}, ErrRefundNotPositive
	}
	if refund.GreaterThan(b.Remainder) {
		return models.Bid{}, ErrRefundExceedsRemainder
	}

	payout := b.Remainder.Sub(refund)
	if err := a.asset.Transfer(a.escrow, bidder, refund); err != nil {
		return models.Bid{}, err
	}
	if payout.IsPositive() {
		if err := a.asset.Transfer(a.escrow, a.client, payout); err != nil {
			return models.Bid{}, err
		}
	}
	a.escrowed = a.escrowed.Sub(b.Remainder)
	b.Remainder = decimal.Zero
	b.State = models.BidRefundSettled
	b.UpdatedAt = time.Now().UTC()

	a.emit(events.TypeDealRefunded, events.DealRefunded{
		Bidder: bidder, Refund: refund, Payout: payout,
	})
	a.maybeComplete()
	return *b, nil
}
