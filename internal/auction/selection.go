package auction

import (
	"time"

	"github.com/starboard-ventures/BDX-auction/internal/events"
	"github.com/starboard-ventures/BDX-auction/internal/identity"
	"github.com/starboard-ventures/BDX-auction/internal/models"
)

// SelectBid marks a pending bid as a winner. Filling the quota closes
// selection: remaining pending bids are refunded and the auction enters
// VERIFICATION.
func (a *Auction) SelectBid(caller, bidder identity.Address) (models.Bid, error) {
	a.mu.Lock()
	defer a.mu.Unlock()

	if caller != a.admin && caller != a.client {
		return models.Bid{}, ErrNotAdminOrClient
	}
	if a.state != models.AuctionSelection {
		return models.Bid{}, ErrAuctionNotSelection
	}
	b, ok := a.bids[bidder]
	if !ok || b.State != models.BidPendingSelection {
		return models.Bid{}, ErrBidNotPendingSelection
	}
	if a.selected >= a.quota {
		return models.Bid{}, ErrAllCopiesSelected
	}

	b.State = models.BidSelected
	b.Remainder = b.Total
	b.UpdatedAt = time.Now().UTC()
	a.selected++

	a.emit(events.TypeBidSelected, events.BidSelected{
		Bidder: bidder, Amount: b.Total, SelectedCount: a.selected,
	})

	if a.selected >= a.quota {
		if err := a.enterVerification(); err != nil {
			return models.Bid{}, err
		}
	}
	return *b, nil
}

// EndSelection resolves the losers: every bid still PENDING_SELECTION is
// refunded in full, then the auction moves to VERIFICATION.
func (a *Auction) EndSelection(caller identity.Address) error {
	a.mu.Lock()
	defer a.mu.Unlock()

	if caller != a.admin && caller != a.client {
		return ErrNotAdminOrClient
	}
	if a.state != models.AuctionSelection {
		return ErrAuctionNotSelection
	}

	if err := a.refundPending(); err != nil {
		return err
	}
	a.setState(models.AuctionVerification)
	a.emit(events.TypeSelectionEnded, events.StateChanged{State: a.state})
	a.maybeComplete()
	return nil
}
