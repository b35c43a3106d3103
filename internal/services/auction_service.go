package services

import (
	"context"
	"log"
	"time"

	"github.com/shopspring/decimal"

	"github.com/starboard-ventures/BDX-auction/internal/auction"
	"github.com/starboard-ventures/BDX-auction/internal/events"
	"github.com/starboard-ventures/BDX-auction/internal/identity"
	"github.com/starboard-ventures/BDX-auction/internal/ledger"
	"github.com/starboard-ventures/BDX-auction/internal/models"
	"github.com/starboard-ventures/BDX-auction/internal/offer"
	"github.com/starboard-ventures/BDX-auction/internal/store"
)

// AuctionService wires the settlement engine to the ledger, offer book,
// event hub and audit store. Store is optional; without it the service runs
// purely in memory.
type AuctionService struct {
	Registry *auction.Registry
	Asset    ledger.AssetLedger
	Book     *offer.Book
	Store    *store.Store
	Hub      *events.Hub

	// DefaultAdmin is used when a creation request names no admin.
	DefaultAdmin identity.Address
}

type CreateAuctionParams struct {
	Admin      identity.Address
	Client     identity.Address
	UnitPrice  decimal.Decimal
	Quantity   int64
	FixedPrice decimal.Decimal
	Quota      int
	Deadline   time.Time
	Kind       models.AuctionKind
}

func (s *AuctionService) CreateAuction(ctx context.Context, p CreateAuctionParams) (models.AuctionView, error) {
	admin := p.Admin
	if admin.IsZero() {
		admin = s.DefaultAdmin
	}
	var offerCaller identity.Address
	if s.Book != nil {
		offerCaller = s.Book.Caller()
	}

	a, err := auction.New(auction.Params{
		Asset:       s.Asset,
		Admin:       admin,
		Client:      p.Client,
		UnitPrice:   p.UnitPrice,
		Quantity:    p.Quantity,
		FixedPrice:  p.FixedPrice,
		Quota:       p.Quota,
		Deadline:    p.Deadline,
		Kind:        p.Kind,
		OfferCaller: offerCaller,
		Sink:        s.sink(),
	})
	if err != nil {
		return models.AuctionView{}, err
	}
	s.Registry.Add(a)

	view := a.Snapshot()
	s.persist(ctx, view)
	return view, nil
}

func (s *AuctionService) GetAuction(ctx context.Context, id string) (models.AuctionView, error) {
	a, err := s.Registry.Get(id)
	if err != nil {
		return models.AuctionView{}, err
	}
	return a.Snapshot(), nil
}

func (s *AuctionService) ListAuctions(ctx context.Context) []models.AuctionView {
	instances := s.Registry.List()
	out := make([]models.AuctionView, 0, len(instances))
	for _, a := range instances {
		out = append(out, a.Snapshot())
	}
	return out
}

func (s *AuctionService) PlaceBid(ctx context.Context, id string, caller identity.Address, amount decimal.Decimal, kind models.BidKind) (models.Bid, error) {
	a, err := s.Registry.Get(id)
	if err != nil {
		return models.Bid{}, err
	}
	bid, err := a.PlaceBid(caller, amount, kind)
	if err != nil {
		return models.Bid{}, err
	}
	s.persist(ctx, a.Snapshot())
	return bid, nil
}

func (s *AuctionService) EndBidding(ctx context.Context, id string, caller identity.Address) (models.AuctionView, error) {
	a, err := s.Registry.Get(id)
	if err != nil {
		return models.AuctionView{}, err
	}
	if err := a.EndBidding(caller); err != nil {
		return models.AuctionView{}, err
	}
	view := a.Snapshot()
	s.persist(ctx, view)
	return view, nil
}

func (s *AuctionService) SelectBid(ctx context.Context, id string, caller, bidder identity.Address) (models.Bid, error) {
	a, err := s.Registry.Get(id)
	if err != nil {
		return models.Bid{}, err
	}
	bid, err := a.SelectBid(caller, bidder)
	if err != nil {
		return models.Bid{}, err
	}
	s.persist(ctx, a.Snapshot())
	return bid, nil
}

func (s *AuctionService) EndSelection(ctx context.Context, id string, caller identity.Address) (models.AuctionView, error) {
	a, err := s.Registry.Get(id)
	if err != nil {
		return models.AuctionView{}, err
	}
	if err := a.EndSelection(caller); err != nil {
		return models.AuctionView{}, err
	}
	view := a.Snapshot()
	s.persist(ctx, view)
	return view, nil
}

func (s *AuctionService) ConfirmDeal(ctx context.Context, id string, caller, bidder identity.Address, amount decimal.Decimal) (models.Bid, error) {
	a, err := s.Registry.Get(id)
	if err != nil {
		return models.Bid{}, err
	}
	bid, err := a.SetBidDealSuccess(caller, bidder, amount)
	if err != nil {
		return models.Bid{}, err
	}
	s.persist(ctx, a.Snapshot())
	return bid, nil
}

func (s *AuctionService) RefundDeal(ctx context.Context, id string, caller, bidder identity.Address, amount decimal.Decimal) (models.Bid, error) {
	a, err := s.Registry.Get(id)
	if err != nil {
		return models.Bid{}, err
	}
	bid, err := a.SetBidDealRefund(caller, bidder, amount)
	if err != nil {
		return models.Bid{}, err
	}
	s.persist(ctx, a.Snapshot())
	return bid, nil
}

func (s *AuctionService) CancelAuction(ctx context.Context, id string, caller identity.Address) (models.AuctionView, error) {
	a, err := s.Registry.Get(id)
	if err != nil {
		return models.AuctionView{}, err
	}
	if err := a.Cancel(caller); err != nil {
		return models.AuctionView{}, err
	}
	view := a.Snapshot()
	s.persist(ctx, view)
	return view, nil
}

func (s *AuctionService) AcceptOffer(ctx context.Context, auctionID, offerID string, caller identity.Address) (models.Bid, error) {
	a, err := s.Registry.Get(auctionID)
	if err != nil {
		return models.Bid{}, err
	}
	bid, err := s.Book.Accept(caller, a, offerID)
	if err != nil {
		return models.Bid{}, err
	}
	s.persist(ctx, a.Snapshot())
	return bid, nil
}

// CloseExpired ends bidding on every auction whose deadline has elapsed.
// Invoked by the deadline worker; acts with each auction's admin identity.
func (s *AuctionService) CloseExpired(ctx context.Context, now time.Time) int {
	closed := 0
	for _, a := range s.Registry.List() {
		deadline := a.Deadline()
		if deadline.IsZero() || now.Before(deadline) {
			continue
		}
		if a.State() != models.AuctionBidding {
			continue
		}
		if err := a.EndBidding(a.Admin()); err != nil {
			log.Printf("close expired auction %s failed: %v", a.ID(), err)
			continue
		}
		s.persist(ctx, a.Snapshot())
		closed++
	}
	return closed
}

// sink fans engine events to the hub and the audit log.
func (s *AuctionService) sink() events.Sink {
	return events.SinkFunc(func(ev events.Event) {
		if s.Hub != nil {
			s.Hub.Publish(ev)
		}
		if s.Store != nil {
			ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			if err := s.Store.InsertEvent(ctx, ev); err != nil {
				log.Printf("event insert failed auction=%s type=%s: %v", ev.AuctionID, ev.Type, err)
			}
		}
	})
}

func (s *AuctionService) persist(ctx context.Context, view models.AuctionView) {
	if s.Store == nil {
		return
	}
	if err := s.Store.SaveSnapshot(ctx, view); err != nil {
		log.Printf("snapshot save failed auction=%s: %v", view.ID, err)
	}
}
