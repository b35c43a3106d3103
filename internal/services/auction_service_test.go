package services

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/peterldowns/testy/assert"
	"github.com/peterldowns/testy/check"
	"github.com/shopspring/decimal"

	"github.com/starboard-ventures/BDX-auction/internal/auction"
	"github.com/starboard-ventures/BDX-auction/internal/events"
	"github.com/starboard-ventures/BDX-auction/internal/identity"
	"github.com/starboard-ventures/BDX-auction/internal/ledger"
	"github.com/starboard-ventures/BDX-auction/internal/models"
	"github.com/starboard-ventures/BDX-auction/internal/offer"
)

func addr(t *testing.T, seed string) identity.Address {
	t.Helper()
	a, err := identity.FromKey(identity.DefaultHRP, []byte(seed))
	assert.NoError(t, err)
	return a
}

func d(v int64) decimal.Decimal { return decimal.NewFromInt(v) }

func newService(t *testing.T) (*AuctionService, *ledger.Ledger) {
	t.Helper()
	treasury := addr(t, "treasury")
	l := ledger.New("FIL", treasury, d(100_000))
	for _, seed := range []string{"sp1", "sp2", "provider"} {
		assert.NoError(t, l.Transfer(treasury, addr(t, seed), d(1000)))
	}
	svc := &AuctionService{
		Registry:     auction.NewRegistry(),
		Asset:        l,
		Book:         offer.NewBook(addr(t, "offer-book")),
		Hub:          events.NewHub(64),
		DefaultAdmin: addr(t, "admin"),
	}
	return svc, l
}

func TestCreateAuction_DefaultAdmin(t *testing.T) {
	svc, _ := newService(t)
	ctx := context.Background()

	view, err := svc.CreateAuction(ctx, CreateAuctionParams{
		Client:    addr(t, "client"),
		UnitPrice: d(1),
		Quantity:  3,
		Quota:     1,
	})
	assert.NoError(t, err)
	check.Equal(t, svc.DefaultAdmin, view.Admin)
	check.Equal(t, models.AuctionBidding, view.State)

	got, err := svc.GetAuction(ctx, view.ID)
	assert.NoError(t, err)
	check.Equal(t, view.ID, got.ID)

	list := svc.ListAuctions(ctx)
	assert.Equal(t, 1, len(list))

	_, err = svc.GetAuction(ctx, "missing")
	check.True(t, errors.Is(err, auction.ErrAuctionNotFound))
}

func TestServiceFullFlow(t *testing.T) {
	svc, l := newService(t)
	ctx := context.Background()
	admin := svc.DefaultAdmin
	client := addr(t, "client")
	sp1 := addr(t, "sp1")

	view, err := svc.CreateAuction(ctx, CreateAuctionParams{
		Client:    client,
		UnitPrice: d(1),
		Quantity:  3,
		Quota:     1,
	})
	assert.NoError(t, err)

	a, err := svc.Registry.Get(view.ID)
	assert.NoError(t, err)
	assert.NoError(t, l.Approve(sp1, a.EscrowAccount(), d(1000)))

	ch, cancel := svc.Hub.Subscribe()
	defer cancel()

	bid, err := svc.PlaceBid(ctx, view.ID, sp1, d(3), models.BidKindBid)
	assert.NoError(t, err)
	check.Equal(t, "3", bid.Total.String())

	// Engine events reach hub subscribers.
	e := <-ch
	check.Equal(t, events.TypeBidPlaced, e.Type)
	check.Equal(t, view.ID, e.AuctionID)

	_, err = svc.EndBidding(ctx, view.ID, admin)
	assert.NoError(t, err)
	bid, err = svc.SelectBid(ctx, view.ID, client, sp1)
	assert.NoError(t, err)
	check.Equal(t, models.BidSelected, bid.State)

	bid, err = svc.ConfirmDeal(ctx, view.ID, admin, sp1, d(3))
	assert.NoError(t, err)
	check.Equal(t, models.BidPaid, bid.State)

	final, err := svc.GetAuction(ctx, view.ID)
	assert.NoError(t, err)
	check.Equal(t, models.AuctionCompleted, final.State)
	check.Equal(t, "3", l.BalanceOf(client).String())
}

func TestAcceptOffer(t *testing.T) {
	svc, l := newService(t)
	ctx := context.Background()
	client := addr(t, "client")
	provider := addr(t, "provider")

	view, err := svc.CreateAuction(ctx, CreateAuctionParams{
		Client:     client,
		UnitPrice:  d(1),
		Quantity:   100_000,
		FixedPrice: d(200),
		Quota:      1,
		Kind:       models.KindBoth,
	})
	assert.NoError(t, err)

	a, err := svc.Registry.Get(view.ID)
	assert.NoError(t, err)
	assert.NoError(t, l.Approve(provider, a.EscrowAccount(), d(1000)))

	o, err := svc.Book.Create(provider, d(1000), 500_000, 3)
	assert.NoError(t, err)

	bid, err := svc.AcceptOffer(ctx, view.ID, o.ID, client)
	assert.NoError(t, err)
	check.Equal(t, "200", bid.Total.String())
	check.Equal(t, models.BidSelected, bid.State)

	final, err := svc.GetAuction(ctx, view.ID)
	assert.NoError(t, err)
	check.Equal(t, models.AuctionVerification, final.State)
}

func TestCloseExpired(t *testing.T) {
	svc, l := newService(t)
	ctx := context.Background()
	client := addr(t, "client")
	sp1 := addr(t, "sp1")
	now := time.Now().UTC()

	expired, err := svc.CreateAuction(ctx, CreateAuctionParams{
		Client:    client,
		UnitPrice: d(1),
		Quantity:  1,
		Quota:     1,
		Deadline:  now.Add(-time.Minute),
	})
	assert.NoError(t, err)

	open, err := svc.CreateAuction(ctx, CreateAuctionParams{
		Client:    client,
		UnitPrice: d(1),
		Quantity:  1,
		Quota:     1,
		Deadline:  now.Add(time.Hour),
	})
	assert.NoError(t, err)

	// No deadline at all: the sweeper must leave it alone.
	untimed, err := svc.CreateAuction(ctx, CreateAuctionParams{
		Client:    client,
		UnitPrice: d(1),
		Quantity:  1,
		Quota:     1,
	})
	assert.NoError(t, err)

	a, err := svc.Registry.Get(expired.ID)
	assert.NoError(t, err)
	assert.NoError(t, l.Approve(sp1, a.EscrowAccount(), d(1000)))
	_, err = svc.PlaceBid(ctx, expired.ID, sp1, d(5), models.BidKindBid)
	assert.NoError(t, err)

	check.Equal(t, 1, svc.CloseExpired(ctx, now))

	got, err := svc.GetAuction(ctx, expired.ID)
	assert.NoError(t, err)
	check.Equal(t, models.AuctionSelection, got.State)

	got, err = svc.GetAuction(ctx, open.ID)
	assert.NoError(t, err)
	check.Equal(t, models.AuctionBidding, got.State)
	got, err = svc.GetAuction(ctx, untimed.ID)
	assert.NoError(t, err)
	check.Equal(t, models.AuctionBidding, got.State)

	// A second sweep has nothing left to close.
	check.Equal(t, 0, svc.CloseExpired(ctx, now))
}
