// Package offer implements the offer/acceptance front-end: providers publish
// standing offers, a client accepts one against an auction, and the book
// places the pre-negotiated bid through the engine's restricted entry point.
package offer

import (
	"errors"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/starboard-ventures/BDX-auction/internal/auction"
	"github.com/starboard-ventures/BDX-auction/internal/identity"
	"github.com/starboard-ventures/BDX-auction/internal/models"
)

var (
	ErrOfferNotFound = errors.New("offer not found")
	ErrOfferNotOpen  = errors.New("offer not open")
	ErrNotProvider   = errors.New("txn sender not offer provider")
	ErrNotClient     = errors.New("txn sender not auction client")
	ErrBadOfferTerms = errors.New("offer terms invalid")
)

// Book holds provider offers. Its registered caller identity is what the
// engine's OfferBid gate checks.
type Book struct {
	mu     sync.Mutex
	caller identity.Address
	offers map[string]*models.Offer
	order  []string
}

func NewBook(caller identity.Address) *Book {
	return &Book{caller: caller, offers: make(map[string]*models.Offer)}
}

// Caller is the identity this book presents to the engine.
func (b *Book) Caller() identity.Address { return b.caller }

func (b *Book) Create(provider identity.Address, totalPrice decimal.Decimal, totalSize int64, copies int) (models.Offer, error) {
	if provider.IsZero() {
		return models.Offer{}, ErrBadOfferTerms
	}
	if !totalPrice.IsPositive() || totalSize <= 0 || copies <= 0 {
		return models.Offer{}, ErrBadOfferTerms
	}

	b.mu.Lock()
	defer b.mu.Unlock()
	o := &models.Offer{
		ID:         uuid.NewString(),
		Provider:   provider,
		TotalPrice: totalPrice,
		TotalSize:  totalSize,
		Copies:     copies,
		State:      models.OfferOpen,
		CreatedAt:  time.Now().UTC(),
	}
	b.offers[o.ID] = o
	b.order = append(b.order, o.ID)
	return *o, nil
}

func (b *Book) Get(id string) (models.Offer, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	o, ok := b.offers[id]
	if !ok {
		return models.Offer{}, ErrOfferNotFound
	}
	return *o, nil
}

func (b *Book) List() []models.Offer {
	b.mu.Lock()
	defer b.mu.Unlock()
	out := make([]models.Offer, 0, len(b.order))
	for _, id := range b.order {
		out = append(out, *b.offers[id])
	}
	return out
}

// Cancel withdraws an open offer. Only the provider may cancel.
func (b *Book) Cancel(caller identity.Address, id string) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	o, ok := b.offers[id]
	if !ok {
		return ErrOfferNotFound
	}
	if caller != o.Provider {
		return ErrNotProvider
	}
	if o.State != models.OfferOpen {
		return ErrOfferNotOpen
	}
	o.State = models.OfferCancelled
	return nil
}

// Accept lets the auction's client take an open offer. The offer's total
// price is pro-rated to the auction's quantity and pulled from the provider
// through the engine's OfferBid entry point. The offer is claimed before the
// engine call so a concurrent Accept cannot pass the OPEN check too; a
// failed placement releases the claim.
func (b *Book) Accept(caller identity.Address, a *auction.Auction, offerID string) (models.Bid, error) {
	view := a.Snapshot()
	if caller != view.Client {
		return models.Bid{}, ErrNotClient
	}

	b.mu.Lock()
	o, ok := b.offers[offerID]
	if !ok {
		b.mu.Unlock()
		return models.Bid{}, ErrOfferNotFound
	}
	if o.State != models.OfferOpen {
		b.mu.Unlock()
		return models.Bid{}, ErrOfferNotOpen
	}
	o.State = models.OfferAccepted
	provider := o.Provider
	amount := ProRate(o.TotalPrice, o.TotalSize, view.Quantity)
	b.mu.Unlock()

	bid, err := a.OfferBid(b.caller, provider, amount)
	if err != nil {
		b.mu.Lock()
		o.State = models.OfferOpen
		b.mu.Unlock()
		return models.Bid{}, err
	}
	return bid, nil
}

// ProRate scales an offer's total price to the requested quantity.
func ProRate(totalPrice decimal.Decimal, totalSize, quantity int64) decimal.Decimal {
	if totalSize <= 0 {
		return decimal.Zero
	}
	return totalPrice.
		Mul(decimal.NewFromInt(quantity)).
		DivRound(decimal.NewFromInt(totalSize), 18)
}
