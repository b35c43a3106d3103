package auction

import "sync"

// Registry indexes live auction instances by ID. Instances serialize their
// own operations; the registry only guards the index.
type Registry struct {
	mu       sync.RWMutex
	auctions map[string]*Auction
	order    []string
}

func NewRegistry() *Registry {
	return &Registry{auctions: make(map[string]*Auction)}
}

func (r *Registry) Add(a *Auction) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.auctions[a.ID()]; ok {
		return
	}
	r.auctions[a.ID()] = a
	r.order = append(r.order, a.ID())
}

func (r *Registry) Get(id string) (*Auction, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	a, ok := r.auctions[id]
	if !ok {
		return nil, ErrAuctionNotFound
	}
	return a, nil
}

// List returns all instances in creation order.
func (r *Registry) List() []*Auction {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]*Auction, 0, len(r.order))
	for _, id := range r.order {
		out = append(out, r.auctions[id])
	}
	return out
}
