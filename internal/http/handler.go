package http

import (
	"context"
	"encoding/json"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/shopspring/decimal"

	"github.com/starboard-ventures/BDX-auction/internal/identity"
	"github.com/starboard-ventures/BDX-auction/internal/models"
	"github.com/starboard-ventures/BDX-auction/internal/services"
	"github.com/starboard-ventures/BDX-auction/internal/store"
)

type Handler struct {
	Auctions *services.AuctionService
	Store    *store.Store
}

func NewHandler(auctions *services.AuctionService, st *store.Store) *Handler {
	return &Handler{Auctions: auctions, Store: st}
}

// caller resolves the acting account from the X-Account header. Identity
// verification is out of scope; the header is trusted as-is.
func caller(r *http.Request) (identity.Address, error) {
	return identity.Parse(r.Header.Get("X-Account"))
}

type createAuctionRequest struct {
	Admin      string `json:"admin,omitempty"`
	Client     string `json:"client"`
	UnitPrice  string `json:"unitPrice"`
	Quantity   int64  `json:"quantity"`
	FixedPrice string `json:"fixedPrice,omitempty"`
	Quota      int    `json:"quota"`
	Deadline   string `json:"deadline,omitempty"`
	Kind       string `json:"kind"`
}

func (h *Handler) CreateAuction(w http.ResponseWriter, r *http.Request) {
	var req createAuctionRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid json body")
		return
	}

	client, err := identity.Parse(req.Client)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid client address")
		return
	}
	var admin identity.Address
	if req.Admin != "" {
		if admin, err = identity.Parse(req.Admin); err != nil {
			writeError(w, http.StatusBadRequest, "invalid admin address")
			return
		}
	}
	unitPrice, err := decimal.NewFromString(req.UnitPrice)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid unit price")
		return
	}
	fixedPrice := decimal.Zero
	if req.FixedPrice != "" {
		if fixedPrice, err = decimal.NewFromString(req.FixedPrice); err != nil {
			writeError(w, http.StatusBadRequest, "invalid fixed price")
			return
		}
	}
	var deadline time.Time
	if req.Deadline != "" {
		if deadline, err = time.Parse(time.RFC3339, req.Deadline); err != nil {
			writeError(w, http.StatusBadRequest, "invalid deadline")
			return
		}
	}

	view, err := h.Auctions.CreateAuction(r.Context(), services.CreateAuctionParams{
		Admin:      admin,
		Client:     client,
		UnitPrice:  unitPrice,
		Quantity:   req.Quantity,
		FixedPrice: fixedPrice,
		Quota:      req.Quota,
		Deadline:   deadline,
		Kind:       models.AuctionKind(req.Kind),
	})
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	writeJSON(w, http.StatusCreated, auctionResponse(view))
}

func (h *Handler) GetAuction(w http.ResponseWriter, r *http.Request) {
	view, err := h.Auctions.GetAuction(r.Context(), chi.URLParam(r, "auctionId"))
	if err != nil {
		writeEngineError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, auctionResponse(view))
}

func (h *Handler) ListAuctions(w http.ResponseWriter, r *http.Request) {
	views := h.Auctions.ListAuctions(r.Context())
	out := make([]map[string]any, 0, len(views))
	for _, v := range views {
		out = append(out, auctionResponse(v))
	}
	writeJSON(w, http.StatusOK, out)
}

type placeBidRequest struct {
	Amount string `json:"amount"`
	Kind   string `json:"kind"`
}

func (h *Handler) PlaceBid(w http.ResponseWriter, r *http.Request) {
	acct, err := caller(r)
	if err != nil {
		writeError(w, http.StatusUnauthorized, "missing or invalid account")
		return
	}
	var req placeBidRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid json body")
		return
	}
	amount, err := decimal.NewFromString(req.Amount)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid amount")
		return
	}
	kind := models.BidKind(req.Kind)
	if kind == "" {
		kind = models.BidKindBid
	}

	bid, err := h.Auctions.PlaceBid(r.Context(), chi.URLParam(r, "auctionId"), acct, amount, kind)
	if err != nil {
		writeEngineError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, bidResponse(bid))
}

func (h *Handler) EndBidding(w http.ResponseWriter, r *http.Request) {
	h.transition(w, r, h.Auctions.EndBidding)
}

func (h *Handler) EndSelection(w http.ResponseWriter, r *http.Request) {
	h.transition(w, r, h.Auctions.EndSelection)
}

func (h *Handler) CancelAuction(w http.ResponseWriter, r *http.Request) {
	h.transition(w, r, h.Auctions.CancelAuction)
}

func (h *Handler) transition(w http.ResponseWriter, r *http.Request, op func(context.Context, string, identity.Address) (models.AuctionView, error)) {
	acct, err := caller(r)
	if err != nil {
		writeError(w, http.StatusUnauthorized, "missing or invalid account")
		return
	}
	view, err := op(r.Context(), chi.URLParam(r, "auctionId"), acct)
	if err != nil {
		writeEngineError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, auctionResponse(view))
}

func (h *Handler) SelectBid(w http.ResponseWriter, r *http.Request) {
	acct, err := caller(r)
	if err != nil {
		writeError(w, http.StatusUnauthorized, "missing or invalid account")
		return
	}
	bidder, err := identity.Parse(chi.URLParam(r, "bidder"))
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid bidder address")
		return
	}
	bid, err := h.Auctions.SelectBid(r.Context(), chi.URLParam(r, "auctionId"), acct, bidder)
	if err != nil {
		writeEngineError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, bidResponse(bid))
}

type settlementRequest struct {
	Amount string `json:"amount"`
}

func (h *Handler) ConfirmDeal(w http.ResponseWriter, r *http.Request) {
	h.settle(w, r, h.Auctions.ConfirmDeal)
}

func (h *Handler) RefundDeal(w http.ResponseWriter, r *http.Request) {
	h.settle(w, r, h.Auctions.RefundDeal)
}

func (h *Handler) settle(w http.ResponseWriter, r *http.Request, op func(context.Context, string, identity.Address, identity.Address, decimal.Decimal) (models.Bid, error)) {
	acct, err := caller(r)
	if err != nil {
		writeError(w, http.StatusUnauthorized, "missing or invalid account")
		return
	}
	bidder, err := identity.Parse(chi.URLParam(r, "bidder"))
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid bidder address")
		return
	}
	var req settlementRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid json body")
		return
	}
	amount, err := decimal.NewFromString(req.Amount)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid amount")
		return
	}
	bid, err := op(r.Context(), chi.URLParam(r, "auctionId"), acct, bidder, amount)
	if err != nil {
		writeEngineError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, bidResponse(bid))
}

func (h *Handler) ListAuctionEvents(w http.ResponseWriter, r *http.Request) {
	if h.Store == nil {
		writeError(w, http.StatusNotImplemented, "event log not configured")
		return
	}
	recs, err := h.Store.ListEvents(r.Context(), chi.URLParam(r, "auctionId"))
	if err != nil {
		writeError(w, http.StatusInternalServerError, "list events failed")
		return
	}
	writeJSON(w, http.StatusOK, recs)
}

type createOfferRequest struct {
	TotalPrice string `json:"totalPrice"`
	TotalSize  int64  `json:"totalSize"`
	Copies     int    `json:"copies"`
}

func (h *Handler) CreateOffer(w http.ResponseWriter, r *http.Request) {
	acct, err := caller(r)
	if err != nil {
		writeError(w, http.StatusUnauthorized, "missing or invalid account")
		return
	}
	var req createOfferRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid json body")
		return
	}
	price, err := decimal.NewFromString(req.TotalPrice)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid total price")
		return
	}
	o, err := h.Auctions.Book.Create(acct, price, req.TotalSize, req.Copies)
	if err != nil {
		writeEngineError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, offerResponse(o))
}

func (h *Handler) ListOffers(w http.ResponseWriter, r *http.Request) {
	offers := h.Auctions.Book.List()
	out := make([]map[string]any, 0, len(offers))
	for _, o := range offers {
		out = append(out, offerResponse(o))
	}
	writeJSON(w, http.StatusOK, out)
}

func (h *Handler) CancelOffer(w http.ResponseWriter, r *http.Request) {
	acct, err := caller(r)
	if err != nil {
		writeError(w, http.StatusUnauthorized, "missing or invalid account")
		return
	}
	if err := h.Auctions.Book.Cancel(acct, chi.URLParam(r, "offerId")); err != nil {
		writeEngineError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "cancelled"})
}

func (h *Handler) AcceptOffer(w http.ResponseWriter, r *http.Request) {
	acct, err := caller(r)
	if err != nil {
		writeError(w, http.StatusUnauthorized, "missing or invalid account")
		return
	}
	bid, err := h.Auctions.AcceptOffer(r.Context(), chi.URLParam(r, "auctionId"), chi.URLParam(r, "offerId"), acct)
	if err != nil {
		writeEngineError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, bidResponse(bid))
}

func auctionResponse(v models.AuctionView) map[string]any {
	bids := make([]map[string]any, 0, len(v.Bids))
	for _, b := range v.Bids {
		bids = append(bids, bidResponse(b))
	}
	resp := map[string]any{
		"auctionId":     v.ID,
		"state":         v.State,
		"kind":          v.Kind,
		"admin":         v.Admin,
		"client":        v.Client,
		"unitPrice":     v.UnitPrice.String(),
		"quantity":      v.Quantity,
		"fixedPrice":    v.FixedPrice.String(),
		"quota":         v.Quota,
		"selectedCount": v.SelectedCount,
		"escrowBalance": v.EscrowBalance.String(),
		"createdAt":     v.CreatedAt.Format(time.RFC3339),
		"updatedAt":     v.UpdatedAt.Format(time.RFC3339),
		"bids":          bids,
	}
	if !v.Deadline.IsZero() {
		resp["deadline"] = v.Deadline.Format(time.RFC3339)
	}
	return resp
}

func bidResponse(b models.Bid) map[string]any {
	return map[string]any{
		"bidder":    b.Bidder,
		"total":     b.Total.String(),
		"remainder": b.Remainder.String(),
		"kind":      b.Kind,
		"state":     b.State,
	}
}

func offerResponse(o models.Offer) map[string]any {
	return map[string]any{
		"offerId":    o.ID,
		"provider":   o.Provider,
		"totalPrice": o.TotalPrice.String(),
		"totalSize":  o.TotalSize,
		"copies":     o.Copies,
		"state":      o.State,
		"createdAt":  o.CreatedAt.Format(time.RFC3339),
	}
}
