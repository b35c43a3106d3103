package http

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/starboard-ventures/BDX-auction/internal/auction"
	"github.com/starboard-ventures/BDX-auction/internal/ledger"
	"github.com/starboard-ventures/BDX-auction/internal/offer"
)

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}

// writeEngineError maps the engine's failure taxonomy onto HTTP statuses:
// authorization 403, state 409, funds 402/400, capacity 409, unknown 404.
func writeEngineError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, auction.ErrAuctionNotFound),
		errors.Is(err, offer.ErrOfferNotFound):
		writeError(w, http.StatusNotFound, err.Error())
	case errors.Is(err, auction.ErrNotAdmin),
		errors.Is(err, auction.ErrNotAdminOrClient),
		errors.Is(err, auction.ErrNotAdminOrBidder),
		errors.Is(err, auction.ErrInvalidCaller),
		errors.Is(err, offer.ErrNotProvider),
		errors.Is(err, offer.ErrNotClient):
		writeError(w, http.StatusForbidden, err.Error())
	case errors.Is(err, auction.ErrAuctionNotBidding),
		errors.Is(err, auction.ErrAuctionNotSelection),
		errors.Is(err, auction.ErrAuctionNotVerification),
		errors.Is(err, auction.ErrNotBiddingOrSelection),
		errors.Is(err, auction.ErrBidNotPendingSelection),
		errors.Is(err, auction.ErrBidAlreadySelected),
		errors.Is(err, auction.ErrDealNotSelected),
		errors.Is(err, auction.ErrAllCopiesSelected),
		errors.Is(err, offer.ErrOfferNotOpen):
		writeError(w, http.StatusConflict, err.Error())
	case errors.Is(err, ledger.ErrInsufficientBalance),
		errors.Is(err, ledger.ErrInsufficientAllowance):
		writeError(w, http.StatusPaymentRequired, err.Error())
	case errors.Is(err, auction.ErrBidKindNotAllowed),
		errors.Is(err, auction.ErrBidBelowMinPrice),
		errors.Is(err, auction.ErrPriceMismatch),
		errors.Is(err, auction.ErrAmountNotPositive),
		errors.Is(err, auction.ErrConfirmNotPositive),
		errors.Is(err, auction.ErrInsufficientRemainder),
		errors.Is(err, auction.ErrRefundNotPositive),
		errors.Is(err, auction.ErrRefundExceedsRemainder),
		errors.Is(err, offer.ErrBadOfferTerms):
		writeError(w, http.StatusBadRequest, err.Error())
	default:
		writeError(w, http.StatusInternalServerError, err.Error())
	}
}

func cors(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Access-Control-Allow-Origin", "*")
		w.Header().Set("Access-Control-Allow-Methods", "GET, POST, OPTIONS")
		w.Header().Set("Access-Control-Allow-Headers", "Content-Type, X-Account")
		if r.Method == http.MethodOptions {
			w.WriteHeader(http.StatusNoContent)
			return
		}
		next.ServeHTTP(w, r)
	})
}
