package auction

import "errors"

// Failure taxonomy: authorization, state, funds, capacity. Funds errors from
// the asset ledger (insufficient balance/allowance) pass through unchanged.
var (
	// authorization
	ErrNotAdmin         = errors.New("txn sender not admin")
	ErrNotAdminOrClient = errors.New("txn sender not admin or client")
	ErrNotAdminOrBidder = errors.New("txn sender not admin or bidder")
	ErrInvalidCaller    = errors.New("invalid caller")

	// state
	ErrAuctionNotBidding      = errors.New("auction not BIDDING")
	ErrAuctionNotSelection    = errors.New("auction not SELECTION")
	ErrAuctionNotVerification = errors.New("auction not VERIFICATION")
	ErrNotBiddingOrSelection  = errors.New("auction not BIDDING or SELECTION")
	ErrBidNotPendingSelection = errors.New("bid not PENDING_SELECTION")
	ErrBidAlreadySelected     = errors.New("bid already selected")
	ErrDealNotSelected        = errors.New("deal not selected")

	// funds
	ErrBidKindNotAllowed      = errors.New("bid kind not allowed")
	ErrBidBelowMinPrice       = errors.New("bid amount below unit price")
	ErrPriceMismatch          = errors.New("total price not right")
	ErrAmountNotPositive      = errors.New("amount not positive")
	ErrConfirmNotPositive     = errors.New("confirm amount not positive")
	ErrInsufficientRemainder  = errors.New("confirm amount exceeds remainder")
	ErrRefundNotPositive      = errors.New("refund amount not positive")
	ErrRefundExceedsRemainder = errors.New("refund amount exceeds remainder")

	// capacity
	ErrAllCopiesSelected = errors.New("all copies selected")

	ErrAuctionNotFound = errors.New("auction not found")
)
