package http

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/peterldowns/testy/assert"
	"github.com/peterldowns/testy/check"
	"github.com/shopspring/decimal"

	"github.com/starboard-ventures/BDX-auction/internal/auction"
	"github.com/starboard-ventures/BDX-auction/internal/events"
	"github.com/starboard-ventures/BDX-auction/internal/identity"
	"github.com/starboard-ventures/BDX-auction/internal/ledger"
	"github.com/starboard-ventures/BDX-auction/internal/offer"
	"github.com/starboard-ventures/BDX-auction/internal/services"
)

type testEnv struct {
	srv    *Server
	asset  *ledger.Ledger
	svc    *services.AuctionService
	admin  identity.Address
	client identity.Address
	sp1    identity.Address
}

func newEnv(t *testing.T) *testEnv {
	t.Helper()
	addr := func(seed string) identity.Address {
		a, err := identity.FromKey(identity.DefaultHRP, []byte(seed))
		assert.NoError(t, err)
		return a
	}

	treasury := addr("treasury")
	admin := addr("admin")
	client := addr("client")
	sp1 := addr("sp1")

	l := ledger.New("FIL", treasury, decimal.NewFromInt(100_000))
	assert.NoError(t, l.Transfer(treasury, sp1, decimal.NewFromInt(1000)))

	svc := &services.AuctionService{
		Registry:     auction.NewRegistry(),
		Asset:        l,
		Book:         offer.NewBook(addr("offer-book")),
		Hub:          events.NewHub(64),
		DefaultAdmin: admin,
	}
	srv := NewServer(NewHandler(svc, nil), svc.Hub)
	return &testEnv{srv: srv, asset: l, svc: svc, admin: admin, client: client, sp1: sp1}
}

// do issues a request against the router and decodes the JSON response.
func (e *testEnv) do(t *testing.T, method, path string, account identity.Address, body any) (int, map[string]any) {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		assert.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, &buf)
	if !account.IsZero() {
		req.Header.Set("X-Account", account.String())
	}
	rec := httptest.NewRecorder()
	e.srv.Router.ServeHTTP(rec, req)

	var out map[string]any
	if rec.Body.Len() > 0 {
		assert.NoError(t, json.Unmarshal(rec.Body.Bytes(), &out))
	}
	return rec.Code, out
}

func (e *testEnv) createAuction(t *testing.T, quantity int64, quota int) string {
	t.Helper()
	status, resp := e.do(t, http.MethodPost, "/auctions", "", map[string]any{
		"client":    e.client.String(),
		"unitPrice": "1",
		"quantity":  quantity,
		"quota":     quota,
	})
	assert.Equal(t, http.StatusCreated, status)
	id, _ := resp["auctionId"].(string)
	assert.NotEqual(t, "", id)
	return id
}

func (e *testEnv) approve(t *testing.T, account identity.Address, auctionID string) {
	t.Helper()
	a, err := e.svc.Registry.Get(auctionID)
	assert.NoError(t, err)
	assert.NoError(t, e.asset.Approve(account, a.EscrowAccount(), decimal.NewFromInt(1000)))
}

func TestHealth(t *testing.T) {
	e := newEnv(t)
	status, resp := e.do(t, http.MethodGet, "/health", "", nil)
	check.Equal(t, http.StatusOK, status)
	check.Equal(t, "ok", resp["status"])
}

func TestCreateAuction_BadRequests(t *testing.T) {
	e := newEnv(t)

	status, _ := e.do(t, http.MethodPost, "/auctions", "", map[string]any{
		"client":    "not-an-address",
		"unitPrice": "1",
		"quantity":  1,
		"quota":     1,
	})
	check.Equal(t, http.StatusBadRequest, status)

	status, _ = e.do(t, http.MethodPost, "/auctions", "", map[string]any{
		"client":    e.client.String(),
		"unitPrice": "one",
		"quantity":  1,
		"quota":     1,
	})
	check.Equal(t, http.StatusBadRequest, status)

	// Factory rejection surfaces as 400 too.
	status, _ = e.do(t, http.MethodPost, "/auctions", "", map[string]any{
		"client":    e.client.String(),
		"unitPrice": "1",
		"quantity":  1,
		"quota":     0,
	})
	check.Equal(t, http.StatusBadRequest, status)
}

func TestAuctionLifecycleOverHTTP(t *testing.T) {
	e := newEnv(t)
	id := e.createAuction(t, 3, 1)
	e.approve(t, e.sp1, id)

	// Anonymous bidding is rejected.
	status, _ := e.do(t, http.MethodPost, "/auctions/"+id+"/bids", "", map[string]any{"amount": "3"})
	check.Equal(t, http.StatusUnauthorized, status)

	status, resp := e.do(t, http.MethodPost, "/auctions/"+id+"/bids", e.sp1, map[string]any{"amount": "3"})
	assert.Equal(t, http.StatusOK, status)
	check.Equal(t, "3", resp["total"])
	check.Equal(t, "BIDDING", resp["state"])

	// Only the admin can close bidding.
	status, _ = e.do(t, http.MethodPost, "/auctions/"+id+"/end-bidding", e.sp1, nil)
	check.Equal(t, http.StatusForbidden, status)

	status, resp = e.do(t, http.MethodPost, "/auctions/"+id+"/end-bidding", e.admin, nil)
	assert.Equal(t, http.StatusOK, status)
	check.Equal(t, "SELECTION", resp["state"])

	status, resp = e.do(t, http.MethodPost, "/auctions/"+id+"/select/"+e.sp1.String(), e.client, nil)
	assert.Equal(t, http.StatusOK, status)
	check.Equal(t, "SELECTED", resp["state"])

	status, resp = e.do(t, http.MethodPost, "/auctions/"+id+"/deals/"+e.sp1.String()+"/confirm", e.admin, map[string]any{"amount": "3"})
	assert.Equal(t, http.StatusOK, status)
	check.Equal(t, "PAID", resp["state"])
	check.Equal(t, "0", resp["remainder"])

	status, resp = e.do(t, http.MethodGet, "/auctions/"+id, "", nil)
	assert.Equal(t, http.StatusOK, status)
	check.Equal(t, "COMPLETED", resp["state"])
	check.Equal(t, "0", resp["escrowBalance"])
}

func TestStateAndFundsErrors(t *testing.T) {
	e := newEnv(t)
	id := e.createAuction(t, 3, 1)
	e.approve(t, e.sp1, id)

	// Selection before bidding closes is a state conflict.
	status, _ := e.do(t, http.MethodPost, "/auctions/"+id+"/select/"+e.sp1.String(), e.client, nil)
	check.Equal(t, http.StatusConflict, status)

	// An unapproved bidder is a payment failure.
	stranger, err := identity.FromKey(identity.DefaultHRP, []byte("stranger"))
	assert.NoError(t, err)
	status, _ = e.do(t, http.MethodPost, "/auctions/"+id+"/bids", stranger, map[string]any{"amount": "3"})
	check.Equal(t, http.StatusPaymentRequired, status)

	status, _ = e.do(t, http.MethodGet, "/auctions/unknown", "", nil)
	check.Equal(t, http.StatusNotFound, status)
}

func TestOfferEndpoints(t *testing.T) {
	e := newEnv(t)

	provider, err := identity.FromKey(identity.DefaultHRP, []byte("provider"))
	assert.NoError(t, err)
	treasury, err := identity.FromKey(identity.DefaultHRP, []byte("treasury"))
	assert.NoError(t, err)
	assert.NoError(t, e.asset.Transfer(treasury, provider, decimal.NewFromInt(1000)))

	status, resp := e.do(t, http.MethodPost, "/offers", provider, map[string]any{
		"totalPrice": "1000",
		"totalSize":  500000,
		"copies":     3,
	})
	assert.Equal(t, http.StatusCreated, status)
	offerID, _ := resp["offerId"].(string)
	assert.NotEqual(t, "", offerID)

	// Fixed-style auction the client will accept the offer against.
	status, resp = e.do(t, http.MethodPost, "/auctions", "", map[string]any{
		"client":     e.client.String(),
		"unitPrice":  "1",
		"quantity":   100000,
		"fixedPrice": "200",
		"quota":      1,
		"kind":       "BOTH",
	})
	assert.Equal(t, http.StatusCreated, status)
	auctionID, _ := resp["auctionId"].(string)
	e.approve(t, provider, auctionID)

	// Only the client may accept.
	status, _ = e.do(t, http.MethodPost, "/auctions/"+auctionID+"/offers/"+offerID+"/accept", provider, nil)
	check.Equal(t, http.StatusForbidden, status)

	status, resp = e.do(t, http.MethodPost, "/auctions/"+auctionID+"/offers/"+offerID+"/accept", e.client, nil)
	assert.Equal(t, http.StatusOK, status)
	check.Equal(t, "200", resp["total"])
	check.Equal(t, "SELECTED", resp["state"])

	status, resp = e.do(t, http.MethodGet, "/auctions/"+auctionID, "", nil)
	assert.Equal(t, http.StatusOK, status)
	check.Equal(t, "VERIFICATION", resp["state"])
}

func TestCancelOffer(t *testing.T) {
	e := newEnv(t)
	provider, err := identity.FromKey(identity.DefaultHRP, []byte("provider"))
	assert.NoError(t, err)

	status, resp := e.do(t, http.MethodPost, "/offers", provider, map[string]any{
		"totalPrice": "10",
		"totalSize":  100,
		"copies":     1,
	})
	assert.Equal(t, http.StatusCreated, status)
	offerID, _ := resp["offerId"].(string)

	status, _ = e.do(t, http.MethodPost, "/offers/"+offerID+"/cancel", e.sp1, nil)
	check.Equal(t, http.StatusForbidden, status)

	status, resp = e.do(t, http.MethodPost, "/offers/"+offerID+"/cancel", provider, nil)
	assert.Equal(t, http.StatusOK, status)
	check.Equal(t, "cancelled", resp["status"])
}
