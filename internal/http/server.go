package http

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/starboard-ventures/BDX-auction/internal/events"
)

type Server struct {
	Router *chi.Mux
}

func NewServer(handler *Handler, hub *events.Hub) *Server {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Recoverer)
	r.Use(middleware.Logger)
	r.Use(cors)

	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	})

	r.Route("/auctions", func(r chi.Router) {
		r.Post("/", handler.CreateAuction)
		r.Get("/", handler.ListAuctions)
		r.Get("/{auctionId}", handler.GetAuction)
		r.Get("/{auctionId}/events", handler.ListAuctionEvents)
		r.Post("/{auctionId}/bids", handler.PlaceBid)
		r.Post("/{auctionId}/end-bidding", handler.EndBidding)
		r.Post("/{auctionId}/select/{bidder}", handler.SelectBid)
		r.Post("/{auctionId}/end-selection", handler.EndSelection)
		r.Post("/{auctionId}/deals/{bidder}/confirm", handler.ConfirmDeal)
		r.Post("/{auctionId}/deals/{bidder}/refund", handler.RefundDeal)
		r.Post("/{auctionId}/cancel", handler.CancelAuction)
		r.Post("/{auctionId}/offers/{offerId}/accept", handler.AcceptOffer)
	})

	r.Route("/offers", func(r chi.Router) {
		r.Post("/", handler.CreateOffer)
		r.Get("/", handler.ListOffers)
		r.Post("/{offerId}/cancel", handler.CancelOffer)
	})

	if hub != nil {
		r.Get("/events/ws", events.WSHandler(hub))
	}

	return &Server{Router: r}
}
