package main

import (
	"context"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/shopspring/decimal"

	"github.com/starboard-ventures/BDX-auction/internal/auction"
	"github.com/starboard-ventures/BDX-auction/internal/config"
	"github.com/starboard-ventures/BDX-auction/internal/db"
	"github.com/starboard-ventures/BDX-auction/internal/events"
	internalhttp "github.com/starboard-ventures/BDX-auction/internal/http"
	"github.com/starboard-ventures/BDX-auction/internal/identity"
	"github.com/starboard-ventures/BDX-auction/internal/ledger"
	"github.com/starboard-ventures/BDX-auction/internal/offer"
	"github.com/starboard-ventures/BDX-auction/internal/services"
	"github.com/starboard-ventures/BDX-auction/internal/store"
	"github.com/starboard-ventures/BDX-auction/internal/worker"
)

func main() {
	cfg, err := config.Load("")
	if err != nil {
		log.Fatalf("config load failed: %v", err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	pool, err := db.Connect(ctx, cfg.DB.DSN)
	if err != nil {
		log.Fatalf("db connect failed: %v", err)
	}
	defer pool.Close()

	treasury, err := identity.Parse(cfg.Asset.Treasury)
	if err != nil {
		log.Fatalf("invalid treasury address: %v", err)
	}
	admin, err := identity.Parse(cfg.Admin.Address)
	if err != nil {
		log.Fatalf("invalid admin address: %v", err)
	}
	supply := decimal.Zero
	if cfg.Asset.Supply != "" {
		if supply, err = decimal.NewFromString(cfg.Asset.Supply); err != nil {
			log.Fatalf("invalid asset supply: %v", err)
		}
	}

	hrp := cfg.Identity.HRP
	if hrp == "" {
		hrp = identity.DefaultHRP
	}
	offerCaller, err := identity.FromKey(hrp, []byte("offer-book"))
	if err != nil {
		log.Fatalf("offer book identity failed: %v", err)
	}

	asset := ledger.New(cfg.Asset.Symbol, treasury, supply)
	hub := events.NewHub(cfg.Events.Buffer)
	svc := &services.AuctionService{
		Registry:     auction.NewRegistry(),
		Asset:        asset,
		Book:         offer.NewBook(offerCaller),
		Store:        store.New(pool),
		Hub:          hub,
		DefaultAdmin: admin,
	}

	sweeper := &worker.Worker{
		Auctions: svc,
		Interval: time.Duration(cfg.Worker.IntervalSeconds) * time.Second,
	}
	go sweeper.Run(ctx)

	h := internalhttp.NewHandler(svc, svc.Store)
	srv := internalhttp.NewServer(h, hub)

	httpServer := &http.Server{
		Addr:    cfg.Server.Addr,
		Handler: srv.Router,
	}

	go func() {
		log.Printf("api listening on %s", cfg.Server.Addr)
		if err := httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("server error: %v", err)
		}
	}()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)
	<-stop
	cancel()

	ctxShutdown, cancelShutdown := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancelShutdown()
	_ = httpServer.Shutdown(ctxShutdown)
}
