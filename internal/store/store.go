// Package store persists auction snapshots and the lifecycle event log for
// audit and external indexing. The in-memory registry stays authoritative;
// everything here is write-through.
package store

import (
	"context"
	"encoding/json"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/starboard-ventures/BDX-auction/internal/events"
	"github.com/starboard-ventures/BDX-auction/internal/models"
)

type Store struct {
	Pool *pgxpool.Pool
}

func New(pool *pgxpool.Pool) *Store {
	return &Store{Pool: pool}
}

// SaveSnapshot upserts the auction row and its bid rows.
func (s *Store) SaveSnapshot(ctx context.Context, view models.AuctionView) error {
	tx, err := s.Pool.Begin(ctx)
	if err != nil {
		return err
	}
	defer tx.Rollback(ctx)

	_, err = tx.Exec(ctx, `
		INSERT INTO auctions (
			auction_id, state, kind, admin_addr, client_addr,
			unit_price, quantity, fixed_price, quota, selected_count,
			escrow_balance, deadline, created_at, updated_at
		) VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12,$13,$14)
		ON CONFLICT (auction_id) DO UPDATE SET
			state=EXCLUDED.state,
			selected_count=EXCLUDED.selected_count,
			escrow_balance=EXCLUDED.escrow_balance,
			updated_at=EXCLUDED.updated_at
	`,
		view.ID,
		view.State,
		view.Kind,
		view.Admin.String(),
		view.Client.String(),
		view.UnitPrice.String(),
		view.Quantity,
		view.FixedPrice.String(),
		view.Quota,
		view.SelectedCount,
		view.EscrowBalance.String(),
		nullableTime(view.Deadline),
		view.CreatedAt,
		view.UpdatedAt,
	)
	if err != nil {
		return err
	}

	for _, bid := range view.Bids {
		_, err = tx.Exec(ctx, `
			INSERT INTO bids (
				auction_id, bidder_addr, total, remainder, kind, state,
				placed_at, updated_at
			) VALUES ($1,$2,$3,$4,$5,$6,$7,$8)
			ON CONFLICT (auction_id, bidder_addr) DO UPDATE SET
				total=EXCLUDED.total,
				remainder=EXCLUDED.remainder,
				kind=EXCLUDED.kind,
				state=EXCLUDED.state,
				updated_at=EXCLUDED.updated_at
		`,
			view.ID,
			bid.Bidder.String(),
			bid.Total.String(),
			bid.Remainder.String(),
			bid.Kind,
			bid.State,
			bid.PlacedAt,
			bid.UpdatedAt,
		)
		if err != nil {
			return err
		}
	}

	return tx.Commit(ctx)
}

// InsertEvent appends one lifecycle event to the audit log.
func (s *Store) InsertEvent(ctx context.Context, ev events.Event) error {
	payload, err := json.Marshal(ev.Payload)
	if err != nil {
		return err
	}
	_, err = s.Pool.Exec(ctx, `
		INSERT INTO auction_events (auction_id, event_type, payload, occurred_at)
		VALUES ($1,$2,$3,$4)
	`, ev.AuctionID, ev.Type, payload, ev.At)
	return err
}

type EventRecord struct {
	ID         int64           `json:"id"`
	AuctionID  string          `json:"auctionId"`
	Type       string          `json:"type"`
	Payload    json.RawMessage `json:"payload,omitempty"`
	OccurredAt time.Time       `json:"occurredAt"`
}

// ListEvents returns the audit log for one auction, oldest first.
func (s *Store) ListEvents(ctx context.Context, auctionID string) ([]EventRecord, error) {
	rows, err := s.Pool.Query(ctx, `
		SELECT id, auction_id, event_type, payload, occurred_at
		FROM auction_events
		WHERE auction_id=$1
		ORDER BY id
	`, auctionID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []EventRecord
	for rows.Next() {
		var rec EventRecord
		if err := rows.Scan(&rec.ID, &rec.AuctionID, &rec.Type, &rec.Payload, &rec.OccurredAt); err != nil {
			return nil, err
		}
		out = append(out, rec)
	}
	return out, rows.Err()
}

func nullableTime(t time.Time) *time.Time {
	if t.IsZero() {
		return nil
	}
	return &t
}
