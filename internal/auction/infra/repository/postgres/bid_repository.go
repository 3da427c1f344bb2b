package postgres

import (
	"context"
	"errors"

	"github.com/cristianortiz/benefitauction/internal/auction/domain"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// BidRepository implements domain.BidRepository, the append-only per-lot
// ledger. History ordering is timestamp first, per-lot sequence as the
// deterministic tiebreak, never amount.
type BidRepository struct {
	pool *pgxpool.Pool
}

// NewBidRepository creates new instance of BidRepository.
func NewBidRepository(pool *pgxpool.Pool) *BidRepository {
	return &BidRepository{pool: pool}
}

// Save appends the bid inside the arbitration tx and assigns the next per-lot
// sequence number atomically
func (r *BidRepository) Save(ctx context.Context, tx pgx.Tx, bid *domain.Bid) error {
	query := `
        INSERT INTO bids (id, lot_id, bidder_id, amount, bid_timestamp, sequence, leading)
        VALUES ($1, $2, $3, $4, $5,
            (SELECT COALESCE(MAX(sequence), 0) + 1 FROM bids WHERE lot_id = $2),
            $6)
        RETURNING sequence
    `
	return tx.QueryRow(ctx, query,
		bid.ID,
		bid.LotID,
		bid.BidderID,
		bid.Amount,
		bid.Timestamp,
		bid.Leading,
	).Scan(&bid.Sequence)
}

// ClearLeading flips the leading flag off the prior leader, if any. Runs in
// the same tx as the append so at most one leading bid per lot holds at every
// commit boundary.
func (r *BidRepository) ClearLeading(ctx context.Context, tx pgx.Tx, lotID uuid.UUID) error {
	_, err := tx.Exec(ctx, `UPDATE bids SET leading = FALSE WHERE lot_id = $1 AND leading`, lotID)
	return err
}

func (r *BidRepository) GetLeadingByLotID(ctx context.Context, lotID uuid.UUID) (*domain.Bid, error) {
	query := `
        SELECT id, lot_id, bidder_id, amount, bid_timestamp, sequence, leading
        FROM bids
        WHERE lot_id = $1 AND leading
    `
	bid, err := scanBid(r.pool.QueryRow(ctx, query, lotID))
	if err != nil {
		// no leading bid is not an error, the lot simply has no leader yet
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}
	return bid, nil
}

func (r *BidRepository) GetBidsByLotID(ctx context.Context, lotID uuid.UUID) ([]*domain.Bid, error) {
	query := `
        SELECT id, lot_id, bidder_id, amount, bid_timestamp, sequence, leading
        FROM bids
        WHERE lot_id = $1
        ORDER BY bid_timestamp DESC, sequence DESC
    `
	return r.queryBids(ctx, query, lotID)
}

func (r *BidRepository) GetBidsByBidderID(ctx context.Context, bidderID uuid.UUID) ([]*domain.Bid, error) {
	query := `
        SELECT id, lot_id, bidder_id, amount, bid_timestamp, sequence, leading
        FROM bids
        WHERE bidder_id = $1
        ORDER BY bid_timestamp DESC, sequence DESC
    `
	return r.queryBids(ctx, query, bidderID)
}

func (r *BidRepository) CountByLotID(ctx context.Context, lotID uuid.UUID) (int64, error) {
	var count int64
	err := r.pool.QueryRow(ctx, `SELECT COUNT(*) FROM bids WHERE lot_id = $1`, lotID).Scan(&count)
	return count, err
}

func (r *BidRepository) queryBids(ctx context.Context, query string, arg any) ([]*domain.Bid, error) {
	rows, err := r.pool.Query(ctx, query, arg)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var bids []*domain.Bid
	for rows.Next() {
		bid, err := scanBid(rows)
		if err != nil {
			return nil, err
		}
		bids = append(bids, bid)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return bids, nil
}

func scanBid(row pgx.Row) (*domain.Bid, error) {
	bid := &domain.Bid{}
	err := row.Scan(
		&bid.ID,
		&bid.LotID,
		&bid.BidderID,
		&bid.Amount,
		&bid.Timestamp,
		&bid.Sequence,
		&bid.Leading,
	)
	if err != nil {
		return nil, err
	}
	return bid, nil
}
