package postgres

import (
	"context"
	"errors"

	"github.com/cristianortiz/benefitauction/internal/auction/domain"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shopspring/decimal"
)

const lotColumns = `id, auction_id, number, title, donor_name, description,
       initial_value, floor_value, current_amount, next_minimum,
       winning_bidder_id, status, visible, revision, created_at, updated_at`

// LotRepository implements domain.LotRepository
type LotRepository struct {
	pool *pgxpool.Pool
}

// NewLotRepository creates a new instance of LotRepository
func NewLotRepository(pool *pgxpool.Pool) *LotRepository {
	return &LotRepository{pool: pool}
}

func (r *LotRepository) GetByID(ctx context.Context, id uuid.UUID) (*domain.Lot, error) {
	query := `SELECT ` + lotColumns + ` FROM lots WHERE id = $1`
	lot, err := scanLot(r.pool.QueryRow(ctx, query, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrLotNotFound
		}
		return nil, err
	}
	return lot, nil
}

func (r *LotRepository) GetByAuctionID(ctx context.Context, auctionID uuid.UUID) ([]*domain.Lot, error) {
	query := `SELECT ` + lotColumns + ` FROM lots WHERE auction_id = $1 ORDER BY number ASC`
	rows, err := r.pool.Query(ctx, query, auctionID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var lots []*domain.Lot
	for rows.Next() {
		lot, err := scanLot(rows)
		if err != nil {
			return nil, err
		}
		lots = append(lots, lot)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return lots, nil
}

// Create inserts a new lot from the setup workflow
func (r *LotRepository) Create(ctx context.Context, lot *domain.Lot) error {
	query := `
        INSERT INTO lots (id, auction_id, number, title, donor_name, description,
            initial_value, floor_value, current_amount, next_minimum,
            winning_bidder_id, status, visible, revision)
        VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, 0)
    `
	_, err := r.pool.Exec(ctx, query,
		lot.ID,
		lot.AuctionID,
		lot.Number,
		lot.Title,
		lot.DonorName,
		lot.Description,
		lot.InitialValue,
		lot.FloorValue,
		lot.CurrentAmount,
		lot.NextMinimum,
		lot.WinningBidderID,
		lot.Status,
		lot.Visible,
	)
	return err
}

// Save persists the mutated lot with an optimistic revision guard. The UPDATE
// matches the revision the aggregate was loaded with, zero affected rows
// means another commit won the race and the caller gets
// ErrConcurrencyConflict, never a silent overwrite.
func (r *LotRepository) Save(ctx context.Context, tx pgx.Tx, lot *domain.Lot) error {
	query := `
        UPDATE lots
        SET current_amount = $1,
            next_minimum = $2,
            winning_bidder_id = $3,
            status = $4,
            visible = $5,
            revision = revision + 1,
            updated_at = NOW()
        WHERE id = $6 AND revision = $7
    `
	tag, err := tx.Exec(ctx, query,
		lot.CurrentAmount,
		lot.NextMinimum,
		lot.WinningBidderID,
		lot.Status,
		lot.Visible,
		lot.ID,
		lot.Revision,
	)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrConcurrencyConflict
	}
	lot.Revision++
	return nil
}

func (r *LotRepository) Delete(ctx context.Context, tx pgx.Tx, id uuid.UUID) error {
	tag, err := tx.Exec(ctx, `DELETE FROM lots WHERE id = $1`, id)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrLotNotFound
	}
	return nil
}

// SumSoldAmounts recomputes the auction revenue from the sold lot rows
func (r *LotRepository) SumSoldAmounts(ctx context.Context, auctionID uuid.UUID) (decimal.Decimal, error) {
	query := `
        SELECT COALESCE(SUM(current_amount), 0)
        FROM lots
        WHERE auction_id = $1 AND status = $2
    `
	var total decimal.Decimal
	if err := r.pool.QueryRow(ctx, query, auctionID, domain.LotStatusSold).Scan(&total); err != nil {
		return decimal.Zero, err
	}
	return total, nil
}

func scanLot(row pgx.Row) (*domain.Lot, error) {
	lot := &domain.Lot{}
	var winningBidderID *uuid.UUID // pointer to handle NULL
	err := row.Scan(
		&lot.ID,
		&lot.AuctionID,
		&lot.Number,
		&lot.Title,
		&lot.DonorName,
		&lot.Description,
		&lot.InitialValue,
		&lot.FloorValue,
		&lot.CurrentAmount,
		&lot.NextMinimum,
		&winningBidderID,
		&lot.Status,
		&lot.Visible,
		&lot.Revision,
		&lot.CreatedAt,
		&lot.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	lot.WinningBidderID = winningBidderID
	return lot, nil
}
