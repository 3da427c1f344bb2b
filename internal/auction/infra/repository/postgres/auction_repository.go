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

// AuctionRepository implements domain.AuctionRepository
type AuctionRepository struct {
	pool *pgxpool.Pool
}

func NewAuctionRepository(pool *pgxpool.Pool) *AuctionRepository {
	return &AuctionRepository{pool: pool}
}

func (r *AuctionRepository) GetByID(ctx context.Context, id uuid.UUID) (*domain.Auction, error) {
	query := `
        SELECT id, auctioneer_id, title, description, status, starts_at, ends_at,
               accumulated_revenue, created_at, updated_at
        FROM auctions
        WHERE id = $1
    `
	auction := &domain.Auction{}
	err := r.pool.QueryRow(ctx, query, id).Scan(
		&auction.ID,
		&auction.AuctioneerID,
		&auction.Title,
		&auction.Description,
		&auction.Status,
		&auction.StartsAt,
		&auction.EndsAt,
		&auction.AccumulatedRevenue,
		&auction.CreatedAt,
		&auction.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrAuctionNotFound
		}
		return nil, err
	}
	return auction, nil
}

func (r *AuctionRepository) Create(ctx context.Context, auction *domain.Auction) error {
	query := `
        INSERT INTO auctions (id, auctioneer_id, title, description, status,
            starts_at, ends_at, accumulated_revenue)
        VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
    `
	_, err := r.pool.Exec(ctx, query,
		auction.ID,
		auction.AuctioneerID,
		auction.Title,
		auction.Description,
		auction.Status,
		auction.StartsAt,
		auction.EndsAt,
		auction.AccumulatedRevenue,
	)
	return err
}

func (r *AuctionRepository) Save(ctx context.Context, tx pgx.Tx, auction *domain.Auction) error {
	query := `
        UPDATE auctions
        SET title = $1,
            description = $2,
            status = $3,
            starts_at = $4,
            ends_at = $5,
            updated_at = NOW()
        WHERE id = $6
    `
	tag, err := tx.Exec(ctx, query,
		auction.Title,
		auction.Description,
		auction.Status,
		auction.StartsAt,
		auction.EndsAt,
		auction.ID,
	)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrAuctionNotFound
	}
	return nil
}

// UpdateRevenue writes a freshly recomputed total, the only writer of this
// column is the revenue recompute use case
func (r *AuctionRepository) UpdateRevenue(ctx context.Context, tx pgx.Tx, auctionID uuid.UUID, total decimal.Decimal) error {
	tag, err := tx.Exec(ctx,
		`UPDATE auctions SET accumulated_revenue = $1, updated_at = NOW() WHERE id = $2`,
		total, auctionID,
	)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrAuctionNotFound
	}
	return nil
}
