package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/cristianortiz/benefitauction/internal/identity/domain"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// UserRepository implements the identity collaborator the auction core
// validates against (auctiondomain.IdentityProvider)
type UserRepository struct {
	pool *pgxpool.Pool
}

// NewUserRepository creates a new instance of UserRepository.
func NewUserRepository(pool *pgxpool.Pool) *UserRepository {
	return &UserRepository{pool: pool}
}

// GetByID loads a user, nil when it does not exist
func (r *UserRepository) GetByID(ctx context.Context, id uuid.UUID) (*domain.User, error) {
	query := `
        SELECT id, display_name, email, role, approved, active, created_at, updated_at
        FROM users
        WHERE id = $1
    `
	user := &domain.User{}
	err := r.pool.QueryRow(ctx, query, id).Scan(
		&user.ID,
		&user.DisplayName,
		&user.Email,
		&user.Role,
		&user.Approved,
		&user.Active,
		&user.CreatedAt,
		&user.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}
	return user, nil
}

// IsApproved implements the identity provider query used during bid validation
func (r *UserRepository) IsApproved(ctx context.Context, bidderID uuid.UUID) (bool, error) {
	user, err := r.GetByID(ctx, bidderID)
	if err != nil {
		return false, fmt.Errorf("identity: load user %s: %w", bidderID, err)
	}
	return user != nil && user.Approved, nil
}

func (r *UserRepository) IsActive(ctx context.Context, bidderID uuid.UUID) (bool, error) {
	user, err := r.GetByID(ctx, bidderID)
	if err != nil {
		return false, fmt.Errorf("identity: load user %s: %w", bidderID, err)
	}
	return user != nil && user.Active, nil
}

// IsAuctioneer holds for any active auctioneer or admin, the check used
// before an owning auction exists
func (r *UserRepository) IsAuctioneer(ctx context.Context, userID uuid.UUID) (bool, error) {
	user, err := r.GetByID(ctx, userID)
	if err != nil {
		return false, fmt.Errorf("identity: load user %s: %w", userID, err)
	}
	return user != nil && user.CanRunAuctions(), nil
}

// HasAuctioneerRole holds for an admin, or for the auctioneer who owns the
// given auction
func (r *UserRepository) HasAuctioneerRole(ctx context.Context, callerID, auctionID uuid.UUID) (bool, error) {
	query := `
        SELECT EXISTS (
            SELECT 1 FROM users u
            WHERE u.id = $1
              AND u.active
              AND (u.role = $2
                   OR (u.role = $3 AND EXISTS (
                        SELECT 1 FROM auctions a
                        WHERE a.id = $4 AND a.auctioneer_id = u.id)))
        )
    `
	var ok bool
	err := r.pool.QueryRow(ctx, query, callerID, domain.RoleAdmin, domain.RoleAuctioneer, auctionID).Scan(&ok)
	if err != nil {
		return false, fmt.Errorf("identity: auctioneer role check for %s: %w", callerID, err)
	}
	return ok, nil
}

func (r *UserRepository) DisplayName(ctx context.Context, userID uuid.UUID) (string, error) {
	user, err := r.GetByID(ctx, userID)
	if err != nil {
		return "", fmt.Errorf("identity: load user %s: %w", userID, err)
	}
	if user == nil {
		return "", nil
	}
	return user.DisplayName, nil
}
