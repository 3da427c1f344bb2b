package domain

import (
	"context"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/shopspring/decimal"
)

// LotRepository is the persistence surface for lots. Save is a versioned
// write: it must fail with ErrConcurrencyConflict when the stored revision no
// longer matches the revision the lot was loaded with.
type LotRepository interface {
	GetByID(ctx context.Context, id uuid.UUID) (*Lot, error)
	GetByAuctionID(ctx context.Context, auctionID uuid.UUID) ([]*Lot, error)
	Create(ctx context.Context, lot *Lot) error
	Save(ctx context.Context, tx pgx.Tx, lot *Lot) error
	Delete(ctx context.Context, tx pgx.Tx, id uuid.UUID) error
	// SumSoldAmounts recomputes revenue from source lot rows, never from a
	// cached counter
	SumSoldAmounts(ctx context.Context, auctionID uuid.UUID) (decimal.Decimal, error)
}

// BidRepository is the append-only per-lot bid ledger
type BidRepository interface {
	// Save appends the bid and assigns its per-lot sequence number
	Save(ctx context.Context, tx pgx.Tx, bid *Bid) error
	// ClearLeading flips the leading flag off the current leader, if any
	ClearLeading(ctx context.Context, tx pgx.Tx, lotID uuid.UUID) error
	GetLeadingByLotID(ctx context.Context, lotID uuid.UUID) (*Bid, error)
	GetBidsByLotID(ctx context.Context, lotID uuid.UUID) ([]*Bid, error)
	GetBidsByBidderID(ctx context.Context, bidderID uuid.UUID) ([]*Bid, error)
	CountByLotID(ctx context.Context, lotID uuid.UUID) (int64, error)
}

type AuctionRepository interface {
	GetByID(ctx context.Context, id uuid.UUID) (*Auction, error)
	Create(ctx context.Context, auction *Auction) error
	Save(ctx context.Context, tx pgx.Tx, auction *Auction) error
	// UpdateRevenue persists a freshly recomputed total onto the auction row
	UpdateRevenue(ctx context.Context, tx pgx.Tx, auctionID uuid.UUID, total decimal.Decimal) error
}

// IdentityProvider is the identity collaborator queried synchronously during
// validation. Caller references are always passed explicitly, domain logic
// never pulls a current user from ambient request context.
type IdentityProvider interface {
	IsApproved(ctx context.Context, bidderID uuid.UUID) (bool, error)
	IsActive(ctx context.Context, bidderID uuid.UUID) (bool, error)
	// IsAuctioneer reports whether the user may run auctions at all, checked
	// when there is no owning auction yet (auction creation)
	IsAuctioneer(ctx context.Context, userID uuid.UUID) (bool, error)
	HasAuctioneerRole(ctx context.Context, callerID, auctionID uuid.UUID) (bool, error)
	DisplayName(ctx context.Context, userID uuid.UUID) (string, error)
}

// TxRunner runs fn inside a single database transaction, commits when fn
// returns nil and rolls back otherwise. A commit is all-or-nothing: ledger
// append, lot mutation and state transition land as one unit or not at all.
type TxRunner interface {
	RunInTx(ctx context.Context, fn func(tx pgx.Tx) error) error
}
