package domain

import (
	"time"

	"github.com/google/uuid"
)

// UserRole mirrors the account types of the registration workflow
type UserRole int16

const (
	RoleBidder     UserRole = 1
	RoleAuctioneer UserRole = 2
	RoleAdmin      UserRole = 3
)

// User is the identity entity the auction core queries for eligibility and
// auctioneer capability. Registration/login themselves live outside the core.
type User struct {
	ID          uuid.UUID
	DisplayName string
	Email       string
	Role        UserRole
	// Approved is granted by an administrator before the bidder may bid
	Approved  bool
	Active    bool
	CreatedAt time.Time
	UpdatedAt time.Time
}

// EligibleBidder reports whether this user may have bids arbitrated
func (u *User) EligibleBidder() bool {
	return u.Approved && u.Active
}

// CanRunAuctions reports whether this user holds the auctioneer or admin role
func (u *User) CanRunAuctions() bool {
	return u.Active && (u.Role == RoleAuctioneer || u.Role == RoleAdmin)
}
