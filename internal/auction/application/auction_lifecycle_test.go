package application

import (
	"context"
	"testing"

	"github.com/cristianortiz/benefitauction/internal/auction/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newAuctionLifecycle(env *testEnv) *AuctionLifecycleUseCase {
	return NewAuctionLifecycleUseCase(env.auctions, env.identity, fakeTxRunner{}, env.revenue)
}

func TestStartAuction(t *testing.T) {
	t.Run("scheduled auction goes live", func(t *testing.T) {
		env := newTestEnv(t)
		env.auction.Status = domain.AuctionStatusScheduled
		env.auctions.put(env.auction)

		err := newAuctionLifecycle(env).StartAuction(context.Background(), env.auctioneer, env.auction.ID)
		require.NoError(t, err)

		auction, err := env.auctions.GetByID(context.Background(), env.auction.ID)
		require.NoError(t, err)
		assert.Equal(t, domain.AuctionStatusLive, auction.Status)
	})

	t.Run("already live auction cannot start again", func(t *testing.T) {
		env := newTestEnv(t)

		err := newAuctionLifecycle(env).StartAuction(context.Background(), env.auctioneer, env.auction.ID)
		assert.ErrorIs(t, err, domain.ErrInvalidAuctionStatus)
	})

	t.Run("rejected for non auctioneer", func(t *testing.T) {
		env := newTestEnv(t)
		env.auction.Status = domain.AuctionStatusScheduled
		env.auctions.put(env.auction)

		err := newAuctionLifecycle(env).StartAuction(context.Background(), env.bidder, env.auction.ID)
		assert.ErrorIs(t, err, domain.ErrNotAuctioneer)
	})
}

func TestCloseAuction(t *testing.T) {
	t.Run("live auction closes and fixes the final total", func(t *testing.T) {
		env := newTestEnv(t)
		env.lot.Status = domain.LotStatusSold
		env.lot.CurrentAmount = dec("320.00")
		env.lots.put(env.lot)

		err := newAuctionLifecycle(env).CloseAuction(context.Background(), env.auctioneer, env.auction.ID)
		require.NoError(t, err)

		auction, err := env.auctions.GetByID(context.Background(), env.auction.ID)
		require.NoError(t, err)
		assert.Equal(t, domain.AuctionStatusClosed, auction.Status)
		assert.True(t, auction.AccumulatedRevenue.Equal(dec("320.00")))
		assert.Len(t, env.pub.byType(domain.EventAuctionRevenueChanged), 1)
	})

	t.Run("scheduled auction cannot close", func(t *testing.T) {
		env := newTestEnv(t)
		env.auction.Status = domain.AuctionStatusScheduled
		env.auctions.put(env.auction)

		err := newAuctionLifecycle(env).CloseAuction(context.Background(), env.auctioneer, env.auction.ID)
		assert.ErrorIs(t, err, domain.ErrInvalidAuctionStatus)
	})

	t.Run("bids are refused after the close", func(t *testing.T) {
		env := newTestEnv(t)
		require.NoError(t, newAuctionLifecycle(env).CloseAuction(context.Background(), env.auctioneer, env.auction.ID))

		_, err := env.submitBid(t, env.bidder, "100.00")
		assert.ErrorIs(t, err, domain.ErrAuctionNotLive)
	})
}
