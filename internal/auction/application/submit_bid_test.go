package application

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/cristianortiz/benefitauction/internal/auction/domain"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func dec(s string) decimal.Decimal {
	return decimal.RequireFromString(s)
}

type testEnv struct {
	lots     *fakeLotRepo
	bids     *fakeBidRepo
	auctions *fakeAuctionRepo
	identity *fakeIdentity
	pub      *fakePublisher

	submit    *SubmitBidUseCase
	setup     *AuctionSetupUseCase
	lifecycle *LotLifecycleUseCase
	revenue   *RecomputeRevenueUseCase
	queries   *GetLotStateUseCase

	auction    *domain.Auction
	lot        *domain.Lot
	bidder     uuid.UUID
	auctioneer uuid.UUID
}

// newTestEnv builds a live auction with one open lot (floor 100.00), an
// approved active bidder and an auctioneer
func newTestEnv(t *testing.T) *testEnv {
	t.Helper()

	env := &testEnv{
		lots:     newFakeLotRepo(),
		bids:     newFakeBidRepo(),
		auctions: newFakeAuctionRepo(),
		identity: newFakeIdentity(),
		pub:      &fakePublisher{},
	}

	env.bidder = uuid.New()
	env.auctioneer = uuid.New()
	env.identity.addBidder(env.bidder, "Alice")
	env.identity.addAuctioneer(env.auctioneer, "Marta")

	now := time.Now().UTC()
	env.auction = domain.NewAuction(uuid.New(), env.auctioneer, "Gala Night", "", now, now.Add(2*time.Hour))
	env.auction.Status = domain.AuctionStatusLive
	env.auctions.put(env.auction)

	env.lot = domain.NewLot(uuid.New(), env.auction.ID, 1, "Signed Jersey", "Club Donor", "", dec("100.00"), dec("100.00"))
	env.lots.put(env.lot)

	locks := NewLotLocker()
	runner := fakeTxRunner{}
	env.revenue = NewRecomputeRevenueUseCase(env.lots, env.auctions, runner, env.pub)
	env.submit = NewSubmitBidUseCase(env.lots, env.bids, env.auctions, env.identity, runner, env.pub, locks)
	env.setup = NewAuctionSetupUseCase(env.lots, env.auctions, env.identity)
	env.lifecycle = NewLotLifecycleUseCase(env.lots, env.bids, env.auctions, env.identity, runner, env.pub, env.revenue, locks)
	env.queries = NewGetLotStateUseCase(env.lots, env.bids, env.auctions, env.identity, env.revenue)
	return env
}

func (env *testEnv) submitBid(t *testing.T, bidder uuid.UUID, amount string) (*BidResult, error) {
	t.Helper()
	return env.submit.Execute(context.Background(), SubmitBidDTO{
		LotID:    env.lot.ID,
		BidderID: bidder,
		Amount:   dec(amount),
	})
}

func (env *testEnv) currentLot(t *testing.T) *domain.Lot {
	t.Helper()
	lot, err := env.lots.GetByID(context.Background(), env.lot.ID)
	require.NoError(t, err)
	return lot
}

func TestSubmitBid_OpeningBidAtFloor(t *testing.T) {
	env := newTestEnv(t)

	result, err := env.submitBid(t, env.bidder, "100.00")
	require.NoError(t, err)
	assert.True(t, result.LeadingBid.Amount.Equal(dec("100.00")))
	assert.Equal(t, "Alice", result.LeadingBid.BidderDisplayName)

	lot := env.currentLot(t)
	assert.True(t, lot.CurrentAmount.Equal(dec("100.00")))
	assert.True(t, lot.NextMinimum.Equal(dec("110.00")), "next minimum should be 110.00, got %s", lot.NextMinimum)
	assert.Equal(t, domain.LotStatusBidding, lot.Status, "first accepted bid moves the lot into bidding")
	assert.Equal(t, int64(1), lot.Revision)

	// below the new minimum, rejected with the computed floor
	_, err = env.submitBid(t, env.bidder, "105.00")
	var tooLow *domain.BidTooLowError
	require.ErrorAs(t, err, &tooLow)
	assert.True(t, tooLow.MinimumRequired.Equal(dec("110.00")))
}

func TestSubmitBid_IncrementRuleAtHigherAmounts(t *testing.T) {
	env := newTestEnv(t)

	_, err := env.submitBid(t, env.bidder, "1000.00")
	require.NoError(t, err)

	// 5% of 1000 beats the 10.00 floor, the minimum is 1050.00
	_, err = env.submitBid(t, env.bidder, "1049.00")
	var tooLow *domain.BidTooLowError
	require.ErrorAs(t, err, &tooLow)
	assert.True(t, tooLow.MinimumRequired.Equal(dec("1050.00")))

	result, err := env.submitBid(t, env.bidder, "1050.00")
	require.NoError(t, err)
	assert.True(t, result.LeadingBid.Amount.Equal(dec("1050.00")))
}

func TestSubmitBid_ValidationFailures(t *testing.T) {
	t.Run("invalid amount", func(t *testing.T) {
		env := newTestEnv(t)
		_, err := env.submitBid(t, env.bidder, "0")
		assert.ErrorIs(t, err, domain.ErrInvalidAmount)
	})

	t.Run("lot not found", func(t *testing.T) {
		env := newTestEnv(t)
		_, err := env.submit.Execute(context.Background(), SubmitBidDTO{
			LotID:    uuid.New(),
			BidderID: env.bidder,
			Amount:   dec("100.00"),
		})
		assert.ErrorIs(t, err, domain.ErrLotNotFound)
	})

	t.Run("auction not live", func(t *testing.T) {
		env := newTestEnv(t)
		env.auction.Status = domain.AuctionStatusScheduled
		env.auctions.put(env.auction)
		_, err := env.submitBid(t, env.bidder, "100.00")
		assert.ErrorIs(t, err, domain.ErrAuctionNotLive)
	})

	t.Run("lot already finished", func(t *testing.T) {
		env := newTestEnv(t)
		env.lot.Status = domain.LotStatusUnsold
		env.lots.put(env.lot)
		_, err := env.submitBid(t, env.bidder, "100.00")
		assert.ErrorIs(t, err, domain.ErrLotNotBiddable)
	})

	t.Run("bidder not approved", func(t *testing.T) {
		env := newTestEnv(t)
		stranger := uuid.New()
		env.identity.active[stranger] = true
		_, err := env.submitBid(t, stranger, "100.00")
		assert.ErrorIs(t, err, domain.ErrBidderIneligible)
	})

	t.Run("bidder inactive", func(t *testing.T) {
		env := newTestEnv(t)
		env.identity.active[env.bidder] = false
		_, err := env.submitBid(t, env.bidder, "100.00")
		assert.ErrorIs(t, err, domain.ErrBidderIneligible)
	})
}

func TestSubmitBid_SingleLeaderAfterSequentialBids(t *testing.T) {
	env := newTestEnv(t)
	other := uuid.New()
	env.identity.addBidder(other, "Bruno")

	_, err := env.submitBid(t, env.bidder, "100.00")
	require.NoError(t, err)
	_, err = env.submitBid(t, other, "110.00")
	require.NoError(t, err)

	assert.Equal(t, 1, env.bids.leadingCount(env.lot.ID), "exactly one leading bid per lot")

	leading, err := env.bids.GetLeadingByLotID(context.Background(), env.lot.ID)
	require.NoError(t, err)
	require.NotNil(t, leading)
	assert.Equal(t, other, leading.BidderID)
	assert.True(t, leading.Amount.Equal(dec("110.00")))

	lot := env.currentLot(t)
	assert.True(t, lot.CurrentAmount.Equal(leading.Amount), "lot current amount tracks the leading bid")
	require.NotNil(t, lot.WinningBidderID)
	assert.Equal(t, other, *lot.WinningBidderID)
}

func TestSubmitBid_PublishesEventAfterCommit(t *testing.T) {
	env := newTestEnv(t)

	_, err := env.submitBid(t, env.bidder, "100.00")
	require.NoError(t, err)

	events := env.pub.byType(domain.EventNewBid)
	require.Len(t, events, 2, "new bid goes to the lot topic and the auction topic")
	topics := []string{events[0].Topic, events[1].Topic}
	assert.Contains(t, topics, domain.LotTopic(env.lot.ID))
	assert.Contains(t, topics, domain.AuctionTopic(env.auction.ID))

	payload, ok := events[0].Payload.(domain.NewBidEvent)
	require.True(t, ok)
	assert.Equal(t, "Alice", payload.BidderDisplayName)
	assert.True(t, payload.Amount.Equal(dec("100.00")))
}

func TestSubmitBid_NoEventOnRejection(t *testing.T) {
	env := newTestEnv(t)

	_, err := env.submitBid(t, env.bidder, "50.00")
	require.Error(t, err)
	assert.Empty(t, env.pub.byType(domain.EventNewBid))
}

func TestSubmitBid_VersionConflictSurfacesAsOutbid(t *testing.T) {
	env := newTestEnv(t)
	env.lots.forceConflicts = 1

	_, err := env.submitBid(t, env.bidder, "100.00")
	require.Error(t, err)
	assert.ErrorIs(t, err, domain.ErrConcurrencyConflict, "a lost versioned write is retryable")

	var outbid *domain.CurrentlyOutbidError
	require.ErrorAs(t, err, &outbid)
	assert.True(t, outbid.CurrentLeadingAmount.Equal(decimal.Zero))
}

func TestSubmitBid_ConcurrentSubmissionsYieldOneLeader(t *testing.T) {
	env := newTestEnv(t)

	// distinct amounts all below floor+10: whichever submission wins the
	// serialization point is accepted, every other amount is then under the
	// 110.00 minimum
	amounts := []string{"100.00", "101.00", "102.00", "103.00", "104.00", "105.00", "106.00", "107.00"}
	bidders := make([]uuid.UUID, len(amounts))
	for i := range bidders {
		bidders[i] = uuid.New()
		env.identity.addBidder(bidders[i], "Bidder")
	}

	var wg sync.WaitGroup
	results := make([]error, len(amounts))
	for i := range amounts {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			_, results[i] = env.submitBid(t, bidders[i], amounts[i])
		}(i)
	}
	wg.Wait()

	accepted := 0
	for _, err := range results {
		if err == nil {
			accepted++
			continue
		}
		var tooLow *domain.BidTooLowError
		isRejection := errors.As(err, &tooLow) || errors.Is(err, domain.ErrConcurrencyConflict)
		assert.True(t, isRejection, "losers must see a rejection or retryable conflict, got %v", err)
	}
	assert.Equal(t, 1, accepted, "exactly one submission becomes the leader")
	assert.Equal(t, 1, env.bids.leadingCount(env.lot.ID))

	lot := env.currentLot(t)
	leading, err := env.bids.GetLeadingByLotID(context.Background(), env.lot.ID)
	require.NoError(t, err)
	require.NotNil(t, leading)
	assert.True(t, lot.CurrentAmount.Equal(leading.Amount))
}
