package application

import (
	"context"
	"sync"

	"github.com/cristianortiz/benefitauction/internal/auction/domain"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/shopspring/decimal"
)

// in-memory fakes implementing the domain collaborator interfaces, tests
// exercise the use cases exactly as the postgres wiring would

type fakeLotRepo struct {
	mu   sync.Mutex
	lots map[uuid.UUID]*domain.Lot
	// forceConflicts makes the next N Save calls fail with a revision
	// conflict regardless of state
	forceConflicts int
}

func newFakeLotRepo() *fakeLotRepo {
	return &fakeLotRepo{lots: make(map[uuid.UUID]*domain.Lot)}
}

func copyLot(lot *domain.Lot) *domain.Lot {
	c := *lot
	if lot.WinningBidderID != nil {
		id := *lot.WinningBidderID
		c.WinningBidderID = &id
	}
	return &c
}

func (r *fakeLotRepo) put(lot *domain.Lot) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.lots[lot.ID] = copyLot(lot)
}

func (r *fakeLotRepo) GetByID(_ context.Context, id uuid.UUID) (*domain.Lot, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	lot, ok := r.lots[id]
	if !ok {
		return nil, domain.ErrLotNotFound
	}
	return copyLot(lot), nil
}

func (r *fakeLotRepo) GetByAuctionID(_ context.Context, auctionID uuid.UUID) ([]*domain.Lot, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var lots []*domain.Lot
	for _, lot := range r.lots {
		if lot.AuctionID == auctionID {
			lots = append(lots, copyLot(lot))
		}
	}
	return lots, nil
}

func (r *fakeLotRepo) Create(_ context.Context, lot *domain.Lot) error {
	r.put(lot)
	return nil
}

func (r *fakeLotRepo) Save(_ context.Context, _ pgx.Tx, lot *domain.Lot) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.forceConflicts > 0 {
		r.forceConflicts--
		return domain.ErrConcurrencyConflict
	}
	stored, ok := r.lots[lot.ID]
	if !ok {
		return domain.ErrLotNotFound
	}
	if stored.Revision != lot.Revision {
		return domain.ErrConcurrencyConflict
	}
	lot.Revision++
	r.lots[lot.ID] = copyLot(lot)
	return nil
}

func (r *fakeLotRepo) Delete(_ context.Context, _ pgx.Tx, id uuid.UUID) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.lots[id]; !ok {
		return domain.ErrLotNotFound
	}
	delete(r.lots, id)
	return nil
}

func (r *fakeLotRepo) SumSoldAmounts(_ context.Context, auctionID uuid.UUID) (decimal.Decimal, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	total := decimal.Zero
	for _, lot := range r.lots {
		if lot.AuctionID == auctionID && lot.Status == domain.LotStatusSold {
			total = total.Add(lot.CurrentAmount)
		}
	}
	return total, nil
}

type fakeBidRepo struct {
	mu   sync.Mutex
	bids map[uuid.UUID][]*domain.Bid // by lot
}

func newFakeBidRepo() *fakeBidRepo {
	return &fakeBidRepo{bids: make(map[uuid.UUID][]*domain.Bid)}
}

func (r *fakeBidRepo) Save(_ context.Context, _ pgx.Tx, bid *domain.Bid) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	bid.Sequence = int64(len(r.bids[bid.LotID]) + 1)
	c := *bid
	r.bids[bid.LotID] = append(r.bids[bid.LotID], &c)
	return nil
}

func (r *fakeBidRepo) ClearLeading(_ context.Context, _ pgx.Tx, lotID uuid.UUID) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, bid := range r.bids[lotID] {
		bid.Leading = false
	}
	return nil
}

func (r *fakeBidRepo) GetLeadingByLotID(_ context.Context, lotID uuid.UUID) (*domain.Bid, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, bid := range r.bids[lotID] {
		if bid.Leading {
			c := *bid
			return &c, nil
		}
	}
	return nil, nil
}

func (r *fakeBidRepo) GetBidsByLotID(_ context.Context, lotID uuid.UUID) ([]*domain.Bid, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	bids := make([]*domain.Bid, 0, len(r.bids[lotID]))
	// stored ascending by sequence, history is served most recent first
	for i := len(r.bids[lotID]) - 1; i >= 0; i-- {
		c := *r.bids[lotID][i]
		bids = append(bids, &c)
	}
	return bids, nil
}

func (r *fakeBidRepo) GetBidsByBidderID(_ context.Context, bidderID uuid.UUID) ([]*domain.Bid, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var bids []*domain.Bid
	for _, lotBids := range r.bids {
		for _, bid := range lotBids {
			if bid.BidderID == bidderID {
				c := *bid
				bids = append(bids, &c)
			}
		}
	}
	return bids, nil
}

func (r *fakeBidRepo) CountByLotID(_ context.Context, lotID uuid.UUID) (int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return int64(len(r.bids[lotID])), nil
}

// leadingCount is a test helper asserting the single-leader invariant
func (r *fakeBidRepo) leadingCount(lotID uuid.UUID) int {
	r.mu.Lock()
	defer r.mu.Unlock()
	count := 0
	for _, bid := range r.bids[lotID] {
		if bid.Leading {
			count++
		}
	}
	return count
}

type fakeAuctionRepo struct {
	mu       sync.Mutex
	auctions map[uuid.UUID]*domain.Auction
}

func newFakeAuctionRepo() *fakeAuctionRepo {
	return &fakeAuctionRepo{auctions: make(map[uuid.UUID]*domain.Auction)}
}

func (r *fakeAuctionRepo) put(a *domain.Auction) {
	r.mu.Lock()
	defer r.mu.Unlock()
	c := *a
	r.auctions[a.ID] = &c
}

func (r *fakeAuctionRepo) GetByID(_ context.Context, id uuid.UUID) (*domain.Auction, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	a, ok := r.auctions[id]
	if !ok {
		return nil, domain.ErrAuctionNotFound
	}
	c := *a
	return &c, nil
}

func (r *fakeAuctionRepo) Create(_ context.Context, a *domain.Auction) error {
	r.put(a)
	return nil
}

func (r *fakeAuctionRepo) Save(_ context.Context, _ pgx.Tx, a *domain.Auction) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.auctions[a.ID]; !ok {
		return domain.ErrAuctionNotFound
	}
	c := *a
	r.auctions[a.ID] = &c
	return nil
}

func (r *fakeAuctionRepo) UpdateRevenue(_ context.Context, _ pgx.Tx, auctionID uuid.UUID, total decimal.Decimal) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	a, ok := r.auctions[auctionID]
	if !ok {
		return domain.ErrAuctionNotFound
	}
	a.AccumulatedRevenue = total
	return nil
}

type fakeIdentity struct {
	approved    map[uuid.UUID]bool
	active      map[uuid.UUID]bool
	auctioneers map[uuid.UUID]bool
	names       map[uuid.UUID]string
}

func newFakeIdentity() *fakeIdentity {
	return &fakeIdentity{
		approved:    make(map[uuid.UUID]bool),
		active:      make(map[uuid.UUID]bool),
		auctioneers: make(map[uuid.UUID]bool),
		names:       make(map[uuid.UUID]string),
	}
}

func (f *fakeIdentity) addBidder(id uuid.UUID, name string) {
	f.approved[id] = true
	f.active[id] = true
	f.names[id] = name
}

func (f *fakeIdentity) addAuctioneer(id uuid.UUID, name string) {
	f.addBidder(id, name)
	f.auctioneers[id] = true
}

func (f *fakeIdentity) IsApproved(_ context.Context, id uuid.UUID) (bool, error) {
	return f.approved[id], nil
}

func (f *fakeIdentity) IsActive(_ context.Context, id uuid.UUID) (bool, error) {
	return f.active[id], nil
}

func (f *fakeIdentity) IsAuctioneer(_ context.Context, userID uuid.UUID) (bool, error) {
	return f.auctioneers[userID], nil
}

func (f *fakeIdentity) HasAuctioneerRole(_ context.Context, callerID, _ uuid.UUID) (bool, error) {
	return f.auctioneers[callerID], nil
}

func (f *fakeIdentity) DisplayName(_ context.Context, id uuid.UUID) (string, error) {
	return f.names[id], nil
}

type publishedEvent struct {
	Topic   string
	Type    domain.EventType
	Payload any
}

type fakePublisher struct {
	mu     sync.Mutex
	events []publishedEvent
}

func (p *fakePublisher) Publish(topic string, eventType domain.EventType, payload any) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.events = append(p.events, publishedEvent{Topic: topic, Type: eventType, Payload: payload})
}

func (p *fakePublisher) byType(eventType domain.EventType) []publishedEvent {
	p.mu.Lock()
	defer p.mu.Unlock()
	var out []publishedEvent
	for _, e := range p.events {
		if e.Type == eventType {
			out = append(out, e)
		}
	}
	return out
}

// fakeTxRunner runs fn directly, the fakes have no real transactions
type fakeTxRunner struct{}

func (fakeTxRunner) RunInTx(_ context.Context, fn func(tx pgx.Tx) error) error {
	return fn(nil)
}
