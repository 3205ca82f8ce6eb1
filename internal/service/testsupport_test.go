package service

// In-memory repository fakes for service tests. They honor the ports
// contracts (nil for missing rows, copies on read) but not transactional
// rollback: writes are visible immediately, which the tests account for.

import (
	"context"
	"sort"
	"sync"
	"time"

	"yield-wallet/internal/core/domain"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
)

// fakeTx satisfies pgx.Tx for code paths that only Commit/Rollback.
type fakeTx struct{ pgx.Tx }

func (t *fakeTx) Commit(_ context.Context) error   { return nil }
func (t *fakeTx) Rollback(_ context.Context) error { return nil }

type fakeTransactor struct{}

func (f *fakeTransactor) Begin(_ context.Context) (pgx.Tx, error) { return &fakeTx{}, nil }

// --- Wallet repo ---

type memWalletRepo struct {
	mu      sync.Mutex
	wallets map[uuid.UUID]domain.WalletAccount // keyed by owner id
}

func newMemWalletRepo() *memWalletRepo {
	return &memWalletRepo{wallets: make(map[uuid.UUID]domain.WalletAccount)}
}

func (r *memWalletRepo) Create(_ context.Context, w *domain.WalletAccount) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.wallets[w.OwnerID] = *w
	return nil
}

func (r *memWalletRepo) GetByOwnerID(_ context.Context, ownerID uuid.UUID) (*domain.WalletAccount, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	w, ok := r.wallets[ownerID]
	if !ok {
		return nil, nil
	}
	cp := w
	return &cp, nil
}

func (r *memWalletRepo) GetByOwnerIDForUpdate(ctx context.Context, _ pgx.Tx, ownerID uuid.UUID) (*domain.WalletAccount, error) {
	return r.GetByOwnerID(ctx, ownerID)
}

func (r *memWalletRepo) UpdateFunds(_ context.Context, _ pgx.Tx, upd *domain.WalletAccount) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for owner, w := range r.wallets {
		if w.ID == upd.ID {
			w.Balance = upd.Balance
			w.Shares = upd.Shares
			w.YieldEarned = upd.YieldEarned
			w.AvgIssueRate = upd.AvgIssueRate
			w.UpdatedAt = time.Now().UTC()
			r.wallets[owner] = w
			return nil
		}
	}
	return pgx.ErrNoRows
}

func (r *memWalletRepo) SetAutoStake(_ context.Context, ownerID uuid.UUID, enabled bool) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	w, ok := r.wallets[ownerID]
	if !ok {
		return pgx.ErrNoRows
	}
	w.AutoStakeEnabled = enabled
	r.wallets[ownerID] = w
	return nil
}

// --- Pool repo ---

type memPoolRepo struct {
	mu    sync.Mutex
	pools map[uuid.UUID]domain.LendingPool

	failUpdate bool // Simulates a pool hard-error for fallback tests
}

func newMemPoolRepo() *memPoolRepo {
	return &memPoolRepo{pools: make(map[uuid.UUID]domain.LendingPool)}
}

func (r *memPoolRepo) Create(_ context.Context, p *domain.LendingPool) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.pools[p.ID] = *p
	return nil
}

func (r *memPoolRepo) Get(_ context.Context, id uuid.UUID) (*domain.LendingPool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	p, ok := r.pools[id]
	if !ok {
		return nil, nil
	}
	cp := p
	return &cp, nil
}

func (r *memPoolRepo) GetForUpdate(ctx context.Context, _ pgx.Tx, id uuid.UUID) (*domain.LendingPool, error) {
	return r.Get(ctx, id)
}

func (r *memPoolRepo) Update(_ context.Context, _ pgx.Tx, p *domain.LendingPool) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.failUpdate {
		return pgx.ErrTxClosed
	}
	r.pools[p.ID] = *p
	return nil
}

// --- Ledger repo ---

type memLedgerRepo struct {
	mu      sync.Mutex
	entries []domain.LedgerEntry
}

func newMemLedgerRepo() *memLedgerRepo { return &memLedgerRepo{} }

func (r *memLedgerRepo) Create(_ context.Context, _ pgx.Tx, e *domain.LedgerEntry) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.entries = append(r.entries, *e)
	return nil
}

func (r *memLedgerRepo) GetByID(_ context.Context, id uuid.UUID) (*domain.LedgerEntry, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for i := range r.entries {
		if r.entries[i].ID == id {
			cp := r.entries[i]
			return &cp, nil
		}
	}
	return nil, nil
}

func (r *memLedgerRepo) ListByOwner(_ context.Context, ownerID uuid.UUID, limit int) ([]domain.LedgerEntry, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []domain.LedgerEntry
	for i := range r.entries {
		if r.entries[i].OwnerID == ownerID {
			out = append(out, r.entries[i])
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	if len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

func (r *memLedgerRepo) MarkRefunded(_ context.Context, _ pgx.Tx, id uuid.UUID) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for i := range r.entries {
		if r.entries[i].ID == id {
			r.entries[i].Status = domain.LedgerStatusRefunded
			return nil
		}
	}
	return pgx.ErrNoRows
}

func (r *memLedgerRepo) SumRefundedForPurchase(_ context.Context, _ pgx.Tx, originalID uuid.UUID) (float64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var sum float64
	for i := range r.entries {
		if r.entries[i].Kind != domain.LedgerKindRefund {
			continue
		}
		if ref, ok := r.entries[i].Metadata["original_transaction_id"].(string); ok && ref == originalID.String() {
			sum += r.entries[i].Amount
		}
	}
	return sum, nil
}

// byKind filters recorded entries for assertions.
func (r *memLedgerRepo) byKind(kind domain.LedgerKind) []domain.LedgerEntry {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []domain.LedgerEntry
	for i := range r.entries {
		if r.entries[i].Kind == kind {
			out = append(out, r.entries[i])
		}
	}
	return out
}

func (r *memLedgerRepo) count() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.entries)
}

// --- Mission repo ---

type memMissionRepo struct {
	mu       sync.Mutex
	missions map[uuid.UUID]domain.Mission
	progress map[uuid.UUID]domain.UserMissionProgress
}

func newMemMissionRepo() *memMissionRepo {
	return &memMissionRepo{
		missions: make(map[uuid.UUID]domain.Mission),
		progress: make(map[uuid.UUID]domain.UserMissionProgress),
	}
}

func (r *memMissionRepo) addMission(m domain.Mission) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.missions[m.ID] = m
}

func (r *memMissionRepo) GetMission(_ context.Context, id uuid.UUID) (*domain.Mission, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	m, ok := r.missions[id]
	if !ok {
		return nil, nil
	}
	cp := m
	return &cp, nil
}

func (r *memMissionRepo) CreateProgress(_ context.Context, p *domain.UserMissionProgress) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.progress[p.ID] = *p
	return nil
}

func (r *memMissionRepo) GetProgress(_ context.Context, ownerID, missionID uuid.UUID) (*domain.UserMissionProgress, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, p := range r.progress {
		if p.OwnerID == ownerID && p.MissionID == missionID {
			cp := p
			return &cp, nil
		}
	}
	return nil, nil
}

func (r *memMissionRepo) GetProgressForUpdate(ctx context.Context, _ pgx.Tx, ownerID, missionID uuid.UUID) (*domain.UserMissionProgress, error) {
	return r.GetProgress(ctx, ownerID, missionID)
}

func (r *memMissionRepo) ListOpenProgressByOwner(_ context.Context, ownerID uuid.UUID) ([]domain.UserMissionProgress, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []domain.UserMissionProgress
	for _, p := range r.progress {
		if p.OwnerID == ownerID && !p.IsCompleted {
			out = append(out, p)
		}
	}
	return out, nil
}

func (r *memMissionRepo) ListProgressByOwner(_ context.Context, ownerID uuid.UUID) ([]domain.UserMissionProgress, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []domain.UserMissionProgress
	for _, p := range r.progress {
		if p.OwnerID == ownerID {
			out = append(out, p)
		}
	}
	return out, nil
}

func (r *memMissionRepo) UpdateProgress(_ context.Context, _ pgx.Tx, p *domain.UserMissionProgress) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	existing, ok := r.progress[p.ID]
	if !ok || existing.IsCompleted {
		return pgx.ErrNoRows
	}
	cp := *p
	cp.RewardClaimed = existing.RewardClaimed
	r.progress[p.ID] = cp
	return nil
}

func (r *memMissionRepo) MarkRewardClaimed(_ context.Context, _ pgx.Tx, id uuid.UUID) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	p, ok := r.progress[id]
	if !ok || !p.IsCompleted || p.RewardClaimed {
		return pgx.ErrNoRows
	}
	p.RewardClaimed = true
	r.progress[id] = p
	return nil
}

// --- Card / merchant / user repos ---

type memCardRepo struct {
	mu    sync.Mutex
	cards map[string]domain.Card // keyed by number hash
}

func newMemCardRepo() *memCardRepo { return &memCardRepo{cards: make(map[string]domain.Card)} }

func (r *memCardRepo) Create(_ context.Context, c *domain.Card) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.cards[c.NumberHash] = *c
	return nil
}

func (r *memCardRepo) GetByNumberHash(_ context.Context, hash string) (*domain.Card, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	c, ok := r.cards[hash]
	if !ok {
		return nil, nil
	}
	cp := c
	return &cp, nil
}

type memMerchantRepo struct {
	mu        sync.Mutex
	merchants map[uuid.UUID]domain.Merchant
}

func newMemMerchantRepo() *memMerchantRepo {
	return &memMerchantRepo{merchants: make(map[uuid.UUID]domain.Merchant)}
}

func (r *memMerchantRepo) Create(_ context.Context, m *domain.Merchant) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.merchants[m.ID] = *m
	return nil
}

func (r *memMerchantRepo) GetByID(_ context.Context, id uuid.UUID) (*domain.Merchant, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	m, ok := r.merchants[id]
	if !ok {
		return nil, nil
	}
	cp := m
	return &cp, nil
}

type memUserRepo struct {
	mu    sync.Mutex
	users map[uuid.UUID]domain.User
}

func newMemUserRepo() *memUserRepo { return &memUserRepo{users: make(map[uuid.UUID]domain.User)} }

func (r *memUserRepo) Create(_ context.Context, u *domain.User) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.users[u.ID] = *u
	return nil
}

func (r *memUserRepo) GetByID(_ context.Context, id uuid.UUID) (*domain.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	u, ok := r.users[id]
	if !ok {
		return nil, nil
	}
	cp := u
	return &cp, nil
}

func (r *memUserRepo) GetByEmail(_ context.Context, email string) (*domain.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, u := range r.users {
		if u.Email == email {
			cp := u
			return &cp, nil
		}
	}
	return nil, nil
}
