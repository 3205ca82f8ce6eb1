package integration

import (
	"context"
	"fmt"
	"sort"
	"sync"

	"yield-wallet/internal/core/domain"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
)

// --- In-Memory Wallet Repo ---

type inMemoryWalletRepo struct {
	mu      sync.RWMutex
	wallets map[uuid.UUID]domain.WalletAccount // keyed by wallet ID
}

func newInMemoryWalletRepo() *inMemoryWalletRepo {
	return &inMemoryWalletRepo{wallets: make(map[uuid.UUID]domain.WalletAccount)}
}

func (r *inMemoryWalletRepo) Create(ctx context.Context, w *domain.WalletAccount) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.wallets[w.ID] = *w
	return nil
}

func (r *inMemoryWalletRepo) GetByOwnerID(ctx context.Context, ownerID uuid.UUID) (*domain.WalletAccount, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	for _, w := range r.wallets {
		if w.OwnerID == ownerID {
			cp := w
			return &cp, nil
		}
	}
	return nil, nil
}

func (r *inMemoryWalletRepo) GetByOwnerIDForUpdate(ctx context.Context, tx pgx.Tx, ownerID uuid.UUID) (*domain.WalletAccount, error) {
	return r.GetByOwnerID(ctx, ownerID)
}

func (r *inMemoryWalletRepo) UpdateFunds(ctx context.Context, tx pgx.Tx, upd *domain.WalletAccount) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	w, ok := r.wallets[upd.ID]
	if !ok {
		return fmt.Errorf("wallet not found")
	}
	w.Balance = upd.Balance
	w.Shares = upd.Shares
	w.YieldEarned = upd.YieldEarned
	w.AvgIssueRate = upd.AvgIssueRate
	r.wallets[upd.ID] = w
	return nil
}

func (r *inMemoryWalletRepo) SetAutoStake(ctx context.Context, ownerID uuid.UUID, enabled bool) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for id, w := range r.wallets {
		if w.OwnerID == ownerID {
			w.AutoStakeEnabled = enabled
			r.wallets[id] = w
			return nil
		}
	}
	return fmt.Errorf("wallet not found")
}

// --- In-Memory Pool Repo ---

type inMemoryPoolRepo struct {
	mu    sync.RWMutex
	pools map[uuid.UUID]domain.LendingPool
}

func newInMemoryPoolRepo() *inMemoryPoolRepo {
	return &inMemoryPoolRepo{pools: make(map[uuid.UUID]domain.LendingPool)}
}

func (r *inMemoryPoolRepo) Create(ctx context.Context, p *domain.LendingPool) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.pools[p.ID] = *p
	return nil
}

func (r *inMemoryPoolRepo) Get(ctx context.Context, id uuid.UUID) (*domain.LendingPool, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	p, ok := r.pools[id]
	if !ok {
		return nil, nil
	}
	cp := p
	return &cp, nil
}

func (r *inMemoryPoolRepo) GetForUpdate(ctx context.Context, tx pgx.Tx, id uuid.UUID) (*domain.LendingPool, error) {
	return r.Get(ctx, id)
}

func (r *inMemoryPoolRepo) Update(ctx context.Context, tx pgx.Tx, p *domain.LendingPool) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.pools[p.ID]; !ok {
		return fmt.Errorf("pool not found")
	}
	r.pools[p.ID] = *p
	return nil
}

// --- In-Memory Ledger Repo ---

type inMemoryLedgerRepo struct {
	mu      sync.RWMutex
	entries []domain.LedgerEntry
}

func newInMemoryLedgerRepo() *inMemoryLedgerRepo {
	return &inMemoryLedgerRepo{}
}

func (r *inMemoryLedgerRepo) Create(ctx context.Context, tx pgx.Tx, e *domain.LedgerEntry) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.entries = append(r.entries, *e)
	return nil
}

func (r *inMemoryLedgerRepo) GetByID(ctx context.Context, id uuid.UUID) (*domain.LedgerEntry, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	for _, e := range r.entries {
		if e.ID == id {
			cp := e
			return &cp, nil
		}
	}
	return nil, nil
}

func (r *inMemoryLedgerRepo) ListByOwner(ctx context.Context, ownerID uuid.UUID, limit int) ([]domain.LedgerEntry, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	var result []domain.LedgerEntry
	for i := len(r.entries) - 1; i >= 0; i-- {
		if r.entries[i].OwnerID == ownerID {
			result = append(result, r.entries[i])
		}
	}
	sort.SliceStable(result, func(i, j int) bool {
		return result[i].CreatedAt.After(result[j].CreatedAt)
	})
	if limit > 0 && len(result) > limit {
		result = result[:limit]
	}
	return result, nil
}

func (r *inMemoryLedgerRepo) MarkRefunded(ctx context.Context, tx pgx.Tx, id uuid.UUID) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for i := range r.entries {
		if r.entries[i].ID == id && r.entries[i].Status == domain.LedgerStatusCompleted {
			r.entries[i].Status = domain.LedgerStatusRefunded
			return nil
		}
	}
	return fmt.Errorf("entry not found or not refundable")
}

func (r *inMemoryLedgerRepo) SumRefundedForPurchase(ctx context.Context, tx pgx.Tx, originalID uuid.UUID) (float64, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	var total float64
	want := originalID.String()
	for _, e := range r.entries {
		if e.Kind != domain.LedgerKindRefund {
			continue
		}
		if ref, ok := e.Metadata["original_transaction_id"].(string); ok && ref == want {
			total += e.Amount
		}
	}
	return total, nil
}

// --- In-Memory Mission Repo ---

type inMemoryMissionRepo struct {
	mu       sync.RWMutex
	missions map[uuid.UUID]domain.Mission
	progress map[string]domain.UserMissionProgress // ownerID|missionID
}

func newInMemoryMissionRepo() *inMemoryMissionRepo {
	return &inMemoryMissionRepo{
		missions: make(map[uuid.UUID]domain.Mission),
		progress: make(map[string]domain.UserMissionProgress),
	}
}

func progressKey(ownerID, missionID uuid.UUID) string {
	return ownerID.String() + "|" + missionID.String()
}

func (r *inMemoryMissionRepo) addMission(m domain.Mission) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.missions[m.ID] = m
}

func (r *inMemoryMissionRepo) GetMission(ctx context.Context, id uuid.UUID) (*domain.Mission, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	m, ok := r.missions[id]
	if !ok {
		return nil, nil
	}
	cp := m
	return &cp, nil
}

func (r *inMemoryMissionRepo) CreateProgress(ctx context.Context, p *domain.UserMissionProgress) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.progress[progressKey(p.OwnerID, p.MissionID)] = *p
	return nil
}

func (r *inMemoryMissionRepo) GetProgress(ctx context.Context, ownerID, missionID uuid.UUID) (*domain.UserMissionProgress, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	p, ok := r.progress[progressKey(ownerID, missionID)]
	if !ok {
		return nil, nil
	}
	cp := p
	return &cp, nil
}

func (r *inMemoryMissionRepo) ListOpenProgressByOwner(ctx context.Context, ownerID uuid.UUID) ([]domain.UserMissionProgress, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	var result []domain.UserMissionProgress
	for _, p := range r.progress {
		if p.OwnerID == ownerID && !p.IsCompleted {
			result = append(result, p)
		}
	}
	return result, nil
}

func (r *inMemoryMissionRepo) ListProgressByOwner(ctx context.Context, ownerID uuid.UUID) ([]domain.UserMissionProgress, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	var result []domain.UserMissionProgress
	for _, p := range r.progress {
		if p.OwnerID == ownerID {
			result = append(result, p)
		}
	}
	return result, nil
}

func (r *inMemoryMissionRepo) GetProgressForUpdate(ctx context.Context, tx pgx.Tx, ownerID, missionID uuid.UUID) (*domain.UserMissionProgress, error) {
	return r.GetProgress(ctx, ownerID, missionID)
}

func (r *inMemoryMissionRepo) UpdateProgress(ctx context.Context, tx pgx.Tx, p *domain.UserMissionProgress) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	key := progressKey(p.OwnerID, p.MissionID)
	existing, ok := r.progress[key]
	if !ok || existing.IsCompleted {
		return fmt.Errorf("mission progress not open: %s", p.ID)
	}
	cp := *p
	cp.RewardClaimed = existing.RewardClaimed
	r.progress[key] = cp
	return nil
}

func (r *inMemoryMissionRepo) MarkRewardClaimed(ctx context.Context, tx pgx.Tx, id uuid.UUID) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for key, p := range r.progress {
		if p.ID == id {
			if !p.IsCompleted || p.RewardClaimed {
				return fmt.Errorf("no unclaimed completed progress: %s", id)
			}
			p.RewardClaimed = true
			r.progress[key] = p
			return nil
		}
	}
	return fmt.Errorf("no unclaimed completed progress: %s", id)
}

// --- In-Memory Card Repo ---

type inMemoryCardRepo struct {
	mu    sync.RWMutex
	cards map[string]domain.Card // keyed by number hash
}

func newInMemoryCardRepo() *inMemoryCardRepo {
	return &inMemoryCardRepo{cards: make(map[string]domain.Card)}
}

func (r *inMemoryCardRepo) Create(ctx context.Context, c *domain.Card) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.cards[c.NumberHash] = *c
	return nil
}

func (r *inMemoryCardRepo) GetByNumberHash(ctx context.Context, hash string) (*domain.Card, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	c, ok := r.cards[hash]
	if !ok {
		return nil, nil
	}
	cp := c
	return &cp, nil
}

// --- In-Memory Merchant Repo ---

type inMemoryMerchantRepo struct {
	mu        sync.RWMutex
	merchants map[uuid.UUID]domain.Merchant
}

func newInMemoryMerchantRepo() *inMemoryMerchantRepo {
	return &inMemoryMerchantRepo{merchants: make(map[uuid.UUID]domain.Merchant)}
}

func (r *inMemoryMerchantRepo) Create(ctx context.Context, m *domain.Merchant) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.merchants[m.ID] = *m
	return nil
}

func (r *inMemoryMerchantRepo) GetByID(ctx context.Context, id uuid.UUID) (*domain.Merchant, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	m, ok := r.merchants[id]
	if !ok {
		return nil, nil
	}
	cp := m
	return &cp, nil
}

// --- In-Memory User Repo ---

type inMemoryUserRepo struct {
	mu    sync.RWMutex
	users map[uuid.UUID]domain.User
}

func newInMemoryUserRepo() *inMemoryUserRepo {
	return &inMemoryUserRepo{users: make(map[uuid.UUID]domain.User)}
}

func (r *inMemoryUserRepo) Create(ctx context.Context, u *domain.User) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.users[u.ID] = *u
	return nil
}

func (r *inMemoryUserRepo) GetByID(ctx context.Context, id uuid.UUID) (*domain.User, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	u, ok := r.users[id]
	if !ok {
		return nil, nil
	}
	cp := u
	return &cp, nil
}

func (r *inMemoryUserRepo) GetByEmail(ctx context.Context, email string) (*domain.User, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	for _, u := range r.users {
		if u.Email == email {
			cp := u
			return &cp, nil
		}
	}
	return nil, nil
}

// --- Serializing Transactor ---

// serialTransactor models the row-lock serialization the real pool rows
// provide: every transaction holds one global lock from Begin to
// Commit/Rollback, so concurrent requests observe the same ordering
// guarantees as SELECT ... FOR UPDATE gives in production.
type serialTransactor struct {
	mu sync.Mutex
}

func newSerialTransactor() *serialTransactor {
	return &serialTransactor{}
}

func (t *serialTransactor) Begin(ctx context.Context) (pgx.Tx, error) {
	t.mu.Lock()
	return &serialTx{mu: &t.mu}, nil
}

// serialTx releases the transactor lock on the first Commit or Rollback and
// ignores the rest, matching pgx's closed-tx behavior.
type serialTx struct {
	mu   *sync.Mutex
	done bool
}

func (t *serialTx) finish() {
	if !t.done {
		t.done = true
		t.mu.Unlock()
	}
}

func (t *serialTx) Commit(ctx context.Context) error   { t.finish(); return nil }
func (t *serialTx) Rollback(ctx context.Context) error { t.finish(); return nil }

func (t *serialTx) Begin(ctx context.Context) (pgx.Tx, error) { return t, nil }
func (t *serialTx) CopyFrom(ctx context.Context, tableName pgx.Identifier, columnNames []string, rowSrc pgx.CopyFromSource) (int64, error) {
	return 0, nil
}
func (t *serialTx) SendBatch(ctx context.Context, b *pgx.Batch) pgx.BatchResults { return nil }
func (t *serialTx) LargeObjects() pgx.LargeObjects                               { return pgx.LargeObjects{} }
func (t *serialTx) Prepare(ctx context.Context, name, sql string) (*pgconn.StatementDescription, error) {
	return nil, nil
}
func (t *serialTx) Exec(ctx context.Context, sql string, arguments ...any) (pgconn.CommandTag, error) {
	return pgconn.NewCommandTag(""), nil
}
func (t *serialTx) Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error) {
	return nil, nil
}
func (t *serialTx) QueryRow(ctx context.Context, sql string, args ...any) pgx.Row {
	return nil
}
func (t *serialTx) Conn() *pgx.Conn { return nil }
