package accounts

import (
	"context"
	"log/slog"
	"testing"
	"time"

	miniredis "github.com/alicebob/miniredis/v2"
	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"

	"github.com/emberbank/emberbank/internal/platform/cache"
	"github.com/emberbank/emberbank/internal/shared"
)

type memoryAccountRepo struct {
	accounts map[uuid.UUID]Account
	byNumber map[string]uuid.UUID
	inUse    map[uuid.UUID]bool
	getCalls int
}

func newMemoryAccountRepo() *memoryAccountRepo {
	return &memoryAccountRepo{
		accounts: make(map[uuid.UUID]Account),
		byNumber: make(map[string]uuid.UUID),
		inUse:    make(map[uuid.UUID]bool),
	}
}

func (r *memoryAccountRepo) Create(ctx context.Context, account Account) error {
	if _, taken := r.byNumber[account.Number]; taken {
		return ErrNumberTaken
	}
	for _, existing := range r.accounts {
		if existing.OwnerID == account.OwnerID && existing.Type == account.Type {
			return shared.ErrDuplicateAccountType
		}
	}
	r.accounts[account.ID] = account
	r.byNumber[account.Number] = account.ID
	return nil
}

func (r *memoryAccountRepo) GetByRef(ctx context.Context, ref Ref) (Account, error) {
	r.getCalls++
	if id, ok := ref.ID(); ok {
		if account, ok := r.accounts[id]; ok {
			return account, nil
		}
		return Account{}, shared.ErrAccountNotFound
	}
	if number, ok := ref.Number(); ok {
		if id, ok := r.byNumber[number]; ok {
			return r.accounts[id], nil
		}
	}
	return Account{}, shared.ErrAccountNotFound
}

func (r *memoryAccountRepo) ListByOwner(ctx context.Context, ownerID uuid.UUID) ([]Account, error) {
	var out []Account
	for _, account := range r.accounts {
		if account.OwnerID == ownerID {
			out = append(out, account)
		}
	}
	return out, nil
}

func (r *memoryAccountRepo) OwnerHasType(ctx context.Context, ownerID uuid.UUID, accountType AccountType) (bool, error) {
	for _, account := range r.accounts {
		if account.OwnerID == ownerID && account.Type == accountType {
			return true, nil
		}
	}
	return false, nil
}

func (r *memoryAccountRepo) NumberExists(ctx context.Context, number string) (bool, error) {
	_, taken := r.byNumber[number]
	return taken, nil
}

func (r *memoryAccountRepo) UpdateMeta(ctx context.Context, id uuid.UUID, accountType AccountType, currency string) error {
	account, ok := r.accounts[id]
	if !ok {
		return shared.ErrAccountNotFound
	}
	account.Type = accountType
	account.Currency = currency
	r.accounts[id] = account
	return nil
}

func (r *memoryAccountRepo) Delete(ctx context.Context, id uuid.UUID) error {
	if _, ok := r.accounts[id]; !ok {
		return shared.ErrAccountNotFound
	}
	if r.inUse[id] {
		return shared.ErrAccountInUse
	}
	account := r.accounts[id]
	delete(r.accounts, id)
	delete(r.byNumber, account.Number)
	return nil
}

func newAccountTestService(t *testing.T, repo *memoryAccountRepo) (*Service, *cache.Store) {
	t.Helper()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })
	store := cache.NewStore(client)
	return NewService(repo, store, slog.Default(), 10*time.Minute), store
}

func TestCreateAccount(t *testing.T) {
	repo := newMemoryAccountRepo()
	svc, _ := newAccountTestService(t, repo)

	account, err := svc.Create(context.Background(), CreateInput{
		OwnerID: uuid.New(),
		Type:    AccountTypeSavings,
	})
	require.NoError(t, err)
	require.Len(t, account.Number, 10)
	require.Equal(t, DefaultCurrency, account.Currency)
	require.True(t, account.Balance.Equal(decimal.Zero))
	require.Equal(t, AccountTypeSavings, account.Type)
}

func TestCreateRejectsSecondAccountOfSameType(t *testing.T) {
	repo := newMemoryAccountRepo()
	svc, _ := newAccountTestService(t, repo)
	owner := uuid.New()

	_, err := svc.Create(context.Background(), CreateInput{OwnerID: owner, Type: AccountTypeCurrent})
	require.NoError(t, err)
	_, err = svc.Create(context.Background(), CreateInput{OwnerID: owner, Type: AccountTypeCurrent})
	require.ErrorIs(t, err, shared.ErrDuplicateAccountType)

	// A different type is still fine.
	_, err = svc.Create(context.Background(), CreateInput{OwnerID: owner, Type: AccountTypeSavings})
	require.NoError(t, err)
}

func TestCreateRetriesOnNumberCollision(t *testing.T) {
	repo := newMemoryAccountRepo()
	svc, _ := newAccountTestService(t, repo)

	first, err := svc.Create(context.Background(), CreateInput{OwnerID: uuid.New(), Type: AccountTypeSavings})
	require.NoError(t, err)

	draws := []string{first.Number, first.Number, "4242424242"}
	svc.numberFn = func() string {
		next := draws[0]
		if len(draws) > 1 {
			draws = draws[1:]
		}
		return next
	}

	second, err := svc.Create(context.Background(), CreateInput{OwnerID: uuid.New(), Type: AccountTypeSavings})
	require.NoError(t, err)
	require.Equal(t, "4242424242", second.Number)
}

func TestCreateGivesUpAfterRepeatedCollisions(t *testing.T) {
	repo := newMemoryAccountRepo()
	svc, _ := newAccountTestService(t, repo)

	first, err := svc.Create(context.Background(), CreateInput{OwnerID: uuid.New(), Type: AccountTypeSavings})
	require.NoError(t, err)

	svc.numberFn = func() string { return first.Number }
	_, err = svc.Create(context.Background(), CreateInput{OwnerID: uuid.New(), Type: AccountTypeSavings})
	require.Error(t, err)
}

func TestCreateRejectsBadCurrency(t *testing.T) {
	repo := newMemoryAccountRepo()
	svc, _ := newAccountTestService(t, repo)

	_, err := svc.Create(context.Background(), CreateInput{OwnerID: uuid.New(), Type: AccountTypeSavings, Currency: "NAIRA"})
	require.Error(t, err)
}

func TestGetReadsThroughCache(t *testing.T) {
	repo := newMemoryAccountRepo()
	svc, _ := newAccountTestService(t, repo)

	created, err := svc.Create(context.Background(), CreateInput{OwnerID: uuid.New(), Type: AccountTypeSavings})
	require.NoError(t, err)

	got, err := svc.Get(context.Background(), ByID(created.ID))
	require.NoError(t, err)
	require.Equal(t, created.Number, got.Number)

	// Second read serves from the cached snapshot.
	calls := repo.getCalls
	got, err = svc.Get(context.Background(), ByNumber(created.Number))
	require.NoError(t, err)
	require.Equal(t, created.ID, got.ID)
	cached, err := svc.Get(context.Background(), ByID(created.ID))
	require.NoError(t, err)
	require.Equal(t, got.ID, cached.ID)
	require.Equal(t, calls+1, repo.getCalls)
}

func TestGetUnknownAccount(t *testing.T) {
	repo := newMemoryAccountRepo()
	svc, _ := newAccountTestService(t, repo)

	_, err := svc.Get(context.Background(), ByNumber("0000000000"))
	require.ErrorIs(t, err, shared.ErrAccountNotFound)
}

func TestUpdateMetaInvalidatesSnapshot(t *testing.T) {
	repo := newMemoryAccountRepo()
	svc, _ := newAccountTestService(t, repo)
	ctx := context.Background()

	created, err := svc.Create(ctx, CreateInput{OwnerID: uuid.New(), Type: AccountTypeSavings})
	require.NoError(t, err)

	// Warm the snapshot cache.
	_, err = svc.Get(ctx, ByID(created.ID))
	require.NoError(t, err)

	updated, err := svc.UpdateMeta(ctx, ByID(created.ID), UpdateInput{Currency: "usd"})
	require.NoError(t, err)
	require.Equal(t, "USD", updated.Currency)

	// The stale snapshot is gone; the next read sees the update.
	got, err := svc.Get(ctx, ByID(created.ID))
	require.NoError(t, err)
	require.Equal(t, "USD", got.Currency)
}

func TestDeleteRefusesAccountWithHistory(t *testing.T) {
	repo := newMemoryAccountRepo()
	svc, _ := newAccountTestService(t, repo)
	ctx := context.Background()

	created, err := svc.Create(ctx, CreateInput{OwnerID: uuid.New(), Type: AccountTypeSavings})
	require.NoError(t, err)
	repo.inUse[created.ID] = true

	err = svc.Delete(ctx, ByID(created.ID))
	require.ErrorIs(t, err, shared.ErrAccountInUse)

	_, err = svc.Get(ctx, ByID(created.ID))
	require.NoError(t, err)
}

func TestDeleteRemovesAccountAndCacheEntries(t *testing.T) {
	repo := newMemoryAccountRepo()
	svc, _ := newAccountTestService(t, repo)
	ctx := context.Background()

	created, err := svc.Create(ctx, CreateInput{OwnerID: uuid.New(), Type: AccountTypeSavings})
	require.NoError(t, err)
	_, err = svc.Get(ctx, ByID(created.ID))
	require.NoError(t, err)

	require.NoError(t, svc.Delete(ctx, ByID(created.ID)))

	_, err = svc.Get(ctx, ByID(created.ID))
	require.ErrorIs(t, err, shared.ErrAccountNotFound)
}
