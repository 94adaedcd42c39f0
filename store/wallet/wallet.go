package wallet

import (
	"context"
	"sync"

	sq "github.com/Masterminds/squirrel"
	"github.com/lumapay/onboard/core"
	"github.com/lumapay/onboard/store"
	"github.com/tsenart/nap"
	"github.com/zyedidia/generic/cache"
)

func New(db *nap.DB) core.WalletStore {
	return &walletStore{
		db:        db,
		addresses: cache.New[string, string](256),
	}
}

type walletStore struct {
	db *nap.DB

	mux       sync.Mutex
	addresses *cache.Cache[string, string]
}

func (s *walletStore) Save(ctx context.Context, email, address string) error {
	b := sq.Insert("wallets").
		Columns("email", "address").
		Values(email, address).
		Suffix("ON CONFLICT (email) DO UPDATE SET address = EXCLUDED.address, updated_at = now()").
		PlaceholderFormat(sq.Dollar)

	if _, err := b.RunWith(s.db).ExecContext(ctx); err != nil {
		return err
	}

	s.mux.Lock()
	s.addresses.Put(email, address)
	s.mux.Unlock()

	return nil
}

func (s *walletStore) Find(ctx context.Context, email string) (string, error) {
	s.mux.Lock()
	address, ok := s.addresses.Get(email)
	s.mux.Unlock()

	if ok {
		return address, nil
	}

	address, err := s.find(ctx, email)
	if err != nil {
		if store.IsErrNotFound(err) {
			return "", nil
		}

		return "", err
	}

	s.mux.Lock()
	s.addresses.Put(email, address)
	s.mux.Unlock()

	return address, nil
}

func (s *walletStore) find(ctx context.Context, email string) (string, error) {
	b := sq.Select("address").
		From("wallets").
		Where(sq.Eq{"email": email}).
		PlaceholderFormat(sq.Dollar)

	var address string
	if err := b.RunWith(s.db).QueryRowContext(ctx).Scan(&address); err != nil {
		return "", err
	}

	return address, nil
}
