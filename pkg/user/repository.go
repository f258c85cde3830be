package user

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"

	"github.com/google/uuid"

	"github.com/rhuss/warden/pkg/storage"
)

// Sentinel errors.
var (
	ErrNotFound      = errors.New("user not found")
	ErrEmailTaken    = errors.New("email already registered")
	ErrEmailRequired = errors.New("email is required")
)

// Repository reads and writes users through a RecordStore. Every call
// reloads the store first so users added by another process (cmd/useradd
// writing the same file) are visible without a restart.
type Repository struct {
	records storage.RecordStore

	// mu serializes the check-then-insert in Create.
	mu sync.Mutex
}

// NewRepository creates a repository over the given store.
func NewRepository(records storage.RecordStore) *Repository {
	return &Repository{records: records}
}

// NewUser describes an account to create.
type NewUser struct {
	Email     string
	Password  string
	FirstName string
	LastName  string
}

// Create validates, hashes and persists a new user.
func (r *Repository) Create(ctx context.Context, nu NewUser) (*User, error) {
	email := strings.TrimSpace(nu.Email)
	if email == "" {
		return nil, ErrEmailRequired
	}

	hash, err := HashPassword(nu.Password)
	if err != nil {
		return nil, err
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if err := r.load(ctx); err != nil {
		return nil, err
	}
	existing, err := r.records.Search(ctx, storage.Filter{fieldEmail: email})
	if err != nil {
		return nil, fmt.Errorf("checking email: %w", err)
	}
	if len(existing) > 0 {
		return nil, ErrEmailTaken
	}

	u := &User{
		ID:           uuid.NewString(),
		Email:        email,
		PasswordHash: hash,
		FirstName:    nu.FirstName,
		LastName:     nu.LastName,
	}
	if err := r.records.Put(ctx, u.toRecord()); err != nil {
		return nil, fmt.Errorf("storing user: %w", err)
	}
	if err := r.records.Save(ctx); err != nil {
		return nil, fmt.Errorf("saving users: %w", err)
	}

	// Re-read to pick up store-assigned timestamps.
	return r.get(ctx, u.ID)
}

// Get returns the user with the given ID.
func (r *Repository) Get(ctx context.Context, id string) (*User, error) {
	if id == "" {
		return nil, ErrNotFound
	}
	if err := r.load(ctx); err != nil {
		return nil, err
	}
	return r.get(ctx, id)
}

func (r *Repository) get(ctx context.Context, id string) (*User, error) {
	rec, err := r.records.Get(ctx, id)
	if errors.Is(err, storage.ErrNotFound) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("loading user: %w", err)
	}
	return fromRecord(rec), nil
}

// SearchByEmail returns all users registered with email.
func (r *Repository) SearchByEmail(ctx context.Context, email string) ([]*User, error) {
	if err := r.load(ctx); err != nil {
		return nil, err
	}
	recs, err := r.records.Search(ctx, storage.Filter{fieldEmail: email})
	if err != nil {
		return nil, fmt.Errorf("searching users: %w", err)
	}
	users := make([]*User, 0, len(recs))
	for _, rec := range recs {
		users = append(users, fromRecord(rec))
	}
	return users, nil
}

// Count returns the number of users.
func (r *Repository) Count(ctx context.Context) (int, error) {
	if err := r.load(ctx); err != nil {
		return 0, err
	}
	return r.records.Count(ctx)
}

func (r *Repository) load(ctx context.Context) error {
	if err := r.records.Load(ctx); err != nil {
		return fmt.Errorf("loading users: %w", err)
	}
	return nil
}
