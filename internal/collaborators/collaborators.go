// Package collaborators declares the contracts the auction core consumes
// from the rest of the marketplace: identity, apartments and payments.
// The core never depends on their implementations.
package collaborators

import (
	"fmt"
	"sync"
	"time"

	"rental-auction/internal/auctionerrors"
	model "rental-auction/internal/models"
)

// UserDirectory exposes identity and role checks plus account blocking.
type UserDirectory interface {
	GetUser(userID string) (model.User, error)
	UserHasRole(userID, role string) (bool, error)
	BlockUser(userID, reason string) error
	UnblockUser(userID string) error
}

// ApartmentDirectory exposes apartment lookups and occupancy checks.
type ApartmentDirectory interface {
	GetApartment(apartmentID string) (model.Apartment, error)
	IsOccupiedBetween(apartmentID string, start, end time.Time) (bool, error)
}

// PaymentGateway authorizes a payment against a card. The concrete
// approval policy belongs to the gateway, not the auction core.
type PaymentGateway interface {
	AuthorizePayment(cardNumber string) (bool, error)
}

// MemoryDirectory is an in-memory UserDirectory and ApartmentDirectory
// used for local wiring and tests.
type MemoryDirectory struct {
	mu         sync.RWMutex
	users      map[string]model.User
	apartments map[string]model.Apartment
	occupied   map[string][]occupancy
	blocked    map[string]string // userID -> reason
}

type occupancy struct {
	start time.Time
	end   time.Time
}

// NewMemoryDirectory creates an empty directory.
func NewMemoryDirectory() *MemoryDirectory {
	return &MemoryDirectory{
		users:      make(map[string]model.User),
		apartments: make(map[string]model.Apartment),
		occupied:   make(map[string][]occupancy),
		blocked:    make(map[string]string),
	}
}

// AddUser registers a user.
func (d *MemoryDirectory) AddUser(u model.User) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.users[u.UserID] = u
}

// AddApartment registers an apartment.
func (d *MemoryDirectory) AddApartment(a model.Apartment) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.apartments[a.ApartmentID] = a
}

// AddOccupancy marks the apartment occupied over [start, end).
func (d *MemoryDirectory) AddOccupancy(apartmentID string, start, end time.Time) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.occupied[apartmentID] = append(d.occupied[apartmentID], occupancy{start: start, end: end})
}

// GetUser returns a user by id.
func (d *MemoryDirectory) GetUser(userID string) (model.User, error) {
	d.mu.RLock()
	defer d.mu.RUnlock()

	u, ok := d.users[userID]
	if !ok {
		return model.User{}, fmt.Errorf("get user %s: %w", userID, auctionerrors.ErrUserNotFound)
	}
	return u, nil
}

// UserHasRole reports whether the user carries the role.
func (d *MemoryDirectory) UserHasRole(userID, role string) (bool, error) {
	u, err := d.GetUser(userID)
	if err != nil {
		return false, err
	}
	return u.HasRole(role), nil
}

// BlockUser marks the user's account blocked.
func (d *MemoryDirectory) BlockUser(userID, reason string) error {
	d.mu.Lock()
	defer d.mu.Unlock()

	if _, ok := d.users[userID]; !ok {
		return fmt.Errorf("block user %s: %w", userID, auctionerrors.ErrUserNotFound)
	}
	d.blocked[userID] = reason
	return nil
}

// UnblockUser clears the user's block.
func (d *MemoryDirectory) UnblockUser(userID string) error {
	d.mu.Lock()
	defer d.mu.Unlock()

	if _, ok := d.users[userID]; !ok {
		return fmt.Errorf("unblock user %s: %w", userID, auctionerrors.ErrUserNotFound)
	}
	delete(d.blocked, userID)
	return nil
}

// BlockReason returns the block reason for a user, if blocked.
func (d *MemoryDirectory) BlockReason(userID string) (string, bool) {
	d.mu.RLock()
	defer d.mu.RUnlock()
	reason, ok := d.blocked[userID]
	return reason, ok
}

// GetApartment returns an apartment by id.
func (d *MemoryDirectory) GetApartment(apartmentID string) (model.Apartment, error) {
	d.mu.RLock()
	defer d.mu.RUnlock()

	a, ok := d.apartments[apartmentID]
	if !ok {
		return model.Apartment{}, fmt.Errorf("get apartment %s: %w", apartmentID, auctionerrors.ErrApartmentNotFound)
	}
	return a, nil
}

// IsOccupiedBetween reports whether any recorded occupancy overlaps
// [start, end).
func (d *MemoryDirectory) IsOccupiedBetween(apartmentID string, start, end time.Time) (bool, error) {
	d.mu.RLock()
	defer d.mu.RUnlock()

	for _, occ := range d.occupied[apartmentID] {
		if occ.start.Before(end) && occ.end.After(start) {
			return true, nil
		}
	}
	return false, nil
}
