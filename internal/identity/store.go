// Package identity provides credential storage and lookup.
//
// The engine treats the store as an external collaborator: it only
// consumes Lookup. The in-memory implementation also carries the
// enrollment path used by the setup API.
package identity

import (
	"fmt"
	"sync"

	"golang.org/x/crypto/bcrypt"

	"github.com/duressd/duressd/pkg/errclass"
	"github.com/duressd/duressd/pkg/nameutil"
)

// Record is one enrolled identity. Secrets are stored as bcrypt hashes;
// the raw values are discarded at enrollment.
type Record struct {
	Username          string
	normalHash        []byte
	duressHash        []byte
	EmergencyContacts []string
}

// MatchesNormal reports whether the attempted secret is the normal one.
func (r *Record) MatchesNormal(secret string) bool {
	return bcrypt.CompareHashAndPassword(r.normalHash, []byte(secret)) == nil
}

// MatchesDuress reports whether the attempted secret is the duress code.
func (r *Record) MatchesDuress(secret string) bool {
	return bcrypt.CompareHashAndPassword(r.duressHash, []byte(secret)) == nil
}

// Store is the identity lookup interface consumed by the authenticator.
type Store interface {
	Lookup(username string) (*Record, error)
}

// EnrollParams are the inputs to enrollment.
type EnrollParams struct {
	Username          string
	NormalSecret      string
	DuressCode        string
	EmergencyContacts []string
}

// MemoryStore is a concurrency-safe in-memory identity store.
type MemoryStore struct {
	mu      sync.RWMutex
	records map[string]*Record
}

// NewMemoryStore creates an empty identity store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{records: make(map[string]*Record)}
}

// Enroll creates a new identity. The duress code must differ from the
// normal secret: if they coincide, classification would be ambiguous,
// so enrollment refuses the pair outright.
func (m *MemoryStore) Enroll(p EnrollParams) (*Record, error) {
	if err := nameutil.ValidateUsername(p.Username); err != nil {
		return nil, err
	}
	if p.NormalSecret == "" || p.DuressCode == "" {
		return nil, errclass.ErrNameInvalid.WithMessage("secret and duress code must not be empty")
	}
	if p.NormalSecret == p.DuressCode {
		return nil, errclass.ErrDuressCodeCollision.WithMessage("duress code must differ from the normal secret")
	}

	normalHash, err := bcrypt.GenerateFromPassword([]byte(p.NormalSecret), bcrypt.DefaultCost)
	if err != nil {
		return nil, fmt.Errorf("hash normal secret: %w", err)
	}
	duressHash, err := bcrypt.GenerateFromPassword([]byte(p.DuressCode), bcrypt.DefaultCost)
	if err != nil {
		return nil, fmt.Errorf("hash duress code: %w", err)
	}

	key := nameutil.Normalize(p.Username)
	rec := &Record{
		Username:          key,
		normalHash:        normalHash,
		duressHash:        duressHash,
		EmergencyContacts: append([]string(nil), p.EmergencyContacts...),
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	if _, exists := m.records[key]; exists {
		return nil, errclass.ErrIdentityExists.WithMessagef("identity %s already enrolled", key)
	}
	m.records[key] = rec
	return rec, nil
}

// Lookup returns the identity record for a username.
func (m *MemoryStore) Lookup(username string) (*Record, error) {
	key := nameutil.Normalize(username)

	m.mu.RLock()
	defer m.mu.RUnlock()
	rec, ok := m.records[key]
	if !ok {
		return nil, errclass.ErrIdentityNotFound.WithMessagef("unknown identity %s", key)
	}
	return rec, nil
}
