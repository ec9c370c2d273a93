package session

import (
	"encoding/json"
	"errors"
	"fmt"

	"github.com/rs/zerolog"
)

// Storage keys, one per persisted entry
const (
	identityKey = "user"
	tokenKey    = "token"
)

// Identity is the authenticated user's profile
type Identity struct {
	ID    string `json:"id"`
	Name  string `json:"name"`
	Email string `json:"email"`
}

// Snapshot is the result of reading the store. Identity is nil and Token is
// empty when no complete, well-formed session is stored.
type Snapshot struct {
	Identity *Identity
	Token    string
}

// Present reports whether the snapshot holds a session
func (s Snapshot) Present() bool {
	return s.Identity != nil && s.Token != ""
}

// Store persists the identity and bearer token of one origin across process
// runs. The identity and token may live in different backends.
type Store struct {
	identities Backend
	tokens     Backend
	logger     zerolog.Logger
}

// NewStore creates a store writing identities and tokens to the given backends
func NewStore(identities, tokens Backend, logger zerolog.Logger) *Store {
	return &Store{
		identities: identities,
		tokens:     tokens,
		logger:     logger,
	}
}

// Save writes both entries. If the token cannot be written the identity write
// is undone so a later Read never sees half a session.
func (s *Store) Save(identity Identity, token string) error {
	if identity.ID == "" {
		return errors.New("identity ID is required")
	}
	if token == "" {
		return errors.New("token is required")
	}

	data, err := json.Marshal(identity)
	if err != nil {
		return fmt.Errorf("failed to marshal identity: %w", err)
	}

	if err := s.identities.Set(identityKey, string(data)); err != nil {
		return fmt.Errorf("failed to save identity: %w", err)
	}

	if err := s.tokens.Set(tokenKey, token); err != nil {
		if delErr := s.identities.Delete(identityKey); delErr != nil {
			s.logger.Warn().Err(delErr).Msg("Failed to roll back identity after token write failure")
		}
		return fmt.Errorf("failed to save token: %w", err)
	}

	return nil
}

// Read returns the stored session. Missing, partial and malformed entries all
// read as an empty snapshot.
func (s *Store) Read() Snapshot {
	raw, ok, err := s.identities.Get(identityKey)
	if err != nil {
		s.logger.Debug().Err(err).Msg("Stored identity unreadable, treating as no session")
		return Snapshot{}
	}
	if !ok {
		return Snapshot{}
	}

	var identity Identity
	if err := json.Unmarshal([]byte(raw), &identity); err != nil {
		s.logger.Debug().Err(err).Msg("Stored identity malformed, treating as no session")
		return Snapshot{}
	}
	if identity.ID == "" {
		s.logger.Debug().Msg("Stored identity has no ID, treating as no session")
		return Snapshot{}
	}

	token, ok, err := s.tokens.Get(tokenKey)
	if err != nil {
		s.logger.Debug().Err(err).Msg("Stored token unreadable, treating as no session")
		return Snapshot{}
	}
	if !ok || token == "" {
		s.logger.Debug().Msg("Stored identity has no token, treating as no session")
		return Snapshot{}
	}

	return Snapshot{Identity: &identity, Token: token}
}

// Clear removes both entries. Both deletes are attempted even if one fails.
func (s *Store) Clear() error {
	return errors.Join(
		s.identities.Delete(identityKey),
		s.tokens.Delete(tokenKey),
	)
}
