// Package credential implements the Credential Store (spec §4.1, C1): it
// maps identity to profile, verifies hashed passwords, and mutates profile
// sub-state (avatar, friends, game history, achievements).
//
// Password hashing follows the pattern the lambdcalculus-scs teacher-pack
// repo uses for its own auth table (golang.org/x/crypto/bcrypt), which is
// also what the original Rust source (auth_server.rs) reaches for.
package credential

import (
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"

	"github.com/vrsocial/roomcore/internal/v1/apierr"
)

// Achievement is an unlocked achievement record (spec §3).
type Achievement struct {
	ID          string
	Name        string
	Description string
	UnlockedAt  time.Time
}

// Profile is the full, non-redacted player profile owned by the store.
// Never leaves the package directly — callers receive a PublicProfile.
type Profile struct {
	ID           string
	Username     string
	Email        string
	PasswordHash []byte
	CreatedAt    time.Time
	AvatarURL    string
	GamesCreated []string
	GamesPlayed  []string
	Friends      []string
	Achievements []Achievement
}

// PublicProfile is the redacted projection returned to callers: it exposes
// FriendCount but never the friend list or the password hash (spec §3,
// invariant "public profile never contains the password hash").
type PublicProfile struct {
	ID           string
	Username     string
	Email        string
	CreatedAt    time.Time
	AvatarURL    string
	GamesCreated []string
	GamesPlayed  []string
	FriendCount  int
	Achievements []Achievement
}

func (p *Profile) toPublic() PublicProfile {
	return PublicProfile{
		ID:           p.ID,
		Username:     p.Username,
		Email:        p.Email,
		CreatedAt:    p.CreatedAt,
		AvatarURL:    p.AvatarURL,
		GamesCreated: append([]string(nil), p.GamesCreated...),
		GamesPlayed:  append([]string(nil), p.GamesPlayed...),
		FriendCount:  len(p.Friends),
		Achievements: append([]Achievement(nil), p.Achievements...),
	}
}

// Hasher is the external password-hashing collaborator (spec §6). The
// production Hasher wraps bcrypt; tests can substitute a cheaper fake.
type Hasher interface {
	Hash(password string) ([]byte, error)
	Verify(password string, hash []byte) bool
}

// BcryptHasher is the production Hasher, using bcrypt at an
// implementation-chosen work factor.
type BcryptHasher struct {
	Cost int
}

// NewBcryptHasher constructs a Hasher at bcrypt's default cost.
func NewBcryptHasher() *BcryptHasher {
	return &BcryptHasher{Cost: bcrypt.DefaultCost}
}

func (h *BcryptHasher) Hash(password string) ([]byte, error) {
	cost := h.Cost
	if cost == 0 {
		cost = bcrypt.DefaultCost
	}
	return bcrypt.GenerateFromPassword([]byte(password), cost)
}

func (h *BcryptHasher) Verify(password string, hash []byte) bool {
	return bcrypt.CompareHashAndPassword(hash, []byte(password)) == nil
}

// Store is the process-wide Credential Store. A single mutex serializes
// the email-uniqueness check with the id/email inserts, so two concurrent
// signups with the same email produce exactly one success (spec §4.1).
type Store struct {
	mu         sync.Mutex
	hasher     Hasher
	profiles   map[string]*Profile
	emailIndex map[string]string // email -> player id
}

// NewStore constructs an empty Credential Store backed by hasher.
func NewStore(hasher Hasher) *Store {
	return &Store{
		hasher:     hasher,
		profiles:   make(map[string]*Profile),
		emailIndex: make(map[string]string),
	}
}

// Signup validates input, hashes the password, and inserts a new profile.
// Validation order (first failure wins, spec §4.1): username length,
// email shape, password length, then email uniqueness.
func (s *Store) Signup(username, email, password string) (string, PublicProfile, error) {
	if len(username) < 3 {
		return "", PublicProfile{}, fmt.Errorf("username must be at least 3 characters: %w", apierr.ErrValidation)
	}
	if !containsAt(email) {
		return "", PublicProfile{}, fmt.Errorf("email must contain '@': %w", apierr.ErrValidation)
	}
	if len(password) < 8 {
		return "", PublicProfile{}, fmt.Errorf("password must be at least 8 characters: %w", apierr.ErrValidation)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.emailIndex[email]; exists {
		return "", PublicProfile{}, fmt.Errorf("Email already registered: %w", apierr.ErrValidation)
	}

	hash, err := s.hasher.Hash(password)
	if err != nil {
		return "", PublicProfile{}, fmt.Errorf("hashing password: %w", apierr.ErrInternal)
	}

	profile := &Profile{
		ID:           uuid.NewString(),
		Username:     username,
		Email:        email,
		PasswordHash: hash,
		CreatedAt:    time.Now().UTC(),
	}

	s.profiles[profile.ID] = profile
	s.emailIndex[email] = profile.ID

	return profile.ID, profile.toPublic(), nil
}

// Login resolves email to a profile and verifies the password. Every
// failure path — unknown email, missing profile, wrong password — returns
// the same InvalidCredentials error so the caller cannot distinguish which
// step failed (spec §4.1, §9).
func (s *Store) Login(email, password string) (string, error) {
	s.mu.Lock()
	id, hasEmail := s.emailIndex[email]
	var profile *Profile
	if hasEmail {
		profile = s.profiles[id]
	}
	s.mu.Unlock()

	if profile == nil {
		return "", apierr.ErrInvalidCredentials
	}
	if !s.hasher.Verify(password, profile.PasswordHash) {
		return "", apierr.ErrInvalidCredentials
	}
	return profile.ID, nil
}

// GetProfile returns the redacted public projection of playerID's profile.
func (s *Store) GetProfile(playerID string) (PublicProfile, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	p, ok := s.profiles[playerID]
	if !ok {
		return PublicProfile{}, false
	}
	return p.toPublic(), true
}

// UpdateAvatar sets or clears (empty string) playerID's avatar url.
// Idempotent; returns whether the profile existed.
func (s *Store) UpdateAvatar(playerID, avatarURL string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	p, ok := s.profiles[playerID]
	if !ok {
		return false
	}
	p.AvatarURL = avatarURL
	return true
}

// AddFriend inserts friendID into playerID's friend list iff not already
// present. Does not verify friendID corresponds to an existing profile,
// and does not add the reverse edge (spec §4.1, §9).
func (s *Store) AddFriend(playerID, friendID string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	p, ok := s.profiles[playerID]
	if !ok {
		return false
	}
	for _, f := range p.Friends {
		if f == friendID {
			return false
		}
	}
	p.Friends = append(p.Friends, friendID)
	return true
}

// RecordCreatedGame unconditionally appends gameID to playerID's created
// game history. No-op if the player is unknown.
func (s *Store) RecordCreatedGame(playerID, gameID string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if p, ok := s.profiles[playerID]; ok {
		p.GamesCreated = append(p.GamesCreated, gameID)
	}
}

// RecordPlayedGame appends gameID to playerID's played-game history iff not
// already present (deduplicated, spec §3).
func (s *Store) RecordPlayedGame(playerID, gameID string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	p, ok := s.profiles[playerID]
	if !ok {
		return
	}
	for _, g := range p.GamesPlayed {
		if g == gameID {
			return
		}
	}
	p.GamesPlayed = append(p.GamesPlayed, gameID)
}

// UnlockAchievement appends a new achievement with the current timestamp.
// Does not dedupe by id — the same achievement id can appear more than
// once; callers must dedupe if they need that (spec §4.1, §9 open question).
func (s *Store) UnlockAchievement(playerID, achievementID, name, description string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	p, ok := s.profiles[playerID]
	if !ok {
		return
	}
	p.Achievements = append(p.Achievements, Achievement{
		ID:          achievementID,
		Name:        name,
		Description: description,
		UnlockedAt:  time.Now().UTC(),
	})
}

func containsAt(email string) bool {
	for _, c := range email {
		if c == '@' {
			return true
		}
	}
	return false
}
