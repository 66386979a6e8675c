// internal/app/store/ratelimit/store.go
package ratelimit

import (
	"context"
	"errors"
	"strings"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// CollectionName holds one document per username with recent login failures.
const CollectionName = "login_attempts"

// Attempt tracks failed admin logins for one username.
type Attempt struct {
	Username     string     `bson:"_id"`
	AttemptCount int        `bson:"attempt_count"`
	WindowStart  time.Time  `bson:"window_start"`
	LockedUntil  *time.Time `bson:"locked_until"`
	LastAttempt  time.Time  `bson:"last_attempt"` // TTL anchor
}

// Decision is the outcome of a rate limit check.
type Decision struct {
	Allowed     bool
	Remaining   int // -1 while locked
	LockedUntil *time.Time
}

// Store limits login attempts per username.
type Store struct {
	c               *mongo.Collection
	maxAttempts     int
	windowDuration  time.Duration
	lockoutDuration time.Duration
	now             func() time.Time
}

// New creates a rate limit Store. maxAttempts failures inside window lock
// the username for lockout.
func New(db *mongo.Database, maxAttempts int, window, lockout time.Duration) *Store {
	return &Store{
		c:               db.Collection(CollectionName),
		maxAttempts:     maxAttempts,
		windowDuration:  window,
		lockoutDuration: lockout,
		now:             time.Now,
	}
}

// EnsureIndexes creates the TTL index that drops stale records after a day.
func (s *Store) EnsureIndexes(ctx context.Context) error {
	_, err := s.c.Indexes().CreateOne(ctx, mongo.IndexModel{
		Keys:    bson.D{{Key: "last_attempt", Value: 1}},
		Options: options.Index().SetExpireAfterSeconds(86400).SetName("idx_login_attempts_ttl"),
	})
	return err
}

func normalizeUsername(username string) string {
	return strings.ToLower(strings.TrimSpace(username))
}

// Check reports whether username may attempt a login now. Lookup errors
// fail open.
func (s *Store) Check(ctx context.Context, username string) Decision {
	full := Decision{Allowed: true, Remaining: s.maxAttempts}

	attempt, err := s.Get(ctx, username)
	if err != nil || attempt == nil {
		return full
	}

	now := s.now()
	if attempt.LockedUntil != nil {
		if now.Before(*attempt.LockedUntil) {
			return Decision{Allowed: false, Remaining: -1, LockedUntil: attempt.LockedUntil}
		}
		return full
	}
	if now.After(attempt.WindowStart.Add(s.windowDuration)) {
		return full
	}

	remaining := s.maxAttempts - attempt.AttemptCount
	if remaining <= 0 {
		return Decision{Allowed: false, Remaining: 0}
	}
	return Decision{Allowed: true, Remaining: remaining}
}

// RecordFailure counts one failed login and returns the resulting decision.
// The call that reaches maxAttempts starts the lockout.
func (s *Store) RecordFailure(ctx context.Context, username string) (Decision, error) {
	key := normalizeUsername(username)
	now := s.now()

	attempt, err := s.Get(ctx, key)
	if err != nil {
		return Decision{Allowed: true, Remaining: s.maxAttempts}, err
	}
	if attempt == nil || s.expired(attempt, now) {
		attempt = &Attempt{Username: key, WindowStart: now}
	}
	attempt.AttemptCount++
	attempt.LastAttempt = now
	attempt.LockedUntil = nil

	d := Decision{Allowed: true, Remaining: s.maxAttempts - attempt.AttemptCount}
	if attempt.AttemptCount >= s.maxAttempts {
		until := now.Add(s.lockoutDuration)
		attempt.LockedUntil = &until
		d = Decision{Allowed: false, Remaining: -1, LockedUntil: &until}
	}

	_, err = s.c.ReplaceOne(ctx, bson.M{"_id": key}, attempt, options.Replace().SetUpsert(true))
	return d, err
}

// Clear removes the record for username after a successful login.
func (s *Store) Clear(ctx context.Context, username string) error {
	_, err := s.c.DeleteOne(ctx, bson.M{"_id": normalizeUsername(username)})
	return err
}

// Get returns the attempt record for username, or nil when there is none.
func (s *Store) Get(ctx context.Context, username string) (*Attempt, error) {
	var attempt Attempt
	err := s.c.FindOne(ctx, bson.M{"_id": normalizeUsername(username)}).Decode(&attempt)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &attempt, nil
}

// expired reports whether attempt no longer counts: its window has passed or
// its lockout has been served.
func (s *Store) expired(attempt *Attempt, now time.Time) bool {
	if attempt.LockedUntil != nil {
		return !now.Before(*attempt.LockedUntil)
	}
	return now.After(attempt.WindowStart.Add(s.windowDuration))
}
