// Package sessions holds the redis-backed session store. Sessions are
// ephemeral: an opaque random token maps to an account id plus a
// remember flag, expiring through redis TTLs. Nothing is written to the
// relational store.
package sessions

import (
	"context"
	"crypto/rand"
	"encoding/base64"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/redis/go-redis/v9"

	"school/api/internal/ids"
)

var ErrSessionNotFound = errors.New("session not found")

const (
	sessionKeyPrefix = "session:"
	indexKeyPrefix   = "account_sessions:"
	tokenBytes       = 32
)

type Session struct {
	ID        string
	AccountID int64
	Remember  bool
	ExpiresAt time.Time
}

type Store struct {
	client      *redis.Client
	ttl         time.Duration
	rememberTTL time.Duration
}

func NewStore(client *redis.Client, ttl, rememberTTL time.Duration) *Store {
	return &Store{
		client:      client,
		ttl:         ttl,
		rememberTTL: rememberTTL,
	}
}

// Create issues a fresh session for the account and returns it together
// with the opaque token handed to the client. The remember flag extends
// the lifetime from the short default to the remember TTL.
func (s *Store) Create(ctx context.Context, accountID int64, remember bool) (Session, string, error) {
	buf := make([]byte, tokenBytes)
	if _, err := rand.Read(buf); err != nil {
		return Session{}, "", fmt.Errorf("generate session token: %w", err)
	}
	token := base64.RawURLEncoding.EncodeToString(buf)

	ttl := s.ttl
	if remember {
		ttl = s.rememberTTL
	}

	session := Session{
		ID:        ids.New(),
		AccountID: accountID,
		Remember:  remember,
		ExpiresAt: time.Now().Add(ttl),
	}

	key := sessionKeyPrefix + token
	pipe := s.client.TxPipeline()
	pipe.HSet(ctx, key, map[string]interface{}{
		"id":         session.ID,
		"account_id": session.AccountID,
		"remember":   boolField(session.Remember),
	})
	pipe.Expire(ctx, key, ttl)
	pipe.SAdd(ctx, indexKey(accountID), token)
	pipe.Expire(ctx, indexKey(accountID), s.rememberTTL)
	if _, err := pipe.Exec(ctx); err != nil {
		return Session{}, "", fmt.Errorf("store session: %w", err)
	}

	return session, token, nil
}

// Get resolves a client token to its session. Expired and unknown
// tokens are indistinguishable.
func (s *Store) Get(ctx context.Context, token string) (Session, error) {
	fields, err := s.client.HGetAll(ctx, sessionKeyPrefix+token).Result()
	if err != nil {
		return Session{}, fmt.Errorf("load session: %w", err)
	}
	if len(fields) == 0 {
		return Session{}, ErrSessionNotFound
	}

	accountID, err := strconv.ParseInt(fields["account_id"], 10, 64)
	if err != nil {
		return Session{}, ErrSessionNotFound
	}

	return Session{
		ID:        fields["id"],
		AccountID: accountID,
		Remember:  fields["remember"] == "1",
	}, nil
}

// Delete removes the session for the token. Deleting an absent session
// is not an error, which makes logout idempotent.
func (s *Store) Delete(ctx context.Context, token string) error {
	session, err := s.Get(ctx, token)
	if errors.Is(err, ErrSessionNotFound) {
		return nil
	}
	if err != nil {
		return err
	}

	pipe := s.client.TxPipeline()
	pipe.Del(ctx, sessionKeyPrefix+token)
	pipe.SRem(ctx, indexKey(session.AccountID), token)
	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("delete session: %w", err)
	}
	return nil
}

// DeleteAll revokes every session held by the account. Used when an
// account is deleted or deactivated.
func (s *Store) DeleteAll(ctx context.Context, accountID int64) error {
	tokens, err := s.client.SMembers(ctx, indexKey(accountID)).Result()
	if err != nil {
		return fmt.Errorf("list sessions: %w", err)
	}

	pipe := s.client.TxPipeline()
	for _, token := range tokens {
		pipe.Del(ctx, sessionKeyPrefix+token)
	}
	pipe.Del(ctx, indexKey(accountID))
	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("delete sessions: %w", err)
	}
	return nil
}

// PruneIndexes drops index entries whose session key has already
// expired. Run periodically; the indexes otherwise accumulate tokens of
// sessions redis expired on its own.
func (s *Store) PruneIndexes(ctx context.Context) (int, error) {
	pruned := 0
	iter := s.client.Scan(ctx, 0, indexKeyPrefix+"*", 100).Iterator()
	for iter.Next(ctx) {
		key := iter.Val()
		tokens, err := s.client.SMembers(ctx, key).Result()
		if err != nil {
			return pruned, fmt.Errorf("scan index %s: %w", key, err)
		}
		for _, token := range tokens {
			exists, err := s.client.Exists(ctx, sessionKeyPrefix+token).Result()
			if err != nil {
				return pruned, err
			}
			if exists == 0 {
				if err := s.client.SRem(ctx, key, token).Err(); err != nil {
					return pruned, err
				}
				pruned++
			}
		}
	}
	if err := iter.Err(); err != nil {
		return pruned, fmt.Errorf("scan session indexes: %w", err)
	}
	return pruned, nil
}

func indexKey(accountID int64) string {
	return indexKeyPrefix + strconv.FormatInt(accountID, 10)
}

func boolField(b bool) string {
	if b {
		return "1"
	}
	return "0"
}
