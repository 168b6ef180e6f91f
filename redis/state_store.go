package redis

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/NextMind-AI/marlie/dialog"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog/log"
)

const statePrefix = "conversation_state:"

// ErrStateConflict is returned when a patch kept losing the optimistic lock.
var ErrStateConflict = errors.New("redis: conversation state changed concurrently")

var _ dialog.StateStore = (*StateStore)(nil)

// StateStore keeps one JSON document per (tenant, phone).
type StateStore struct {
	client     *Client
	ttl        time.Duration
	maxRetries int
	now        func() time.Time
}

// NewStateStore builds the store. A zero ttl keeps states forever.
func NewStateStore(client *Client, ttl time.Duration) *StateStore {
	return &StateStore{
		client:     client,
		ttl:        ttl,
		maxRetries: 5,
		now:        time.Now,
	}
}

func stateKey(tenantID, phone string) string {
	return statePrefix + tenantID + ":" + phone
}

func (s *StateStore) Get(ctx context.Context, tenantID, phone string) (*dialog.State, error) {
	raw, err := s.client.rdb.Get(ctx, stateKey(tenantID, phone)).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("redis: get state %s: %w", phone, err)
	}
	return decodeState(raw)
}

// Patch merges the patch into the stored state inside a WATCH/MULTI
// transaction, creating the state when it does not exist.
func (s *StateStore) Patch(ctx context.Context, tenantID, phone string, patch dialog.StatePatch) error {
	key := stateKey(tenantID, phone)

	apply := func(tx *redis.Tx) error {
		st := dialog.NewState(tenantID, phone, s.now())
		raw, err := tx.Get(ctx, key).Bytes()
		switch {
		case errors.Is(err, redis.Nil):
		case err != nil:
			return err
		default:
			if st, err = decodeState(raw); err != nil {
				return err
			}
		}

		patch.Apply(st, s.now())
		data, err := json.Marshal(st)
		if err != nil {
			return err
		}

		_, err = tx.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
			pipe.Set(ctx, key, data, s.ttl)
			return nil
		})
		return err
	}

	for attempt := 0; attempt < s.maxRetries; attempt++ {
		err := s.client.rdb.Watch(ctx, apply, key)
		if err == nil {
			return nil
		}
		if errors.Is(err, redis.TxFailedErr) {
			log.Debug().Str("key", key).Int("attempt", attempt+1).Msg("State changed during patch, retrying")
			continue
		}
		return fmt.Errorf("redis: patch state %s: %w", phone, err)
	}
	return ErrStateConflict
}

// Replace overwrites the whole state at its own (tenant, phone) key.
func (s *StateStore) Replace(ctx context.Context, st *dialog.State) error {
	data, err := json.Marshal(st)
	if err != nil {
		return fmt.Errorf("redis: encode state %s: %w", st.Phone, err)
	}
	if err := s.client.rdb.Set(ctx, stateKey(st.TenantID, st.Phone), data, s.ttl).Err(); err != nil {
		return fmt.Errorf("redis: replace state %s: %w", st.Phone, err)
	}
	return nil
}

func (s *StateStore) Delete(ctx context.Context, tenantID, phone string) error {
	if err := s.client.rdb.Del(ctx, stateKey(tenantID, phone)).Err(); err != nil {
		return fmt.Errorf("redis: delete state %s: %w", phone, err)
	}
	return nil
}

// List returns every conversation of the tenant, most recently updated
// first. Unreadable documents are skipped.
func (s *StateStore) List(ctx context.Context, tenantID string) ([]*dialog.State, error) {
	prefix := statePrefix + tenantID + ":"

	var states []*dialog.State
	iter := s.client.rdb.Scan(ctx, 0, prefix+"*", 100).Iterator()
	for iter.Next(ctx) {
		key := iter.Val()
		raw, err := s.client.rdb.Get(ctx, key).Bytes()
		if errors.Is(err, redis.Nil) {
			continue
		}
		if err != nil {
			return nil, fmt.Errorf("redis: list states: %w", err)
		}
		st, err := decodeState(raw)
		if err != nil {
			log.Warn().Err(err).Str("key", key).Msg("Skipping unreadable conversation state")
			continue
		}
		if st.Phone == "" {
			st.Phone = strings.TrimPrefix(key, prefix)
		}
		states = append(states, st)
	}
	if err := iter.Err(); err != nil {
		return nil, fmt.Errorf("redis: list states: %w", err)
	}

	sort.Slice(states, func(i, j int) bool {
		return states[i].UpdatedAt.After(states[j].UpdatedAt)
	})
	return states, nil
}

func decodeState(raw []byte) (*dialog.State, error) {
	var st dialog.State
	if err := json.Unmarshal(raw, &st); err != nil {
		return nil, fmt.Errorf("redis: decode state: %w", err)
	}
	if st.Version > dialog.StateVersion {
		log.Warn().
			Int("version", st.Version).
			Str("phone", st.Phone).
			Msg("Conversation state written by a newer version")
	}
	return &st, nil
}
