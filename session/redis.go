package session

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"maps"
	"sort"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/hupe1980/agentcore/core"
)

const defaultKeyPrefix = "agentcore"

// RedisOptions configure a RedisService beyond the client itself.
type RedisOptions struct {
	// KeyPrefix namespaces every key the service writes. Defaults to
	// "agentcore".
	KeyPrefix string

	// TTL expires stored sessions after the given duration. Zero means no
	// expiry. Shared app/user scopes are never expired.
	TTL time.Duration
}

// RedisService is a core.SessionService backed by Redis, suitable for
// multi-process deployments where several runners share session storage.
//
// Layout:
//
//	<prefix>:sess:<app>:<user>:<id>   JSON session record
//	<prefix>:sessions:<app>:<user>    set of session ids
//	<prefix>:appstate:<app>           JSON app scoped state
//	<prefix>:userstate:<app>:<user>   JSON user scoped state
//
// Commits for one session are serialized through a WATCH based optimistic
// transaction on the session key.
type RedisService struct {
	client *redis.Client
	prefix string
	ttl    time.Duration
}

// sessionRecord is the persisted shape of a session. Events round-trip
// through the Content part envelope codec.
type sessionRecord struct {
	ID             string         `json:"id"`
	AppName        string         `json:"app_name"`
	UserID         string         `json:"user_id"`
	State          map[string]any `json:"state"`
	Events         []core.Event   `json:"events"`
	Created        time.Time      `json:"created"`
	LastUpdateTime time.Time      `json:"last_update_time"`
}

// NewRedisService creates a session service on top of an existing client.
func NewRedisService(client *redis.Client, optFns ...func(o *RedisOptions)) *RedisService {
	opts := RedisOptions{KeyPrefix: defaultKeyPrefix}
	for _, fn := range optFns {
		fn(&opts)
	}
	return &RedisService{client: client, prefix: opts.KeyPrefix, ttl: opts.TTL}
}

func (s *RedisService) sessKey(appName, userID, sessionID string) string {
	return fmt.Sprintf("%s:sess:%s:%s:%s", s.prefix, appName, userID, sessionID)
}

func (s *RedisService) indexKey(appName, userID string) string {
	return fmt.Sprintf("%s:sessions:%s:%s", s.prefix, appName, userID)
}

func (s *RedisService) appStateKey(appName string) string {
	return fmt.Sprintf("%s:appstate:%s", s.prefix, appName)
}

func (s *RedisService) userStateKey(appName, userID string) string {
	return fmt.Sprintf("%s:userstate:%s:%s", s.prefix, appName, userID)
}

// Create creates (or replaces) a session record.
func (s *RedisService) Create(ctx context.Context, appName, userID, sessionID string, initialState map[string]any) (*core.Session, error) {
	if sessionID == "" {
		sessionID = core.NewID()
	}

	app, user, sessState, _ := core.SplitDelta(initialState)
	if err := s.mergeScope(ctx, s.appStateKey(appName), app); err != nil {
		return nil, err
	}
	if err := s.mergeScope(ctx, s.userStateKey(appName, userID), user); err != nil {
		return nil, err
	}

	now := time.Now().UTC()
	rec := sessionRecord{
		ID:             sessionID,
		AppName:        appName,
		UserID:         userID,
		State:          sessState,
		Events:         []core.Event{},
		Created:        now,
		LastUpdateTime: now,
	}
	if err := s.writeRecord(ctx, rec); err != nil {
		return nil, err
	}
	if err := s.client.SAdd(ctx, s.indexKey(appName, userID), sessionID).Err(); err != nil {
		return nil, fmt.Errorf("index session: %w", err)
	}

	return s.Get(ctx, appName, userID, sessionID)
}

// Get loads a session with the shared scopes merged into its state, or
// core.ErrSessionNotFound.
func (s *RedisService) Get(ctx context.Context, appName, userID, sessionID string) (*core.Session, error) {
	rec, err := s.readRecord(ctx, appName, userID, sessionID)
	if err != nil {
		return nil, err
	}
	return s.toSession(ctx, rec)
}

// List returns the user's sessions newest first, event logs omitted.
func (s *RedisService) List(ctx context.Context, appName, userID string) ([]*core.Session, error) {
	ids, err := s.client.SMembers(ctx, s.indexKey(appName, userID)).Result()
	if err != nil {
		return nil, fmt.Errorf("list sessions: %w", err)
	}

	var out []*core.Session
	for _, id := range ids {
		rec, err := s.readRecord(ctx, appName, userID, id)
		if errors.Is(err, core.ErrSessionNotFound) {
			// Expired record, drop the stale index entry.
			s.client.SRem(ctx, s.indexKey(appName, userID), id)
			continue
		}
		if err != nil {
			return nil, err
		}
		rec.Events = nil
		sess, err := s.toSession(ctx, rec)
		if err != nil {
			return nil, err
		}
		out = append(out, sess)
	}
	sort.Slice(out, func(i, j int) bool {
		return out[i].LastUpdateTime.After(out[j].LastUpdateTime)
	})
	return out, nil
}

// Delete removes a session record. Unknown sessions are a no-op.
func (s *RedisService) Delete(ctx context.Context, appName, userID, sessionID string) error {
	pipe := s.client.TxPipeline()
	pipe.Del(ctx, s.sessKey(appName, userID, sessionID))
	pipe.SRem(ctx, s.indexKey(appName, userID), sessionID)
	_, err := pipe.Exec(ctx)
	return err
}

// AppendEvent commits an event under a WATCH transaction on the session key
// so concurrent commits to the same session serialize. Partial events only
// touch the live session.
func (s *RedisService) AppendEvent(ctx context.Context, sess *core.Session, ev core.Event) error {
	if len(ev.Actions.StateDelta) > 0 {
		sess.State.Update(ev.Actions.StateDelta)
	}
	if ev.IsPartial() {
		return nil
	}

	app, user, sessState, _ := core.SplitDelta(ev.Actions.StateDelta)
	if err := s.mergeScope(ctx, s.appStateKey(sess.AppName), app); err != nil {
		return err
	}
	if err := s.mergeScope(ctx, s.userStateKey(sess.AppName, sess.UserID), user); err != nil {
		return err
	}

	key := s.sessKey(sess.AppName, sess.UserID, sess.ID)
	var committed time.Time

	txn := func(tx *redis.Tx) error {
		raw, err := tx.Get(ctx, key).Result()
		if errors.Is(err, redis.Nil) {
			return core.ErrSessionNotFound
		}
		if err != nil {
			return err
		}

		var rec sessionRecord
		if err := json.Unmarshal([]byte(raw), &rec); err != nil {
			return fmt.Errorf("decode session: %w", err)
		}

		if rec.State == nil {
			rec.State = map[string]any{}
		}
		maps.Copy(rec.State, sessState)
		rec.Events = append(rec.Events, ev)

		now := time.Now().UTC()
		if !now.After(rec.LastUpdateTime) {
			now = rec.LastUpdateTime.Add(time.Nanosecond)
		}
		rec.LastUpdateTime = now
		committed = now

		data, err := json.Marshal(rec)
		if err != nil {
			return fmt.Errorf("encode session: %w", err)
		}
		_, err = tx.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
			pipe.Set(ctx, key, data, s.ttl)
			return nil
		})
		return err
	}

	// Retry on write conflicts from concurrent committers.
	for i := 0; i < 16; i++ {
		err := s.client.Watch(ctx, txn, key)
		if err == nil {
			sess.AddEvent(ev)
			sess.LastUpdateTime = committed
			return nil
		}
		if !errors.Is(err, redis.TxFailedErr) {
			return err
		}
	}
	return fmt.Errorf("append event: too many write conflicts on session %s", sess.ID)
}

func (s *RedisService) mergeScope(ctx context.Context, key string, delta map[string]any) error {
	if len(delta) == 0 {
		return nil
	}

	txn := func(tx *redis.Tx) error {
		scope := map[string]any{}
		raw, err := tx.Get(ctx, key).Result()
		if err != nil && !errors.Is(err, redis.Nil) {
			return err
		}
		if raw != "" {
			if err := json.Unmarshal([]byte(raw), &scope); err != nil {
				return fmt.Errorf("decode scope %s: %w", key, err)
			}
		}
		maps.Copy(scope, delta)
		data, err := json.Marshal(scope)
		if err != nil {
			return err
		}
		_, err = tx.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
			pipe.Set(ctx, key, data, 0)
			return nil
		})
		return err
	}

	for i := 0; i < 16; i++ {
		err := s.client.Watch(ctx, txn, key)
		if err == nil {
			return nil
		}
		if !errors.Is(err, redis.TxFailedErr) {
			return err
		}
	}
	return fmt.Errorf("merge scope: too many write conflicts on %s", key)
}

func (s *RedisService) readScope(ctx context.Context, key string) (map[string]any, error) {
	raw, err := s.client.Get(ctx, key).Result()
	if errors.Is(err, redis.Nil) {
		return map[string]any{}, nil
	}
	if err != nil {
		return nil, err
	}
	scope := map[string]any{}
	if err := json.Unmarshal([]byte(raw), &scope); err != nil {
		return nil, fmt.Errorf("decode scope %s: %w", key, err)
	}
	return scope, nil
}

func (s *RedisService) readRecord(ctx context.Context, appName, userID, sessionID string) (sessionRecord, error) {
	raw, err := s.client.Get(ctx, s.sessKey(appName, userID, sessionID)).Result()
	if errors.Is(err, redis.Nil) {
		return sessionRecord{}, core.ErrSessionNotFound
	}
	if err != nil {
		return sessionRecord{}, err
	}
	var rec sessionRecord
	if err := json.Unmarshal([]byte(raw), &rec); err != nil {
		return sessionRecord{}, fmt.Errorf("decode session: %w", err)
	}
	return rec, nil
}

func (s *RedisService) writeRecord(ctx context.Context, rec sessionRecord) error {
	data, err := json.Marshal(rec)
	if err != nil {
		return fmt.Errorf("encode session: %w", err)
	}
	return s.client.Set(ctx, s.sessKey(rec.AppName, rec.UserID, rec.ID), data, s.ttl).Err()
}

func (s *RedisService) toSession(ctx context.Context, rec sessionRecord) (*core.Session, error) {
	appScope, err := s.readScope(ctx, s.appStateKey(rec.AppName))
	if err != nil {
		return nil, err
	}
	userScope, err := s.readScope(ctx, s.userStateKey(rec.AppName, rec.UserID))
	if err != nil {
		return nil, err
	}

	merged := make(map[string]any, len(rec.State)+len(appScope)+len(userScope))
	maps.Copy(merged, rec.State)
	maps.Copy(merged, appScope)
	maps.Copy(merged, userScope)

	sess := core.NewSession(rec.AppName, rec.UserID, rec.ID)
	sess.State = core.NewState(merged, nil)
	sess.Events = rec.Events
	sess.Created = rec.Created
	sess.LastUpdateTime = rec.LastUpdateTime
	return sess, nil
}

var _ core.SessionService = (*RedisService)(nil)
