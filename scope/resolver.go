// Package scope resolves user-supplied scope identifiers to canonical
// subscription IDs, with session memoization and a persisted fallback.
package scope

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/yairfalse/peili/cache"
	"github.com/yairfalse/peili/telemetry"
	"github.com/yairfalse/peili/types"
)

// NameLookup resolves a friendly scope name remotely.
type NameLookup interface {
	LookupScopeByName(ctx context.Context, name string) (string, error)
}

// PersistentStore is the durable single-value fallback for the last-used
// scope. The resolver is its sole writer.
type PersistentStore interface {
	Get() (string, error)
	Set(scopeID string) error
}

const sessionKey = "last_used"

// Resolver resolves scope candidates. Every successful resolution records
// the result in the session cache and the persistent store, so a later call
// with no candidate continues the same working scope.
type Resolver struct {
	lookup  NameLookup
	store   PersistentStore
	session *cache.Cache[string]
	logger  *telemetry.Logger
}

// NewResolver creates a resolver. sessionTTL bounds how long a resolved
// scope is remembered in-process without re-reading the store.
func NewResolver(lookup NameLookup, store PersistentStore, sessionTTL time.Duration, opts ...cache.Option) *Resolver {
	return &Resolver{
		lookup:  lookup,
		store:   store,
		session: cache.New[string]("scope-session", sessionTTL, opts...),
		logger:  telemetry.NewLogger("scope-resolver"),
	}
}

// Resolve turns a candidate (canonical GUID, friendly name, or empty) into
// a canonical scope ID.
func (r *Resolver) Resolve(ctx context.Context, candidate string) (string, error) {
	candidate = strings.TrimSpace(candidate)

	if candidate == "" {
		return r.resolveDefault(ctx)
	}

	if id, ok := canonicalID(candidate); ok {
		r.record(ctx, id)
		return id, nil
	}

	return r.resolveByName(ctx, candidate)
}

// resolveDefault falls back to the session memo, then the persisted value.
func (r *Resolver) resolveDefault(ctx context.Context) (string, error) {
	if id, ok := r.session.Get(sessionKey); ok {
		return id, nil
	}

	id, err := r.store.Get()
	if err != nil {
		r.logger.WithContext(ctx).Warn().Err(err).Msg("scope store read failed")
		return "", types.ErrNoScopeAvailable
	}
	if id == "" {
		return "", types.ErrNoScopeAvailable
	}

	// Read-through: refresh the session so the store is not hit again.
	r.session.Put(sessionKey, id)
	return id, nil
}

// resolveByName performs the remote lookup exactly once per call.
func (r *Resolver) resolveByName(ctx context.Context, name string) (string, error) {
	id, err := r.lookup.LookupScopeByName(ctx, name)
	if err != nil {
		r.logger.WithContext(ctx).Warn().
			Err(err).
			Str("candidate", name).
			Msg("scope lookup failed")
		var notFound *types.ScopeNotFoundError
		if errors.As(err, &notFound) {
			return "", notFound
		}
		return "", &types.ScopeNotFoundError{Candidate: name}
	}

	r.record(ctx, id)
	return id, nil
}

// record updates both memo layers. Writes are idempotent last-write-wins;
// a store failure downgrades to a warning because resolution itself
// succeeded.
func (r *Resolver) record(ctx context.Context, id string) {
	r.session.Put(sessionKey, id)
	if err := r.store.Set(id); err != nil {
		r.logger.WithContext(ctx).Warn().
			Err(err).
			Str("scope", id).
			Msg("failed to persist scope memo")
	}
}

// canonicalID validates the strict GUID grammar (hyphenated 8-4-4-4-12)
// and returns the normalized lowercase form.
func canonicalID(candidate string) (string, bool) {
	if len(candidate) != 36 {
		return "", false
	}
	parsed, err := uuid.Parse(candidate)
	if err != nil {
		return "", false
	}
	return parsed.String(), true
}
