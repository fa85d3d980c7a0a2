package rbac

import (
	"context"
	"strconv"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/gatehouse-rbac/gatehouse/internal/shared"
)

const stalenessKeyPrefix = "gatehouse:pw_changed_at:"

// Staleness records per-user password-change markers so that credentials
// issued before the change stop being accepted. The engine itself only
// signals that a change happened; this transport-side store is what enforces
// re-authentication. A nil Staleness (or one without a client) disables the
// check and old tokens simply live out their TTL.
type Staleness struct {
	client *redis.Client
	ttl    time.Duration
}

// NewStaleness builds a marker store. The TTL only needs to outlive the
// credential TTL.
func NewStaleness(client *redis.Client, ttl time.Duration) *Staleness {
	return &Staleness{client: client, ttl: ttl}
}

// MarkChanged records that the user's password changed now.
func (s *Staleness) MarkChanged(ctx context.Context, userID shared.EntityID) error {
	if s == nil || s.client == nil {
		return nil
	}
	val := strconv.FormatInt(time.Now().Unix(), 10)
	return s.client.Set(ctx, stalenessKeyPrefix+userID.String(), val, s.ttl).Err()
}

// IsStale reports whether the principal's credential was issued before the
// user's most recent password change. Lookup failures are treated as not
// stale; availability of redis must not lock everyone out.
func (s *Staleness) IsStale(ctx context.Context, p *Principal) bool {
	if s == nil || s.client == nil || p == nil {
		return false
	}
	raw, err := s.client.Get(ctx, stalenessKeyPrefix+p.UserID.String()).Result()
	if err != nil {
		return false
	}
	changedAt, err := strconv.ParseInt(raw, 10, 64)
	if err != nil {
		return false
	}
	return p.IssuedAt.Unix() < changedAt
}
