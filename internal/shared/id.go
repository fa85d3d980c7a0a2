package shared

import (
	"encoding/json"
	"fmt"
	"strconv"
)

// AdminSentinel is the fixed identifier of the distinguished administrator
// role and the protected administrator username.
const AdminSentinel = "admin"

// EntityID is a tagged identifier for roles and users: either a value drawn
// from the numeric sequence, or the fixed administrator sentinel. Comparison
// and sequence generation operate only over the numeric variant, so the
// sentinel never collides with generated ids.
type EntityID struct {
	seq   int64
	admin bool
}

// AdministratorID is the sentinel identifier.
var AdministratorID = EntityID{admin: true}

// NumericID builds an id from the numeric sequence.
func NumericID(n int64) EntityID {
	return EntityID{seq: n}
}

// ParseID converts the wire form of an identifier. Accepted forms are the
// administrator sentinel and base-10 integers.
func ParseID(raw string) (EntityID, error) {
	if raw == AdminSentinel {
		return AdministratorID, nil
	}
	n, err := strconv.ParseInt(raw, 10, 64)
	if err != nil {
		return EntityID{}, fmt.Errorf("parse id %q: %w", raw, ErrInvalidInput)
	}
	return EntityID{seq: n}, nil
}

// IsAdmin reports whether the id is the administrator sentinel.
func (id EntityID) IsAdmin() bool { return id.admin }

// IsZero reports whether the id is unset.
func (id EntityID) IsZero() bool { return !id.admin && id.seq == 0 }

// Seq returns the numeric value and whether the id is the numeric variant.
func (id EntityID) Seq() (int64, bool) {
	if id.admin {
		return 0, false
	}
	return id.seq, true
}

func (id EntityID) String() string {
	if id.admin {
		return AdminSentinel
	}
	return strconv.FormatInt(id.seq, 10)
}

// MarshalJSON encodes the id in its wire form.
func (id EntityID) MarshalJSON() ([]byte, error) {
	return json.Marshal(id.String())
}

// UnmarshalJSON accepts both string and bare-number forms; documents produced
// by earlier revisions of the system used numbers for generated ids.
func (id *EntityID) UnmarshalJSON(data []byte) error {
	var raw any
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	switch v := raw.(type) {
	case string:
		parsed, err := ParseID(v)
		if err != nil {
			return err
		}
		*id = parsed
		return nil
	case float64:
		*id = EntityID{seq: int64(v)}
		return nil
	default:
		return fmt.Errorf("id must be a string or number: %w", ErrInvalidInput)
	}
}

// NextID returns the successor of the largest numeric id in ids, or 1 when no
// numeric ids exist. Sentinel ids are ignored.
func NextID(ids []EntityID) EntityID {
	var max int64
	for _, id := range ids {
		if n, ok := id.Seq(); ok && n > max {
			max = n
		}
	}
	return EntityID{seq: max + 1}
}
