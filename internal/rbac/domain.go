package rbac

import (
	"encoding/json"
	"time"

	"github.com/gatehouse-rbac/gatehouse/internal/shared"
)

// Status is the two-state lifecycle shared by roles.
type Status string

const (
	StatusEnabled  Status = "enabled"
	StatusDisabled Status = "disabled"
)

// Valid reports whether s is one of the two known states.
func (s Status) Valid() bool {
	return s == StatusEnabled || s == StatusDisabled
}

// Role is a named permission grouping.
type Role struct {
	ID          shared.EntityID `json:"id"`
	Name        string          `json:"name"`
	Description string          `json:"description,omitempty"`
	Permissions []string        `json:"permissions"`
	Status      Status          `json:"status"`
	// Admin marks the administrator designation. The distinguished role with
	// the sentinel id always carries it; other roles may share it.
	Admin     bool      `json:"admin,omitempty"`
	CreatedAt time.Time `json:"createdAt,omitempty"`
}

// Enabled reports whether the role is in the enabled state.
func (r *Role) Enabled() bool { return r.Status == StatusEnabled }

// IsAdministrator reports whether the role carries the administrator designation.
func (r *Role) IsAdministrator() bool { return r.Admin || r.ID.IsAdmin() }

// User is an account bound to exactly one role.
type User struct {
	ID       shared.EntityID `json:"id"`
	Username string          `json:"username"`
	// Password holds the stored credential, normally a bcrypt hash.
	Password  string          `json:"password"`
	RoleID    shared.EntityID `json:"roleId"`
	Email     string          `json:"email,omitempty"`
	Phone     string          `json:"phone,omitempty"`
	Avatar    string          `json:"avatar,omitempty"`
	CreatedAt time.Time       `json:"createdAt,omitempty"`
}

// MenuNode is one node of the navigation forest. IDs are unique across the
// whole forest, not just among siblings.
type MenuNode struct {
	ID         string     `json:"id"`
	Title      string     `json:"title"`
	Path       string     `json:"path,omitempty"`
	Icon       string     `json:"icon,omitempty"`
	Component  string     `json:"component,omitempty"`
	Permission string     `json:"permission,omitempty"`
	Type       string     `json:"type,omitempty"`
	Children   MenuForest `json:"children,omitempty"`
}

// MenuForest is an ordered sequence of menu trees.
type MenuForest []*MenuNode

// Clone returns a deep copy of the forest.
func (f MenuForest) Clone() MenuForest {
	if f == nil {
		return nil
	}
	out := make(MenuForest, 0, len(f))
	for _, n := range f {
		if n == nil {
			continue
		}
		c := *n
		c.Children = n.Children.Clone()
		out = append(out, &c)
	}
	return out
}

// UnmarshalJSON tolerates hand-edited documents: elements that are not
// objects are skipped instead of failing the whole forest.
func (f *MenuForest) UnmarshalJSON(data []byte) error {
	var raw []json.RawMessage
	if err := json.Unmarshal(data, &raw); err != nil {
		*f = nil
		return nil
	}
	out := make(MenuForest, 0, len(raw))
	for _, item := range raw {
		var n MenuNode
		if err := json.Unmarshal(item, &n); err != nil {
			continue
		}
		out = append(out, &n)
	}
	*f = out
	return nil
}

// UnmarshalJSON accepts numeric ids (older documents store generated ids as
// numbers) and treats a malformed children field as an empty sequence.
func (n *MenuNode) UnmarshalJSON(data []byte) error {
	type fields struct {
		ID         json.RawMessage `json:"id"`
		Title      string          `json:"title"`
		Path       string          `json:"path"`
		Icon       string          `json:"icon"`
		Component  string          `json:"component"`
		Permission string          `json:"permission"`
		Type       string          `json:"type"`
		Children   MenuForest      `json:"children"`
	}
	var raw fields
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	n.ID = decodeNodeID(raw.ID)
	n.Title = raw.Title
	n.Path = raw.Path
	n.Icon = raw.Icon
	n.Component = raw.Component
	n.Permission = raw.Permission
	n.Type = raw.Type
	n.Children = raw.Children
	return nil
}

func decodeNodeID(raw json.RawMessage) string {
	if len(raw) == 0 {
		return ""
	}
	var s string
	if err := json.Unmarshal(raw, &s); err == nil {
		return s
	}
	var num json.Number
	if err := json.Unmarshal(raw, &num); err == nil {
		return num.String()
	}
	return ""
}
