// Package authz decides who may use the dated values editor.
package authz

import (
	"context"
	"fmt"
	"slices"
	"strings"

	"github.com/casbin/casbin/v2"
	fileadapter "github.com/casbin/casbin/v2/persist/file-adapter"

	"github.com/alfredjeanlab/datedvalues/internal/config"
)

// Casbin object and action checked for editor access.
const (
	Object = "dated_values"
	Action = "edit"
)

// User is the identity attached to a request. The zero User is anonymous.
type User struct {
	Name   string   `json:"name"`
	Staff  bool     `json:"staff"`
	Groups []string `json:"groups,omitempty"`
}

// Authenticated reports whether the user has a name.
func (u User) Authenticated() bool {
	return u.Name != ""
}

// InGroup reports whether the user belongs to group.
func (u User) InGroup(group string) bool {
	return group != "" && slices.Contains(u.Groups, group)
}

type userKey struct{}

// WithUser returns a copy of ctx carrying u.
func WithUser(ctx context.Context, u User) context.Context {
	return context.WithValue(ctx, userKey{}, u)
}

// UserFromContext returns the user stored in ctx, or the anonymous user.
func UserFromContext(ctx context.Context) User {
	u, _ := ctx.Value(userKey{}).(User)
	return u
}

// AccessFunc reports whether a user may use the editor.
type AccessFunc func(User) bool

// StaffOnly admits staff users and members of staffGroup.
func StaffOnly(staffGroup string) AccessFunc {
	return func(u User) bool {
		return u.Authenticated() && (u.Staff || u.InGroup(staffGroup))
	}
}

// Authenticated admits any named user.
func Authenticated() AccessFunc {
	return func(u User) bool {
		return u.Authenticated()
	}
}

// NewEnforcer loads a casbin model and a CSV policy file.
func NewEnforcer(modelPath, policyPath string) (*casbin.Enforcer, error) {
	adapter := fileadapter.NewAdapter(policyPath)
	enforcer, err := casbin.NewEnforcer(modelPath)
	if err != nil {
		return nil, err
	}
	enforcer.SetAdapter(adapter)
	if err := enforcer.LoadPolicy(); err != nil {
		return nil, err
	}
	return enforcer, nil
}

// Subjects returns the casbin subjects a user is checked as: the user itself
// and each of its groups.
func Subjects(u User) []string {
	subs := []string{"user:" + strings.ToLower(u.Name)}
	for _, g := range u.Groups {
		g = strings.ToLower(strings.TrimSpace(g))
		if g != "" {
			subs = append(subs, "group:"+g)
		}
	}
	return subs
}

// CasbinAccess admits a user when any of its subjects may edit dated values.
// Enforcement errors deny access.
func CasbinAccess(e casbin.IEnforcer) AccessFunc {
	return func(u User) bool {
		if !u.Authenticated() {
			return false
		}
		for _, sub := range Subjects(u) {
			ok, err := e.Enforce(sub, Object, Action)
			if err == nil && ok {
				return true
			}
		}
		return false
	}
}

// FromSettings builds the AccessFunc selected by the access settings.
func FromSettings(s config.AccessSettings) (AccessFunc, error) {
	switch s.Mode {
	case "", config.AccessStaff:
		return StaffOnly(s.StaffGroup), nil
	case config.AccessAuthenticated:
		return Authenticated(), nil
	case config.AccessCasbin:
		e, err := NewEnforcer(s.CasbinModel, s.CasbinPolicy)
		if err != nil {
			return nil, fmt.Errorf("authz: load casbin policy: %w", err)
		}
		return CasbinAccess(e), nil
	default:
		return nil, fmt.Errorf("authz: unknown access mode %q", s.Mode)
	}
}
