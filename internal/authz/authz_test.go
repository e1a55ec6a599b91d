package authz

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/alfredjeanlab/datedvalues/internal/config"
)

const testModel = `
[request_definition]
r = sub, obj, act

[policy_definition]
p = sub, obj, act

[policy_effect]
e = some(where (p.eft == allow))

[matchers]
m = r.sub == p.sub && r.obj == p.obj && r.act == p.act
`

func writePolicy(t *testing.T, policy string) (string, string) {
	t.Helper()
	dir := t.TempDir()
	model := filepath.Join(dir, "model.conf")
	pol := filepath.Join(dir, "policy.csv")
	if err := os.WriteFile(model, []byte(testModel), 0o644); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(pol, []byte(policy), 0o644); err != nil {
		t.Fatal(err)
	}
	return model, pol
}

func TestUserContext(t *testing.T) {
	ctx := context.Background()
	if u := UserFromContext(ctx); u.Authenticated() {
		t.Fatalf("empty context user = %+v", u)
	}
	ctx = WithUser(ctx, User{Name: "ana", Staff: true})
	if u := UserFromContext(ctx); u.Name != "ana" || !u.Staff {
		t.Errorf("user = %+v", u)
	}
}

func TestStaffOnly(t *testing.T) {
	access := StaffOnly("staff")
	for _, tc := range []struct {
		name string
		user User
		want bool
	}{
		{"Anonymous", User{}, false},
		{"AnonymousStaffFlag", User{Staff: true}, false},
		{"Plain", User{Name: "bo"}, false},
		{"StaffFlag", User{Name: "bo", Staff: true}, true},
		{"StaffGroup", User{Name: "bo", Groups: []string{"ops", "staff"}}, true},
	} {
		t.Run(tc.name, func(t *testing.T) {
			if got := access(tc.user); got != tc.want {
				t.Errorf("StaffOnly(%+v) = %v, want %v", tc.user, got, tc.want)
			}
		})
	}
}

func TestAuthenticated(t *testing.T) {
	access := Authenticated()
	if access(User{}) {
		t.Error("anonymous admitted")
	}
	if !access(User{Name: "bo"}) {
		t.Error("named user denied")
	}
}

func TestCasbinAccess(t *testing.T) {
	model, policy := writePolicy(t, "p, user:ana, dated_values, edit\np, group:nurses, dated_values, edit\n")
	e, err := NewEnforcer(model, policy)
	if err != nil {
		t.Fatalf("NewEnforcer: %v", err)
	}
	access := CasbinAccess(e)

	if !access(User{Name: "Ana"}) {
		t.Error("user:ana should be admitted")
	}
	if !access(User{Name: "cy", Groups: []string{"Nurses"}}) {
		t.Error("group:nurses should be admitted")
	}
	if access(User{Name: "cy", Groups: []string{"visitors"}}) {
		t.Error("visitor admitted")
	}
	if access(User{}) {
		t.Error("anonymous admitted")
	}
}

func TestFromSettings(t *testing.T) {
	model, policy := writePolicy(t, "p, user:ana, dated_values, edit\n")

	staff, err := FromSettings(config.DefaultSettings().Access)
	if err != nil {
		t.Fatalf("staff: %v", err)
	}
	if staff(User{Name: "bo"}) || !staff(User{Name: "bo", Groups: []string{"staff"}}) {
		t.Error("default settings should admit the staff group only")
	}

	auth, err := FromSettings(config.AccessSettings{Mode: config.AccessAuthenticated})
	if err != nil {
		t.Fatalf("authenticated: %v", err)
	}
	if !auth(User{Name: "bo"}) {
		t.Error("authenticated mode denied a named user")
	}

	cb, err := FromSettings(config.AccessSettings{Mode: config.AccessCasbin, CasbinModel: model, CasbinPolicy: policy})
	if err != nil {
		t.Fatalf("casbin: %v", err)
	}
	if !cb(User{Name: "ana"}) || cb(User{Name: "bo"}) {
		t.Error("casbin mode did not follow the policy")
	}

	if _, err := FromSettings(config.AccessSettings{Mode: config.AccessCasbin, CasbinModel: "/nonexistent", CasbinPolicy: policy}); err == nil {
		t.Error("expected error for missing casbin model")
	}
	if _, err := FromSettings(config.AccessSettings{Mode: "root"}); err == nil {
		t.Error("expected error for unknown mode")
	}
}
