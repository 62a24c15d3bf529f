package models

import "testing"

func TestRoleAndStatusValid(t *testing.T) {
	if !RoleAdmin.Valid() || !RoleUser.Valid() {
		t.Error("known roles should be valid")
	}
	if Role("owner").Valid() {
		t.Error("unknown role should be invalid")
	}
	for _, s := range []Status{StatusPending, StatusApproved, StatusRejected} {
		if !s.Valid() {
			t.Errorf("status %q should be valid", s)
		}
	}
	if Status("").Valid() {
		t.Error("empty status should be invalid")
	}
}

func TestIdentity_Helpers(t *testing.T) {
	var nilIdentity *Identity
	if nilIdentity.IsAdmin() {
		t.Error("nil identity must not be admin")
	}

	id := &Identity{ID: "1", Email: "bob@example.com", Role: RoleAdmin, Status: StatusPending}
	if !id.IsAdmin() {
		t.Error("expected admin")
	}
	if !id.IsPending() {
		t.Error("expected pending")
	}
	if got := id.Initial(); got != "B" {
		t.Errorf("Initial() = %q, want B", got)
	}
	if got := (&Identity{}).Initial(); got != "?" {
		t.Errorf("Initial() on empty email = %q, want ?", got)
	}
}
