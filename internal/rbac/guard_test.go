package rbac

import "testing"

func TestOrFirstAllowWins(t *testing.T) {
	calls := 0
	deny := Guard(func() bool { calls++; return false })
	allow := Guard(func() bool { calls++; return true })

	if !Or(deny, allow, deny)() {
		t.Fatal("expected composed guard to allow")
	}
	if calls != 2 {
		t.Errorf("expected short circuit after allow, got %d calls", calls)
	}

	if Or(deny, deny)() {
		t.Error("all-deny composition should deny")
	}
	if Or()() {
		t.Error("empty composition should deny")
	}
}

func TestIsOwner(t *testing.T) {
	if !IsOwner(7, 7)() {
		t.Error("matching ids should allow")
	}
	if IsOwner(7, 8)() {
		t.Error("mismatched ids should deny")
	}
	if IsOwner(0, 0)() {
		t.Error("zero actor should deny even on match")
	}
}

func TestHasRoleAndAdminOverride(t *testing.T) {
	if !HasRole(Admin, Manager)() {
		t.Error("admin should meet manager threshold")
	}
	if HasRole(Member, Manager)() {
		t.Error("member should not meet manager threshold")
	}
	if !Or(HasRole(Member, Manager), AdminOverride(true))() {
		t.Error("admin override should rescue the denied role check")
	}
}

func TestAssigneeFieldsAllowed(t *testing.T) {
	tests := []struct {
		name   string
		fields []string
		want   bool
	}{
		{"status and progress", []string{"status", "progress"}, true},
		{"status only", []string{"status"}, true},
		{"empty payload", nil, true},
		{"title rejected", []string{"title"}, false},
		{"mixed payload rejected entirely", []string{"status", "due_date"}, false},
		{"priority rejected", []string{"progress", "priority"}, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := AssigneeFieldsAllowed(tt.fields); got != tt.want {
				t.Errorf("AssigneeFieldsAllowed(%v) = %v, want %v", tt.fields, got, tt.want)
			}
		})
	}
}
