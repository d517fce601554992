// Package rbac implements the role and ownership model: an ordered role
// type, effective-role resolution for teams and projects, and the guard
// predicates composed in front of every mutating operation.
package rbac

// Role is an ordered privilege level. Higher values grant strictly more
// access; None means no access at all (deny by default).
type Role int

const (
	None Role = iota
	Viewer
	Member
	Manager
	Admin
	Owner
)

// AtLeast reports whether r grants at least the privilege of threshold.
func (r Role) AtLeast(threshold Role) bool {
	return r >= threshold
}

func (r Role) String() string {
	switch r {
	case Owner:
		return "owner"
	case Admin:
		return "admin"
	case Manager:
		return "manager"
	case Member:
		return "member"
	case Viewer:
		return "viewer"
	default:
		return "none"
	}
}

// ParseRole maps a stored role string to a Role. Unknown strings resolve
// to None rather than erroring, keeping deny-by-default semantics.
func ParseRole(s string) Role {
	switch s {
	case "owner":
		return Owner
	case "admin":
		return Admin
	case "manager":
		return Manager
	case "member":
		return Member
	case "viewer":
		return Viewer
	default:
		return None
	}
}
