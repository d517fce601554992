package rbac

// Guard is a pure predicate deciding whether an actor may perform an
// action. Guards compose with Or; the composition is evaluated in front
// of the mutation and a false result is terminal for the request.
type Guard func() bool

// Or combines guards; the first guard that allows wins.
func Or(guards ...Guard) Guard {
	return func() bool {
		for _, g := range guards {
			if g() {
				return true
			}
		}
		return false
	}
}

// IsOwner allows when the actor owns the resource.
func IsOwner(actorID, ownerID uint) Guard {
	return func() bool { return actorID != 0 && actorID == ownerID }
}

// HasRole allows when the resolved role meets the threshold.
func HasRole(role, threshold Role) Guard {
	return func() bool { return role.AtLeast(threshold) }
}

// AdminOverride allows when the actor is a global admin.
func AdminOverride(isAdmin bool) Guard {
	return func() bool { return isAdmin }
}

// Allowed fields a member-role assignee may touch on a task update.
// Any other field in the payload fails the whole request.
var assigneeUpdatableFields = map[string]bool{
	"status":   true,
	"progress": true,
}

// AssigneeFieldsAllowed reports whether every field in the update payload
// is in the member-assignee allow-list. An empty payload is allowed.
func AssigneeFieldsAllowed(fields []string) bool {
	for _, f := range fields {
		if !assigneeUpdatableFields[f] {
			return false
		}
	}
	return true
}
