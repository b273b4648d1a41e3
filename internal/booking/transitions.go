// internal/booking/transitions.go
package booking

import "rentnexus/internal/auth"

// transition is one permitted edge of the lifecycle graph for one actor
// class. Ownership (landlord of the property, tenant of the booking) is
// checked before the table is consulted.
type transition struct {
	role auth.Role
	from Status
	to   Status
}

// allowedTransitions is the full lifecycle graph. REJECTED, CANCELLED and
// COMPLETED are terminal: no row leaves them. COMPLETED is otherwise only
// reachable through the expiry sweep; the admin edge exists for manual
// correction.
var allowedTransitions = map[transition]bool{
	{auth.RoleAdmin, StatusPending, StatusApproved}:   true,
	{auth.RoleAdmin, StatusPending, StatusRejected}:   true,
	{auth.RoleAdmin, StatusPending, StatusCancelled}:  true,
	{auth.RoleAdmin, StatusApproved, StatusCancelled}: true,
	{auth.RoleAdmin, StatusApproved, StatusCompleted}: true,

	{auth.RoleLandlord, StatusPending, StatusApproved}:   true,
	{auth.RoleLandlord, StatusPending, StatusRejected}:   true,
	{auth.RoleLandlord, StatusApproved, StatusCancelled}: true,

	{auth.RoleTenant, StatusPending, StatusCancelled}: true,
}

// AllowedTransition reports whether an actor with the given role may move a
// booking from one status to another.
func AllowedTransition(role auth.Role, from, to Status) bool {
	return allowedTransitions[transition{role: role, from: from, to: to}]
}
