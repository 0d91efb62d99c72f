package model

// Role is the coarse authority level supplied by the identity collaborator.
type Role string

const (
	RoleStudent Role = "student"
	RoleAdmin   Role = "admin"
)

// Identity is the authenticated caller of an engine operation.  The engine
// trusts it as given; credentials are checked upstream.
type Identity struct {
	UserID uint64
	Role   Role
}

// IsApprover reports whether the identity may approve or reject bookings.
func (i Identity) IsApprover() bool { return i.Role == RoleAdmin }
