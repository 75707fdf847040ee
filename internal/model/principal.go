package model

// Roles carried in the access token's "role" claim.
const (
	RoleUser  = "USER"
	RoleAdmin = "ADMIN"
)

// Principal is the authenticated caller as reported by the session
// provider.
type Principal struct {
	UserID  uint64
	IsAdmin bool
}

// CanAccess reports whether the principal may act on a resource owned
// by ownerID.
func (p Principal) CanAccess(ownerID uint64) bool {
	return p.IsAdmin || p.UserID == ownerID
}
