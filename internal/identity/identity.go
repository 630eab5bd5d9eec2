// Package identity carries the authenticated actor context supplied by the
// gateway. The core trusts it completely; token verification happens upstream.
package identity

const (
	RoleUser  = "user"
	RoleAdmin = "admin"
)

type Identity struct {
	UserID  string
	Role    string
	Address string // default shipping address, may be empty
}

func (id Identity) IsAdmin() bool { return id.Role == RoleAdmin }
