package auth

import (
	"net/http"
	"strings"

	"golang.org/x/crypto/bcrypt"
)

const (
	RoleCustomer = "customer"
	RoleStaff    = "staff"
	RoleAdmin    = "admin"
)

const (
	RoleHeader     = "X-Role"
	StaffKeyHeader = "X-Staff-Key"
)

// StaffKeys verifies the X-Staff-Key header against bcrypt hashes configured
// per role. The gateway normally injects X-Role for authenticated users;
// staff keys exist for direct operational access without a user session.
type StaffKeys struct {
	staffHash []byte
	adminHash []byte
}

func NewStaffKeys(staffHash, adminHash string) *StaffKeys {
	return &StaffKeys{
		staffHash: []byte(strings.TrimSpace(staffHash)),
		adminHash: []byte(strings.TrimSpace(adminHash)),
	}
}

// ActorRole resolves the effective role for a request. A valid staff key
// outranks the forwarded role header; an invalid key degrades to customer
// rather than failing the request, since the cancellation policy treats
// unprivileged actors safely.
func (k *StaffKeys) ActorRole(r *http.Request) string {
	if key := strings.TrimSpace(r.Header.Get(StaffKeyHeader)); key != "" {
		if len(k.adminHash) > 0 && bcrypt.CompareHashAndPassword(k.adminHash, []byte(key)) == nil {
			return RoleAdmin
		}
		if len(k.staffHash) > 0 && bcrypt.CompareHashAndPassword(k.staffHash, []byte(key)) == nil {
			return RoleStaff
		}
	}
	switch strings.TrimSpace(r.Header.Get(RoleHeader)) {
	case RoleAdmin:
		return RoleAdmin
	case RoleStaff:
		return RoleStaff
	default:
		return RoleCustomer
	}
}

// Privileged reports whether role bypasses customer-facing timing rules.
func Privileged(role string) bool {
	return role == RoleAdmin || role == RoleStaff
}
