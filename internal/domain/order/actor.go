package order

import "github.com/erp/orderhook/internal/domain/shared"

// Role is the authorization level of a human actor
type Role string

const (
	RoleOwner    Role = "owner"
	RoleAdmin    Role = "admin"
	RoleOperator Role = "operator"
)

// Actor identifies who performs a manual lifecycle operation
type Actor struct {
	ID   string
	Role Role
}

// Validate checks that the actor is identified
func (a Actor) Validate() error {
	if a.ID == "" {
		return shared.NewDomainError("UNAUTHORIZED", "Actor identity is required")
	}
	return nil
}

// CanHardDelete reports whether the actor may irreversibly delete orders
func (a Actor) CanHardDelete() bool {
	return a.Role == RoleOwner
}
