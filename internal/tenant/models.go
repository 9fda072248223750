package tenant

import "time"

// Tenant is an isolated customer whose configuration and messages must never
// cross into another tenant's data. Provisioning (signup, billing state) is
// owned elsewhere; this service only reads.
//
// Invariant: an inactive tenant must never reach the completion service.
type Tenant struct {
	ID        string    `json:"id" db:"id"`
	Name      string    `json:"name" db:"name"`
	Active    bool      `json:"active" db:"active"`
	CreatedAt time.Time `json:"created_at" db:"created_at"`
}
