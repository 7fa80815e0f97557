// Package domain holds cross-cutting domain primitives shared by services
// and transport layers.
package domain

import "github.com/google/uuid"

// Role partitions actors into the two capability classes the lifecycle
// engine understands. Citizens create complaints and hold sole verification
// authority over their own; admins drive status transitions.
type Role string

const (
	RoleCitizen Role = "citizen"
	RoleAdmin   Role = "admin"
)

func (r Role) IsValid() bool {
	return r == RoleCitizen || r == RoleAdmin
}

// Actor is the resolved identity assertion for one request. The core trusts
// it completely; credential checking happened upstream.
type Actor struct {
	ID    uuid.UUID
	Email string
	Role  Role
}
