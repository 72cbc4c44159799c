// Package auth carries the authenticated principal resolved by the external
// identity service into the request context.
package auth

import "context"

// Permission is a single capability granted to a principal.
type Permission string

const (
	PermissionRead   Permission = "read"
	PermissionCreate Permission = "create"
	PermissionUpdate Permission = "update"
	PermissionDelete Permission = "delete"
	PermissionAdmin  Permission = "admin"
)

// PermissionSet is the capability set attached to a principal.
type PermissionSet map[Permission]struct{}

// NewPermissionSet builds a set from the given permissions.
func NewPermissionSet(perms ...Permission) PermissionSet {
	set := make(PermissionSet, len(perms))
	for _, p := range perms {
		set[p] = struct{}{}
	}
	return set
}

// Has reports whether the permission is granted.
func (s PermissionSet) Has(p Permission) bool {
	_, ok := s[p]
	return ok
}

// Principal identifies the caller of an operation.
type Principal struct {
	CustomerID  int64
	Permissions PermissionSet
}

// IsAdmin reports whether the principal carries the admin capability.
func (p Principal) IsAdmin() bool {
	return p.Permissions.Has(PermissionAdmin)
}

// Customer builds a principal with the standard customer capability set.
func Customer(customerID int64) Principal {
	return Principal{
		CustomerID:  customerID,
		Permissions: NewPermissionSet(PermissionRead, PermissionCreate, PermissionUpdate, PermissionDelete),
	}
}

// Admin builds an administrative principal.
func Admin(customerID int64) Principal {
	return Principal{
		CustomerID:  customerID,
		Permissions: NewPermissionSet(PermissionRead, PermissionCreate, PermissionUpdate, PermissionDelete, PermissionAdmin),
	}
}

type contextKey struct{}

// WithPrincipal stores a principal in the context.
func WithPrincipal(ctx context.Context, p Principal) context.Context {
	return context.WithValue(ctx, contextKey{}, p)
}

// FromContext extracts the principal placed by the resolver middleware.
func FromContext(ctx context.Context) (Principal, bool) {
	p, ok := ctx.Value(contextKey{}).(Principal)
	return p, ok
}
