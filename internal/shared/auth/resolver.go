package auth

import (
	"context"
	"errors"
	"strconv"
	"strings"
)

// ErrUnauthenticated signals the credential could not be resolved to a principal.
var ErrUnauthenticated = errors.New("credential could not be resolved")

// Resolver turns a request credential into a principal. The production
// implementation lives in the identity service; this port keeps the core
// transport-agnostic.
type Resolver interface {
	Resolve(ctx context.Context, credential string) (Principal, error)
}

// HeaderResolver is a development stand-in that accepts credentials of the
// form "<customerID>" or "<customerID>:admin". It exists so the API can run
// without the identity service; do not deploy it facing real traffic.
type HeaderResolver struct{}

func (HeaderResolver) Resolve(_ context.Context, credential string) (Principal, error) {
	credential = strings.TrimSpace(credential)
	if credential == "" {
		return Principal{}, ErrUnauthenticated
	}
	id, role, _ := strings.Cut(credential, ":")
	customerID, err := strconv.ParseInt(id, 10, 64)
	if err != nil || customerID <= 0 {
		return Principal{}, ErrUnauthenticated
	}
	if role == "admin" {
		return Admin(customerID), nil
	}
	return Customer(customerID), nil
}

var _ Resolver = HeaderResolver{}
