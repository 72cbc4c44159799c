package application

import (
	"time"

	"github.com/webshop/shop-api/internal/domains/ordering/ports"
)

// Service orchestrates the ordering bounded context: cart management,
// checkout, the order status state machine, and the order read paths.
type Service struct {
	repo    ports.Repository
	catalog ports.ProductGateway
	now     func() time.Time
}

// NewService wires the ordering service with its collaborators.
func NewService(repo ports.Repository, catalog ports.ProductGateway) *Service {
	return &Service{repo: repo, catalog: catalog, now: time.Now}
}

var _ ports.Service = (*Service)(nil)
