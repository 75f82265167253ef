package ports

import (
	"context"
	"errors"
	"streetview-pano-service/internal/domain"
)

// Returned by repositories and caches when a key has no stored value.
var ErrNotFound = errors.New("not found")

// Port: a boundary for retrieving Case entities from a data source.
type CaseRepository interface {
	// Retrieve all cases, ordered by id.
	ListCases(ctx context.Context) ([]*domain.Case, error)
	// Retrieve one case; ErrNotFound when the id is unknown.
	GetCase(ctx context.Context, caseID string) (*domain.Case, error)
}
