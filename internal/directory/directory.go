// Package directory is the ledger's view of the upstream identity service.
// The ledger never owns identity data; it resolves names to stable keys and
// asks membership questions, nothing more.
package directory

import (
	"context"
	"errors"
)

var ErrNotFound = errors.New("directory: not found")

type Directory interface {
	ResolveUser(ctx context.Context, name string) (string, error)
	ResolveProject(ctx context.Context, name string) (string, error)
	ResolveResource(ctx context.Context, name string) (string, error)
	IsMember(ctx context.Context, projectID, userID string) (bool, error)
	IsManager(ctx context.Context, projectID, userID string) (bool, error)
}
