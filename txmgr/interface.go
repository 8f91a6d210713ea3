package txmgr

//go:generate mockgen -source interface.go -destination interface_mock.go -package txmgr

import (
	"context"

	"github.com/n-r-w/uow"
)

// IResourceFactory opens persistence resources (sessions). Implemented in px, sqldb and gormx packages.
type IResourceFactory interface {
	// OpenResource opens a new resource. The caller owns it and must close it.
	OpenResource(ctx context.Context) (IResource, error)
}

// IResource is a connection-bound persistence context.
type IResource interface {
	// Begin starts a transaction on the resource.
	Begin(ctx context.Context, opts uow.TxOptions) (ITransaction, error)
	// Close releases the resource. It is called exactly once by its owner.
	Close(ctx context.Context) error
}

// ITransaction is a transaction handle. It receives exactly one of Commit or Rollback.
type ITransaction interface {
	Commit(ctx context.Context) error
	Rollback(ctx context.Context) error
}
