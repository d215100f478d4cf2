package ports

import "context"

// Transactor scopes a function to a store-level transaction. The cascade
// write pair (parent increment + child save) runs inside one so a failed
// child write rolls back the parent mutation.
type Transactor interface {
	WithinTransaction(ctx context.Context, fn func(ctx context.Context) error) error
}
