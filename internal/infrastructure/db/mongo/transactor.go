package mongo

import (
	"context"
	"fmt"

	"go.mongodb.org/mongo-driver/mongo"
)

// SessionTransactor scopes a function to a MongoDB multi-document
// transaction. Requires a replica set deployment; standalone servers should
// use the service-layer no-op transactor instead.
type SessionTransactor struct {
	client *mongo.Client
}

func NewSessionTransactor(client *mongo.Client) *SessionTransactor {
	return &SessionTransactor{client: client}
}

func (t *SessionTransactor) WithinTransaction(ctx context.Context, fn func(ctx context.Context) error) error {
	session, err := t.client.StartSession()
	if err != nil {
		return fmt.Errorf("start session: %w", err)
	}
	defer session.EndSession(ctx)

	_, err = session.WithTransaction(ctx, func(sc mongo.SessionContext) (interface{}, error) {
		return nil, fn(sc)
	})
	return err
}
