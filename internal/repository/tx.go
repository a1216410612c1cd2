package repository

import (
	"context"
	"fmt"

	"go.mongodb.org/mongo-driver/mongo"
)

// TxRunner runs a function inside a multi-document transaction. Repositories
// called with the ctx handed to fn take part in the transaction.
type TxRunner struct {
	client *mongo.Client
}

func NewTxRunner(db *mongo.Database) *TxRunner {
	return &TxRunner{client: db.Client()}
}

// WithTransaction commits when fn returns nil and aborts otherwise. The driver
// retries fn on transient transaction errors, so fn must be safe to re-run.
func (t *TxRunner) WithTransaction(ctx context.Context, fn func(ctx context.Context) error) error {
	session, err := t.client.StartSession()
	if err != nil {
		return fmt.Errorf("failed to start session: %w", err)
	}
	defer session.EndSession(ctx)

	_, err = session.WithTransaction(ctx, func(sc mongo.SessionContext) (interface{}, error) {
		return nil, fn(sc)
	})
	return err
}
