package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/ThreeDotsLabs/watermill"
	"github.com/cenkalti/backoff/v3"
	"github.com/jmoiron/sqlx"
)

// maxTxRetries bounds how often a transaction that lost a serialization
// failure or a deadlock is run again.
const maxTxRetries = 5

func txBackOff(ctx context.Context) backoff.BackOff {
	b := backoff.NewExponentialBackOff()
	b.InitialInterval = 10 * time.Millisecond
	b.MaxInterval = 200 * time.Millisecond
	b.MaxElapsedTime = 0

	return backoff.WithContext(backoff.WithMaxRetries(b, maxTxRetries), ctx)
}

// inTx runs fn in a READ COMMITTED transaction. Correctness under concurrency
// comes from row locks, conditional updates and unique indexes, not from the
// isolation level. A run that still hits a serialization failure or deadlock
// is retried from scratch; once retries run out a contendedError is returned.
func inTx(ctx context.Context, db *sqlx.DB, logger watermill.LoggerAdapter, fn func(tx *sqlx.Tx) error) error {
	if logger == nil {
		logger = watermill.NopLogger{}
	}

	run := func() error {
		tx, err := db.BeginTxx(ctx, &sql.TxOptions{
			Isolation: sql.LevelReadCommitted,
		})
		if err != nil {
			return backoff.Permanent(fmt.Errorf("beginning transaction: %w", err))
		}

		if err := fn(tx); err != nil {
			err = errors.Join(err, tx.Rollback())
			if isRetryable(err) {
				return err
			}
			return backoff.Permanent(err)
		}

		if err := tx.Commit(); err != nil {
			err = fmt.Errorf("committing transaction: %w", err)
			if isRetryable(err) {
				return err
			}
			return backoff.Permanent(err)
		}

		return nil
	}

	notify := func(err error, wait time.Duration) {
		logger.Debug("Retrying transaction", watermill.LogFields{"error": err.Error(), "wait": wait})
	}

	err := backoff.RetryNotify(run, txBackOff(ctx), notify)
	if isRetryable(err) {
		return contendedError{err: err}
	}
	return err
}
