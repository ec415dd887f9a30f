package postgres

import (
	"context"
	"errors"
	"fmt"
	"hash/fnv"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"

	domain "github.com/aismartspeaker9-cloud/zenheart-erp/internal/domain/order"
)

// lockNotAvailable is the SQLSTATE raised when lock_timeout expires.
const lockNotAvailable = "55P03"

// orderLockKey derives the advisory lock key serializing all writers of one
// (shop_id, source_order_id).
func orderLockKey(shopID string, sourceOrderID int64) int64 {
	h := fnv.New64a()
	_, _ = fmt.Fprintf(h, "%s:%d", shopID, sourceOrderID)
	return int64(h.Sum64())
}

// acquireOrderLock takes the per-order advisory lock inside tx with a
// bounded wait. Expiry maps to the domain's storage-conflict error.
func acquireOrderLock(ctx context.Context, tx pgx.Tx, shopID string, sourceOrderID int64, timeoutMS int) error {
	if timeoutMS <= 0 {
		timeoutMS = 3000
	}
	if _, err := tx.Exec(ctx, fmt.Sprintf("SET LOCAL lock_timeout = '%dms'", timeoutMS)); err != nil {
		return err
	}
	_, err := tx.Exec(ctx, "SELECT pg_advisory_xact_lock($1)", orderLockKey(shopID, sourceOrderID))
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == lockNotAvailable {
			return fmt.Errorf("%w: order %s/%d: %v", domain.ErrStorageConflict, shopID, sourceOrderID, err)
		}
		return err
	}
	return nil
}
