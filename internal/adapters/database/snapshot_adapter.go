package database

import (
	"context"

	"github.com/doug-martin/goqu/v9"
	_ "github.com/doug-martin/goqu/v9/dialect/postgres"
	"github.com/zoomconnect/tpa-hospital-sync/internal/domain/entities"
	"github.com/zoomconnect/tpa-hospital-sync/internal/domain/repositories"
	"github.com/zoomconnect/tpa-hospital-sync/internal/infrastructure/clients/postgres"
	apperrors "github.com/zoomconnect/tpa-hospital-sync/pkg/errors"
)

// snapshotBatchSize bounds the number of rows per INSERT statement.
const snapshotBatchSize = 500

// SnapshotAdapter implements HospitalSnapshotRepository. Each TPA owns its
// destination table exclusively for the duration of its run, so no locking is
// needed beyond the replace transaction itself.
type SnapshotAdapter struct {
	client *postgres.Client
	db     *goqu.Database
}

// NewSnapshotAdapter creates a new snapshot adapter
func NewSnapshotAdapter(client *postgres.Client) repositories.HospitalSnapshotRepository {
	return &SnapshotAdapter{
		client: client,
		db:     goqu.New("postgres", client.DB()),
	}
}

// Replace deletes all rows in the table and inserts the new snapshot inside
// one transaction. An empty row set still clears the table: "latest full
// snapshot" semantics, no history.
func (a *SnapshotAdapter) Replace(ctx context.Context, table string, rows []entities.HospitalRow) error {
	tx, err := a.client.BeginTx(ctx)
	if err != nil {
		return apperrors.NewInternalError("failed to begin snapshot transaction", err)
	}

	deleteSQL, deleteArgs, err := a.db.Delete(table).ToSQL()
	if err != nil {
		tx.Rollback()
		return apperrors.NewInternalError("failed to build snapshot delete", err)
	}
	if _, err := tx.ExecContext(ctx, deleteSQL, deleteArgs...); err != nil {
		tx.Rollback()
		return apperrors.NewInternalError("failed to clear snapshot table "+table, err)
	}

	for start := 0; start < len(rows); start += snapshotBatchSize {
		end := start + snapshotBatchSize
		if end > len(rows) {
			end = len(rows)
		}

		records := make([]interface{}, 0, end-start)
		for _, row := range rows[start:end] {
			records = append(records, goqu.Record(row))
		}

		insertSQL, insertArgs, err := a.db.Insert(table).Rows(records...).ToSQL()
		if err != nil {
			tx.Rollback()
			return apperrors.NewInternalError("failed to build snapshot insert", err)
		}
		if _, err := tx.ExecContext(ctx, insertSQL, insertArgs...); err != nil {
			tx.Rollback()
			return apperrors.NewInternalError("failed to insert snapshot rows into "+table, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return apperrors.NewInternalError("failed to commit snapshot for "+table, err)
	}

	return nil
}
