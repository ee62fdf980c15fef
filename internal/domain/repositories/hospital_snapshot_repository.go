package repositories

import (
	"context"

	"github.com/zoomconnect/tpa-hospital-sync/internal/domain/entities"
)

// HospitalSnapshotRepository replaces the full contents of a TPA hospital
// table. The model is "latest full snapshot": delete-all then bulk insert,
// committed as one transaction so a crash mid-rebuild never publishes a
// half-written table.
type HospitalSnapshotRepository interface {
	Replace(ctx context.Context, table string, rows []entities.HospitalRow) error
}
