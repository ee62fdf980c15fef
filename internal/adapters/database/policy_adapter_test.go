package database_test

import (
	"context"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/zoomconnect/tpa-hospital-sync/internal/adapters/database"
	"github.com/zoomconnect/tpa-hospital-sync/internal/infrastructure/clients/postgres"
)

func TestPolicyAdapterListActiveByTPA(t *testing.T) {
	db, mock := setupMockDB(t)
	defer db.Close()

	adapter := database.NewPolicyAdapter(postgres.NewClientWithDB(db.DB))

	endDate := time.Date(2027, 3, 31, 0, 0, 0, 0, time.UTC)
	mock.ExpectQuery(`SELECT "id", "policy_number", "tpa_id", "ins_id", "is_active", "policy_end_date" FROM "policy_master"`).
		WillReturnRows(sqlmock.NewRows([]string{
			"id", "policy_number", "tpa_id", "ins_id", "is_active", "policy_end_date",
		}).
			AddRow(int64(1), "P100", 65, 1, true, endDate).
			AddRow(int64(2), "P200", 65, 2, true, endDate))

	policies, err := adapter.ListActiveByTPA(context.Background(), 65)
	require.NoError(t, err)

	require.Len(t, policies, 2)
	assert.Equal(t, int64(1), policies[0].ID)
	assert.Equal(t, "P100", policies[0].PolicyNumber)
	assert.Equal(t, 65, policies[0].TPAID)
	assert.Equal(t, 2, policies[1].InsurerID)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPolicyAdapterListActiveByTPAEmpty(t *testing.T) {
	db, mock := setupMockDB(t)
	defer db.Close()

	adapter := database.NewPolicyAdapter(postgres.NewClientWithDB(db.DB))

	mock.ExpectQuery(`SELECT .+ FROM "policy_master"`).
		WillReturnRows(sqlmock.NewRows([]string{
			"id", "policy_number", "tpa_id", "ins_id", "is_active", "policy_end_date",
		}))

	policies, err := adapter.ListActiveByTPA(context.Background(), 68)
	require.NoError(t, err)
	assert.Empty(t, policies)
}

func TestPolicyAdapterDeactivateExpired(t *testing.T) {
	db, mock := setupMockDB(t)
	defer db.Close()

	adapter := database.NewPolicyAdapter(postgres.NewClientWithDB(db.DB))

	mock.ExpectExec(`UPDATE "policy_master" SET "is_active"`).
		WillReturnResult(sqlmock.NewResult(0, 7))

	count, err := adapter.DeactivateExpired(context.Background(), time.Now())
	require.NoError(t, err)
	assert.Equal(t, int64(7), count)
	assert.NoError(t, mock.ExpectationsWereMet())
}
