package service

import (
	"context"
	"database/sql"
	"errors"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/jmoiron/sqlx"
	"github.com/greencycle/greencycle-server/internal/models"
	"github.com/greencycle/greencycle-server/internal/repository"
	"github.com/stretchr/testify/assert"
)

func newMockService(t *testing.T) (Service, sqlmock.Sqlmock) {
	db, mock, err := sqlmock.New()
	assert.NoError(t, err)

	sdb := sqlx.NewDb(db, "sqlmock")
	repo := repository.NewPostgresRepository(sdb)
	svc := NewDefaultService(repo, Options{
		JWTSecret:  "test-secret",
		AdminEmail: "admin@greencycle.io",
	})

	return svc, mock
}

func TestTokensForSize(t *testing.T) {
	assert.Equal(t, int64(5), TokensForSize(models.WasteSizeSmall))
	assert.Equal(t, int64(15), TokensForSize(models.WasteSizeMedium))
	assert.Equal(t, int64(30), TokensForSize(models.WasteSizeLarge))

	// Anything else, including empty and wrong case, earns nothing
	assert.Equal(t, int64(0), TokensForSize(""))
	assert.Equal(t, int64(0), TokensForSize("huge"))
	assert.Equal(t, int64(0), TokensForSize("Small"))
}

func TestLevelForBalance(t *testing.T) {
	cases := []struct {
		balance int64
		level   int
	}{
		{0, 1},
		{49, 1},
		{50, 2},
		{149, 2},
		{150, 3},
		{299, 3},
		{300, 4},
		{499, 4},
		{500, 5},
		{10000, 5},
	}

	for _, tc := range cases {
		assert.Equal(t, tc.level, LevelForBalance(tc.balance), "balance %d", tc.balance)
	}
}

func TestAwardForReport(t *testing.T) {
	svc, mock := newMockService(t)

	// Ledger entry first, then the atomic credit, then the level update
	mock.ExpectExec("INSERT INTO token_transactions").
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectQuery("INSERT INTO user_tokens").
		WillReturnRows(sqlmock.NewRows([]string{"balance"}).AddRow(5))
	mock.ExpectExec("UPDATE user_tokens SET level").
		WillReturnResult(sqlmock.NewResult(0, 1))

	ok := svc.AwardForReport(context.Background(), "user-1", models.WasteSizeSmall, "Beach cleanup")
	assert.True(t, ok)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestAwardForReportLevelTransition(t *testing.T) {
	svc, mock := newMockService(t)

	// Balance 45 + medium report crosses the level-2 threshold
	mock.ExpectExec("INSERT INTO token_transactions").
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectQuery("INSERT INTO user_tokens").
		WillReturnRows(sqlmock.NewRows([]string{"balance"}).AddRow(60))
	mock.ExpectExec("UPDATE user_tokens SET level").
		WithArgs("user-1", 2, sqlmock.AnyArg()).
		WillReturnResult(sqlmock.NewResult(0, 1))

	ok := svc.AwardForReport(context.Background(), "user-1", models.WasteSizeMedium, "Park litter")
	assert.True(t, ok)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestAwardForReportUnrecognizedSize(t *testing.T) {
	svc, mock := newMockService(t)

	// No expectations: an unrecognized size performs no writes at all
	ok := svc.AwardForReport(context.Background(), "user-1", "huge", "x")
	assert.False(t, ok)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestAwardForReportEmptyUser(t *testing.T) {
	svc, mock := newMockService(t)

	ok := svc.AwardForReport(context.Background(), "", models.WasteSizeSmall, "x")
	assert.False(t, ok)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestAwardForReportLedgerFailureAbortsAccount(t *testing.T) {
	svc, mock := newMockService(t)

	// A failed ledger write aborts the operation before the account is
	// touched; no credit or level statements run.
	mock.ExpectExec("INSERT INTO token_transactions").
		WillReturnError(errors.New("insert failed"))

	ok := svc.AwardForReport(context.Background(), "user-1", models.WasteSizeLarge, "River bank")
	assert.False(t, ok)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestAwardForReportCreditFailure(t *testing.T) {
	svc, mock := newMockService(t)

	// The ledger entry landed but the credit failed: the operation reports
	// failure and leaves the ledger ahead of the balance
	mock.ExpectExec("INSERT INTO token_transactions").
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectQuery("INSERT INTO user_tokens").
		WillReturnError(errors.New("update failed"))

	ok := svc.AwardForReport(context.Background(), "user-1", models.WasteSizeSmall, "Beach cleanup")
	assert.False(t, ok)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestReconcileBalance(t *testing.T) {
	svc, mock := newMockService(t)

	mock.ExpectQuery(`SUM\(CASE WHEN kind`).
		WillReturnRows(sqlmock.NewRows([]string{"sum"}).AddRow(160))
	mock.ExpectQuery(`SELECT \* FROM user_tokens`).
		WillReturnRows(sqlmock.NewRows([]string{"user_id", "balance", "level", "updated_at"}).
			AddRow("user-1", 130, 2, time.Now().UTC()))

	mock.ExpectExec("INSERT INTO user_tokens").
		WithArgs("user-1", int64(160), 3, sqlmock.AnyArg()).
		WillReturnResult(sqlmock.NewResult(0, 1))

	resp, err := svc.ReconcileBalance(context.Background(), "user-1")
	assert.NoError(t, err)
	assert.True(t, resp.Drifted)
	assert.Equal(t, int64(130), resp.OldBalance)
	assert.Equal(t, int64(160), resp.LedgerBalance)
	assert.Equal(t, 3, resp.Level)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestReconcileBalanceNoAccount(t *testing.T) {
	svc, mock := newMockService(t)

	mock.ExpectQuery(`SUM\(CASE WHEN kind`).
		WillReturnRows(sqlmock.NewRows([]string{"sum"}).AddRow(0))
	mock.ExpectQuery(`SELECT \* FROM user_tokens`).
		WillReturnError(sql.ErrNoRows)
	mock.ExpectExec("INSERT INTO user_tokens").
		WithArgs("user-1", int64(0), 1, sqlmock.AnyArg()).
		WillReturnResult(sqlmock.NewResult(0, 1))

	resp, err := svc.ReconcileBalance(context.Background(), "user-1")
	assert.NoError(t, err)
	assert.False(t, resp.Drifted)
	assert.Equal(t, int64(0), resp.LedgerBalance)
	assert.NoError(t, mock.ExpectationsWereMet())
}
