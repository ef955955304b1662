package repository

import (
	"context"
	"database/sql/driver"
	"errors"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/segyhp/credit-engine/internal/domain"
)

var creditColumnNames = []string{
	"id", "user_id", "client_name", "client_email", "amount", "interest_rate", "duration_months",
	"monthly_payment", "total_interest", "total_amount", "start_date", "status", "paid_months", "paid_amount",
	"created_at", "updated_at",
}

func newMockDB(t *testing.T) (*sqlx.DB, sqlmock.Sqlmock) {
	t.Helper()

	mockDB, mock, err := sqlmock.New()
	require.NoError(t, err, "Failed to create sqlmock")
	t.Cleanup(func() { mockDB.Close() })

	return sqlx.NewDb(mockDB, "postgres"), mock
}

func sampleCredit() *domain.Credit {
	now := time.Date(2024, 6, 1, 12, 0, 0, 0, time.UTC)
	return &domain.Credit{
		ID:             uuid.New(),
		UserID:         uuid.New(),
		ClientName:     "Jane Client",
		ClientEmail:    "jane@example.com",
		Amount:         decimal.NewFromInt(10000),
		InterestRate:   decimal.NewFromInt(6),
		DurationMonths: 12,
		MonthlyPayment: decimal.RequireFromString("860.66"),
		TotalInterest:  decimal.RequireFromString("327.92"),
		TotalAmount:    decimal.RequireFromString("10327.92"),
		StartDate:      time.Date(2024, 6, 1, 0, 0, 0, 0, time.UTC),
		Status:         domain.CreditStatusActive,
		PaidMonths:     0,
		PaidAmount:     decimal.Zero,
		CreatedAt:      now,
		UpdatedAt:      now,
	}
}

func creditRows(credits ...*domain.Credit) *sqlmock.Rows {
	rows := sqlmock.NewRows(creditColumnNames)
	for _, c := range credits {
		rows.AddRow(
			c.ID.String(), c.UserID.String(), c.ClientName, c.ClientEmail, c.Amount.String(), c.InterestRate.String(),
			c.DurationMonths, c.MonthlyPayment.String(), c.TotalInterest.String(), c.TotalAmount.String(),
			c.StartDate, c.Status, c.PaidMonths, c.PaidAmount.String(), c.CreatedAt, c.UpdatedAt,
		)
	}
	return rows
}

func TestCreditRepository_Create(t *testing.T) {
	db, mock := newMockDB(t)
	repo := NewCreditRepository(db)
	credit := sampleCredit()

	args := make([]driver.Value, len(creditColumnNames))
	for i := range args {
		args[i] = sqlmock.AnyArg()
	}
	args[0] = credit.ID

	mock.ExpectExec("INSERT INTO credits").
		WithArgs(args...).
		WillReturnResult(sqlmock.NewResult(0, 1))

	err := repo.Create(context.Background(), credit)
	require.NoError(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestCreditRepository_GetByID(t *testing.T) {
	t.Run("found", func(t *testing.T) {
		db, mock := newMockDB(t)
		repo := NewCreditRepository(db)
		credit := sampleCredit()

		mock.ExpectQuery("SELECT .+ FROM credits WHERE id = \\$1").
			WithArgs(credit.ID).
			WillReturnRows(creditRows(credit))

		got, err := repo.GetByID(context.Background(), credit.ID)
		require.NoError(t, err)
		assert.Equal(t, credit.ID, got.ID)
		assert.True(t, got.MonthlyPayment.Equal(credit.MonthlyPayment))
		assert.Equal(t, 12, got.DurationMonths)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("not found", func(t *testing.T) {
		db, mock := newMockDB(t)
		repo := NewCreditRepository(db)
		id := uuid.New()

		mock.ExpectQuery("SELECT .+ FROM credits WHERE id = \\$1").
			WithArgs(id).
			WillReturnRows(sqlmock.NewRows(creditColumnNames))

		got, err := repo.GetByID(context.Background(), id)
		assert.Nil(t, got)
		assert.ErrorIs(t, err, ErrNotFound)
		assert.NoError(t, mock.ExpectationsWereMet())
	})
}

func TestCreditRepository_ListByUser(t *testing.T) {
	db, mock := newMockDB(t)
	repo := NewCreditRepository(db)

	newer := sampleCredit()
	older := sampleCredit()
	older.UserID = newer.UserID
	older.CreatedAt = newer.CreatedAt.Add(-time.Hour)

	mock.ExpectQuery("SELECT .+ FROM credits WHERE user_id = \\$1 ORDER BY created_at DESC, id DESC").
		WithArgs(newer.UserID).
		WillReturnRows(creditRows(newer, older))

	credits, err := repo.ListByUser(context.Background(), newer.UserID)
	require.NoError(t, err)
	require.Len(t, credits, 2)
	assert.Equal(t, newer.ID, credits[0].ID)
	assert.Equal(t, older.ID, credits[1].ID)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestCreditRepository_ListByUser_Empty(t *testing.T) {
	db, mock := newMockDB(t)
	repo := NewCreditRepository(db)
	userID := uuid.New()

	mock.ExpectQuery("SELECT .+ FROM credits WHERE user_id").
		WithArgs(userID).
		WillReturnRows(sqlmock.NewRows(creditColumnNames))

	credits, err := repo.ListByUser(context.Background(), userID)
	require.NoError(t, err)
	assert.NotNil(t, credits)
	assert.Empty(t, credits)
}

func samplePayment(creditID uuid.UUID) *domain.Payment {
	now := time.Date(2024, 7, 1, 9, 0, 0, 0, time.UTC)
	return &domain.Payment{
		ID:          uuid.New(),
		CreditID:    creditID,
		Month:       1,
		Amount:      decimal.RequireFromString("860.66"),
		PaymentDate: now,
		Method:      "transfer",
		Reference:   "INV-1",
		CreatedAt:   now,
	}
}

func TestCreditRepository_ApplyPayment(t *testing.T) {
	db, mock := newMockDB(t)
	repo := NewCreditRepository(db)
	credit := sampleCredit()
	payment := samplePayment(credit.ID)

	updated := *credit
	updated.PaidMonths = 1
	updated.PaidAmount = payment.Amount

	mock.ExpectBegin()
	mock.ExpectQuery("SELECT .+ FROM credits WHERE id = \\$1 FOR UPDATE").
		WithArgs(credit.ID).
		WillReturnRows(creditRows(credit))
	mock.ExpectExec("INSERT INTO payments").
		WithArgs(payment.ID, credit.ID, 1, sqlmock.AnyArg(), sqlmock.AnyArg(), "transfer", "INV-1", sqlmock.AnyArg()).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectQuery("UPDATE credits SET paid_months = paid_months \\+ 1, paid_amount = paid_amount \\+ \\$2").
		WithArgs(credit.ID, sqlmock.AnyArg(), sqlmock.AnyArg()).
		WillReturnRows(creditRows(&updated))
	mock.ExpectCommit()

	got, err := repo.ApplyPayment(context.Background(), payment, nil)
	require.NoError(t, err)
	assert.Equal(t, 1, got.PaidMonths)
	assert.True(t, got.PaidAmount.Equal(payment.Amount))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestCreditRepository_ApplyPayment_NotFound(t *testing.T) {
	db, mock := newMockDB(t)
	repo := NewCreditRepository(db)
	payment := samplePayment(uuid.New())

	mock.ExpectBegin()
	mock.ExpectQuery("SELECT .+ FROM credits WHERE id = \\$1 FOR UPDATE").
		WithArgs(payment.CreditID).
		WillReturnRows(sqlmock.NewRows(creditColumnNames))
	mock.ExpectRollback()

	got, err := repo.ApplyPayment(context.Background(), payment, nil)
	assert.Nil(t, got)
	assert.ErrorIs(t, err, ErrNotFound)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestCreditRepository_ApplyPayment_GuardRejects(t *testing.T) {
	db, mock := newMockDB(t)
	repo := NewCreditRepository(db)
	credit := sampleCredit()
	payment := samplePayment(credit.ID)
	rejected := errors.New("settled")

	mock.ExpectBegin()
	mock.ExpectQuery("SELECT .+ FOR UPDATE").
		WithArgs(credit.ID).
		WillReturnRows(creditRows(credit))
	mock.ExpectRollback()

	var seen *domain.Credit
	got, err := repo.ApplyPayment(context.Background(), payment, func(c *domain.Credit) error {
		seen = c
		return rejected
	})
	assert.Nil(t, got)
	assert.ErrorIs(t, err, rejected)
	require.NotNil(t, seen)
	assert.Equal(t, credit.ID, seen.ID)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestCreditRepository_ApplyPayment_InsertFailsRollsBack(t *testing.T) {
	db, mock := newMockDB(t)
	repo := NewCreditRepository(db)
	credit := sampleCredit()
	payment := samplePayment(credit.ID)
	dbErr := errors.New("connection reset")

	mock.ExpectBegin()
	mock.ExpectQuery("SELECT .+ FOR UPDATE").
		WithArgs(credit.ID).
		WillReturnRows(creditRows(credit))
	mock.ExpectExec("INSERT INTO payments").WillReturnError(dbErr)
	mock.ExpectRollback()

	got, err := repo.ApplyPayment(context.Background(), payment, nil)
	assert.Nil(t, got)
	assert.ErrorIs(t, err, dbErr)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestCreditRepository_ApplyPayment_UpdateFailsRollsBack(t *testing.T) {
	db, mock := newMockDB(t)
	repo := NewCreditRepository(db)
	credit := sampleCredit()
	payment := samplePayment(credit.ID)
	dbErr := errors.New("deadlock detected")

	mock.ExpectBegin()
	mock.ExpectQuery("SELECT .+ FOR UPDATE").
		WithArgs(credit.ID).
		WillReturnRows(creditRows(credit))
	mock.ExpectExec("INSERT INTO payments").WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectQuery("UPDATE credits").WillReturnError(dbErr)
	mock.ExpectRollback()

	_, err := repo.ApplyPayment(context.Background(), payment, nil)
	assert.ErrorIs(t, err, dbErr)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestCreditRepository_Delete(t *testing.T) {
	t.Run("existing credit cascades to payments", func(t *testing.T) {
		db, mock := newMockDB(t)
		repo := NewCreditRepository(db)
		id, owner := uuid.New(), uuid.New()

		mock.ExpectBegin()
		mock.ExpectExec("DELETE FROM payments WHERE credit_id = \\$1").
			WithArgs(id).
			WillReturnResult(sqlmock.NewResult(0, 3))
		mock.ExpectQuery("DELETE FROM credits WHERE id = \\$1 RETURNING user_id").
			WithArgs(id).
			WillReturnRows(sqlmock.NewRows([]string{"user_id"}).AddRow(owner.String()))
		mock.ExpectCommit()

		gotOwner, deleted, err := repo.Delete(context.Background(), id)
		require.NoError(t, err)
		assert.True(t, deleted)
		assert.Equal(t, owner, gotOwner)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("missing credit is not an error", func(t *testing.T) {
		db, mock := newMockDB(t)
		repo := NewCreditRepository(db)
		id := uuid.New()

		mock.ExpectBegin()
		mock.ExpectExec("DELETE FROM payments").WithArgs(id).WillReturnResult(sqlmock.NewResult(0, 0))
		mock.ExpectQuery("DELETE FROM credits").WithArgs(id).WillReturnRows(sqlmock.NewRows([]string{"user_id"}))
		mock.ExpectCommit()

		gotOwner, deleted, err := repo.Delete(context.Background(), id)
		require.NoError(t, err)
		assert.False(t, deleted)
		assert.Equal(t, uuid.Nil, gotOwner)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("failure rolls back", func(t *testing.T) {
		db, mock := newMockDB(t)
		repo := NewCreditRepository(db)
		id := uuid.New()

		mock.ExpectBegin()
		mock.ExpectExec("DELETE FROM payments").WithArgs(id).WillReturnResult(sqlmock.NewResult(0, 2))
		mock.ExpectQuery("DELETE FROM credits").WithArgs(id).WillReturnError(errors.New("boom"))
		mock.ExpectRollback()

		_, deleted, err := repo.Delete(context.Background(), id)
		assert.Error(t, err)
		assert.False(t, deleted)
		assert.NoError(t, mock.ExpectationsWereMet())
	})
}

func TestCreditRepository_MarkCompleted(t *testing.T) {
	db, mock := newMockDB(t)
	repo := NewCreditRepository(db)
	now := time.Now().UTC()

	done := sampleCredit()
	done.PaidMonths = done.DurationMonths
	done.Status = domain.CreditStatusCompleted

	mock.ExpectQuery("UPDATE credits SET status = \\$1, updated_at = \\$2 WHERE status = \\$3 AND paid_months >= duration_months").
		WithArgs(domain.CreditStatusCompleted, now, domain.CreditStatusActive).
		WillReturnRows(creditRows(done))

	credits, err := repo.MarkCompleted(context.Background(), now)
	require.NoError(t, err)
	require.Len(t, credits, 1)
	assert.Equal(t, domain.CreditStatusCompleted, credits[0].Status)
	assert.NoError(t, mock.ExpectationsWereMet())
}
