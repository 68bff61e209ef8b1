package services

import (
	"testing"
	"time"

	"shelftrack/internal/adapters/persistence/models"
	"shelftrack/internal/core/domain"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func date(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

func timePtr(t time.Time) *time.Time {
	return &t
}

func TestEffectiveDueDate(t *testing.T) {
	t.Run("due_date wins", func(t *testing.T) {
		loan := &models.Loan{
			DueDate: timePtr(date(2024, 3, 1)),
			DocDate: timePtr(date(2024, 2, 1)),
		}
		loan.CreatedAt = date(2024, 1, 1)

		due := EffectiveDueDate(loan)
		require.NotNil(t, due)
		assert.Equal(t, date(2024, 3, 1), *due)
	})

	t.Run("doc_date when due_date missing", func(t *testing.T) {
		loan := &models.Loan{DocDate: timePtr(date(2024, 2, 1))}
		loan.CreatedAt = date(2024, 1, 1)

		due := EffectiveDueDate(loan)
		require.NotNil(t, due)
		assert.Equal(t, date(2024, 2, 1), *due)
	})

	t.Run("created_at plus default period as last resort", func(t *testing.T) {
		loan := &models.Loan{}
		loan.CreatedAt = date(2024, 1, 1)

		due := EffectiveDueDate(loan)
		require.NotNil(t, due)
		assert.Equal(t, date(2024, 1, 15), *due)
	})

	t.Run("nil when nothing usable", func(t *testing.T) {
		assert.Nil(t, EffectiveDueDate(&models.Loan{}))
	})
}

func TestIsOverdue(t *testing.T) {
	t.Run("due today is not overdue", func(t *testing.T) {
		loan := &models.Loan{DueDate: timePtr(date(2024, 6, 10))}
		assert.False(t, IsOverdue(loan, date(2024, 6, 10)))
	})

	t.Run("due yesterday is overdue", func(t *testing.T) {
		loan := &models.Loan{DueDate: timePtr(date(2024, 6, 9))}
		assert.True(t, IsOverdue(loan, date(2024, 6, 10)))
	})

	t.Run("time of day is ignored", func(t *testing.T) {
		// Due at 23:59 today, checked at 00:01 today: same date, not overdue
		loan := &models.Loan{
			DueDate: timePtr(time.Date(2024, 6, 10, 23, 59, 0, 0, time.UTC)),
		}
		now := time.Date(2024, 6, 10, 0, 1, 0, 0, time.UTC)
		assert.False(t, IsOverdue(loan, now))
	})

	t.Run("returned loan is never overdue", func(t *testing.T) {
		loan := &models.Loan{
			DueDate:      timePtr(date(2024, 1, 1)),
			Status:       string(domain.LoanReturned),
			ReturnedDate: timePtr(date(2024, 2, 1)),
		}
		assert.False(t, IsOverdue(loan, date(2024, 6, 10)))
	})

	t.Run("loan without any due source is not overdue", func(t *testing.T) {
		assert.False(t, IsOverdue(&models.Loan{}, date(2024, 6, 10)))
	})

	t.Run("fallback chain drives overdue", func(t *testing.T) {
		// Created 2024-01-01, no due_date or doc_date: due 2024-01-15
		loan := &models.Loan{}
		loan.CreatedAt = date(2024, 1, 1)

		assert.False(t, IsOverdue(loan, date(2024, 1, 15)))
		assert.True(t, IsOverdue(loan, date(2024, 1, 16)))
	})
}

func TestDaysOverdue(t *testing.T) {
	t.Run("zero when not overdue", func(t *testing.T) {
		loan := &models.Loan{DueDate: timePtr(date(2024, 6, 10))}
		assert.Equal(t, 0, DaysOverdue(loan, date(2024, 6, 10)))
	})

	t.Run("counts whole days past due", func(t *testing.T) {
		loan := &models.Loan{DueDate: timePtr(date(2024, 6, 10))}
		assert.Equal(t, 1, DaysOverdue(loan, date(2024, 6, 11)))
		assert.Equal(t, 10, DaysOverdue(loan, date(2024, 6, 20)))
	})

	t.Run("created fallback five days over", func(t *testing.T) {
		// Created 2024-01-01 means due 2024-01-15; on 2024-01-20 it is 5 days over
		loan := &models.Loan{}
		loan.CreatedAt = date(2024, 1, 1)
		assert.Equal(t, 5, DaysOverdue(loan, date(2024, 1, 20)))
	})
}

func TestSeverity(t *testing.T) {
	assert.Equal(t, domain.SeverityWarning, Severity(1))
	assert.Equal(t, domain.SeverityWarning, Severity(domain.OverdueWarningDays))
	assert.Equal(t, domain.SeverityCritical, Severity(domain.OverdueWarningDays+1))
	assert.Equal(t, domain.SeverityCritical, Severity(30))
}
