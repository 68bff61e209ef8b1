package services

import (
	"time"

	"shelftrack/internal/adapters/persistence/models"
	"shelftrack/internal/core/domain"
)

// EffectiveDueDate resolves the due date used for overdue classification.
// Fallback order: due_date, then doc_date, then created_at plus the
// default loan period. Returns nil when none of the three is usable;
// such a loan is excluded from overdue consideration.
func EffectiveDueDate(loan *models.Loan) *time.Time {
	if loan.DueDate != nil {
		return loan.DueDate
	}
	if loan.DocDate != nil {
		return loan.DocDate
	}
	if !loan.CreatedAt.IsZero() {
		due := loan.CreatedAt.AddDate(0, 0, domain.DefaultLoanPeriodDays)
		return &due
	}
	return nil
}

// atMidnight strips the time-of-day component
func atMidnight(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, t.Location())
}

// IsOverdue reports whether a loan is overdue as of today. Returned
// loans are never overdue. The comparison is date-only and strict: a
// loan due exactly today is not overdue.
func IsOverdue(loan *models.Loan, today time.Time) bool {
	if loan.Status == string(domain.LoanReturned) || loan.ReturnedDate != nil {
		return false
	}

	due := EffectiveDueDate(loan)
	if due == nil {
		return false
	}

	return atMidnight(*due).Before(atMidnight(today))
}

// DaysOverdue returns how many whole days a loan is past its effective
// due date, or 0 when the loan is not overdue.
func DaysOverdue(loan *models.Loan, today time.Time) int {
	if !IsOverdue(loan, today) {
		return 0
	}

	due := EffectiveDueDate(loan)
	delta := atMidnight(today).Sub(atMidnight(*due))

	days := int(delta / (24 * time.Hour))
	if delta%(24*time.Hour) > 0 {
		days++
	}
	if days < 0 {
		return 0
	}
	return days
}

// Severity classifies an overdue loan. daysOverdue at or below the
// warning threshold is a warning, anything past it is critical.
func Severity(daysOverdue int) domain.OverdueSeverity {
	if daysOverdue <= domain.OverdueWarningDays {
		return domain.SeverityWarning
	}
	return domain.SeverityCritical
}
