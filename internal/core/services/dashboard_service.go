package services

import (
	"context"
	"time"

	"shelftrack/internal/adapters/persistence/models"
	"shelftrack/internal/adapters/persistence/repositories"
	"shelftrack/internal/core/domain"
)

// DashboardStats aggregates library-wide counts for the overview page.
// Book counts are derived from effective statuses, not stored columns.
type DashboardStats struct {
	TotalBooks      int64                  `json:"total_books"`
	BooksByStatus   map[string]int64       `json:"books_by_status"`
	TotalPatrons    int64                  `json:"total_patrons"`
	ActivePatrons   int64                  `json:"active_patrons"`
	OpenLoans       int64                  `json:"open_loans"`
	OverdueLoans    int64                  `json:"overdue_loans"`
	OverdueWarning  int64                  `json:"overdue_warning"`
	OverdueCritical int64                  `json:"overdue_critical"`
	RecentLoans     []*models.LoanResponse `json:"recent_loans"`
	GeneratedAt     time.Time              `json:"generated_at"`
}

// DashboardService assembles reporting statistics
type DashboardService struct {
	bookRepo   repositories.BookRepository
	patronRepo repositories.PatronRepository
	loanRepo   repositories.LoanRepository
	inventory  *InventoryService
}

// NewDashboardService creates a new dashboard service
func NewDashboardService(
	bookRepo repositories.BookRepository,
	patronRepo repositories.PatronRepository,
	loanRepo repositories.LoanRepository,
	inventory *InventoryService,
) *DashboardService {
	return &DashboardService{
		bookRepo:   bookRepo,
		patronRepo: patronRepo,
		loanRepo:   loanRepo,
		inventory:  inventory,
	}
}

// recentLoansLimit bounds the recent-activity list on the overview page
const recentLoansLimit = 10

// GetStats builds the dashboard snapshot. Book status counts run
// through reconciliation so the dashboard never disagrees with the
// inventory list.
func (s *DashboardService) GetStats(ctx context.Context) (*DashboardStats, error) {
	stats := &DashboardStats{
		BooksByStatus: make(map[string]int64),
		GeneratedAt:   time.Now(),
	}

	books, err := s.bookRepo.ListAll(ctx)
	if err != nil {
		return nil, err
	}
	stats.TotalBooks = int64(len(books))

	openLoans, err := s.loanRepo.ListOpen(ctx)
	if err != nil {
		// Fail open: fall back to stored statuses rather than erroring
		// the whole dashboard.
		for _, book := range books {
			stats.BooksByStatus[book.Status]++
		}
	} else {
		for _, resp := range Reconcile(books, openLoans) {
			stats.BooksByStatus[resp.EffectiveStatus]++
		}

		stats.OpenLoans = int64(len(openLoans))
		today := time.Now()
		for _, loan := range openLoans {
			if !IsOverdue(loan, today) {
				continue
			}
			stats.OverdueLoans++
			if Severity(DaysOverdue(loan, today)) == domain.SeverityCritical {
				stats.OverdueCritical++
			} else {
				stats.OverdueWarning++
			}
		}
	}

	stats.TotalPatrons, err = s.patronRepo.CountByStatus(ctx, "")
	if err != nil {
		return nil, err
	}
	stats.ActivePatrons, err = s.patronRepo.CountByStatus(ctx, string(domain.PatronActive))
	if err != nil {
		return nil, err
	}

	recent, _, err := s.loanRepo.GetLoansWithRelations(ctx, 0, recentLoansLimit)
	if err != nil {
		return nil, err
	}
	today := time.Now()
	stats.RecentLoans = make([]*models.LoanResponse, len(recent))
	for i, loan := range recent {
		stats.RecentLoans[i] = classifyLoan(loan, today)
	}

	return stats, nil
}
