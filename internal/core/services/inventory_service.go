package services

import (
	"context"
	"log"
	"sync"

	"shelftrack/internal/adapters/persistence/models"
	"shelftrack/internal/adapters/persistence/repositories"
	"shelftrack/internal/core/domain"
)

// StatusTransition describes a book whose effective status changed
// between two reconciliation snapshots.
type StatusTransition struct {
	BookID    uint
	BookTitle string
	From      domain.BookStatus
	To        domain.BookStatus
}

// TransitionFunc is called once per actual status transition, not per
// recomputation of an unchanged snapshot.
type TransitionFunc func(t StatusTransition)

// InventoryService derives each book's effective status from the set
// of open loans. The stored status column is not trusted while a loan
// is open, and a stale stored "borrowed" with no open loan is
// corrected back to available.
type InventoryService struct {
	bookRepo repositories.BookRepository
	loanRepo repositories.LoanRepository

	mu       sync.Mutex
	lastSeen map[uint]domain.BookStatus
	onChange TransitionFunc
}

// NewInventoryService creates a new inventory service
func NewInventoryService(bookRepo repositories.BookRepository, loanRepo repositories.LoanRepository) *InventoryService {
	return &InventoryService{
		bookRepo: bookRepo,
		loanRepo: loanRepo,
		lastSeen: make(map[uint]domain.BookStatus),
	}
}

// OnTransition registers the consumer callback for status transitions
func (s *InventoryService) OnTransition(fn TransitionFunc) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.onChange = fn
}

// Reconcile computes the effective status of every book from a
// snapshot of books and open loans. Pure with respect to its inputs:
// order-independent and idempotent.
func Reconcile(books []*models.Book, openLoans []*models.Loan) []*models.BookResponse {
	loaned := make(map[uint]bool, len(openLoans))
	for _, loan := range openLoans {
		if loan.IsOpen() {
			loaned[loan.BookID] = true
		}
	}

	result := make([]*models.BookResponse, 0, len(books))
	for _, book := range books {
		resp := book.ToResponse()
		switch {
		case loaned[book.ID]:
			resp.EffectiveStatus = string(domain.BookBorrowed)
		case book.Status == string(domain.BookBorrowed):
			// stored status is stale, no open loan backs it
			resp.EffectiveStatus = string(domain.BookAvailable)
		default:
			resp.EffectiveStatus = book.Status
		}
		result = append(result, resp)
	}

	return result
}

// Refresh loads the current snapshot and reconciles it. When the loans
// fetch fails, reconciliation still runs fail-open with the stored
// statuses uncorrected, and the fetch error is returned alongside the
// result so the caller can report it separately.
func (s *InventoryService) Refresh(ctx context.Context) ([]*models.BookResponse, error) {
	books, err := s.bookRepo.ListAll(ctx)
	if err != nil {
		return nil, err
	}

	openLoans, loansErr := s.loanRepo.ListOpen(ctx)
	if loansErr != nil {
		log.Printf("⚠️ Inventory refresh: loans fetch failed, using stored statuses: %v", loansErr)
		openLoans = nil
	}

	var result []*models.BookResponse
	if loansErr != nil {
		result = make([]*models.BookResponse, 0, len(books))
		for _, book := range books {
			result = append(result, book.ToResponse())
		}
	} else {
		result = Reconcile(books, openLoans)
	}

	s.applySnapshot(result)
	return result, loansErr
}

// EffectiveStatus computes one book's effective status from its open loans
func (s *InventoryService) EffectiveStatus(ctx context.Context, book *models.Book) (domain.BookStatus, error) {
	open, err := s.loanRepo.ListOpenByBookID(ctx, book.ID)
	if err != nil {
		return "", err
	}

	if len(open) > 0 {
		return domain.BookBorrowed, nil
	}
	if book.Status == string(domain.BookBorrowed) {
		return domain.BookAvailable, nil
	}
	return domain.BookStatus(book.Status), nil
}

// applySnapshot records the latest snapshot and fires the transition
// callback for every book whose effective status changed since the
// previous applied snapshot. Application is last-completed-wins: for a
// given completion order the recorded state is deterministic.
func (s *InventoryService) applySnapshot(snapshot []*models.BookResponse) {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, view := range snapshot {
		current := domain.BookStatus(view.EffectiveStatus)
		previous, seen := s.lastSeen[view.ID]
		if seen && previous != current && s.onChange != nil {
			s.onChange(StatusTransition{
				BookID:    view.ID,
				BookTitle: view.Title,
				From:      previous,
				To:        current,
			})
		}
		s.lastSeen[view.ID] = current
	}
}
