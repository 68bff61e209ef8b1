package services

import (
	"context"
	"fmt"
	"log"
	"sync"
	"time"

	"shelftrack/internal/adapters/persistence/repositories"

	"github.com/robfig/cron/v3"
)

// defaultReminderSchedule runs the overdue scan every morning
const defaultReminderSchedule = "0 8 * * *"

// ReminderService runs the scheduled overdue scan and dispatches
// reminder emails for every loan past its effective due date.
type ReminderService struct {
	loanRepo repositories.LoanRepository
	notify   *NotificationService

	cron       *cron.Cron
	entryID    cron.EntryID
	mu         sync.RWMutex
	isRunning  bool
	isScanning bool
}

// NewReminderService creates a new reminder service
func NewReminderService(loanRepo repositories.LoanRepository, notify *NotificationService) *ReminderService {
	return &ReminderService{
		loanRepo: loanRepo,
		notify:   notify,
		cron:     cron.New(),
	}
}

// Start schedules the daily overdue scan
func (s *ReminderService) Start() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.isRunning {
		return nil
	}

	if !s.notify.IsEnabled() {
		log.Println("⚠️ Overdue reminders disabled: no mail API key configured")
		return nil
	}

	entryID, err := s.cron.AddFunc(defaultReminderSchedule, func() {
		s.runScan()
	})
	if err != nil {
		return fmt.Errorf("failed to schedule overdue scan: %w", err)
	}
	s.entryID = entryID

	s.cron.Start()
	s.isRunning = true

	log.Printf("🔔 Overdue reminder scheduler started [schedule: %s]", defaultReminderSchedule)
	return nil
}

// Stop stops the scheduler and waits for a running scan to finish
func (s *ReminderService) Stop() {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.isRunning {
		return
	}

	ctx := s.cron.Stop()
	<-ctx.Done()
	s.isRunning = false

	log.Println("🛑 Overdue reminder scheduler stopped")
}

// IsRunning returns whether the scheduler is active
func (s *ReminderService) IsRunning() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.isRunning
}

// NextRunTime returns when the next scan will occur
func (s *ReminderService) NextRunTime() *time.Time {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if !s.isRunning {
		return nil
	}
	for _, entry := range s.cron.Entries() {
		if entry.ID == s.entryID {
			t := entry.Next
			return &t
		}
	}
	return nil
}

// RunNow triggers an immediate scan
func (s *ReminderService) RunNow() {
	go s.runScan()
}

// runScan finds overdue loans and sends one reminder per loan
func (s *ReminderService) runScan() {
	s.mu.Lock()
	if s.isScanning {
		s.mu.Unlock()
		log.Println("⚠️ Overdue scan skipped: previous scan still running")
		return
	}
	s.isScanning = true
	s.mu.Unlock()

	defer func() {
		s.mu.Lock()
		s.isScanning = false
		s.mu.Unlock()
	}()

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Minute)
	defer cancel()

	loans, err := s.loanRepo.ListOpen(ctx)
	if err != nil {
		log.Printf("❌ Overdue scan failed to load loans: %v", err)
		return
	}

	today := time.Now()
	sent := 0
	for _, loan := range loans {
		if !IsOverdue(loan, today) {
			continue
		}
		days := DaysOverdue(loan, today)
		s.notify.NotifyOverdueLoan(loan, days, string(Severity(days)))
		sent++
	}

	log.Printf("✅ Overdue scan completed: %d open loans, %d reminders sent", len(loans), sent)
}
