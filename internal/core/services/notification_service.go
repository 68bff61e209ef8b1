package services

import (
	"bytes"
	"encoding/json"
	"fmt"
	"log"
	"net/http"
	"time"

	"shelftrack/internal/adapters/persistence/models"
	"shelftrack/internal/config"
)

// NotificationService sends overdue reminder emails through a
// transactional mail API. Disabled when no API key is configured.
type NotificationService struct {
	apiKey     string
	apiBaseURL string
	fromEmail  string
	fromName   string
	enabled    bool
	client     *http.Client
}

// NewNotificationService creates a new notification service
func NewNotificationService(cfg *config.Config) *NotificationService {
	return &NotificationService{
		apiKey:     cfg.Mail.APIKey,
		apiBaseURL: cfg.Mail.APIBaseURL,
		fromEmail:  cfg.Mail.FromEmail,
		fromName:   cfg.Mail.FromName,
		enabled:    cfg.Mail.APIKey != "",
		client:     &http.Client{Timeout: 10 * time.Second},
	}
}

// IsEnabled checks if notification is enabled
func (s *NotificationService) IsEnabled() bool {
	return s.enabled
}

// mailPayload is the transactional mail API request body
type mailPayload struct {
	Personalizations []struct {
		To []mailAddress `json:"to"`
	} `json:"personalizations"`
	From    mailAddress   `json:"from"`
	Subject string        `json:"subject"`
	Content []mailContent `json:"content"`
}

type mailAddress struct {
	Email string `json:"email"`
	Name  string `json:"name,omitempty"`
}

type mailContent struct {
	Type  string `json:"type"`
	Value string `json:"value"`
}

// sendMail posts one message to the mail API
func (s *NotificationService) sendMail(toEmail, toName, subject, body string) error {
	if !s.enabled {
		return nil
	}

	payload := mailPayload{
		From:    mailAddress{Email: s.fromEmail, Name: s.fromName},
		Subject: subject,
		Content: []mailContent{{Type: "text/plain", Value: body}},
	}
	payload.Personalizations = append(payload.Personalizations, struct {
		To []mailAddress `json:"to"`
	}{To: []mailAddress{{Email: toEmail, Name: toName}}})

	jsonData, err := json.Marshal(payload)
	if err != nil {
		return err
	}

	req, err := http.NewRequest("POST", s.apiBaseURL+"/mail/send", bytes.NewBuffer(jsonData))
	if err != nil {
		return err
	}

	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+s.apiKey)

	resp, err := s.client.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 300 {
		return fmt.Errorf("mail API returned status %d", resp.StatusCode)
	}

	return nil
}

// NotifyOverdueLoan emails a patron about one overdue loan.
// Requires a loan loaded with its book and patron relations.
func (s *NotificationService) NotifyOverdueLoan(loan *models.Loan, daysOverdue int, severity string) {
	if loan.Patron == nil || loan.Book == nil || loan.Patron.Email == "" {
		return
	}

	dueDate := ""
	if due := EffectiveDueDate(loan); due != nil {
		dueDate = due.Format("2006-01-02")
	}

	subject := fmt.Sprintf("Overdue reminder: %s", loan.Book.Title)
	if severity == "critical" {
		subject = fmt.Sprintf("URGENT overdue item: %s", loan.Book.Title)
	}
	body := fmt.Sprintf(`Dear %s,

Our records show the following item is overdue:

	Title:    %s
	Due date: %s
	Days overdue: %d

Please return it at your earliest convenience.

%s`,
		loan.Patron.FullName,
		loan.Book.Title,
		dueDate,
		daysOverdue,
		s.fromName,
	)

	if err := s.sendMail(loan.Patron.Email, loan.Patron.FullName, subject, body); err != nil {
		log.Printf("⚠️ Overdue reminder failed for loan #%d: %v", loan.ID, err)
	}
}

// NotifyLoanCreated emails a patron a checkout confirmation
func (s *NotificationService) NotifyLoanCreated(loan *models.Loan) {
	if loan.Patron == nil || loan.Book == nil || loan.Patron.Email == "" {
		return
	}

	dueDate := ""
	if due := EffectiveDueDate(loan); due != nil {
		dueDate = due.Format("2006-01-02")
	}

	subject := fmt.Sprintf("Checkout confirmation: %s", loan.Book.Title)
	body := fmt.Sprintf(`Dear %s,

You have borrowed:

	Title:    %s
	Due date: %s

Happy reading!

%s`,
		loan.Patron.FullName,
		loan.Book.Title,
		dueDate,
		s.fromName,
	)

	if err := s.sendMail(loan.Patron.Email, loan.Patron.FullName, subject, body); err != nil {
		log.Printf("⚠️ Checkout confirmation failed for loan #%d: %v", loan.ID, err)
	}
}
