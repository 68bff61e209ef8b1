package models

import (
	"time"

	"gorm.io/gorm"

	"shelftrack/internal/core/domain"
)

// ============================================================
// Auth & User Tables
// ============================================================

// User represents users table
type User struct {
	ID        uint           `gorm:"primaryKey" json:"id"`
	Username  string         `gorm:"uniqueIndex;size:50;not null" json:"username"`
	Email     string         `gorm:"uniqueIndex;size:100;not null" json:"email"`
	Password  string         `gorm:"size:255;not null" json:"-"`
	FullName  string         `gorm:"size:100" json:"full_name"`
	Role      string         `gorm:"size:20;default:'USER'" json:"role"`
	IsActive  bool           `gorm:"default:true" json:"is_active"`
	CreatedAt time.Time      `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt time.Time      `gorm:"autoUpdateTime" json:"updated_at"`
	DeletedAt gorm.DeletedAt `gorm:"index" json:"-"`
}

func (User) TableName() string {
	return "users"
}

// UserResponse DTO
type UserResponse struct {
	ID        uint      `json:"id"`
	Username  string    `json:"username"`
	Email     string    `json:"email"`
	FullName  string    `json:"name"`
	Role      string    `json:"role"`
	IsActive  bool      `json:"is_active"`
	CreatedAt time.Time `json:"created_at"`
}

func (u *User) ToResponse() *UserResponse {
	return &UserResponse{
		ID:        u.ID,
		Username:  u.Username,
		Email:     u.Email,
		FullName:  u.FullName,
		Role:      u.Role,
		IsActive:  u.IsActive,
		CreatedAt: u.CreatedAt,
	}
}

// RefreshToken represents refresh_tokens table
type RefreshToken struct {
	ID        uint       `gorm:"primaryKey" json:"id"`
	UserID    uint       `gorm:"index;not null" json:"user_id"`
	TokenHash string     `gorm:"size:255;not null;index" json:"-"`
	ExpiresAt time.Time  `gorm:"not null" json:"expires_at"`
	CreatedAt time.Time  `gorm:"autoCreateTime" json:"created_at"`
	RevokedAt *time.Time `gorm:"index" json:"revoked_at"`
	User      User       `gorm:"foreignKey:UserID" json:"-"`
}

func (RefreshToken) TableName() string {
	return "refresh_tokens"
}

func (rt *RefreshToken) IsRevoked() bool {
	return rt.RevokedAt != nil
}

func (rt *RefreshToken) IsExpired() bool {
	return time.Now().After(rt.ExpiresAt)
}

// ============================================================
// Catalog Tables
// ============================================================

// Book represents books table
type Book struct {
	ID        uint           `gorm:"primaryKey" json:"id"`
	Title     string         `gorm:"size:255;not null" json:"title"`
	Author    string         `gorm:"size:255;not null" json:"author"`
	ISBN      string         `gorm:"uniqueIndex;size:17;not null" json:"isbn"`
	Category  string         `gorm:"size:100;not null" json:"category"`
	Status    string         `gorm:"size:20;not null;default:'available'" json:"status"`
	AddedBy   uint           `gorm:"index" json:"added_by"`
	CreatedAt time.Time      `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt time.Time      `gorm:"autoUpdateTime" json:"updated_at"`
	DeletedAt gorm.DeletedAt `gorm:"index" json:"-"`

	Creator *User `gorm:"foreignKey:AddedBy" json:"creator,omitempty"`
}

func (Book) TableName() string {
	return "books"
}

// BookResponse DTO carries the effective status derived from open loans,
// which may differ from the stored column.
type BookResponse struct {
	ID              uint      `json:"id"`
	Title           string    `json:"title"`
	Author          string    `json:"author"`
	ISBN            string    `json:"isbn"`
	Category        string    `json:"category"`
	Status          string    `json:"status"`
	EffectiveStatus string    `json:"effective_status"`
	AddedBy         uint      `json:"added_by"`
	CreatedAt       time.Time `json:"created_at"`
	UpdatedAt       time.Time `json:"updated_at"`
}

func (b *Book) ToResponse() *BookResponse {
	return &BookResponse{
		ID:              b.ID,
		Title:           b.Title,
		Author:          b.Author,
		ISBN:            b.ISBN,
		Category:        b.Category,
		Status:          b.Status,
		EffectiveStatus: b.Status,
		AddedBy:         b.AddedBy,
		CreatedAt:       b.CreatedAt,
		UpdatedAt:       b.UpdatedAt,
	}
}

// Patron represents patrons table
type Patron struct {
	ID          uint           `gorm:"primaryKey" json:"id"`
	FullName    string         `gorm:"size:100;not null" json:"full_name"`
	Email       string         `gorm:"uniqueIndex;size:100;not null" json:"email"`
	Phone       *string        `gorm:"size:30" json:"phone"`
	MemberSince time.Time      `gorm:"autoCreateTime" json:"member_since"`
	Status      string         `gorm:"size:20;not null;default:'active'" json:"status"`
	CreatedAt   time.Time      `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt   time.Time      `gorm:"autoUpdateTime" json:"updated_at"`
	DeletedAt   gorm.DeletedAt `gorm:"index" json:"-"`
}

func (Patron) TableName() string {
	return "patrons"
}

// IsActive reports whether the patron may originate new loans.
func (p *Patron) IsActive() bool {
	return p.Status == string(domain.PatronActive)
}

// ============================================================
// Loan Tables
// ============================================================

// Loan represents loans table
type Loan struct {
	ID           uint       `gorm:"primaryKey" json:"id"`
	BookID       uint       `gorm:"not null;index" json:"book_id"`
	PatronID     uint       `gorm:"not null;index" json:"patron_id"`
	LoanDate     time.Time  `gorm:"not null" json:"loan_date"`
	DueDate      *time.Time `json:"due_date"`
	DocDate      *time.Time `json:"doc_date"`
	ReturnedDate *time.Time `json:"returned_date"`
	Status       string     `gorm:"size:20;not null;default:'borrowed';index" json:"status"`
	CreatedAt    time.Time  `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt    time.Time  `gorm:"autoUpdateTime" json:"updated_at"`

	Book   *Book   `gorm:"foreignKey:BookID" json:"book,omitempty"`
	Patron *Patron `gorm:"foreignKey:PatronID" json:"patron,omitempty"`
}

func (Loan) TableName() string {
	return "loans"
}

// IsOpen reports whether the loan is in a non-terminal state.
func (l *Loan) IsOpen() bool {
	return domain.LoanStatus(l.Status).IsOpen()
}

// LoanResponse DTO includes derived overdue fields
type LoanResponse struct {
	ID           uint       `json:"id"`
	BookID       uint       `json:"book_id"`
	BookTitle    string     `json:"book_title,omitempty"`
	PatronID     uint       `json:"patron_id"`
	PatronName   string     `json:"patron_name,omitempty"`
	PatronEmail  string     `json:"patron_email,omitempty"`
	LoanDate     time.Time  `json:"loan_date"`
	DueDate      *time.Time `json:"due_date"`
	ReturnedDate *time.Time `json:"returned_date"`
	Status       string     `json:"status"`
	IsOverdue    bool       `json:"is_overdue"`
	DaysOverdue  int        `json:"days_overdue"`
	Severity     string     `json:"severity,omitempty"`
	CreatedAt    time.Time  `json:"created_at"`
}

func (l *Loan) ToResponse() *LoanResponse {
	resp := &LoanResponse{
		ID:           l.ID,
		BookID:       l.BookID,
		PatronID:     l.PatronID,
		LoanDate:     l.LoanDate,
		DueDate:      l.DueDate,
		ReturnedDate: l.ReturnedDate,
		Status:       l.Status,
		CreatedAt:    l.CreatedAt,
	}

	if l.Book != nil {
		resp.BookTitle = l.Book.Title
	}
	if l.Patron != nil {
		resp.PatronName = l.Patron.FullName
		resp.PatronEmail = l.Patron.Email
	}

	return resp
}

// ============================================================
// Audit Table
// ============================================================

// Audit action types
const (
	AuditActionCreate  = "CREATE"
	AuditActionUpdate  = "UPDATE"
	AuditActionDelete  = "DELETE"
	AuditActionArchive = "ARCHIVE"
	AuditActionReturn  = "RETURN"
)

// AuditLog represents audit_logs table (append-only)
type AuditLog struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	Action    string    `gorm:"size:20;not null" json:"action"`
	Table     string    `gorm:"column:table_name;size:50;not null;index" json:"table_name"`
	RecordID  uint      `gorm:"not null" json:"record_id"`
	UserID    uint      `gorm:"index" json:"user_id"`
	NewData   string    `gorm:"type:text" json:"new_data"`
	CreatedAt time.Time `gorm:"autoCreateTime" json:"created_at"`
}

func (AuditLog) TableName() string {
	return "audit_logs"
}

// ============================================================
// Auto Migration
// ============================================================

// AutoMigrate runs auto migration for all tables
func AutoMigrate(db *gorm.DB) error {
	return db.AutoMigrate(
		&User{},
		&RefreshToken{},
		&Book{},
		&Patron{},
		&Loan{},
		&AuditLog{},
	)
}
