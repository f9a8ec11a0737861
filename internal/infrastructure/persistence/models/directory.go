package models

import (
	"time"

	"github.com/google/uuid"
)

// The tables below belong to the account, CRM and project modules. Billing
// only reads them for ownership checks and display names.

// UserModel maps the columns of users that billing reads
type UserModel struct {
	ID        uuid.UUID `gorm:"type:uuid;primary_key"`
	Email     string    `gorm:"type:varchar(255);not null;uniqueIndex"`
	FirstName string    `gorm:"type:varchar(100)"`
	LastName  string    `gorm:"type:varchar(100)"`
	CreatedAt time.Time `gorm:"not null"`
	UpdatedAt time.Time `gorm:"not null"`
}

// TableName returns the table name for GORM
func (UserModel) TableName() string {
	return "users"
}

// ClientModel maps the columns of clients that billing reads
type ClientModel struct {
	ID          uuid.UUID `gorm:"type:uuid;primary_key"`
	UserID      uuid.UUID `gorm:"type:uuid;not null;index"`
	CompanyName *string   `gorm:"type:varchar(255)"`
	ContactName string    `gorm:"type:varchar(255);not null"`
	Email       string    `gorm:"type:varchar(255)"`
	CreatedAt   time.Time `gorm:"not null"`
	UpdatedAt   time.Time `gorm:"not null"`
}

// DisplayName is the company name, or the contact when there is none
func (m *ClientModel) DisplayName() string {
	if m.CompanyName != nil && *m.CompanyName != "" {
		return *m.CompanyName
	}
	return m.ContactName
}

// TableName returns the table name for GORM
func (ClientModel) TableName() string {
	return "clients"
}

// ProjectModel maps the columns of projects that billing reads
type ProjectModel struct {
	ID        uuid.UUID `gorm:"type:uuid;primary_key"`
	UserID    uuid.UUID `gorm:"type:uuid;not null;index"`
	ClientID  uuid.UUID `gorm:"type:uuid;not null;index"`
	Name      string    `gorm:"type:varchar(255);not null"`
	CreatedAt time.Time `gorm:"not null"`
	UpdatedAt time.Time `gorm:"not null"`
}

// TableName returns the table name for GORM
func (ProjectModel) TableName() string {
	return "projects"
}

// ReminderModel maps the columns of reminders that billing reads
type ReminderModel struct {
	ID                uuid.UUID  `gorm:"type:uuid;primary_key"`
	UserID            uuid.UUID  `gorm:"type:uuid;not null;index"`
	Title             string     `gorm:"type:varchar(255);not null"`
	ReminderDate      time.Time  `gorm:"type:date;not null"`
	IsRecurring       bool       `gorm:"not null;default:false"`
	RecurrencePattern string     `gorm:"type:varchar(20)"`
	IsCompleted       bool       `gorm:"not null;default:false"`
	RelatedType       string     `gorm:"type:varchar(20);index:idx_reminders_related"`
	RelatedID         *uuid.UUID `gorm:"type:uuid;index:idx_reminders_related"`
	CreatedAt         time.Time  `gorm:"not null"`
	UpdatedAt         time.Time  `gorm:"not null"`
}

// TableName returns the table name for GORM
func (ReminderModel) TableName() string {
	return "reminders"
}
