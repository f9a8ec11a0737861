// Package models contains GORM-specific persistence models that map to database tables.
// These models are separate from domain entities to keep the domain layer pure and free
// from ORM concerns.
//
// Structure:
// - base.go: BaseModel and OwnedAggregateModel shared by the billing tables
// - billing.go: quotes, invoices, their line items, payments, quote history and number sequences
// - directory.go: users, clients, projects and reminders owned by the account service
// - activity.go: the activity log
package models
