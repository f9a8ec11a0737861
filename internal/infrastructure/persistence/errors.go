package persistence

import (
	"errors"

	"github.com/freelance/backend/internal/domain/shared"
	"github.com/jackc/pgx/v5/pgconn"
	"gorm.io/gorm"
)

const pgUniqueViolation = "23505"

// uniqueConstraintMessages maps unique indexes to the message users see
var uniqueConstraintMessages = map[string]string{
	"idx_invoice_payments_transaction_id": "Payment with this transaction ID already exists",
	"idx_quotes_quote_number":             "Quote number already exists",
	"idx_invoices_invoice_number":         "Invoice number already exists",
	"idx_quotes_public_hash":              "Public hash already exists",
	"idx_invoices_public_hash":            "Public hash already exists",
}

// translateError turns driver errors into domain errors. Unique violations
// become CONFLICT; everything else is returned unchanged.
func translateError(err error) error {
	if err == nil {
		return nil
	}
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) && pgErr.Code == pgUniqueViolation {
		message, ok := uniqueConstraintMessages[pgErr.ConstraintName]
		if !ok {
			message = shared.ErrConflict.Message
		}
		return shared.WrapDomainError(shared.CodeConflict, message, err)
	}
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return shared.WrapDomainError(shared.CodeConflict, shared.ErrConflict.Message, err)
	}
	return err
}

// notFound maps gorm.ErrRecordNotFound to a NOT_FOUND error with message
func notFound(err error, message string) error {
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return shared.NotFound(message)
	}
	return err
}
