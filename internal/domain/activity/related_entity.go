package activity

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/freelance/backend/internal/domain/shared"
	"github.com/google/uuid"
)

// EntityType tags the kind of record an activity or reminder points at
type EntityType string

const (
	EntityUser     EntityType = "user"
	EntityClient   EntityType = "client"
	EntityProject  EntityType = "project"
	EntityQuote    EntityType = "quote"
	EntityInvoice  EntityType = "invoice"
	EntityPayment  EntityType = "payment"
	EntityReminder EntityType = "reminder"
)

// AllEntityTypes lists every variant of RelatedEntity
var AllEntityTypes = []EntityType{
	EntityUser, EntityClient, EntityProject, EntityQuote, EntityInvoice, EntityPayment, EntityReminder,
}

// UnknownEntityName is shown when a related record cannot be resolved
const UnknownEntityName = "Unknown"

// RelatedEntity is a closed set of references. Only the variants in this
// package implement it.
type RelatedEntity interface {
	Type() EntityType
	EntityID() uuid.UUID
	related()
}

type ref struct{ id uuid.UUID }

func (r ref) EntityID() uuid.UUID { return r.id }
func (ref) related()              {}

type (
	UserRef     struct{ ref }
	ClientRef   struct{ ref }
	ProjectRef  struct{ ref }
	QuoteRef    struct{ ref }
	InvoiceRef  struct{ ref }
	PaymentRef  struct{ ref }
	ReminderRef struct{ ref }
)

func (UserRef) Type() EntityType     { return EntityUser }
func (ClientRef) Type() EntityType   { return EntityClient }
func (ProjectRef) Type() EntityType  { return EntityProject }
func (QuoteRef) Type() EntityType    { return EntityQuote }
func (InvoiceRef) Type() EntityType  { return EntityInvoice }
func (PaymentRef) Type() EntityType  { return EntityPayment }
func (ReminderRef) Type() EntityType { return EntityReminder }

// Constructors for each variant
func User(id uuid.UUID) RelatedEntity     { return UserRef{ref{id}} }
func Client(id uuid.UUID) RelatedEntity   { return ClientRef{ref{id}} }
func Project(id uuid.UUID) RelatedEntity  { return ProjectRef{ref{id}} }
func Quote(id uuid.UUID) RelatedEntity    { return QuoteRef{ref{id}} }
func Invoice(id uuid.UUID) RelatedEntity  { return InvoiceRef{ref{id}} }
func Payment(id uuid.UUID) RelatedEntity  { return PaymentRef{ref{id}} }
func Reminder(id uuid.UUID) RelatedEntity { return ReminderRef{ref{id}} }

var constructors = map[EntityType]func(uuid.UUID) RelatedEntity{
	EntityUser:     User,
	EntityClient:   Client,
	EntityProject:  Project,
	EntityQuote:    Quote,
	EntityInvoice:  Invoice,
	EntityPayment:  Payment,
	EntityReminder: Reminder,
}

// ParseRelatedEntity builds a reference from a stored tag and id
func ParseRelatedEntity(tag string, id uuid.UUID) (RelatedEntity, error) {
	build, ok := constructors[EntityType(strings.ToLower(strings.TrimSpace(tag)))]
	if !ok {
		return nil, shared.InvalidArgument(fmt.Sprintf("Invalid related type: %s", tag))
	}
	if id == uuid.Nil {
		return nil, shared.InvalidArgument("Related ID is required when related type is specified")
	}
	return build(id), nil
}

// Resolver returns the display name of one record owned by userID
type Resolver func(ctx context.Context, userID, id uuid.UUID) (string, error)

// ResolverTable maps each entity type to its resolver
type ResolverTable map[EntityType]Resolver

// ErrMissingResolver is returned by Validate for incomplete tables
var ErrMissingResolver = errors.New("missing resolver")

// Validate checks that every variant has a resolver
func (t ResolverTable) Validate() error {
	for _, et := range AllEntityTypes {
		if t[et] == nil {
			return fmt.Errorf("%w for %s", ErrMissingResolver, et)
		}
	}
	return nil
}

// Resolve looks up the display name. Missing records resolve to UnknownEntityName.
func (t ResolverTable) Resolve(ctx context.Context, userID uuid.UUID, e RelatedEntity) (string, error) {
	resolve, ok := t[e.Type()]
	if !ok {
		return UnknownEntityName, nil
	}
	name, err := resolve(ctx, userID, e.EntityID())
	if errors.Is(err, shared.ErrNotFound) {
		return UnknownEntityName, nil
	}
	if err != nil {
		return "", err
	}
	return name, nil
}
