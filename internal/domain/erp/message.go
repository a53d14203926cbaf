package erp

import (
	"context"
	"time"

	"github.com/google/uuid"
)

// ---------------------------------------------------------------------------
// Message thread entities
// ---------------------------------------------------------------------------

// MessageThread groups customer-service messages attached to one sales order.
type MessageThread struct {
	// ID is the unique identifier of the thread
	ID uuid.UUID
	// OrderID is the sales order the thread belongs to
	OrderID uuid.UUID
	// AuthorID is the customer who opened the thread, optional
	AuthorID *uuid.UUID
	// CreatedAt is when the thread was created
	CreatedAt time.Time
	// UpdatedAt is when the thread was last updated
	UpdatedAt time.Time
}

// Message is one message inside a thread.
type Message struct {
	// ID is the unique identifier of the message
	ID uuid.UUID
	// ThreadID is the owning thread
	ThreadID uuid.UUID
	// Body is the message text
	Body string
	// CreatedAt is when the message was created
	CreatedAt time.Time
	// UpdatedAt is when the message was last updated
	UpdatedAt time.Time
}

// ---------------------------------------------------------------------------
// Repositories
// ---------------------------------------------------------------------------

// ThreadRepository persists message threads.
type ThreadRepository interface {
	FindByID(ctx context.Context, id uuid.UUID) (*MessageThread, error)
	Save(ctx context.Context, thread *MessageThread) error
}

// MessageRepository persists messages.
type MessageRepository interface {
	FindByID(ctx context.Context, id uuid.UUID) (*Message, error)
	Save(ctx context.Context, message *Message) error
}
