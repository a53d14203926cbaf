package importer

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/guadaltech/connector-prestashop/internal/domain/connector"
	"github.com/guadaltech/connector-prestashop/internal/domain/erp"
)

// ---------------------------------------------------------------------------
// Message thread
// ---------------------------------------------------------------------------

// NewThreadMapper builds the mapper for remote customer-service threads.
func NewThreadMapper() *Mapper {
	return &Mapper{
		Model: connector.ModelMessageThread,
		Computed: []ComputeRule{
			{Name: "order", Fn: mapThreadOrder},
			{Name: "author", Fn: mapThreadAuthor},
		},
	}
}

func mapThreadOrder(ctx context.Context, run *Run, record connector.Value) (Values, error) {
	orderID, err := record.GetString("id_order")
	if err != nil {
		return nil, err
	}
	binding, err := run.Env.Binder.ToInternal(ctx, connector.ModelSaleOrder, orderID)
	if err != nil {
		return nil, err
	}
	if binding == nil {
		return nil, fmt.Errorf("order %s is not bound", orderID)
	}
	return Values{"order_id": binding.InternalID}, nil
}

func mapThreadAuthor(ctx context.Context, run *Run, record connector.Value) (Values, error) {
	customerID := record.Field("id_customer").Str()
	if customerID == "" || customerID == "0" {
		return Values{}, nil
	}
	binding, err := run.Env.Binder.ToInternal(ctx, connector.ModelCustomer, customerID)
	if err != nil {
		return nil, err
	}
	if binding == nil {
		return Values{}, nil
	}
	return Values{"author_id": binding.InternalID}, nil
}

// NewThreadDefinition builds the importable definition for threads.
func NewThreadDefinition() *Definition {
	return &Definition{
		Model:        connector.ModelMessageThread,
		Dependencies: threadDependencies,
		SkipCheck:    threadSkipCheck,
		Upsert:       upsertThread,
	}
}

// threadDependencies pulls in the referenced order without requiring it: the
// order may be excluded by its payment rule, in which case the thread is
// skipped rather than failed.
func threadDependencies(ctx context.Context, run *Run, record connector.Value) error {
	orderID := record.Field("id_order").Str()
	if orderID == "" || orderID == "0" {
		return nil
	}
	if err := run.ImportDependency(ctx, connector.ModelSaleOrder, orderID, false); err != nil {
		return err
	}
	customerID := record.Field("id_customer").Str()
	return run.ImportDependency(ctx, connector.ModelCustomer, customerID, false)
}

// threadSkipCheck skips threads that cannot be attached to an imported order.
func threadSkipCheck(ctx context.Context, run *Run, record connector.Value) (string, error) {
	orderID := record.Field("id_order").Str()
	if orderID == "" || orderID == "0" {
		return "thread is not attached to an order", nil
	}
	binding, err := run.Env.Binder.ToInternal(ctx, connector.ModelSaleOrder, orderID)
	if err != nil {
		return "", err
	}
	if binding == nil {
		return fmt.Sprintf("order %s was not imported", orderID), nil
	}
	return "", nil
}

func upsertThread(ctx context.Context, run *Run, values Values) (uuid.UUID, error) {
	now := time.Now()
	thread := &erp.MessageThread{
		ID:        uuid.New(),
		OrderID:   values.UUID("order_id"),
		AuthorID:  values.OptUUID("author_id"),
		CreatedAt: now,
		UpdatedAt: now,
	}
	if err := run.Env.Threads.Save(ctx, thread); err != nil {
		return uuid.Nil, err
	}
	return thread.ID, nil
}

// ---------------------------------------------------------------------------
// Message
// ---------------------------------------------------------------------------

// NewMessageMapper builds the mapper for remote customer-service messages.
func NewMessageMapper() *Mapper {
	return &Mapper{
		Model: connector.ModelMessage,
		Direct: []DirectRule{
			{From: "message", To: "body"},
		},
		Computed: []ComputeRule{
			{Name: "thread", Fn: mapMessageThread},
		},
	}
}

func mapMessageThread(ctx context.Context, run *Run, record connector.Value) (Values, error) {
	threadID, err := record.GetString("id_customer_thread")
	if err != nil {
		return nil, err
	}
	binding, err := run.Env.Binder.ToInternal(ctx, connector.ModelMessageThread, threadID)
	if err != nil {
		return nil, err
	}
	if binding == nil {
		return nil, fmt.Errorf("thread %s is not bound", threadID)
	}
	return Values{"thread_id": binding.InternalID}, nil
}

// NewMessageDefinition builds the importable definition for messages.
func NewMessageDefinition() *Definition {
	return &Definition{
		Model:        connector.ModelMessage,
		Dependencies: messageDependencies,
		SkipCheck:    messageSkipCheck,
		Upsert:       upsertMessage,
	}
}

func messageDependencies(ctx context.Context, run *Run, record connector.Value) error {
	threadID := record.Field("id_customer_thread").Str()
	return run.ImportDependency(ctx, connector.ModelMessageThread, threadID, false)
}

// messageSkipCheck skips messages whose thread was itself skipped.
func messageSkipCheck(ctx context.Context, run *Run, record connector.Value) (string, error) {
	threadID := record.Field("id_customer_thread").Str()
	if threadID == "" || threadID == "0" {
		return "message is not attached to a thread", nil
	}
	binding, err := run.Env.Binder.ToInternal(ctx, connector.ModelMessageThread, threadID)
	if err != nil {
		return "", err
	}
	if binding == nil {
		return fmt.Sprintf("thread %s was not imported", threadID), nil
	}
	return "", nil
}

func upsertMessage(ctx context.Context, run *Run, values Values) (uuid.UUID, error) {
	now := time.Now()
	message := &erp.Message{
		ID:        uuid.New(),
		ThreadID:  values.UUID("thread_id"),
		Body:      values.String("body"),
		CreatedAt: now,
		UpdatedAt: now,
	}
	if err := run.Env.Messages.Save(ctx, message); err != nil {
		return uuid.Nil, err
	}
	return message.ID, nil
}
