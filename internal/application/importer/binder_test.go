package importer

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/guadaltech/connector-prestashop/internal/domain/connector"
)

func TestBackendBinder_Bind(t *testing.T) {
	ctx := context.Background()

	t.Run("creates a binding and resolves it both ways", func(t *testing.T) {
		repo := newMemBindings()
		backendID := uuid.New()
		binder, err := NewBackendBinder(backendID, repo, connector.ModelCustomer)
		require.NoError(t, err)
		internalID := uuid.New()

		binding, err := binder.Bind(ctx, connector.ModelCustomer, "42", internalID)
		require.NoError(t, err)
		assert.Equal(t, internalID, binding.InternalID)

		found, err := binder.ToInternal(ctx, connector.ModelCustomer, "42")
		require.NoError(t, err)
		require.NotNil(t, found)
		assert.Equal(t, internalID, found.InternalID)

		external, err := binder.ToExternalOf(ctx, connector.ModelCustomer, internalID)
		require.NoError(t, err)
		assert.Equal(t, "42", external)

		external, err = binder.ToExternal(ctx, connector.ModelCustomer, binding.ID)
		require.NoError(t, err)
		assert.Equal(t, "42", external)
	})

	t.Run("rebinding the same pair refreshes instead of duplicating", func(t *testing.T) {
		repo := newMemBindings()
		binder, err := NewBackendBinder(uuid.New(), repo, connector.ModelCustomer)
		require.NoError(t, err)
		internalID := uuid.New()

		first, err := binder.Bind(ctx, connector.ModelCustomer, "42", internalID)
		require.NoError(t, err)
		second, err := binder.Bind(ctx, connector.ModelCustomer, "42", internalID)
		require.NoError(t, err)

		assert.Equal(t, first.ID, second.ID)
		assert.Equal(t, 1, repo.count())
	})

	t.Run("never relinks an external ID to another internal record", func(t *testing.T) {
		repo := newMemBindings()
		binder, err := NewBackendBinder(uuid.New(), repo, connector.ModelCustomer)
		require.NoError(t, err)

		_, err = binder.Bind(ctx, connector.ModelCustomer, "42", uuid.New())
		require.NoError(t, err)
		_, err = binder.Bind(ctx, connector.ModelCustomer, "42", uuid.New())
		assert.ErrorIs(t, err, connector.ErrMultipleBindings)
	})

	t.Run("unbound external ID is nil, not an error", func(t *testing.T) {
		repo := newMemBindings()
		binder, err := NewBackendBinder(uuid.New(), repo, connector.ModelCustomer)
		require.NoError(t, err)

		found, err := binder.ToInternal(ctx, connector.ModelCustomer, "404")
		require.NoError(t, err)
		assert.Nil(t, found)
	})

	t.Run("unbound internal record yields empty external ID", func(t *testing.T) {
		repo := newMemBindings()
		binder, err := NewBackendBinder(uuid.New(), repo, connector.ModelCustomer)
		require.NoError(t, err)

		external, err := binder.ToExternalOf(ctx, connector.ModelCustomer, uuid.New())
		require.NoError(t, err)
		assert.Empty(t, external)
	})

	t.Run("unknown binding ID is a contract violation", func(t *testing.T) {
		repo := newMemBindings()
		binder, err := NewBackendBinder(uuid.New(), repo, connector.ModelCustomer)
		require.NoError(t, err)

		_, err = binder.ToExternal(ctx, connector.ModelCustomer, uuid.New())
		assert.ErrorIs(t, err, connector.ErrBindingNotFound)
	})

	t.Run("undeclared model is rejected", func(t *testing.T) {
		binder, err := NewBackendBinder(uuid.New(), newMemBindings(), connector.ModelCustomer)
		require.NoError(t, err)

		assert.False(t, binder.Supports(connector.ModelSaleOrder))
		_, err = binder.ToInternal(ctx, connector.ModelSaleOrder, "1")
		assert.ErrorIs(t, err, connector.ErrModelNotSupported)
	})

	t.Run("bindings are scoped per backend", func(t *testing.T) {
		repo := newMemBindings()
		binderA, err := NewBackendBinder(uuid.New(), repo, connector.ModelCustomer)
		require.NoError(t, err)
		binderB, err := NewBackendBinder(uuid.New(), repo, connector.ModelCustomer)
		require.NoError(t, err)

		_, err = binderA.Bind(ctx, connector.ModelCustomer, "42", uuid.New())
		require.NoError(t, err)

		found, err := binderB.ToInternal(ctx, connector.ModelCustomer, "42")
		require.NoError(t, err)
		assert.Nil(t, found)
	})
}
