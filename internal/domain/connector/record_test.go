package connector

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseJSON(t *testing.T) {
	t.Run("parses nested document", func(t *testing.T) {
		v, err := ParseJSON([]byte(`{"order":{"id":"42","total_paid":"99.90","rows":[{"id":"1"},{"id":"2"}]}}`))
		require.NoError(t, err)

		order := v.Field("order")
		assert.Equal(t, KindMap, order.Kind())

		id, err := order.GetString("id")
		require.NoError(t, err)
		assert.Equal(t, "42", id)

		assert.Len(t, order.Field("rows").AsList(), 2)
	})

	t.Run("renders numbers as text", func(t *testing.T) {
		v, err := ParseJSON([]byte(`{"amount":12.50,"count":3}`))
		require.NoError(t, err)

		amount, err := v.GetString("amount")
		require.NoError(t, err)
		assert.Equal(t, "12.50", amount)

		count, err := v.GetString("count")
		require.NoError(t, err)
		assert.Equal(t, "3", count)
	})

	t.Run("rejects malformed document", func(t *testing.T) {
		_, err := ParseJSON([]byte(`{"order":`))
		assert.Error(t, err)
	})
}

func TestValueAccessors(t *testing.T) {
	record := Map(map[string]Value{
		"id":        String("7"),
		"total":     String("125.00"),
		"reference": String("SO-1001"),
		"customer":  Map(map[string]Value{"id": String("3")}),
	})

	t.Run("GetString returns scalar", func(t *testing.T) {
		ref, err := record.GetString("reference")
		require.NoError(t, err)
		assert.Equal(t, "SO-1001", ref)
	})

	t.Run("GetString fails with typed error on absent field", func(t *testing.T) {
		_, err := record.GetString("missing")
		require.Error(t, err)
		assert.True(t, IsMissingField(err))
	})

	t.Run("GetDecimal is exact", func(t *testing.T) {
		total, err := record.GetDecimal("total")
		require.NoError(t, err)
		assert.True(t, total.Equal(decimal.RequireFromString("125.00")))
	})

	t.Run("GetDecimal fails on non-numeric scalar", func(t *testing.T) {
		_, err := record.GetDecimal("reference")
		assert.Error(t, err)
	})

	t.Run("At walks nested maps", func(t *testing.T) {
		assert.Equal(t, "3", record.At("customer", "id").Str())
		assert.True(t, record.At("customer", "name").IsNil())
	})
}

func TestValueAsList(t *testing.T) {
	t.Run("list stays a list", func(t *testing.T) {
		v := List(String("a"), String("b"))
		assert.Len(t, v.AsList(), 2)
	})

	t.Run("singleton mapping upgrades to one-element list", func(t *testing.T) {
		// the webservice serializes a single child as a bare mapping
		v := Map(map[string]Value{"id": String("1")})
		items := v.AsList()
		require.Len(t, items, 1)
		assert.Equal(t, "1", items[0].Field("id").Str())
	})

	t.Run("nil yields empty list", func(t *testing.T) {
		assert.Empty(t, Nil().AsList())
	})
}
