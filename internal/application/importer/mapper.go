package importer

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/guadaltech/connector-prestashop/internal/domain/connector"
)

// ---------------------------------------------------------------------------
// Field values
// ---------------------------------------------------------------------------

// Values is the partial set of internal field values a mapping step produces.
// Steps are merged last-writer-wins; an empty contribution means "no
// applicable value" and is not an error.
type Values map[string]any

// Merge copies other into v, later values overriding earlier ones.
func (v Values) Merge(other Values) {
	for key, val := range other {
		v[key] = val
	}
}

// String returns the string stored under key, or "".
func (v Values) String(key string) string {
	s, _ := v[key].(string)
	return s
}

// Decimal returns the decimal stored under key, or zero. Direct-copied
// values arrive as strings and are parsed exactly.
func (v Values) Decimal(key string) decimal.Decimal {
	switch t := v[key].(type) {
	case decimal.Decimal:
		return t
	case string:
		if d, err := decimal.NewFromString(t); err == nil {
			return d
		}
	}
	return decimal.Zero
}

// Children returns the child value sets stored under key.
func (v Values) Children(key string) []Values {
	c, _ := v[key].([]Values)
	return c
}

// UUID returns the identifier stored under key, or uuid.Nil.
func (v Values) UUID(key string) uuid.UUID {
	id, _ := v[key].(uuid.UUID)
	return id
}

// OptUUID returns a pointer to the identifier stored under key, nil when
// absent. Optional references are stored as plain uuid.UUID values; absence
// of the key is the "no reference" case.
func (v Values) OptUUID(key string) *uuid.UUID {
	id, ok := v[key].(uuid.UUID)
	if !ok {
		return nil
	}
	return &id
}

// Time returns the timestamp stored under key, or the zero time.
func (v Values) Time(key string) time.Time {
	t, _ := v[key].(time.Time)
	return t
}

// ---------------------------------------------------------------------------
// Mapping rules
// ---------------------------------------------------------------------------

// DirectRule copies one external scalar verbatim into one internal field.
type DirectRule struct {
	From string
	To   string
}

// ComputeFunc derives a partial value set from the external record and the
// current backend configuration.
type ComputeFunc func(ctx context.Context, run *Run, record connector.Value) (Values, error)

// ComputeRule is a named computed mapping, evaluated in registration order.
type ComputeRule struct {
	Name string
	Fn   ComputeFunc
}

// ExtractFunc produces the child stub records nested in a parent external
// record. Implementations must normalize the singleton-as-mapping case;
// Value.AsList does that.
type ExtractFunc func(ctx context.Context, run *Run, record connector.Value) ([]connector.Value, error)

// ChildRule maps a nested association into a list of child value sets. Each
// stub is fully read through the child model's adapter, then mapped by the
// child model's own mapper.
type ChildRule struct {
	Extract ExtractFunc
	To      string
	Model   connector.Model
}

// FinalizeFunc post-processes the assembled value set, children included.
// Must be idempotent: running it twice on the same input yields the same
// output.
type FinalizeFunc func(ctx context.Context, run *Run, values Values) (Values, error)

// ---------------------------------------------------------------------------
// Mapper
// ---------------------------------------------------------------------------

// Mapper translates one external record representation into internal field
// values: direct copies first, then computed rules (last-writer-wins), then
// child mappings, then the optional finalize hook.
type Mapper struct {
	Model    connector.Model
	Direct   []DirectRule
	Computed []ComputeRule
	Children []ChildRule
	Finalize FinalizeFunc
}

// Map runs the full mapping for one external record.
func (m *Mapper) Map(ctx context.Context, run *Run, record connector.Value) (Values, error) {
	values := Values{}

	for _, rule := range m.Direct {
		if record.Has(rule.From) {
			values[rule.To] = record.Field(rule.From).Str()
		}
	}

	for _, rule := range m.Computed {
		part, err := rule.Fn(ctx, run, record)
		if err != nil {
			return nil, fmt.Errorf("%s mapping %s: %w", m.Model, rule.Name, err)
		}
		values.Merge(part)
	}

	for _, child := range m.Children {
		mapped, err := m.mapChild(ctx, run, record, child)
		if err != nil {
			return nil, fmt.Errorf("%s children %s: %w", m.Model, child.To, err)
		}
		values[child.To] = mapped
	}

	if m.Finalize != nil {
		finalized, err := m.Finalize(ctx, run, values)
		if err != nil {
			return nil, fmt.Errorf("%s finalize: %w", m.Model, err)
		}
		return finalized, nil
	}
	return values, nil
}

// mapChild resolves one child rule: extract stubs, read each stub fully
// through the child adapter, map with the child mapper, flatten.
func (m *Mapper) mapChild(ctx context.Context, run *Run, record connector.Value, rule ChildRule) ([]Values, error) {
	stubs, err := rule.Extract(ctx, run, record)
	if err != nil {
		return nil, err
	}

	childMapper, err := run.Mappers.MapperFor(rule.Model)
	if err != nil {
		return nil, err
	}
	adapter, err := run.Env.Adapters.AdapterFor(rule.Model)
	if err != nil {
		return nil, err
	}

	children := make([]Values, 0, len(stubs))
	for _, stub := range stubs {
		id, err := stub.GetString("id")
		if err != nil {
			return nil, err
		}
		detail, err := adapter.Read(ctx, id)
		if err != nil {
			return nil, err
		}
		mapped, err := childMapper.Map(ctx, run, detail)
		if err != nil {
			return nil, err
		}
		children = append(children, mapped)
	}
	return children, nil
}

// ---------------------------------------------------------------------------
// MapperSet
// ---------------------------------------------------------------------------

// MapperSet resolves the mapper for a model, including the child mappers
// parent mappers recurse into.
type MapperSet struct {
	mappers map[connector.Model]*Mapper
}

// NewMapperSet creates an empty mapper set.
func NewMapperSet() *MapperSet {
	return &MapperSet{mappers: make(map[connector.Model]*Mapper)}
}

// Register adds a mapper for its model.
func (s *MapperSet) Register(m *Mapper) {
	s.mappers[m.Model] = m
}

// MapperFor returns the mapper for a model, ErrModelNotSupported when none
// was registered.
func (s *MapperSet) MapperFor(model connector.Model) (*Mapper, error) {
	m, ok := s.mappers[model]
	if !ok {
		return nil, fmt.Errorf("mapper for %s: %w", model, connector.ErrModelNotSupported)
	}
	return m, nil
}
