package importer

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/guadaltech/connector-prestashop/internal/domain/connector"
	"github.com/guadaltech/connector-prestashop/internal/domain/erp"
)

// ---------------------------------------------------------------------------
// Remote fakes
// ---------------------------------------------------------------------------

type fakeAdapter struct {
	model    connector.Model
	records  map[string]connector.Value
	searchFn func(filters map[string]string) []string
	readErr  map[string]error
	reads    []string
}

func newFakeAdapter(model connector.Model) *fakeAdapter {
	return &fakeAdapter{
		model:   model,
		records: make(map[string]connector.Value),
		readErr: make(map[string]error),
	}
}

func (a *fakeAdapter) Model() connector.Model { return a.model }

func (a *fakeAdapter) Search(ctx context.Context, filters map[string]string) ([]string, error) {
	if a.searchFn != nil {
		return a.searchFn(filters), nil
	}
	ids := make([]string, 0, len(a.records))
	for id := range a.records {
		ids = append(ids, id)
	}
	return ids, nil
}

func (a *fakeAdapter) Read(ctx context.Context, externalID string) (connector.Value, error) {
	a.reads = append(a.reads, externalID)
	if err, ok := a.readErr[externalID]; ok {
		return connector.Nil(), err
	}
	record, ok := a.records[externalID]
	if !ok {
		return connector.Nil(), connector.ErrRecordNotFound
	}
	return record, nil
}

func (a *fakeAdapter) Head(ctx context.Context) error { return nil }

type fakeRegistry struct {
	adapters map[connector.Model]*fakeAdapter
}

func newFakeRegistry() *fakeRegistry {
	return &fakeRegistry{adapters: make(map[connector.Model]*fakeAdapter)}
}

func (r *fakeRegistry) add(model connector.Model) *fakeAdapter {
	a := newFakeAdapter(model)
	r.adapters[model] = a
	return a
}

func (r *fakeRegistry) AdapterFor(model connector.Model) (connector.RecordAdapter, error) {
	a, ok := r.adapters[model]
	if !ok {
		return nil, fmt.Errorf("adapter for %s: %w", model, connector.ErrModelNotSupported)
	}
	return a, nil
}

// ---------------------------------------------------------------------------
// In-memory repositories
// ---------------------------------------------------------------------------

type memBindings struct {
	mu       sync.Mutex
	bindings map[uuid.UUID]*connector.Binding
}

func newMemBindings() *memBindings {
	return &memBindings{bindings: make(map[uuid.UUID]*connector.Binding)}
}

func (m *memBindings) FindByID(ctx context.Context, id uuid.UUID) (*connector.Binding, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	b, ok := m.bindings[id]
	if !ok {
		return nil, connector.ErrBindingNotFound
	}
	copied := *b
	return &copied, nil
}

func (m *memBindings) FindByExternal(ctx context.Context, backendID uuid.UUID, model connector.Model, externalID string) (*connector.Binding, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, b := range m.bindings {
		if b.BackendID == backendID && b.Model == model && b.ExternalID == externalID {
			copied := *b
			return &copied, nil
		}
	}
	return nil, nil
}

func (m *memBindings) FindByInternal(ctx context.Context, backendID uuid.UUID, model connector.Model, internalID uuid.UUID) ([]connector.Binding, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []connector.Binding
	for _, b := range m.bindings {
		if b.BackendID == backendID && b.Model == model && b.InternalID == internalID {
			out = append(out, *b)
		}
	}
	return out, nil
}

func (m *memBindings) Upsert(ctx context.Context, binding *connector.Binding) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	copied := *binding
	m.bindings[binding.ID] = &copied
	return nil
}

func (m *memBindings) Delete(ctx context.Context, id uuid.UUID) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.bindings, id)
	return nil
}

func (m *memBindings) count() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.bindings)
}

type memOrders struct {
	orders map[uuid.UUID]*erp.SaleOrder
}

func newMemOrders() *memOrders {
	return &memOrders{orders: make(map[uuid.UUID]*erp.SaleOrder)}
}

func (m *memOrders) FindByID(ctx context.Context, id uuid.UUID) (*erp.SaleOrder, error) {
	o, ok := m.orders[id]
	if !ok {
		return nil, fmt.Errorf("sale order %s not found", id)
	}
	return o, nil
}

func (m *memOrders) Save(ctx context.Context, order *erp.SaleOrder) error {
	m.orders[order.ID] = order
	return nil
}

func (m *memOrders) ExistsByName(ctx context.Context, companyID uuid.UUID, name string) (bool, error) {
	for _, o := range m.orders {
		if o.CompanyID == companyID && o.Name == name {
			return true, nil
		}
	}
	return false, nil
}

type memPartners struct{ partners map[uuid.UUID]*erp.Partner }

func newMemPartners() *memPartners { return &memPartners{partners: make(map[uuid.UUID]*erp.Partner)} }

func (m *memPartners) FindByID(ctx context.Context, id uuid.UUID) (*erp.Partner, error) {
	p, ok := m.partners[id]
	if !ok {
		return nil, fmt.Errorf("partner %s not found", id)
	}
	return p, nil
}

func (m *memPartners) Save(ctx context.Context, partner *erp.Partner) error {
	m.partners[partner.ID] = partner
	return nil
}

type memAddresses struct{ addresses map[uuid.UUID]*erp.Address }

func newMemAddresses() *memAddresses {
	return &memAddresses{addresses: make(map[uuid.UUID]*erp.Address)}
}

func (m *memAddresses) FindByID(ctx context.Context, id uuid.UUID) (*erp.Address, error) {
	a, ok := m.addresses[id]
	if !ok {
		return nil, fmt.Errorf("address %s not found", id)
	}
	return a, nil
}

func (m *memAddresses) Save(ctx context.Context, address *erp.Address) error {
	m.addresses[address.ID] = address
	return nil
}

type memCarriers struct{ carriers map[uuid.UUID]*erp.Carrier }

func newMemCarriers() *memCarriers { return &memCarriers{carriers: make(map[uuid.UUID]*erp.Carrier)} }

func (m *memCarriers) FindByID(ctx context.Context, id uuid.UUID) (*erp.Carrier, error) {
	c, ok := m.carriers[id]
	if !ok {
		return nil, fmt.Errorf("carrier %s not found", id)
	}
	return c, nil
}

func (m *memCarriers) Save(ctx context.Context, carrier *erp.Carrier) error {
	m.carriers[carrier.ID] = carrier
	return nil
}

type memProducts struct{ products map[uuid.UUID]*erp.ProductTemplate }

func newMemProducts() *memProducts {
	return &memProducts{products: make(map[uuid.UUID]*erp.ProductTemplate)}
}

func (m *memProducts) FindByID(ctx context.Context, id uuid.UUID) (*erp.ProductTemplate, error) {
	p, ok := m.products[id]
	if !ok {
		return nil, fmt.Errorf("product %s not found", id)
	}
	return p, nil
}

func (m *memProducts) Save(ctx context.Context, product *erp.ProductTemplate) error {
	m.products[product.ID] = product
	return nil
}

type memThreads struct{ threads map[uuid.UUID]*erp.MessageThread }

func newMemThreads() *memThreads {
	return &memThreads{threads: make(map[uuid.UUID]*erp.MessageThread)}
}

func (m *memThreads) FindByID(ctx context.Context, id uuid.UUID) (*erp.MessageThread, error) {
	t, ok := m.threads[id]
	if !ok {
		return nil, fmt.Errorf("thread %s not found", id)
	}
	return t, nil
}

func (m *memThreads) Save(ctx context.Context, thread *erp.MessageThread) error {
	m.threads[thread.ID] = thread
	return nil
}

type memMessages struct{ messages map[uuid.UUID]*erp.Message }

func newMemMessages() *memMessages {
	return &memMessages{messages: make(map[uuid.UUID]*erp.Message)}
}

func (m *memMessages) FindByID(ctx context.Context, id uuid.UUID) (*erp.Message, error) {
	msg, ok := m.messages[id]
	if !ok {
		return nil, fmt.Errorf("message %s not found", id)
	}
	return msg, nil
}

func (m *memMessages) Save(ctx context.Context, message *erp.Message) error {
	m.messages[message.ID] = message
	return nil
}

type memCheckpoints struct{ checkpoints []*connector.Checkpoint }

func newMemCheckpoints() *memCheckpoints { return &memCheckpoints{} }

func (m *memCheckpoints) Add(ctx context.Context, checkpoint *connector.Checkpoint) error {
	m.checkpoints = append(m.checkpoints, checkpoint)
	return nil
}

func (m *memCheckpoints) ListOpen(ctx context.Context, backendID uuid.UUID) ([]connector.Checkpoint, error) {
	var out []connector.Checkpoint
	for _, c := range m.checkpoints {
		if c.BackendID == backendID && !c.Resolved {
			out = append(out, *c)
		}
	}
	return out, nil
}

func (m *memCheckpoints) Resolve(ctx context.Context, id uuid.UUID) error {
	for _, c := range m.checkpoints {
		if c.ID == id {
			c.Resolved = true
		}
	}
	return nil
}

type memPaymentModes struct{ modes map[string]*connector.PaymentMode }

func newMemPaymentModes() *memPaymentModes {
	return &memPaymentModes{modes: make(map[string]*connector.PaymentMode)}
}

func (m *memPaymentModes) FindByName(ctx context.Context, name string) (*connector.PaymentMode, error) {
	return m.modes[name], nil
}

func (m *memPaymentModes) Save(ctx context.Context, mode *connector.PaymentMode) error {
	m.modes[mode.Name] = mode
	return nil
}

type memBackends struct{ backends map[uuid.UUID]*connector.Backend }

func newMemBackends() *memBackends {
	return &memBackends{backends: make(map[uuid.UUID]*connector.Backend)}
}

func (m *memBackends) FindByID(ctx context.Context, id uuid.UUID) (*connector.Backend, error) {
	b, ok := m.backends[id]
	if !ok {
		return nil, connector.ErrBackendNotFound
	}
	return b, nil
}

func (m *memBackends) FindAll(ctx context.Context) ([]connector.Backend, error) {
	var out []connector.Backend
	for _, b := range m.backends {
		out = append(out, *b)
	}
	return out, nil
}

func (m *memBackends) Save(ctx context.Context, backend *connector.Backend) error {
	m.backends[backend.ID] = backend
	return nil
}

func (m *memBackends) AdvanceWatermark(ctx context.Context, id uuid.UUID, kind connector.WatermarkKind, t time.Time) error {
	b, ok := m.backends[id]
	if !ok {
		return connector.ErrBackendNotFound
	}
	b.AdvanceWatermark(kind, t)
	return nil
}

// ---------------------------------------------------------------------------
// Environment builder
// ---------------------------------------------------------------------------

type fixture struct {
	env      *Environment
	registry *fakeRegistry
	bindings *memBindings

	orders       *memOrders
	partners     *memPartners
	addresses    *memAddresses
	carriers     *memCarriers
	products     *memProducts
	threads      *memThreads
	messages     *memMessages
	checkpoints  *memCheckpoints
	paymentModes *memPaymentModes
	backends     *memBackends
}

func newFixture() *fixture {
	backend, err := connector.NewBackend("test-shop", "http://shop.example", "key", connector.APIVersion1612)
	if err != nil {
		panic(err)
	}
	backend.CompanyID = uuid.New()
	backend.PricelistID = uuid.New()
	backend.DiscountProductID = uuid.New()
	backend.ShippingProductID = uuid.New()

	f := &fixture{
		registry:     newFakeRegistry(),
		bindings:     newMemBindings(),
		orders:       newMemOrders(),
		partners:     newMemPartners(),
		addresses:    newMemAddresses(),
		carriers:     newMemCarriers(),
		products:     newMemProducts(),
		threads:      newMemThreads(),
		messages:     newMemMessages(),
		checkpoints:  newMemCheckpoints(),
		paymentModes: newMemPaymentModes(),
		backends:     newMemBackends(),
	}
	f.backends.backends[backend.ID] = backend

	binder, err := NewBackendBinder(backend.ID, f.bindings,
		connector.ModelCustomer, connector.ModelAddress, connector.ModelCarrier,
		connector.ModelProductTemplate, connector.ModelSaleOrder,
		connector.ModelMessageThread, connector.ModelMessage)
	if err != nil {
		panic(err)
	}

	f.env = &Environment{
		Backend:      backend,
		Binder:       binder,
		Adapters:     f.registry,
		Backends:     f.backends,
		Checkpoints:  f.checkpoints,
		PaymentModes: f.paymentModes,
		Partners:     f.partners,
		Addresses:    f.addresses,
		Carriers:     f.carriers,
		Products:     f.products,
		Orders:       f.orders,
		Threads:      f.threads,
		Messages:     f.messages,
	}
	return f
}

func (f *fixture) importer() *RecordImporter {
	return NewRecordImporter(f.env, NewDefaultRegistry())
}

// record builds a scalar-only external record.
func record(fields map[string]string) connector.Value {
	m := make(map[string]connector.Value, len(fields))
	for k, v := range fields {
		m[k] = connector.String(v)
	}
	return connector.Map(m)
}
