package prestashop

import (
	"context"
	"fmt"

	"github.com/guadaltech/connector-prestashop/internal/domain/connector"
)

// resources maps internal models to their webservice collection names.
var resources = map[connector.Model]string{
	connector.ModelCustomer:          "customers",
	connector.ModelAddress:           "addresses",
	connector.ModelCarrier:           "carriers",
	connector.ModelProductTemplate:   "products",
	connector.ModelSaleOrder:         "orders",
	connector.ModelSaleOrderLine:     "order_details",
	connector.ModelSaleOrderDiscount: "order_discounts",
	connector.ModelMessageThread:     "customer_threads",
	connector.ModelMessage:           "customer_messages",
	connector.ModelPayment:           "order_payments",
}

// Adapter serves one model's remote resource through the webservice client.
type Adapter struct {
	client   *Client
	model    connector.Model
	resource string
}

// NewAdapter creates the adapter for one model.
func NewAdapter(client *Client, model connector.Model) (*Adapter, error) {
	resource, ok := resources[model]
	if !ok {
		return nil, fmt.Errorf("prestashop adapter for %s: %w", model, connector.ErrModelNotSupported)
	}
	return &Adapter{client: client, model: model, resource: resource}, nil
}

// Model returns the internal model this adapter serves
func (a *Adapter) Model() connector.Model {
	return a.model
}

// Search returns the external IDs matching the filters
func (a *Adapter) Search(ctx context.Context, filters map[string]string) ([]string, error) {
	return a.client.Search(ctx, a.resource, filters)
}

// Read fetches the full external record
func (a *Adapter) Read(ctx context.Context, externalID string) (connector.Value, error) {
	return a.client.Read(ctx, a.resource, externalID)
}

// Head probes connectivity
func (a *Adapter) Head(ctx context.Context) error {
	return a.client.Head(ctx)
}

var _ connector.RecordAdapter = (*Adapter)(nil)

// Registry resolves the adapter for every supported model over one client.
type Registry struct {
	adapters map[connector.Model]*Adapter
}

// NewRegistry creates adapters for every known resource.
func NewRegistry(client *Client) *Registry {
	r := &Registry{adapters: make(map[connector.Model]*Adapter, len(resources))}
	for model := range resources {
		adapter, _ := NewAdapter(client, model)
		r.adapters[model] = adapter
	}
	return r
}

// AdapterFor returns the adapter for a model
func (r *Registry) AdapterFor(model connector.Model) (connector.RecordAdapter, error) {
	adapter, ok := r.adapters[model]
	if !ok {
		return nil, fmt.Errorf("prestashop adapter for %s: %w", model, connector.ErrModelNotSupported)
	}
	return adapter, nil
}

var _ connector.AdapterRegistry = (*Registry)(nil)
