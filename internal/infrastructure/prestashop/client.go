package prestashop

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/guadaltech/connector-prestashop/internal/domain/connector"
)

// maxResponseSize is the maximum allowed webservice response size (10MB)
const maxResponseSize = 10 * 1024 * 1024

// defaultTimeout bounds one webservice call
const defaultTimeout = 30 * time.Second

// Client talks to one shop's webservice. The API key is sent as the
// basic-auth username with an empty password; every response is requested as
// JSON and normalized into a schema-less value tree.
type Client struct {
	baseURL    string
	key        string
	httpClient *http.Client
}

// NewClient creates a webservice client for a shop location.
func NewClient(location, webserviceKey string) *Client {
	return &Client{
		baseURL: strings.TrimRight(location, "/"),
		key:     webserviceKey,
		httpClient: &http.Client{
			Timeout: defaultTimeout,
		},
	}
}

// NewClientWithHTTP creates a client with a caller-supplied HTTP client.
func NewClientWithHTTP(location, webserviceKey string, httpClient *http.Client) *Client {
	c := NewClient(location, webserviceKey)
	c.httpClient = httpClient
	return c
}

// Search returns the IDs of the records matching the filters, in the order
// the shop returns them.
func (c *Client) Search(ctx context.Context, resource string, filters map[string]string) ([]string, error) {
	query := url.Values{}
	query.Set("output_format", "JSON")
	query.Set("display", "[id]")
	for k, v := range filters {
		query.Set(k, v)
	}

	root, err := c.get(ctx, "search", resource, c.baseURL+"/api/"+resource+"?"+query.Encode())
	if err != nil {
		return nil, err
	}

	// an empty result is a bare [], a non-empty one wraps the list in the
	// resource's collection key
	entries := root
	if root.Kind() == connector.KindMap {
		keys := root.Keys()
		if len(keys) != 1 {
			return nil, fmt.Errorf("prestashop: search %s: unexpected response shape", resource)
		}
		entries = root.Field(keys[0])
	}

	items := entries.AsList()
	ids := make([]string, 0, len(items))
	for _, item := range items {
		id, err := item.GetString("id")
		if err != nil {
			return nil, fmt.Errorf("prestashop: search %s: %w", resource, err)
		}
		ids = append(ids, id)
	}
	return ids, nil
}

// Read fetches one record and unwraps the singular root key, so callers see
// the record's fields directly. A missing record is ErrRecordNotFound.
func (c *Client) Read(ctx context.Context, resource, externalID string) (connector.Value, error) {
	query := url.Values{}
	query.Set("output_format", "JSON")

	root, err := c.get(ctx, "read", resource, c.baseURL+"/api/"+resource+"/"+url.PathEscape(externalID)+"?"+query.Encode())
	if err != nil {
		return connector.Nil(), err
	}

	if root.Kind() == connector.KindMap && root.Len() == 1 {
		return root.Field(root.Keys()[0]), nil
	}
	return root, nil
}

// Head probes the webservice without transferring a record.
func (c *Client) Head(ctx context.Context) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodHead, c.baseURL+"/api", nil)
	if err != nil {
		return &connector.TransportError{Op: "head", Resource: "api", Err: err}
	}
	req.SetBasicAuth(c.key, "")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return &connector.TransportError{Op: "head", Resource: "api", Err: err}
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 400 {
		return &connector.TransportError{Op: "head", Resource: "api", StatusCode: resp.StatusCode}
	}
	return nil
}

// get performs one authenticated GET and decodes the JSON body.
func (c *Client) get(ctx context.Context, op, resource, rawURL string) (connector.Value, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return connector.Nil(), &connector.TransportError{Op: op, Resource: resource, Err: err}
	}
	req.SetBasicAuth(c.key, "")
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return connector.Nil(), &connector.TransportError{Op: op, Resource: resource, Err: err}
	}
	defer resp.Body.Close()

	switch {
	case resp.StatusCode == http.StatusNotFound:
		return connector.Nil(), fmt.Errorf("prestashop: %s %s: %w", op, resource, connector.ErrRecordNotFound)
	case resp.StatusCode >= 400:
		return connector.Nil(), &connector.TransportError{Op: op, Resource: resource, StatusCode: resp.StatusCode}
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseSize))
	if err != nil {
		return connector.Nil(), &connector.TransportError{Op: op, Resource: resource, Err: err}
	}
	// some shop versions answer an empty body for empty collections
	if len(body) == 0 {
		return connector.List(), nil
	}

	value, err := connector.ParseJSON(body)
	if err != nil {
		return connector.Nil(), &connector.TransportError{Op: op, Resource: resource, Err: err}
	}
	return value, nil
}
