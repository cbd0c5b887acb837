package beckn

import (
	"time"

	"github.com/voltmesh/voltmesh/core"
)

// Protocol constants for the compute-energy domain.
const (
	Domain  = "energy:compute"
	Version = "1.0.0"
	TTL     = "PT30S"

	// DefaultProviderID is the grid provider selected when a catalog does
	// not name one.
	DefaultProviderID = "grid-provider-1"
)

// Actions of the journey, in execution order.
const (
	ActionSearch  = "search"
	ActionSelect  = "select"
	ActionInit    = "init"
	ActionConfirm = "confirm"
	ActionStatus  = "status"
	ActionUpdate  = "update"
	ActionRating  = "rating"
)

// Context is the Beckn context block sent with every request. TransactionID
// is stable for the whole journey; MessageID is fresh per call.
type Context struct {
	Domain        string `json:"domain"`
	Action        string `json:"action"`
	Version       string `json:"version"`
	BapID         string `json:"bap_id"`
	BapURI        string `json:"bap_uri"`
	TransactionID string `json:"transaction_id"`
	MessageID     string `json:"message_id"`
	Timestamp     string `json:"timestamp"`
	TTL           string `json:"ttl"`
}

// Envelope is the {context, message} request body every Beckn call posts.
type Envelope struct {
	Context Context        `json:"context"`
	Message map[string]any `json:"message"`
}

// Response is the {context, message} reply. Message shapes differ per
// action, so the payload stays generic with typed accessors below.
type Response struct {
	Context Context        `json:"context"`
	Message map[string]any `json:"message"`
}

// Catalog returns the on_search catalog block, if present.
func (r Response) Catalog() (map[string]any, bool) {
	c, ok := r.Message["catalog"].(map[string]any)
	return c, ok
}

// Order returns the order block of the message, if present.
func (r Response) Order() (map[string]any, bool) {
	o, ok := r.Message["order"].(map[string]any)
	return o, ok
}

// OrderID returns the order identifier carried in the reply, if any.
func (r Response) OrderID() (string, bool) {
	order, ok := r.Order()
	if !ok {
		return "", false
	}
	id, ok := order["id"].(string)
	return id, ok && id != ""
}

// OrderState returns the order state carried in the reply, or "UNKNOWN".
func (r Response) OrderState() string {
	order, ok := r.Order()
	if !ok {
		return "UNKNOWN"
	}
	if state, ok := order["state"].(string); ok && state != "" {
		return state
	}
	return "UNKNOWN"
}

// BestItem extracts the first item offered by the first provider in an
// on_search catalog. The boolean is false when the catalog holds no item.
func (r Response) BestItem() (map[string]any, bool) {
	catalog, ok := r.Catalog()
	if !ok {
		return nil, false
	}
	providers, ok := catalog["providers"].([]any)
	if !ok || len(providers) == 0 {
		return nil, false
	}
	first, ok := providers[0].(map[string]any)
	if !ok {
		return nil, false
	}
	items, ok := first["items"].([]any)
	if !ok || len(items) == 0 {
		return nil, false
	}
	item, ok := items[0].(map[string]any)
	return item, ok
}

// TimeWindow is the fulfillment slot a search intent asks for.
type TimeWindow struct {
	Start    string  `json:"start"`
	End      string  `json:"end"`
	EnergyKW float64 `json:"energy_kw"`
}

// searchIntent builds the discovery intent from schedule decisions. The
// per-window energy figure is a rough estimate derived from expected cost at
// a nominal £0.25/kWh, as the sandbox catalog keys on window size rather
// than exact load.
func searchIntent(decisions []core.Decision) map[string]any {
	windows := make([]TimeWindow, 0, len(decisions))
	for _, d := range decisions {
		windows = append(windows, TimeWindow{
			Start:    d.Start.Format(time.RFC3339),
			End:      d.End.Format(time.RFC3339),
			EnergyKW: d.ExpectedCost / 0.25,
		})
	}
	return map[string]any{
		"item": map[string]any{
			"descriptor": map[string]any{"name": "Flexible Compute Capacity"},
		},
		"fulfillment": map[string]any{
			"type":         "scheduled",
			"time_windows": windows,
		},
	}
}

// Rating is the post-fulfillment feedback payload.
type Rating struct {
	Value         int     `json:"value"`
	Feedback      string  `json:"feedback"`
	CarbonSavedKg float64 `json:"carbon_saved_kg,omitempty"`
	CostSavedGBP  float64 `json:"cost_saved_gbp,omitempty"`
	P415Revenue   float64 `json:"p415_revenue_gbp,omitempty"`
}
