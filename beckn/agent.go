package beckn

import (
	"fmt"
	"time"

	"github.com/voltmesh/voltmesh/core"
)

// Agent executes the complete Beckn journey for the schedule its
// predecessors produced: DISCOVER (search), ORDER (select, init, confirm),
// FULFILLMENT (status, update) and POST-FULFILLMENT (rating). Every call
// emits one audit event tagged with the journey's transaction identifier,
// and the confirmed order identifier is stored in the run state.
type Agent struct {
	client *Client
}

// NewAgent wraps a client in the core.Agent contract.
func NewAgent(client *Client) *Agent {
	return &Agent{client: client}
}

// Name implements core.Agent.
func (a *Agent) Name() string { return "beckn" }

// Description implements core.Agent.
func (a *Agent) Description() string {
	return "Procures the scheduled energy windows through the Beckn protocol journey"
}

// Run implements core.Agent.
func (a *Agent) Run(rc *core.RunContext) error {
	decisions := rc.Decisions()
	txn := a.client.Begin()

	// DISCOVER
	searchResp, err := txn.Search(rc.Context, decisions)
	if err != nil {
		return fmt.Errorf("search: %w", err)
	}
	if err := a.emit(rc, txn, "beckn_search", map[string]any{
		"schedule_count": len(decisions),
	}); err != nil {
		return err
	}

	// ORDER: select
	item, ok := searchResp.BestItem()
	if !ok {
		item = defaultItem()
		rc.LogWarn("catalog held no items, selecting default window", "transaction_id", txn.ID)
	}
	selectResp, err := txn.Select(rc.Context, item)
	if err != nil {
		return fmt.Errorf("select: %w", err)
	}
	if err := a.emit(rc, txn, "beckn_select", map[string]any{"selected_item": item}); err != nil {
		return err
	}

	// ORDER: init + confirm
	order := orderDetails(selectResp, item, a.client.now)
	if _, err := txn.Init(rc.Context, order); err != nil {
		return fmt.Errorf("init: %w", err)
	}
	if err := a.emit(rc, txn, "beckn_init", map[string]any{"order_details": order}); err != nil {
		return err
	}

	confirmResp, err := txn.Confirm(rc.Context, order)
	if err != nil {
		return fmt.Errorf("confirm: %w", err)
	}
	orderID, ok := confirmResp.OrderID()
	if !ok {
		orderID = "ORDER-" + txn.ID[:8]
	}
	rc.SetOrderID(orderID)
	if err := a.emit(rc, txn, "beckn_confirm", map[string]any{"order_id": orderID}); err != nil {
		return err
	}
	rc.LogInfo("order confirmed", "order_id", orderID, "transaction_id", txn.ID)

	// FULFILLMENT
	statusResp, err := txn.Status(rc.Context, orderID)
	if err != nil {
		return fmt.Errorf("status: %w", err)
	}
	if err := a.emit(rc, txn, "beckn_status", map[string]any{
		"order_id": orderID,
		"status":   statusResp.OrderState(),
	}); err != nil {
		return err
	}

	fulfillment := map[string]any{
		"state":            "IN_PROGRESS",
		"current_load_kw":  150,
		"progress_percent": 50,
	}
	if _, err := txn.Update(rc.Context, orderID, fulfillment); err != nil {
		return fmt.Errorf("update: %w", err)
	}
	if err := a.emit(rc, txn, "beckn_update", map[string]any{
		"order_id":    orderID,
		"fulfillment": fulfillment,
	}); err != nil {
		return err
	}

	// POST-FULFILLMENT
	rating := journeyRating(rc, decisions)
	if _, err := txn.Rate(rc.Context, orderID, rating); err != nil {
		return fmt.Errorf("rating: %w", err)
	}
	if err := a.emit(rc, txn, "beckn_rating", map[string]any{
		"order_id": orderID,
		"rating":   rating,
	}); err != nil {
		return err
	}

	return nil
}

func (a *Agent) emit(rc *core.RunContext, txn *Transaction, eventType string, data map[string]any) error {
	ev := core.NewEvent(rc.RunID, a.Name(), eventType, data).WithTransaction(txn.ID)
	if err := rc.EmitEvent(ev); err != nil {
		return fmt.Errorf("emit %s event: %w", eventType, err)
	}
	return nil
}

// orderDetails builds the init/confirm payload from the select reply,
// falling back to a minimal order when the reply held none.
func orderDetails(selectResp Response, item map[string]any, now func() time.Time) map[string]any {
	if order, ok := selectResp.Order(); ok {
		return order
	}
	return map[string]any{
		"provider": map[string]any{"id": DefaultProviderID},
		"items":    []any{item},
		"billing": map[string]any{
			"name":  "Voltmesh Data Center",
			"email": "billing@voltmesh.example.com",
		},
		"fulfillment": map[string]any{
			"type":       "scheduled",
			"start_time": now().Format(time.RFC3339),
		},
	}
}

func defaultItem() map[string]any {
	return map[string]any{
		"id":         "default-energy-window",
		"descriptor": map[string]any{"name": "Standard Energy Window"},
		"price":      map[string]any{"value": "0.20", "currency": "GBP"},
	}
}

// journeyRating summarizes the cycle's outcome as post-fulfillment feedback.
func journeyRating(rc *core.RunContext, decisions []core.Decision) Rating {
	var carbon, cost, revenue float64
	for _, d := range decisions {
		carbon += d.ExpectedCarbon
		cost += d.ExpectedCost
		revenue += d.ExpectedP415Revenue
	}
	return Rating{
		Value:         5,
		Feedback:      "Successfully optimized workload scheduling",
		CarbonSavedKg: carbon / 1000,
		CostSavedGBP:  cost,
		P415Revenue:   revenue,
	}
}

var _ core.Agent = (*Agent)(nil)
