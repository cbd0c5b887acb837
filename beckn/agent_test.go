package beckn

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/voltmesh/voltmesh/core"
	"github.com/voltmesh/voltmesh/logging"
)

// journeyActions is the full protocol sequence in execution order.
var journeyActions = []string{
	ActionSearch, ActionSelect, ActionInit, ActionConfirm,
	ActionStatus, ActionUpdate, ActionRating,
}

func TestAgent_RunExecutesFullJourney(t *testing.T) {
	srv, seen := sandbox(t, func(action string, env Envelope) map[string]any {
		switch action {
		case ActionSearch:
			return map[string]any{"catalog": map[string]any{
				"providers": []any{map[string]any{
					"id": DefaultProviderID,
					"items": []any{map[string]any{
						"id":    "window-42",
						"price": map[string]any{"value": "0.18", "currency": "GBP"},
					}},
				}},
			}}
		case ActionSelect:
			return map[string]any{"order": map[string]any{
				"provider": map[string]any{"id": DefaultProviderID},
				"items":    env.Message["order"].(map[string]any)["items"],
				"quote":    map[string]any{"price": map[string]any{"value": "45.50", "currency": "GBP"}},
			}}
		case ActionConfirm:
			return map[string]any{"order": map[string]any{"id": "order-42", "state": "CONFIRMED"}}
		case ActionStatus:
			return map[string]any{"order": map[string]any{"id": "order-42", "state": "IN_PROGRESS"}}
		default:
			return map[string]any{"order": map[string]any{"id": "order-42"}}
		}
	})

	client := NewClient(srv.URL, func(o *ClientOptions) { o.SandboxFallback = false })
	agent := NewAgent(client)

	emit := make(chan core.Event, 16)
	rc := core.NewRunContext(context.Background(), "run-1", core.AgentInfo{}, emit, logging.NoOpLogger{})
	rc.SetDecisions(testDecisions())

	require.NoError(t, agent.Run(rc))
	close(emit)

	// Wire order matches the journey.
	require.Len(t, *seen, len(journeyActions))
	for i, env := range *seen {
		assert.Equal(t, journeyActions[i], env.Context.Action)
	}

	// One transaction spans the whole journey.
	txnID := (*seen)[0].Context.TransactionID
	for _, env := range *seen {
		assert.Equal(t, txnID, env.Context.TransactionID)
	}

	assert.Equal(t, "order-42", rc.OrderID())

	var types []string
	for ev := range emit {
		types = append(types, ev.Type)
		assert.Equal(t, txnID, ev.TransactionID)
	}
	assert.Equal(t, []string{
		"beckn_search", "beckn_select", "beckn_init", "beckn_confirm",
		"beckn_status", "beckn_update", "beckn_rating",
	}, types)

	// The update call reports the full fulfillment snapshot.
	updateEnv := (*seen)[5]
	require.Equal(t, ActionUpdate, updateEnv.Context.Action)
	assert.Equal(t, "fulfillment", updateEnv.Message["update_target"])
	order, ok := updateEnv.Message["order"].(map[string]any)
	require.True(t, ok)
	fulfillment, ok := order["fulfillment"].(map[string]any)
	require.True(t, ok)
	assert.Equal(t, "IN_PROGRESS", fulfillment["state"])
	assert.Equal(t, 150.0, fulfillment["current_load_kw"])
	assert.Equal(t, 50.0, fulfillment["progress_percent"])
}

func TestAgent_RunSelectsDefaultItemOnEmptyCatalog(t *testing.T) {
	srv, seen := sandbox(t, func(action string, env Envelope) map[string]any {
		if action == ActionSearch {
			return map[string]any{"catalog": map[string]any{"providers": []any{}}}
		}
		return map[string]any{"order": map[string]any{"id": "order-1", "state": "CONFIRMED"}}
	})

	client := NewClient(srv.URL, func(o *ClientOptions) { o.SandboxFallback = false })
	rc := core.NewRunContext(context.Background(), "run-1", core.AgentInfo{}, make(chan core.Event, 16), logging.NoOpLogger{})
	rc.SetDecisions(testDecisions())

	require.NoError(t, NewAgent(client).Run(rc))

	selectEnv := (*seen)[1]
	items := selectEnv.Message["order"].(map[string]any)["items"].([]any)
	item := items[0].(map[string]any)
	assert.Equal(t, "default-energy-window", item["id"])
}

func TestAgent_RunDerivesOrderIDWhenConfirmOmitsIt(t *testing.T) {
	srv, _ := sandbox(t, func(action string, env Envelope) map[string]any {
		// Replies never carry an order id.
		return map[string]any{"order": map[string]any{"state": "CONFIRMED"}}
	})

	client := NewClient(srv.URL, func(o *ClientOptions) { o.SandboxFallback = false })
	rc := core.NewRunContext(context.Background(), "run-1", core.AgentInfo{}, make(chan core.Event, 16), logging.NoOpLogger{})
	rc.SetDecisions(testDecisions())

	require.NoError(t, NewAgent(client).Run(rc))
	assert.Regexp(t, `^ORDER-[0-9a-f]{8}$`, rc.OrderID())
}

func TestAgent_RunOfflineViaFallback(t *testing.T) {
	client := NewClient("http://127.0.0.1:1")
	rc := core.NewRunContext(context.Background(), "run-1", core.AgentInfo{}, make(chan core.Event, 16), logging.NoOpLogger{})
	rc.SetDecisions(testDecisions())

	require.NoError(t, NewAgent(client).Run(rc))
	assert.NotEmpty(t, rc.OrderID())
}
