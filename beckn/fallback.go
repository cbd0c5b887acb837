package beckn

import (
	"fmt"

	"github.com/voltmesh/voltmesh/core"
)

// fallbackResponse fabricates the BPP reply the sandbox would have sent for
// the failed request, keyed on the request action. Shapes mirror the sandbox
// catalog: a single UK grid provider offering an off-peak window.
func fallbackResponse(env Envelope) (Response, error) {
	switch env.Context.Action {
	case ActionSearch:
		return fallbackOnSearch(env), nil
	case ActionSelect:
		return fallbackOnSelect(env), nil
	case ActionInit:
		return fallbackOnInit(env), nil
	case ActionConfirm:
		return fallbackOnConfirm(env), nil
	case ActionStatus:
		return fallbackOnStatus(env), nil
	case ActionUpdate:
		return fallbackOnUpdate(env), nil
	case ActionRating:
		return fallbackOnRating(env), nil
	default:
		return Response{}, fmt.Errorf("no fallback for action %q", env.Context.Action)
	}
}

func fallbackOnSearch(env Envelope) Response {
	item := map[string]any{
		"id":         "energy-window-1",
		"descriptor": map[string]any{"name": "Off-peak Window"},
		"price":      map[string]any{"value": "0.18", "currency": "GBP"},
	}
	// Anchor the offered window to the first requested slot when present.
	if intent, ok := env.Message["intent"].(map[string]any); ok {
		if f, ok := intent["fulfillment"].(map[string]any); ok {
			if windows, ok := f["time_windows"].([]TimeWindow); ok && len(windows) > 0 {
				item["fulfillment"] = map[string]any{"start": windows[0].Start}
			}
		}
	}
	return Response{
		Context: env.Context,
		Message: map[string]any{
			"catalog": map[string]any{
				"providers": []any{map[string]any{
					"id":         DefaultProviderID,
					"descriptor": map[string]any{"name": "UK National Grid"},
					"items":      []any{item},
				}},
			},
		},
	}
}

func fallbackOnSelect(env Envelope) Response {
	order, _ := env.Message["order"].(map[string]any)
	out := map[string]any{
		"quote": map[string]any{"price": map[string]any{"value": "45.50", "currency": "GBP"}},
	}
	if order != nil {
		out["provider"] = order["provider"]
		out["items"] = order["items"]
	}
	return Response{Context: env.Context, Message: map[string]any{"order": out}}
}

func fallbackOnInit(env Envelope) Response {
	out := copyOrder(env)
	out["id"] = core.NewID()
	out["state"] = "INITIALIZED"
	return Response{Context: env.Context, Message: map[string]any{"order": out}}
}

func fallbackOnConfirm(env Envelope) Response {
	out := copyOrder(env)
	out["state"] = "CONFIRMED"
	return Response{Context: env.Context, Message: map[string]any{"order": out}}
}

func fallbackOnStatus(env Envelope) Response {
	return Response{
		Context: env.Context,
		Message: map[string]any{
			"order": map[string]any{
				"id":          env.Message["order_id"],
				"state":       "IN_PROGRESS",
				"fulfillment": map[string]any{"state": "EXECUTING"},
			},
		},
	}
}

func fallbackOnUpdate(env Envelope) Response {
	return Response{
		Context: env.Context,
		Message: map[string]any{
			"order": map[string]any{
				"id":    env.Message["order_id"],
				"state": "UPDATED",
			},
		},
	}
}

func fallbackOnRating(env Envelope) Response {
	return Response{
		Context: env.Context,
		Message: map[string]any{"ack": map[string]any{"status": "ACK"}},
	}
}

func copyOrder(env Envelope) map[string]any {
	out := map[string]any{}
	if order, ok := env.Message["order"].(map[string]any); ok {
		for k, v := range order {
			out[k] = v
		}
	}
	return out
}
