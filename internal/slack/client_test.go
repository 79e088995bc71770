package slack

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
)

func TestPostApprovalSendsButtonsAndReturnsTS(t *testing.T) {
	var gotPath string
	var gotAuth string
	var gotBody map[string]any

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		gotAuth = r.Header.Get("Authorization")
		if err := json.NewDecoder(r.Body).Decode(&gotBody); err != nil {
			t.Fatalf("decode request: %v", err)
		}
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"ok":true,"ts":"1712345678.000100"}`))
	}))
	defer server.Close()

	client := NewClient("xoxb-test", "#tweets").WithBaseURL(server.URL)
	ts, err := client.PostApproval(context.Background(), "hello world", 0)
	if err != nil {
		t.Fatalf("PostApproval: %v", err)
	}
	if ts != "1712345678.000100" {
		t.Fatalf("unexpected ts: %q", ts)
	}
	if gotPath != "/chat.postMessage" {
		t.Fatalf("unexpected path: %s", gotPath)
	}
	if gotAuth != "Bearer xoxb-test" {
		t.Fatalf("unexpected auth header: %s", gotAuth)
	}
	if gotBody["channel"] != "#tweets" {
		t.Fatalf("unexpected channel: %v", gotBody["channel"])
	}

	blocks, ok := gotBody["blocks"].([]any)
	if !ok || len(blocks) != 2 {
		t.Fatalf("expected 2 blocks, got %v", gotBody["blocks"])
	}
	actions, ok := blocks[1].(map[string]any)
	if !ok || actions["type"] != "actions" {
		t.Fatalf("expected actions block, got %v", blocks[1])
	}
	elements, ok := actions["elements"].([]any)
	if !ok || len(elements) != 3 {
		t.Fatalf("expected 3 buttons, got %v", actions["elements"])
	}
	first := elements[0].(map[string]any)
	if !strings.HasPrefix(first["action_id"].(string), ActionApprovePrefix) {
		t.Fatalf("unexpected first action_id: %v", first["action_id"])
	}
	if first["value"] != "hello world" {
		t.Fatalf("button value must carry the tweet text, got %v", first["value"])
	}
}

func TestPostApprovalSurfacesAPIError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"ok":false,"error":"channel_not_found"}`))
	}))
	defer server.Close()

	client := NewClient("xoxb-test", "#missing").WithBaseURL(server.URL)
	if _, err := client.PostApproval(context.Background(), "text", 0); err == nil {
		t.Fatalf("expected error from API failure")
	} else if !strings.Contains(err.Error(), "channel_not_found") {
		t.Fatalf("expected API error in message, got: %v", err)
	}
}

func TestUpdateStatusDisablesButtons(t *testing.T) {
	var gotBody map[string]any
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/chat.update" {
			t.Fatalf("unexpected path: %s", r.URL.Path)
		}
		if err := json.NewDecoder(r.Body).Decode(&gotBody); err != nil {
			t.Fatalf("decode request: %v", err)
		}
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"ok":true,"ts":"1.0"}`))
	}))
	defer server.Close()

	client := NewClient("xoxb-test", "#tweets").WithBaseURL(server.URL)
	if err := client.UpdateStatus(context.Background(), "1.0", "approved", "hello"); err != nil {
		t.Fatalf("UpdateStatus: %v", err)
	}

	if gotBody["ts"] != "1.0" {
		t.Fatalf("unexpected ts: %v", gotBody["ts"])
	}
	blocks := gotBody["blocks"].([]any)
	last := blocks[len(blocks)-1].(map[string]any)
	elements := last["elements"].([]any)
	if len(elements) != 1 {
		t.Fatalf("expected single disabled button, got %d", len(elements))
	}
	button := elements[0].(map[string]any)
	if button["action_id"] != ActionDisabled {
		t.Fatalf("unexpected action_id: %v", button["action_id"])
	}
}

func TestOpenEditModalEmbedsSessionInCallbackID(t *testing.T) {
	var gotBody map[string]any
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/views.open" {
			t.Fatalf("unexpected path: %s", r.URL.Path)
		}
		if err := json.NewDecoder(r.Body).Decode(&gotBody); err != nil {
			t.Fatalf("decode request: %v", err)
		}
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"ok":true}`))
	}))
	defer server.Close()

	client := NewClient("xoxb-test", "#tweets").WithBaseURL(server.URL)
	if err := client.OpenEditModal(context.Background(), "trigger-1", "draft text", 3, "1712.0042"); err != nil {
		t.Fatalf("OpenEditModal: %v", err)
	}

	if gotBody["trigger_id"] != "trigger-1" {
		t.Fatalf("unexpected trigger_id: %v", gotBody["trigger_id"])
	}
	view := gotBody["view"].(map[string]any)
	if view["callback_id"] != "edit_modal_3_1712.0042" {
		t.Fatalf("unexpected callback_id: %v", view["callback_id"])
	}
	blocks := view["blocks"].([]any)
	input := blocks[0].(map[string]any)
	element := input["element"].(map[string]any)
	if element["initial_value"] != "draft text" {
		t.Fatalf("modal must be pre-filled with the current text, got %v", element["initial_value"])
	}
}
