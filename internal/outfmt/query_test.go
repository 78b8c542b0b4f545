package outfmt

import (
	"strings"
	"testing"
)

func TestApply_EmptyQuery(t *testing.T) {
	type reply struct {
		Status int `json:"status"`
	}
	got, err := Apply(reply{Status: 3}, "")
	if err != nil {
		t.Fatal(err)
	}
	m, ok := got[0].(map[string]any)
	if !ok || m["status"] != 3 {
		t.Errorf("Apply = %#v", got)
	}
}

func TestApply_KeepsLargeIntegers(t *testing.T) {
	got, err := Apply(map[string]any{"message_token": int64(5741311803571721087)}, ".message_token")
	if err != nil {
		t.Fatal(err)
	}
	if len(got) != 1 || got[0] != 5741311803571721087 {
		t.Errorf("Apply = %#v", got)
	}
}

func TestApply_Select(t *testing.T) {
	data := map[string]any{"users": []any{
		map[string]any{"id": "a", "online_status": 0},
		map[string]any{"id": "b", "online_status": 1},
	}}
	got, err := Apply(data, `[.users[] | select(.online_status \!= 0) | .id]`)
	if err != nil {
		t.Fatal(err)
	}
	ids, ok := got[0].([]any)
	if !ok || len(ids) != 1 || ids[0] != "b" {
		t.Errorf("Apply = %#v", got)
	}
}

func TestApply_Errors(t *testing.T) {
	if _, err := Apply(map[string]any{}, ".["); err == nil || !strings.Contains(err.Error(), "invalid query") {
		t.Errorf("expected parse error, got %v", err)
	}
	if _, err := Apply(map[string]any{"a": "x"}, ".a | tonumber"); err == nil || !strings.Contains(err.Error(), "query error") {
		t.Errorf("expected runtime error, got %v", err)
	}
	if _, err := Apply(func() {}, "."); err == nil {
		t.Error("expected encode error")
	}
}

func TestNormalizeExpression(t *testing.T) {
	if got := NormalizeExpression(` .a \!= 1 `); got != ".a != 1" {
		t.Errorf("NormalizeExpression = %q", got)
	}
}
