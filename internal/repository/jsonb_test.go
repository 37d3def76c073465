package repository

import (
	"database/sql"
	"testing"

	"github.com/hitoshi/badgekeeper/internal/model"
)

// TestMarshalDoc_NilMap はnilマップが空オブジェクトとして保存されることを検証する。
func TestMarshalDoc_NilMap(t *testing.T) {
	data, err := marshalDoc(nil)
	if err != nil {
		t.Fatalf("marshalDoc returned error: %v", err)
	}
	if string(data) != "{}" {
		t.Errorf("marshalDoc(nil) = %q, want %q", data, "{}")
	}
}

// TestMarshalDoc_RoundTrip はJSONドキュメントの保存・復元で内容が維持されることを検証する。
func TestMarshalDoc_RoundTrip(t *testing.T) {
	doc := map[string]any{
		"@context": "https://w3id.org/openbadges/v1",
		"name":     "Example University",
		"nested":   map[string]any{"key": "value"},
	}

	data, err := marshalDoc(doc)
	if err != nil {
		t.Fatalf("marshalDoc returned error: %v", err)
	}

	restored, err := unmarshalDoc(data)
	if err != nil {
		t.Fatalf("unmarshalDoc returned error: %v", err)
	}
	if restored["@context"] != doc["@context"] {
		t.Errorf("@context = %v, want %v", restored["@context"], doc["@context"])
	}
	if restored["name"] != doc["name"] {
		t.Errorf("name = %v, want %v", restored["name"], doc["name"])
	}
	nested, ok := restored["nested"].(map[string]any)
	if !ok || nested["key"] != "value" {
		t.Errorf("nested = %v, want map with key=value", restored["nested"])
	}
}

// TestUnmarshalDoc_Empty は空バイト列から空オブジェクトが復元されることを検証する。
func TestUnmarshalDoc_Empty(t *testing.T) {
	doc, err := unmarshalDoc(nil)
	if err != nil {
		t.Fatalf("unmarshalDoc returned error: %v", err)
	}
	if doc == nil {
		t.Fatal("expected non-nil doc")
	}
	if len(doc) != 0 {
		t.Errorf("doc = %v, want empty", doc)
	}
}

// TestMarshalErrors_NilSlice はnilスライスが空配列として保存されることを検証する。
func TestMarshalErrors_NilSlice(t *testing.T) {
	data, err := marshalErrors(nil)
	if err != nil {
		t.Fatalf("marshalErrors returned error: %v", err)
	}
	if string(data) != "[]" {
		t.Errorf("marshalErrors(nil) = %q, want %q", data, "[]")
	}
}

// TestMarshalErrors_RoundTrip はエラーレコードの保存・復元で内容が維持されることを検証する。
func TestMarshalErrors_RoundTrip(t *testing.T) {
	errs := []model.ErrorDetail{
		{
			Code:    "error.version_detection",
			Message: "Could not determine Open Badges version of Issuer",
			Details: []string{"no @context", "no type"},
		},
	}

	data, err := marshalErrors(errs)
	if err != nil {
		t.Fatalf("marshalErrors returned error: %v", err)
	}

	restored, err := unmarshalErrors(data)
	if err != nil {
		t.Fatalf("unmarshalErrors returned error: %v", err)
	}
	if len(restored) != 1 {
		t.Fatalf("restored件数 = %d, want 1", len(restored))
	}
	if restored[0].Code != errs[0].Code {
		t.Errorf("Code = %q, want %q", restored[0].Code, errs[0].Code)
	}
	if restored[0].Message != errs[0].Message {
		t.Errorf("Message = %q, want %q", restored[0].Message, errs[0].Message)
	}
	if len(restored[0].Details) != 2 {
		t.Errorf("Details件数 = %d, want 2", len(restored[0].Details))
	}
}

// TestNullString は空文字列とNULLの相互変換を検証する。
func TestNullString(t *testing.T) {
	if ns := nullString(""); ns.Valid {
		t.Error("空文字列はNULLに変換されるべき")
	}
	if ns := nullString("value"); !ns.Valid || ns.String != "value" {
		t.Errorf("nullString(\"value\") = %+v, want valid", ns)
	}

	if v := nullStringValue(sql.NullString{}); v != "" {
		t.Errorf("NULLは空文字列に変換されるべき, got %q", v)
	}
	if v := nullStringValue(sql.NullString{String: "value", Valid: true}); v != "value" {
		t.Errorf("nullStringValue = %q, want %q", v, "value")
	}
}
