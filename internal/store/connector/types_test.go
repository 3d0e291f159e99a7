package connector

import "testing"

func TestTableName(t *testing.T) {
	tests := []struct {
		prefix, collection string
		want               string
		wantErr            bool
	}{
		{"", "request_templates", "request_templates", false},
		{"rnpdno", "config_vars", "rnpdno_config_vars", false},
		{"", "config_vars; DROP TABLE x", "", true},
		{"", "1abc", "", true},
		{"bad-prefix", "config_vars", "", true},
	}
	for _, tt := range tests {
		got, err := TableName(tt.prefix, tt.collection)
		if (err != nil) != tt.wantErr {
			t.Fatalf("TableName(%q,%q) err=%v wantErr=%v", tt.prefix, tt.collection, err, tt.wantErr)
		}
		if got != tt.want {
			t.Fatalf("TableName(%q,%q)=%q want %q", tt.prefix, tt.collection, got, tt.want)
		}
	}
}

func TestEncodeDecodeRecord(t *testing.T) {
	doc, err := EncodeRecord(Record{"api": "catalogue", "payloadTemplate": map[string]any{"idEstado": "0"}})
	if err != nil {
		t.Fatalf("encode: %v", err)
	}
	r, err := DecodeRecord(doc)
	if err != nil {
		t.Fatalf("decode: %v", err)
	}
	if r["api"] != "catalogue" {
		t.Fatalf("unexpected record: %v", r)
	}
	payload, ok := r["payloadTemplate"].(map[string]any)
	if !ok || payload["idEstado"] != "0" {
		t.Fatalf("unexpected payload: %#v", r["payloadTemplate"])
	}
	if _, err := DecodeRecord("[1,2]"); err == nil {
		t.Fatalf("expected error for non-object document")
	}
	if _, err := DecodeRecord("null"); err == nil {
		t.Fatalf("expected error for null document")
	}
}
