package template

import (
	"errors"
	"reflect"
	"testing"

	"github.com/loykin/rnpdno/internal/failure"
)

func fullRecord() map[string]any {
	return map[string]any{
		"api":             "catalogue",
		"endpoint":        "states",
		"url":             "/Catalogo/Estados",
		"host":            "https://dashboard.example",
		"method":          "post",
		"payloadTemplate": map[string]any{},
	}
}

func TestValidate_RequiresEveryField(t *testing.T) {
	if !Validate(fullRecord()) {
		t.Fatalf("expected complete record to be valid")
	}
	for _, f := range RequiredFields {
		rec := fullRecord()
		delete(rec, f)
		if Validate(rec) {
			t.Fatalf("record without %q must be invalid", f)
		}
	}
}

func TestValidate_IgnoresValueTypes(t *testing.T) {
	rec := map[string]any{
		"api": 1, "endpoint": nil, "url": []any{"x"}, "host": false, "method": 3.5, "payloadTemplate": "",
	}
	if !Validate(rec) {
		t.Fatalf("validity must depend on keys only")
	}
}

func TestValidate_EndpointAlias(t *testing.T) {
	rec := fullRecord()
	delete(rec, "endpoint")
	rec["endPoint"] = "states"
	if !Validate(rec) {
		t.Fatalf("endPoint must satisfy endpoint")
	}
	tpl, err := FromRecord(rec)
	if err != nil {
		t.Fatalf("FromRecord: %v", err)
	}
	if tpl.Endpoint != "states" || !tpl.Valid() {
		t.Fatalf("unexpected template %+v", tpl)
	}
}

func TestFromRecord_WeakTypesAndPayload(t *testing.T) {
	rec := fullRecord()
	rec["api"] = 7
	rec["payloadTemplate"] = "not-a-map"
	tpl, err := FromRecord(rec)
	if err != nil {
		t.Fatalf("FromRecord: %v", err)
	}
	if tpl.API != "7" {
		t.Fatalf("expected weakly typed api, got %q", tpl.API)
	}
	if len(tpl.Payload) != 0 {
		t.Fatalf("non-map payload must be empty, got %v", tpl.Payload)
	}

	bad := fullRecord()
	bad["api"] = map[string]any{"nested": true}
	if _, err := FromRecord(bad); !errors.Is(err, failure.InvalidTemplate) {
		t.Fatalf("expected InvalidTemplate decode error, got %v", err)
	}
}

func TestFromRecord_MissingFields(t *testing.T) {
	rec := fullRecord()
	delete(rec, "host")
	delete(rec, "payloadTemplate")
	tpl, err := FromRecord(rec)
	if err != nil {
		t.Fatalf("FromRecord: %v", err)
	}
	if tpl.Valid() {
		t.Fatalf("template without host must be invalid")
	}
	if !reflect.DeepEqual(tpl.Missing(), []string{"host", "payloadTemplate"}) {
		t.Fatalf("unexpected missing fields %v", tpl.Missing())
	}
}
