package connector

import (
	"context"
	"encoding/json"
	"fmt"
	"regexp"
)

// Record is a flat document as read from a template store collection.
type Record = map[string]any

// Connector is implemented by every template store driver.
// Collections are logical document sets ("config_vars", "request_templates");
// SQL drivers map each collection to a table holding JSON documents.
type Connector interface {
	Driver() string
	Connect(ctx context.Context) error
	Ping(ctx context.Context) error
	Load(ctx context.Context, collection string) ([]Record, error)
	// Replace swaps the whole content of collection for records.
	Replace(ctx context.Context, collection string, records []Record) error
	Close() error
}

var identifier = regexp.MustCompile(`^[A-Za-z_][A-Za-z0-9_]*$`)

// TableName maps a collection to a table name, applying an optional prefix.
// Only plain SQL identifiers are accepted since the name is interpolated into statements.
func TableName(prefix, collection string) (string, error) {
	name := collection
	if prefix != "" {
		name = prefix + "_" + collection
	}
	if !identifier.MatchString(name) {
		return "", fmt.Errorf("invalid collection name %q", name)
	}
	return name, nil
}

// EncodeRecord serializes a record for SQL document columns.
func EncodeRecord(r Record) (string, error) {
	b, err := json.Marshal(r)
	if err != nil {
		return "", fmt.Errorf("encode record: %w", err)
	}
	return string(b), nil
}

// DecodeRecord parses a document column back into a record.
func DecodeRecord(doc string) (Record, error) {
	var r Record
	if err := json.Unmarshal([]byte(doc), &r); err != nil {
		return nil, fmt.Errorf("decode record: %w", err)
	}
	if r == nil {
		return nil, fmt.Errorf("decode record: document is not an object")
	}
	return r, nil
}
