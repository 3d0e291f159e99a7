package catalog

import (
	"fmt"

	"github.com/loykin/rnpdno/internal/constants"
	"github.com/tidwall/gjson"
)

// Entry is one item of a dashboard catalog (a state, municipality or neighborhood).
type Entry struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

// Normalize builds an Entry from a raw {Value, Text} pair, renaming the
// "--TODOS--" sentinel to "All".
func Normalize(value, text string) Entry {
	if text == constants.AllSentinel {
		text = constants.AllLabel
	}
	return Entry{ID: value, Name: text}
}

// IsAll reports whether e is the "every item" entry.
func (e Entry) IsAll() bool {
	return e.Name == constants.AllLabel
}

// Parse decodes a catalog response: a JSON array of {Value, Text} objects.
// Output order follows the response. Non-string values are kept as their raw JSON text.
func Parse(body []byte) ([]Entry, error) {
	if !gjson.ValidBytes(body) {
		return nil, fmt.Errorf("catalog response is not valid JSON")
	}
	root := gjson.ParseBytes(body)
	if !root.IsArray() {
		return nil, fmt.Errorf("catalog response is not a JSON array")
	}

	items := root.Array()
	out := make([]Entry, 0, len(items))
	for i, item := range items {
		if !item.IsObject() {
			return nil, fmt.Errorf("catalog item %d is not an object", i)
		}
		value, text := item.Get("Value"), item.Get("Text")
		if !value.Exists() || !text.Exists() {
			return nil, fmt.Errorf("catalog item %d lacks Value or Text", i)
		}
		out = append(out, Normalize(str(value), str(text)))
	}
	return out, nil
}

func str(r gjson.Result) string {
	if r.Type == gjson.String {
		return r.String()
	}
	if r.Type == gjson.Null {
		return ""
	}
	return r.Raw
}
