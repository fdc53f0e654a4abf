package models

import (
	"bytes"
	"fmt"
	"strings"

	json "github.com/goccy/go-json"
)

// NoDescription is shown when a work has no usable description.
const NoDescription = "No description available for this book."

// DescriptionKind tags the variant held by a [Description].
type DescriptionKind int

const (
	NoText DescriptionKind = iota
	PlainText
	StructuredText
)

// Description is the catalog's work description, which arrives either as a
// bare string or as {"type": ..., "value": ...}.
type Description struct {
	Kind  DescriptionKind
	Type  string // only set for StructuredText, e.g. "/type/text"
	Value string
}

// String returns the description text regardless of variant.
func (d Description) String() string {
	return d.Value
}

// UnmarshalJSON implements [json.Unmarshaler].
func (d *Description) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	switch {
	case len(data) == 0 || string(data) == "null":
		*d = Description{}
		return nil
	case data[0] == '"':
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return err
		}
		*d = Description{Kind: PlainText, Value: s}
		return nil
	case data[0] == '{':
		var obj struct {
			Type  string `json:"type"`
			Value string `json:"value"`
		}
		if err := json.Unmarshal(data, &obj); err != nil {
			return err
		}
		*d = Description{Kind: StructuredText, Type: obj.Type, Value: obj.Value}
		return nil
	default:
		return fmt.Errorf("unsupported description value: %s", data)
	}
}

// MarshalJSON writes the variant back in its wire shape.
func (d Description) MarshalJSON() ([]byte, error) {
	switch d.Kind {
	case PlainText:
		return json.Marshal(d.Value)
	case StructuredText:
		return json.Marshal(struct {
			Type  string `json:"type"`
			Value string `json:"value"`
		}{d.Type, d.Value})
	default:
		return []byte("null"), nil
	}
}

// BookDetails is the full work record fetched by key.
type BookDetails struct {
	Key         string       `json:"key"`
	Title       string       `json:"title"`
	Description *Description `json:"description,omitempty"`
	Subjects    []string     `json:"subjects,omitempty"`
	Covers      []int        `json:"covers,omitempty"`
}

// DescriptionText normalizes the description to display text, using [NoDescription] when absent or blank.
func (d *BookDetails) DescriptionText() string {
	if d == nil || d.Description == nil {
		return NoDescription
	}
	if text := strings.TrimSpace(d.Description.String()); text != "" {
		return text
	}
	return NoDescription
}
