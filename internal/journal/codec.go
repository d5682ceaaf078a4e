package journal

import (
	"bytes"
	_ "embed"
	"encoding/json"
	"errors"
	"fmt"

	"cuelang.org/go/cue"
	"cuelang.org/go/cue/cuecontext"
	cuejson "cuelang.org/go/encoding/json"
	"gopkg.in/yaml.v3"
)

//go:embed schema.cue
var schemaCUE string

// ErrInvalidDocument is returned by Decode for input that is not JSON or
// does not have the shape of a journal document.
var ErrInvalidDocument = errors.New("journal: invalid document")

// Encode serializes d compactly, the form kept in storage.
func Encode(d Document) ([]byte, error) {
	d = d.Clone()
	d.fillSlices()
	data, err := json.Marshal(d)
	if err != nil {
		return nil, fmt.Errorf("encode document: %w", err)
	}
	return data, nil
}

// EncodePretty serializes d with two-space indentation, the export format.
func EncodePretty(d Document) ([]byte, error) {
	d = d.Clone()
	d.fillSlices()
	data, err := json.MarshalIndent(d, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("encode document: %w", err)
	}
	return append(data, '\n'), nil
}

// DecodeStored parses a stored blob. It does not validate beyond JSON
// syntax; callers treat any error as "no document".
func DecodeStored(data []byte) (Document, error) {
	var d Document
	if err := json.Unmarshal(data, &d); err != nil {
		return Document{}, err
	}
	d.fillSlices()
	return d, nil
}

// Decode parses and validates an external document (an import file).
// The JSON must conform to the document schema and ids must be unique.
// All errors wrap ErrInvalidDocument.
func Decode(data []byte) (Document, error) {
	if err := validateSchema(data); err != nil {
		return Document{}, fmt.Errorf("%w: %v", ErrInvalidDocument, err)
	}

	dec := json.NewDecoder(bytes.NewReader(data))
	var d Document
	if err := dec.Decode(&d); err != nil {
		return Document{}, fmt.Errorf("%w: %v", ErrInvalidDocument, err)
	}
	d.fillSlices()

	if err := d.Validate(); err != nil {
		return Document{}, fmt.Errorf("%w: %v", ErrInvalidDocument, err)
	}
	return d, nil
}

// validateSchema checks data against #Document in schema.cue.
func validateSchema(data []byte) error {
	ctx := cuecontext.New()

	schema := ctx.CompileString(schemaCUE, cue.Filename("schema.cue"))
	if err := schema.Err(); err != nil {
		return fmt.Errorf("compile schema: %w", err)
	}
	def := schema.LookupPath(cue.ParsePath("#Document"))

	expr, err := cuejson.Extract("document.json", data)
	if err != nil {
		return fmt.Errorf("parse json: %w", err)
	}
	v := ctx.BuildExpr(expr)
	if err := v.Err(); err != nil {
		return fmt.Errorf("build json: %w", err)
	}

	if err := def.Unify(v).Validate(cue.Concrete(true)); err != nil {
		return fmt.Errorf("schema: %w", err)
	}
	return nil
}

// ParseEntry reads one entry from YAML (or JSON, which YAML accepts), the
// format used by `add --file` and `edit --file`.
func ParseEntry(data []byte) (Entry, error) {
	var e Entry
	if err := yaml.Unmarshal(data, &e); err != nil {
		return Entry{}, fmt.Errorf("parse entry: %w", err)
	}
	return e, nil
}
