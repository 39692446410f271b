// Package jsonutil wraps github.com/go-json-experiment/json for the rest of
// the module.
//
// Upstream assessment payloads are produced by several collaborators and
// are not always strict JSON: keys repeat and strings carry invalid UTF-8.
// DecodeLoose accepts both; the strict helpers behave like encoding/json.
//
// Usage:
//
//	root, err := jsonutil.DecodeLoose(body)
//	data, err := jsonutil.Marshal(record)
package jsonutil

import (
	"io"

	"github.com/go-json-experiment/json"
	"github.com/go-json-experiment/json/jsontext"
)

// looseOptions relaxes the checks that break on real collaborator output.
var looseOptions = json.JoinOptions(
	jsontext.AllowDuplicateNames(true),
	jsontext.AllowInvalidUTF8(true),
)

// Unmarshal parses the JSON-encoded data and stores the result in v.
func Unmarshal(data []byte, v any) error {
	return json.Unmarshal(data, v)
}

// DecodeLoose parses data into generic values: objects become
// map[string]any, arrays []any and numbers float64.
func DecodeLoose(data []byte) (any, error) {
	var v any
	if err := json.Unmarshal(data, &v, looseOptions); err != nil {
		return nil, err
	}
	return v, nil
}

// Marshal returns the JSON encoding of v.
func Marshal(v any) ([]byte, error) {
	return json.Marshal(v)
}

// MarshalIndent returns the indented JSON encoding of v.
func MarshalIndent(v any, indent string) ([]byte, error) {
	return json.Marshal(v, jsontext.WithIndent(indent))
}

// Valid reports whether data is a valid JSON encoding.
func Valid(data []byte) bool {
	return jsontext.Value(data).IsValid()
}

// Encoder writes one JSON value per line, like encoding/json.Encoder.
type Encoder struct {
	w      io.Writer
	indent string
}

// NewStreamEncoder creates an encoder that writes to w.
func NewStreamEncoder(w io.Writer) *Encoder {
	return &Encoder{w: w}
}

// Encode writes the JSON encoding of v to the stream, followed by a newline.
func (e *Encoder) Encode(v any) error {
	var err error
	if e.indent != "" {
		err = json.MarshalWrite(e.w, v, jsontext.WithIndent(e.indent))
	} else {
		err = json.MarshalWrite(e.w, v)
	}
	if err != nil {
		return err
	}
	_, err = e.w.Write([]byte{'\n'})
	return err
}

// SetIndent formats each subsequent value with the given indentation.
func (e *Encoder) SetIndent(indent string) {
	e.indent = indent
}
