package protocol

import (
	"bytes"
	"encoding/json"
	"fmt"
	"path/filepath"

	"github.com/santhosh-tekuri/jsonschema/v5"
)

// Validators holds the compiled JSON schemas for inbound messages. The
// transport rejects malformed frames before they reach the sim.
type Validators struct {
	Hello *jsonschema.Schema
	Cmd   *jsonschema.Schema
	Query *jsonschema.Schema
}

func LoadValidators(schemaDir string) (*Validators, error) {
	compile := func(name string) (*jsonschema.Schema, error) {
		s, err := jsonschema.Compile(filepath.Join(schemaDir, name))
		if err != nil {
			return nil, fmt.Errorf("compile %s: %w", name, err)
		}
		return s, nil
	}

	var v Validators
	var err error
	if v.Hello, err = compile("hello.schema.json"); err != nil {
		return nil, err
	}
	if v.Cmd, err = compile("cmd.schema.json"); err != nil {
		return nil, err
	}
	if v.Query, err = compile("query.schema.json"); err != nil {
		return nil, err
	}
	return &v, nil
}

// ValidateRaw checks a raw frame against a compiled schema. Numbers are
// decoded with json.Number so large uint64 prices survive the round trip.
func ValidateRaw(s *jsonschema.Schema, raw []byte) error {
	if s == nil {
		return nil
	}
	dec := json.NewDecoder(bytes.NewReader(raw))
	dec.UseNumber()
	var v any
	if err := dec.Decode(&v); err != nil {
		return err
	}
	return s.Validate(v)
}
