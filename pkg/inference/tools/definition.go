package tools

import (
	"context"
	"encoding/json"

	"github.com/invopop/jsonschema"
	"github.com/pkg/errors"
)

// Func is the callable behind a tool. Every tool takes a single free-form
// string argument and answers with text.
type Func func(ctx context.Context, argument string) (string, error)

// Definition is a named capability exposed to the backend. It is immutable
// once registered.
type Definition struct {
	Name        string             `json:"name"`
	Description string             `json:"description"`
	Parameters  *jsonschema.Schema `json:"parameters"`
	Func        Func               `json:"-"`
}

// Description is the part of a Definition the backend gets to see.
type Description struct {
	Name        string             `json:"name"`
	Description string             `json:"description"`
	Parameters  *jsonschema.Schema `json:"parameters"`
}

// ArgumentField is the single property of every tool's parameter object.
const ArgumentField = "input"

// Input is the wire shape of a tool argument, {"input": "..."}.
type Input struct {
	Input string `json:"input" jsonschema:"required"`
}

// NewDefinition builds a definition whose parameter schema is an object with a
// single required string property, documented by argumentHelp.
func NewDefinition(name, description, argumentHelp string, fn Func) Definition {
	return Definition{
		Name:        name,
		Description: description,
		Parameters:  inputSchema(argumentHelp),
		Func:        fn,
	}
}

func inputSchema(argumentHelp string) *jsonschema.Schema {
	reflector := jsonschema.Reflector{
		DoNotReference: true,
		ExpandedStruct: true,
	}
	schema := reflector.Reflect(&Input{})
	schema.Version = ""
	schema.ID = ""
	if schema.Type == "" {
		schema.Type = "object"
	}
	if schema.Properties != nil {
		if prop, ok := schema.Properties.Get(ArgumentField); ok && prop != nil {
			prop.Description = argumentHelp
		}
	}
	return schema
}

func (d Definition) Describe() Description {
	return Description{
		Name:        d.Name,
		Description: d.Description,
		Parameters:  d.Parameters,
	}
}

// SchemaMap returns the parameter schema as a plain map, for provider SDKs
// that want untyped JSON.
func (d Description) SchemaMap() (map[string]any, error) {
	if d.Parameters == nil {
		return map[string]any{"type": "object"}, nil
	}
	b, err := json.Marshal(d.Parameters)
	if err != nil {
		return nil, errors.Wrapf(err, "could not marshal schema of tool %s", d.Name)
	}
	out := map[string]any{}
	if err := json.Unmarshal(b, &out); err != nil {
		return nil, errors.Wrapf(err, "could not unmarshal schema of tool %s", d.Name)
	}
	delete(out, "$schema")
	delete(out, "$id")
	return out, nil
}

// EncodeArgument renders an argument the way providers expect tool call
// arguments, {"input": argument}.
func EncodeArgument(argument string) string {
	b, err := json.Marshal(Input{Input: argument})
	if err != nil {
		return "{}"
	}
	return string(b)
}
