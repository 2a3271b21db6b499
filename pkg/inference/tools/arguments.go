package tools

import (
	"encoding/json"
	"strings"

	"github.com/pkg/errors"
	"github.com/xeipuuv/gojsonschema"
)

// DecodeArgument turns the raw arguments a provider attached to a tool call
// into the tool's string argument.
//
// A JSON object is validated against the tool's parameter schema and its
// "input" field is returned. Anything that is not a JSON object is passed
// through verbatim, since models regularly send bare strings.
func DecodeArgument(desc Description, raw string) (string, error) {
	trimmed := strings.TrimSpace(raw)
	if !strings.HasPrefix(trimmed, "{") {
		var s string
		if err := json.Unmarshal([]byte(trimmed), &s); err == nil {
			return s, nil
		}
		return trimmed, nil
	}

	schema, err := desc.SchemaMap()
	if err != nil {
		return "", err
	}
	result, err := gojsonschema.Validate(
		gojsonschema.NewGoLoader(schema),
		gojsonschema.NewStringLoader(trimmed),
	)
	if err != nil {
		return "", errors.Wrapf(err, "could not validate arguments for tool %s", desc.Name)
	}
	if !result.Valid() {
		problems := make([]string, 0, len(result.Errors()))
		for _, e := range result.Errors() {
			problems = append(problems, e.String())
		}
		return "", &ArgumentError{ToolName: desc.Name, Problems: problems}
	}

	var in Input
	if err := json.Unmarshal([]byte(trimmed), &in); err != nil {
		return "", errors.Wrapf(err, "could not decode arguments for tool %s", desc.Name)
	}
	return in.Input, nil
}
