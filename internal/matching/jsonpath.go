package matching

import (
	"encoding/json"
	"fmt"

	"github.com/ohler55/ojg/jp"
)

// SelectJSONPath evaluates a JSONPath expression against a JSON document and
// returns every matched value. An empty path selects the whole document.
func SelectJSONPath(path string, body []byte) ([]any, error) {
	var data any
	if err := json.Unmarshal(body, &data); err != nil {
		return nil, fmt.Errorf("body is not valid JSON: %w", err)
	}

	if path == "" || path == "$" {
		return []any{data}, nil
	}

	expr, err := jp.ParseString(path)
	if err != nil {
		return nil, fmt.Errorf("invalid JSONPath expression %q: %w", path, err)
	}

	return expr.Get(data), nil
}

// ValidateJSONPathExpression validates a JSONPath expression.
// Returns an error if the expression is invalid.
func ValidateJSONPathExpression(path string) error {
	_, err := jp.ParseString(path)
	if err != nil {
		return fmt.Errorf("invalid JSONPath expression %q: %w", path, err)
	}
	return nil
}
