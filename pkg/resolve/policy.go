package resolve

import (
	"fmt"
	"strings"

	"github.com/getmockd/ramlmock/pkg/resource"
)

// Policy decides which response source wins when several are declared.
type Policy string

// Prioritization policies.
const (
	// PolicyExample prefers any literal example over a schema, wherever the
	// schema is declared.
	PolicyExample Policy = "example"
	// PolicySchema prefers a schema over literal examples.
	PolicySchema Policy = "schema"
	// PolicyDeclaration takes whichever source is declared first.
	PolicyDeclaration Policy = "declaration"
)

// DefaultPolicy is used when none is configured.
const DefaultPolicy = PolicyExample

// ParsePolicy parses a policy name. "" yields DefaultPolicy and "order" is
// accepted as an alias for "declaration".
func ParsePolicy(s string) (Policy, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "":
		return DefaultPolicy, nil
	case "example", "examples":
		return PolicyExample, nil
	case "schema", "schemas":
		return PolicySchema, nil
	case "declaration", "order":
		return PolicyDeclaration, nil
	default:
		return "", fmt.Errorf("unknown prioritization policy %q (want example, schema or declaration)", s)
	}
}

func (p Policy) String() string { return string(p) }

// rank orders source kinds under the policy; lower wins. Kinds of equal
// rank fall back to declaration order.
func (p Policy) rank(k resource.Kind) int {
	switch p {
	case PolicyExample:
		if k.IsLiteral() {
			return 0
		}
		return 1
	case PolicySchema:
		if k == resource.KindSchema {
			return 0
		}
		return 1
	default:
		return 0
	}
}
