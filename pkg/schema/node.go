package schema

import (
	"fmt"
	"sync"
)

// Ref addresses a node in a Set.
type Ref int

// NoRef marks an absent node reference.
const NoRef Ref = -1

// Type is the primitive JSON type declared by a schema node.
type Type int

// Primitive types. TypeAny means the node declares no type.
const (
	TypeAny Type = iota
	TypeObject
	TypeArray
	TypeString
	TypeNumber
	TypeInteger
	TypeBoolean
	TypeNull
)

var typeNames = map[string]Type{
	"object":  TypeObject,
	"array":   TypeArray,
	"string":  TypeString,
	"number":  TypeNumber,
	"integer": TypeInteger,
	"boolean": TypeBoolean,
	"null":    TypeNull,
}

// ParseType maps a JSON Schema type name to a Type.
func ParseType(s string) (Type, bool) {
	t, ok := typeNames[s]
	return t, ok
}

func (t Type) String() string {
	for name, v := range typeNames {
		if v == t {
			return name
		}
	}
	return "any"
}

// Kind is the tagged-variant view of a node: either its primitive type, a
// composition operator, or an indirect reference.
type Kind int

// Node kinds.
const (
	KindAny Kind = iota
	KindObject
	KindArray
	KindString
	KindNumber
	KindInteger
	KindBoolean
	KindNull
	KindAllOf
	KindAnyOf
	KindOneOf
	KindRef
)

func (k Kind) String() string {
	switch k {
	case KindObject:
		return "object"
	case KindArray:
		return "array"
	case KindString:
		return "string"
	case KindNumber:
		return "number"
	case KindInteger:
		return "integer"
	case KindBoolean:
		return "boolean"
	case KindNull:
		return "null"
	case KindAllOf:
		return "allOf"
	case KindAnyOf:
		return "anyOf"
	case KindOneOf:
		return "oneOf"
	case KindRef:
		return "ref"
	default:
		return "any"
	}
}

// Property is one declared object property.
type Property struct {
	Name string
	Ref  Ref
}

// Node is one compiled schema. Nodes are immutable once their Set has been
// published; composite nodes point at other nodes by Ref.
type Node struct {
	// Location is "document#/json/pointer" for diagnostics.
	Location string

	Type Type

	// Target is set for "$ref" nodes; all other keywords are ignored.
	Target Ref

	AllOf []Ref
	AnyOf []Ref
	OneOf []Ref

	Properties []Property
	Required   []string
	Items      Ref

	Format  string
	Enum    []any
	Const   any
	Default any
	Example any

	HasConst   bool
	HasDefault bool
	HasExample bool

	Minimum          *float64
	Maximum          *float64
	ExclusiveMinimum bool
	ExclusiveMaximum bool
	MultipleOf       *float64

	MinLength *int
	MaxLength *int
	MinItems  *int
	MaxItems  *int
}

// Kind reports which variant the node is.
func (n *Node) Kind() Kind {
	switch {
	case n.Target != NoRef:
		return KindRef
	case len(n.AllOf) > 0:
		return KindAllOf
	case len(n.AnyOf) > 0:
		return KindAnyOf
	case len(n.OneOf) > 0:
		return KindOneOf
	}
	switch n.Type {
	case TypeObject:
		return KindObject
	case TypeArray:
		return KindArray
	case TypeString:
		return KindString
	case TypeNumber:
		return KindNumber
	case TypeInteger:
		return KindInteger
	case TypeBoolean:
		return KindBoolean
	case TypeNull:
		return KindNull
	}
	return KindAny
}

// IsRequired reports whether the property is in the node's required set.
func (n *Node) IsRequired(name string) bool {
	for _, r := range n.Required {
		if r == name {
			return true
		}
	}
	return false
}

func newNode(location string) Node {
	return Node{Location: location, Target: NoRef, Items: NoRef}
}

// Set is the arena holding every node compiled by one Compiler.
type Set struct {
	nodes []Node
}

// Len returns the number of nodes in the set.
func (s *Set) Len() int { return len(s.nodes) }

// Node returns the node addressed by r.
func (s *Set) Node(r Ref) *Node {
	if r < 0 || int(r) >= len(s.nodes) {
		panic(fmt.Sprintf("schema: ref %d out of range", r))
	}
	return &s.nodes[r]
}

func (s *Set) alloc(location string) Ref {
	s.nodes = append(s.nodes, newNode(location))
	return Ref(len(s.nodes) - 1)
}

// Schema is a compiled entry point into a Set.
type Schema struct {
	set  *Set
	root Ref
	name string
	raw  any
	docs map[string]any

	validatorOnce sync.Once
	validator     *Validator
	validatorErr  error
}

// Name returns the schema's registered name or location.
func (s *Schema) Name() string { return s.name }

// Root returns the schema's root node ref.
func (s *Schema) Root() Ref { return s.root }

// Set returns the arena the schema lives in.
func (s *Schema) Set() *Set { return s.set }

// Node returns a node of the schema's arena.
func (s *Schema) Node(r Ref) *Node { return s.set.Node(r) }

// Raw returns the decoded JSON document the schema was compiled from.
func (s *Schema) Raw() any { return s.raw }

// Validate checks v against the schema's source document. The validator is
// compiled on first use. See NewValidator.
func (s *Schema) Validate(v any) error {
	s.validatorOnce.Do(func() {
		s.validator, s.validatorErr = NewValidator(s.raw, s.docs)
	})
	if s.validatorErr != nil {
		return fmt.Errorf("%w: %w", ErrValidatorUnavailable, s.validatorErr)
	}
	return s.validator.Validate(v)
}
