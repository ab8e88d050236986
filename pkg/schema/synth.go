package schema

import (
	"context"
	"maps"
	"math"
	"math/rand/v2"
	"slices"
	"strings"
	"time"
)

// DefaultMaxDepth bounds how deeply nested a synthesized value may be.
const DefaultMaxDepth = 32

// maxArrayItems caps generated arrays unless minItems demands more.
const maxArrayItems = 3

// SynthOption configures a Synthesizer.
type SynthOption func(*Synthesizer)

// WithRand sets the random source.
func WithRand(rng *rand.Rand) SynthOption {
	return func(s *Synthesizer) {
		if rng != nil {
			s.rng = rng
		}
	}
}

// WithSeed makes generation reproducible.
func WithSeed(seed uint64) SynthOption {
	return func(s *Synthesizer) {
		s.rng = rand.New(rand.NewPCG(seed, seed^0x9e3779b97f4a7c15))
	}
}

// WithMaxDepth sets the nesting bound. Values < 1 are ignored.
func WithMaxDepth(depth int) SynthOption {
	return func(s *Synthesizer) {
		if depth > 0 {
			s.maxDepth = depth
		}
	}
}

// WithAllProperties controls whether optional object properties are
// generated. Required properties are always generated.
func WithAllProperties(all bool) SynthOption {
	return func(s *Synthesizer) {
		s.allProperties = all
	}
}

// WithNow sets the clock used for date and timestamp formats.
func WithNow(now func() time.Time) SynthOption {
	return func(s *Synthesizer) {
		if now != nil {
			s.now = now
		}
	}
}

// Synthesizer produces values that satisfy a schema's declared structure.
//
// A Synthesizer owns its random source and is not safe for concurrent use;
// create one per request. Schemas are only read.
type Synthesizer struct {
	rng           *rand.Rand
	now           func() time.Time
	maxDepth      int
	allProperties bool
}

// NewSynthesizer creates a synthesizer seeded from the runtime's random source.
func NewSynthesizer(opts ...SynthOption) *Synthesizer {
	s := &Synthesizer{
		rng:           rand.New(rand.NewPCG(rand.Uint64(), rand.Uint64())),
		now:           time.Now,
		maxDepth:      DefaultMaxDepth,
		allProperties: true,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Synthesize generates a value for the schema.
//
// Objects come back as Object, arrays as []any, integers as int64, numbers
// as float64. A self-referential schema yields a *CycleError; a cancelled
// context yields ctx.Err().
func (s *Synthesizer) Synthesize(ctx context.Context, sch *Schema) (any, error) {
	g := &generation{
		ctx:    ctx,
		s:      s,
		set:    sch.set,
		fake:   faker{rng: s.rng, now: s.now},
		onPath: make(map[Ref]bool),
	}
	return g.value([]Ref{sch.root}, "")
}

// generation is the state of one Synthesize call.
type generation struct {
	ctx  context.Context
	s    *Synthesizer
	set  *Set
	fake faker

	// onPath holds the nodes the values currently being built were entered
	// through: the root, property and item refs and the reference targets
	// behind them. Reaching one of them again means the schema is recursive.
	// Composition members merged into a value are not on the path, so a
	// definition may be both merged and referenced below.
	onPath map[Ref]bool
	path   []string
}

// constraints is the merged view of every node that applies to one value:
// a ref's target, all allOf members, and the chosen anyOf/oneOf member.
type constraints struct {
	nodes []Ref

	typ    Type
	format string

	props    []string
	propRefs map[string][]Ref
	required map[string]bool
	items    []Ref

	enum       []any
	example    any
	hasExample bool
	def        any
	hasDefault bool
	konst      any
	hasConst   bool

	min, max         *float64
	exclMin, exclMax bool
	multipleOf       *float64
	minLen, maxLen   *int
	minItems         *int
	maxItems         *int
}

func (g *generation) value(refs []Ref, propName string) (any, error) {
	if err := g.ctx.Err(); err != nil {
		return nil, err
	}

	c := &constraints{propRefs: make(map[string][]Ref), required: make(map[string]bool)}
	for _, r := range refs {
		if err := g.collect(c, r, make(map[Ref]bool)); err != nil {
			return nil, err
		}
	}

	if len(g.path) >= g.s.maxDepth {
		return nil, &CycleError{Location: g.location(c), Path: append([]string(nil), g.path...), DepthExceeded: true}
	}

	entered := g.entered(refs)
	for _, r := range entered {
		g.onPath[r] = true
	}
	g.path = append(g.path, g.location(c))
	defer func() {
		for _, r := range entered {
			delete(g.onPath, r)
		}
		g.path = g.path[:len(g.path)-1]
	}()

	return g.generate(c, propName)
}

// entered returns refs followed through their reference targets.
func (g *generation) entered(refs []Ref) []Ref {
	var out []Ref
	for _, r := range refs {
		for r != NoRef && !slices.Contains(out, r) {
			out = append(out, r)
			r = g.set.Node(r).Target
		}
	}
	return out
}

func (g *generation) location(c *constraints) string {
	if len(c.nodes) == 0 {
		return "<empty>"
	}
	return g.set.Node(c.nodes[0]).Location
}

// collect folds node r into c. seen guards against reference chains and
// compositions that include themselves.
func (g *generation) collect(c *constraints, r Ref, seen map[Ref]bool) error {
	if r == NoRef {
		return nil
	}
	n := g.set.Node(r)
	if seen[r] || g.onPath[r] {
		return &CycleError{Location: n.Location, Path: append([]string(nil), g.path...)}
	}
	seen[r] = true
	defer delete(seen, r)

	if n.Target != NoRef {
		return g.collect(c, n.Target, seen)
	}

	c.nodes = append(c.nodes, r)
	c.merge(n)

	for _, m := range n.AllOf {
		if err := g.collect(c, m, seen); err != nil {
			return err
		}
	}
	if len(n.AnyOf) > 0 {
		if err := g.collect(c, n.AnyOf[g.s.rng.IntN(len(n.AnyOf))], seen); err != nil {
			return err
		}
	}
	if len(n.OneOf) > 0 {
		if err := g.collect(c, n.OneOf[g.s.rng.IntN(len(n.OneOf))], seen); err != nil {
			return err
		}
	}
	return nil
}

// merge adds a node's own keywords. The first node to declare a scalar
// keyword wins; property sets and required sets are unions; numeric and
// length bounds tighten.
func (c *constraints) merge(n *Node) {
	if c.typ == TypeAny {
		c.typ = n.Type
	} else if c.typ == TypeNumber && n.Type == TypeInteger {
		c.typ = TypeInteger
	}
	if c.format == "" {
		c.format = n.Format
	}

	for _, p := range n.Properties {
		if _, ok := c.propRefs[p.Name]; !ok {
			c.props = append(c.props, p.Name)
		}
		c.propRefs[p.Name] = append(c.propRefs[p.Name], p.Ref)
	}
	for _, name := range n.Required {
		c.required[name] = true
	}
	if n.Items != NoRef {
		c.items = append(c.items, n.Items)
	}

	if c.enum == nil && len(n.Enum) > 0 {
		c.enum = n.Enum
	}
	if !c.hasExample && n.HasExample {
		c.example, c.hasExample = n.Example, true
	}
	if !c.hasDefault && n.HasDefault {
		c.def, c.hasDefault = n.Default, true
	}
	if !c.hasConst && n.HasConst {
		c.konst, c.hasConst = n.Const, true
	}

	if n.Minimum != nil && (c.min == nil || *n.Minimum > *c.min) {
		c.min, c.exclMin = n.Minimum, n.ExclusiveMinimum
	}
	if n.Maximum != nil && (c.max == nil || *n.Maximum < *c.max) {
		c.max, c.exclMax = n.Maximum, n.ExclusiveMaximum
	}
	if c.multipleOf == nil {
		c.multipleOf = n.MultipleOf
	}
	c.minLen = maxIntPtr(c.minLen, n.MinLength)
	c.maxLen = minIntPtr(c.maxLen, n.MaxLength)
	c.minItems = maxIntPtr(c.minItems, n.MinItems)
	c.maxItems = minIntPtr(c.maxItems, n.MaxItems)
}

func (g *generation) generate(c *constraints, propName string) (any, error) {
	switch {
	case c.hasConst:
		return c.konst, nil
	case c.hasExample:
		return c.example, nil
	case len(c.enum) > 0:
		return c.enum[g.s.rng.IntN(len(c.enum))], nil
	case c.hasDefault:
		return c.def, nil
	}

	typ := c.typ
	if typ == TypeAny {
		switch {
		case len(c.props) > 0:
			typ = TypeObject
		case len(c.items) > 0:
			typ = TypeArray
		case c.format != "" || c.minLen != nil || c.maxLen != nil:
			typ = TypeString
		case c.min != nil || c.max != nil:
			typ = TypeNumber
		}
	}

	switch typ {
	case TypeObject:
		return g.object(c)
	case TypeArray:
		return g.array(c)
	case TypeString:
		return g.str(c, propName), nil
	case TypeInteger:
		return g.integer(c), nil
	case TypeNumber:
		return g.number(c), nil
	case TypeBoolean:
		return g.s.rng.IntN(2) == 0, nil
	case TypeNull:
		return nil, nil
	default:
		return nil, nil
	}
}

func (g *generation) object(c *constraints) (any, error) {
	obj := make(Object, 0, len(c.props))
	for _, name := range c.props {
		if !g.s.allProperties && !c.required[name] {
			continue
		}
		v, err := g.value(c.propRefs[name], name)
		if err != nil {
			return nil, err
		}
		obj = append(obj, Field{Name: name, Value: v})
	}

	// Required names without a declared schema still have to be present.
	for _, name := range slices.Sorted(maps.Keys(c.required)) {
		if _, declared := c.propRefs[name]; declared {
			continue
		}
		obj = append(obj, Field{Name: name, Value: g.str(&constraints{}, name)})
	}
	return obj, nil
}

func (g *generation) array(c *constraints) (any, error) {
	count := 1
	if c.minItems != nil && *c.minItems > count {
		count = *c.minItems
	}
	if count > maxArrayItems && (c.minItems == nil || *c.minItems <= maxArrayItems) {
		count = maxArrayItems
	}
	if c.maxItems != nil && *c.maxItems >= 1 && *c.maxItems < count {
		count = *c.maxItems
	}

	items := make([]any, count)
	for i := range items {
		if len(c.items) == 0 {
			items[i] = "item"
			continue
		}
		v, err := g.value(c.items, "")
		if err != nil {
			return nil, err
		}
		items[i] = v
	}
	return items, nil
}

func (g *generation) str(c *constraints, propName string) string {
	var s string
	if c.format != "" {
		s = g.fake.stringByFormat(c.format)
		if s != "" {
			return s
		}
	}
	if propName != "" {
		s = g.fake.stringByFieldName(propName)
	}
	if s == "" {
		s = g.fake.word()
	}

	if c.minLen != nil && len(s) < *c.minLen {
		s += g.fake.letters(*c.minLen - len(s))
	}
	if c.maxLen != nil && len(s) > *c.maxLen {
		s = strings.TrimSpace(s[:*c.maxLen])
		if c.minLen != nil && len(s) < *c.minLen {
			s += g.fake.letters(*c.minLen - len(s))
		}
	}
	return s
}

func isTimestampFormat(format string) bool {
	switch strings.ToLower(format) {
	case "utc-millisec", "timestamp", "unix-time", "unixtime":
		return true
	}
	return false
}

// maxSafeInteger bounds generated integers to what a float64 holds exactly,
// which keeps them intact in JSON clients.
const maxSafeInteger = 1 << 53

func clampSafe(f float64) float64 {
	return math.Max(-maxSafeInteger, math.Min(maxSafeInteger, f))
}

func (g *generation) integer(c *constraints) int64 {
	if isTimestampFormat(c.format) {
		return g.s.now().UnixMilli()
	}

	lo, hi := int64(0), int64(100)
	if c.min != nil {
		lo = int64(math.Ceil(clampSafe(*c.min)))
		if c.exclMin && float64(lo) == *c.min {
			lo++
		}
	}
	if c.max != nil {
		hi = int64(math.Floor(clampSafe(*c.max)))
		if c.exclMax && float64(hi) == *c.max {
			hi--
		}
	}
	if c.min != nil && c.max == nil {
		hi = min(lo+100, maxSafeInteger)
	}
	if c.max != nil && c.min == nil && hi < lo {
		lo = max(hi-100, -maxSafeInteger)
	}
	if lo > hi {
		lo, hi = hi, lo
	}

	v := lo
	if span := hi - lo + 1; span > 0 {
		v += g.s.rng.Int64N(span)
	}
	if m := c.multipleOf; m != nil && *m >= 1 && *m <= maxSafeInteger && *m == math.Trunc(*m) {
		step := int64(*m)
		v -= v % step
		if v < lo {
			v += step
		}
	}
	return v
}

func (g *generation) number(c *constraints) any {
	if isTimestampFormat(c.format) {
		return g.s.now().UnixMilli()
	}

	lo, hi := 0.0, 100.0
	if c.min != nil {
		lo = *c.min
	}
	if c.max != nil {
		hi = *c.max
	}
	if c.min != nil && c.max == nil {
		hi = lo + 100
	}
	if c.max != nil && c.min == nil && hi < lo {
		lo = hi - 100
	}
	if lo > hi {
		lo, hi = hi, lo
	}
	if lo == hi {
		return lo
	}

	// Two decimal places, kept strictly inside exclusive bounds.
	v := math.Round((lo+g.s.rng.Float64()*(hi-lo))*100) / 100
	if (c.exclMin && v <= lo) || (c.exclMax && v >= hi) || v < lo || v > hi {
		v = (lo + hi) / 2
	}
	return v
}

func maxIntPtr(a, b *int) *int {
	if b == nil {
		return a
	}
	if a == nil || *b > *a {
		return b
	}
	return a
}

func minIntPtr(a, b *int) *int {
	if b == nil {
		return a
	}
	if a == nil || *b < *a {
		return b
	}
	return a
}
