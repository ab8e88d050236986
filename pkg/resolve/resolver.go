package resolve

import (
	"bytes"
	"cmp"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"slices"

	"github.com/getmockd/ramlmock/pkg/logging"
	"github.com/getmockd/ramlmock/pkg/resource"
	"github.com/getmockd/ramlmock/pkg/schema"
)

// Body is a resolved response payload.
type Body struct {
	Data        []byte
	ContentType string
	// Source is the kind of candidate the body was produced from.
	Source resource.Kind
}

// ValidateFunc checks a synthesized value against the schema it came from.
type ValidateFunc func(s *schema.Schema, v any) error

// Option configures a Resolver.
type Option func(*Resolver)

// WithSynthOptions sets the options every per-request Synthesizer is
// created with.
func WithSynthOptions(opts ...schema.SynthOption) Option {
	return func(r *Resolver) {
		r.synthOpts = append(r.synthOpts, opts...)
	}
}

// WithValidation checks every synthesized value with fn. Violations are
// logged at warn level; the value is served regardless.
func WithValidation(fn ValidateFunc) Option {
	return func(r *Resolver) {
		r.validate = fn
	}
}

// WithLogger sets the logger.
func WithLogger(logger *slog.Logger) Option {
	return func(r *Resolver) {
		if logger != nil {
			r.logger = logger
		}
	}
}

// Resolver chooses among a response's candidate sources and renders the
// winner. It holds no per-request state and is safe for concurrent use.
type Resolver struct {
	policy    Policy
	synthOpts []schema.SynthOption
	validate  ValidateFunc
	logger    *slog.Logger
}

// New creates a resolver. An empty policy means DefaultPolicy.
func New(policy Policy, opts ...Option) *Resolver {
	if policy == "" {
		policy = DefaultPolicy
	}
	r := &Resolver{
		policy: policy,
		logger: logging.Nop(),
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Policy returns the resolver's prioritization policy.
func (r *Resolver) Policy() Policy { return r.policy }

// Select returns the winning candidate: the lowest rank under the policy,
// ties broken by declaration index.
func (r *Resolver) Select(candidates []resource.ResponseSource) (resource.ResponseSource, error) {
	if len(candidates) == 0 {
		return resource.ResponseSource{}, &NoResponseSourceError{}
	}
	return slices.MinFunc(candidates, func(a, b resource.ResponseSource) int {
		if c := cmp.Compare(r.policy.rank(a.Kind), r.policy.rank(b.Kind)); c != 0 {
			return c
		}
		return cmp.Compare(a.Index, b.Index)
	}), nil
}

// Resolve selects a candidate and produces its body. Schema candidates are
// synthesized afresh on every call.
func (r *Resolver) Resolve(ctx context.Context, candidates []resource.ResponseSource) (*Body, error) {
	src, err := r.Select(candidates)
	if err != nil {
		return nil, err
	}

	body := &Body{ContentType: resource.DefaultContentType, Source: src.Kind}
	switch src.Kind {
	case resource.KindLiteralExample:
		body.Data = compactJSON(src.Raw)
	case resource.KindExampleFile:
		body.Data = src.Data
	case resource.KindInlineLiteral:
		body.Data, err = json.Marshal(src.Value)
		if err != nil {
			return nil, fmt.Errorf("failed to encode inline example: %w", err)
		}
	case resource.KindSchema:
		body.Data, err = r.synthesize(ctx, src.Schema)
		if err != nil {
			return nil, err
		}
	default:
		return nil, fmt.Errorf("unsupported response source kind %d", src.Kind)
	}
	return body, nil
}

// ResolveMatch resolves the body of a matched route, taking the content
// type from the route's declaration. A declared response without any body
// candidate resolves to an empty body.
func (r *Resolver) ResolveMatch(ctx context.Context, m *resource.Match) (*Body, error) {
	if len(m.Spec.Sources) == 0 && m.Spec.Declared {
		return &Body{}, nil
	}
	body, err := r.Resolve(ctx, m.Spec.Sources)
	if err != nil {
		var noSource *NoResponseSourceError
		if errors.As(err, &noSource) {
			noSource.Method, noSource.Path = m.Spec.Method, m.Pattern
		}
		return nil, err
	}
	if m.Spec.ContentType != "" {
		body.ContentType = m.Spec.ContentType
	}
	return body, nil
}

func (r *Resolver) synthesize(ctx context.Context, s *schema.Schema) ([]byte, error) {
	if s == nil {
		return nil, errors.New("schema source has no compiled schema")
	}

	v, err := schema.NewSynthesizer(r.synthOpts...).Synthesize(ctx, s)
	if err != nil {
		return nil, fmt.Errorf("failed to synthesize from %s: %w", s.Name(), err)
	}

	if r.validate != nil {
		switch err := r.validate(s, v); {
		case err == nil:
		case errors.Is(err, schema.ErrValidatorUnavailable):
			r.logger.Debug("generated value not checked", "schema", s.Name(), "error", err)
		default:
			r.logger.Warn("generated value does not conform to schema", "schema", s.Name(), "error", err)
		}
	}

	data, err := json.Marshal(v)
	if err != nil {
		return nil, fmt.Errorf("failed to encode value generated from %s: %w", s.Name(), err)
	}
	return data, nil
}

// compactJSON returns example text without insignificant whitespace when it
// is JSON, and unchanged otherwise.
func compactJSON(raw []byte) []byte {
	var buf bytes.Buffer
	if err := json.Compact(&buf, raw); err != nil {
		return raw
	}
	return buf.Bytes()
}
