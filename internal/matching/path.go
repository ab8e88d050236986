package matching

import (
	"fmt"
	"regexp"
	"slices"
	"strings"
)

// SegmentKind classifies a declared path segment.
type SegmentKind int

// Segment kinds, ordered from least to most specific.
const (
	// SegmentParam is a whole-segment URI parameter such as "{id}".
	SegmentParam SegmentKind = iota + 1
	// SegmentTemplate mixes literal text and parameters, e.g. "report-{year}.{ext}".
	SegmentTemplate
	// SegmentLiteral matches only itself.
	SegmentLiteral
)

func (k SegmentKind) String() string {
	switch k {
	case SegmentParam:
		return "param"
	case SegmentTemplate:
		return "template"
	case SegmentLiteral:
		return "literal"
	default:
		return "unknown"
	}
}

// Segment is a compiled declared path segment.
type Segment struct {
	Raw   string
	Kind  SegmentKind
	Names []string // parameter names, in order of appearance

	re *regexp.Regexp
}

var templateParam = regexp.MustCompile(`\{([^{}/]+)\}`)

// CompileSegment parses one declared segment of a resource URI.
//
// Supports:
//   - Literal: "users" matches only "users"
//   - Named param: "{id}" matches any single component
//   - Template: "item-{id}" matches "item-42", binding id=42
func CompileSegment(raw string) (Segment, error) {
	if strings.Contains(raw, "/") {
		return Segment{}, fmt.Errorf("segment %q contains a path separator", raw)
	}

	locs := templateParam.FindAllStringSubmatchIndex(raw, -1)
	if len(locs) == 0 {
		if strings.ContainsAny(raw, "{}") {
			return Segment{}, fmt.Errorf("segment %q has unbalanced braces", raw)
		}
		return Segment{Raw: raw, Kind: SegmentLiteral}, nil
	}

	if len(locs) == 1 && locs[0][0] == 0 && locs[0][1] == len(raw) {
		return Segment{
			Raw:   raw,
			Kind:  SegmentParam,
			Names: []string{raw[locs[0][2]:locs[0][3]]},
		}, nil
	}

	var b strings.Builder
	b.WriteString("^")
	names := make([]string, 0, len(locs))
	last := 0
	for _, loc := range locs {
		b.WriteString(regexp.QuoteMeta(raw[last:loc[0]]))
		b.WriteString("([^/]+?)")
		names = append(names, raw[loc[2]:loc[3]])
		last = loc[1]
	}
	b.WriteString(regexp.QuoteMeta(raw[last:]))
	b.WriteString("$")

	if strings.ContainsAny(raw[last:], "{}") {
		return Segment{}, fmt.Errorf("segment %q has unbalanced braces", raw)
	}

	re, err := regexp.Compile(b.String())
	if err != nil {
		return Segment{}, fmt.Errorf("segment %q: %w", raw, err)
	}

	return Segment{Raw: raw, Kind: SegmentTemplate, Names: names, re: re}, nil
}

// Match scores an actual request component against the segment.
// Returns 0 when it does not match. Bound parameters are written to params
// when params is non-nil.
func (s Segment) Match(actual string, params map[string]string) int {
	switch s.Kind {
	case SegmentLiteral:
		if s.Raw == actual {
			return ScoreSegmentLiteral
		}
	case SegmentParam:
		if actual == "" {
			return 0
		}
		if params != nil {
			params[s.Names[0]] = actual
		}
		return ScoreSegmentParam
	case SegmentTemplate:
		m := s.re.FindStringSubmatch(actual)
		if m == nil {
			return 0
		}
		if params != nil {
			for i, name := range s.Names {
				params[name] = m[i+1]
			}
		}
		return ScoreSegmentTemplate
	}
	return 0
}

// SplitPath splits a URI path into its non-empty components.
// "/a//b/" and "a/b" both yield ["a", "b"]; "/" yields an empty slice.
func SplitPath(path string) []string {
	parts := strings.Split(path, "/")
	out := parts[:0]
	for _, p := range parts {
		if p != "" {
			out = append(out, p)
		}
	}
	return out
}

// JoinPath renders segments back into an absolute path.
func JoinPath(segments []string) string {
	return "/" + strings.Join(segments, "/")
}

// NormalizePrefix turns a configured mount prefix into its canonical form:
// "" for the root, otherwise a leading slash and no trailing slash.
func NormalizePrefix(prefix string) string {
	p := strings.Trim(strings.TrimSpace(prefix), "/")
	if p == "" {
		return ""
	}
	return "/" + p
}

// Mount is one prefix a request path falls under, with the path that
// remains beneath it.
type Mount struct {
	Prefix string
	Rest   string
}

// Mounts lists every prefix in prefixes that the path is mounted under,
// longest first. Prefixes must already be normalized.
func Mounts(prefixes []string, path string) []Mount {
	var out []Mount
	for _, prefix := range prefixes {
		if !hasPathPrefix(path, prefix) || slices.ContainsFunc(out, func(m Mount) bool { return m.Prefix == prefix }) {
			continue
		}
		rest := strings.TrimPrefix(path, prefix)
		if rest == "" {
			rest = "/"
		}
		out = append(out, Mount{Prefix: prefix, Rest: rest})
	}
	slices.SortStableFunc(out, func(a, b Mount) int { return len(b.Prefix) - len(a.Prefix) })
	return out
}

// StripPrefix removes the longest prefix in prefixes that the path is
// mounted under. It returns the remaining path, the prefix that matched,
// and whether any did.
func StripPrefix(prefixes []string, path string) (rest, matched string, ok bool) {
	mounts := Mounts(prefixes, path)
	if len(mounts) == 0 {
		return path, "", false
	}
	return mounts[0].Rest, mounts[0].Prefix, true
}

func hasPathPrefix(path, prefix string) bool {
	if prefix == "" {
		return true
	}
	if !strings.HasPrefix(path, prefix) {
		return false
	}
	return len(path) == len(prefix) || path[len(prefix)] == '/'
}
