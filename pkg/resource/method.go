package resource

import (
	"net/http"
	"strings"
)

// DefaultContentType is used when a response declares no media type.
const DefaultContentType = "application/json"

// methodOrder is the canonical order methods are listed in.
var methodOrder = []string{
	http.MethodGet,
	http.MethodHead,
	http.MethodPost,
	http.MethodPut,
	http.MethodPatch,
	http.MethodDelete,
	http.MethodOptions,
}

// IsSupportedMethod reports whether the method can be declared on a resource.
func IsSupportedMethod(method string) bool {
	method = strings.ToUpper(method)
	for _, m := range methodOrder {
		if m == method {
			return true
		}
	}
	return false
}

// Header is a response header declared with an example value.
type Header struct {
	Name  string
	Value string
}

// MethodSpec describes the response of one method on one resource.
type MethodSpec struct {
	Method      string
	Status      int
	ContentType string
	Description string
	Headers     []Header
	// Declared is set when the method declares a response, even one
	// without a body.
	Declared bool
	// Sources are the response body candidates in declaration order.
	Sources []ResponseSource
}

// NewMethodSpec creates a spec with status 200 and a JSON content type.
func NewMethodSpec(method string) *MethodSpec {
	return &MethodSpec{
		Method:      strings.ToUpper(method),
		Status:      http.StatusOK,
		ContentType: DefaultContentType,
	}
}

// AddSource appends a candidate, recording its declaration index.
func (m *MethodSpec) AddSource(src ResponseSource) {
	src.Index = len(m.Sources)
	m.Sources = append(m.Sources, src)
}

// SourceKinds lists the kinds of the declared candidates in order.
func (m *MethodSpec) SourceKinds() []Kind {
	kinds := make([]Kind, len(m.Sources))
	for i, s := range m.Sources {
		kinds[i] = s.Kind
	}
	return kinds
}
