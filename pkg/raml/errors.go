package raml

import (
	"errors"
	"regexp"
	"strconv"

	"gopkg.in/yaml.v3"
)

// ParseError reports a description that could not be turned into a tree.
// Line and Column are 1-based and zero when the position is unknown.
type ParseError struct {
	File   string
	Line   int
	Column int
	Err    error
}

func (e *ParseError) Error() string {
	if e.Line > 0 {
		return e.File + " (line " + strconv.Itoa(e.Line) + ", column " + strconv.Itoa(e.Column) + "): " + e.Err.Error()
	}
	return e.File + ": " + e.Err.Error()
}

func (e *ParseError) Unwrap() error {
	return e.Err
}

// errorAt wraps err with the position of n in file. An error that already
// carries a position is returned unchanged.
func errorAt(file string, n *yaml.Node, err error) error {
	var pe *ParseError
	if errors.As(err, &pe) {
		return err
	}
	pe = &ParseError{File: file, Err: err}
	if n != nil {
		pe.Line, pe.Column = n.Line, n.Column
	}
	return pe
}

var yamlLine = regexp.MustCompile(`line (\d+)`)

// yamlError converts a yaml.v3 syntax error into a ParseError, keeping the
// line number yaml.v3 reports in its message.
func yamlError(file string, err error) error {
	pe := &ParseError{File: file, Err: err}
	if m := yamlLine.FindStringSubmatch(err.Error()); m != nil {
		pe.Line, _ = strconv.Atoi(m[1])
	}
	return pe
}
