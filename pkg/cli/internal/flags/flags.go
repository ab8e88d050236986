// Package flags holds flag value types shared by the commands.
package flags

import "strings"

// StringSlice collects every occurrence of a repeated flag. Values are
// taken whole: "--prefix a,b" is one prefix, and "--prefix ''" adds the
// root.
type StringSlice []string

func (s *StringSlice) String() string { return strings.Join(*s, ",") }

func (s *StringSlice) Set(value string) error {
	*s = append(*s, value)
	return nil
}

func (s *StringSlice) Type() string { return "strings" }
