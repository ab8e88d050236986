package schema

import (
	"math/rand/v2"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
)

// faker produces plausible filler values. It draws from the synthesizer's
// own RNG so a seeded synthesizer is reproducible.
type faker struct {
	rng *rand.Rand
	now func() time.Time
}

func (f faker) pick(options []string) string {
	return options[f.rng.IntN(len(options))]
}

// stringByFormat maps JSON Schema format names to conforming values.
// Returns "" for unknown formats.
func (f faker) stringByFormat(format string) string {
	switch strings.ToLower(format) {
	case "email":
		return f.email()
	case "uuid":
		return f.uuid()
	case "uri", "url", "iri":
		return "https://example.com/" + f.slug()
	case "uri-reference", "iri-reference":
		return "/" + f.slug()
	case "hostname", "host-name", "idn-hostname":
		return f.word() + ".example.com"
	case "ipv4", "ip-address":
		return f.ipv4()
	case "ipv6":
		return f.ipv6()
	case "date-time":
		return f.now().UTC().Format(time.RFC3339)
	case "date":
		return f.now().UTC().Format("2006-01-02")
	case "time":
		return f.now().UTC().Format("15:04:05Z")
	case "phone":
		return f.phone()
	case "password":
		return "P@ss" + f.word() + "42!"
	case "byte":
		return "dGVzdA==" // base64("test")
	case "binary":
		return "48656c6c6f" // hex("Hello")
	case "color":
		return f.pick([]string{"red", "blue", "green", "yellow", "purple"})
	default:
		return ""
	}
}

// stringByFieldName maps common property names to realistic values.
//
//nolint:gocyclo // Large switch for heuristic mapping is clearer than splitting.
func (f faker) stringByFieldName(name string) string {
	lower := strings.ToLower(name)

	switch {
	case lower == "email" || strings.HasSuffix(lower, "_email") || strings.HasSuffix(lower, "email"):
		return f.email()
	case lower == "phone" || lower == "mobile" || lower == "tel" || strings.HasSuffix(lower, "phone"):
		return f.phone()
	case lower == "name" || lower == "full_name" || lower == "fullname":
		return f.pick(firstNames) + " " + f.pick(lastNames)
	case lower == "first_name" || lower == "firstname" || lower == "given_name":
		return f.pick(firstNames)
	case lower == "last_name" || lower == "lastname" || lower == "surname" || lower == "family_name":
		return f.pick(lastNames)
	case lower == "company" || lower == "organization" || lower == "org":
		return f.pick([]string{"Acme", "Globex", "Initech", "Umbrella"}) + " " + f.pick([]string{"Corp", "Inc", "LLC"})
	case lower == "url" || lower == "uri" || lower == "href" || lower == "link" || lower == "website":
		return "https://example.com/" + f.slug()
	case lower == "ip" || lower == "ip_address" || lower == "ipaddress":
		return f.ipv4()
	case lower == "description" || lower == "bio" || lower == "summary" || lower == "about":
		return f.sentence()
	case lower == "id" || lower == "uuid" || lower == "guid":
		return f.uuid()
	case lower == "slug":
		return f.slug()
	case strings.HasSuffix(lower, "_at") || lower == "created" || lower == "updated" || lower == "timestamp":
		return f.now().UTC().Format(time.RFC3339)
	case lower == "currency" || lower == "currency_code":
		return f.pick([]string{"USD", "EUR", "GBP", "JPY"})
	case lower == "country":
		return f.pick([]string{"US", "GB", "CA", "DE", "FR", "JP"})
	case lower == "city":
		return f.pick([]string{"New York", "Chicago", "Seattle", "Austin", "Denver", "Boston"})
	case lower == "zip" || lower == "zipcode" || lower == "zip_code" || lower == "postal_code":
		return f.digits(5)
	case lower == "username" || lower == "user_name" || lower == "login":
		return strings.ToLower(f.pick(firstNames)) + f.digits(2)
	}

	return ""
}

var (
	firstNames = []string{"John", "Jane", "Alex", "Maria", "Sam", "Taylor", "Jordan", "Morgan"}
	lastNames  = []string{"Smith", "Johnson", "Williams", "Brown", "Jones", "Garcia", "Miller"}
	words      = []string{"alpha", "beta", "gamma", "delta", "epsilon", "omega", "sigma", "theta"}
)

func (f faker) uuid() string {
	var b [16]byte
	for i := range b {
		b[i] = byte(f.rng.UintN(256))
	}
	// Stamp version 4 / RFC 4122 variant bits.
	b[6] = (b[6] & 0x0f) | 0x40
	b[8] = (b[8] & 0x3f) | 0x80
	return uuid.UUID(b).String()
}

func (f faker) email() string {
	prefixes := []string{"john", "jane", "alex", "maria", "dev", "test", "user"}
	domains := []string{"example.com", "test.io", "demo.org"}
	return f.pick(prefixes) + "." + f.pick(prefixes) + "@" + f.pick(domains)
}

func (f faker) phone() string {
	return "+1-555-" + f.digits(3) + "-" + f.digits(4)
}

func (f faker) ipv4() string {
	parts := make([]string, 4)
	for i := range parts {
		parts[i] = strconv.Itoa(f.rng.IntN(256))
	}
	return strings.Join(parts, ".")
}

func (f faker) ipv6() string {
	parts := make([]string, 8)
	parts[0], parts[1] = "2001", "0db8"
	for i := 2; i < len(parts); i++ {
		parts[i] = f.hex(4)
	}
	return strings.Join(parts, ":")
}

func (f faker) sentence() string {
	n := 5 + f.rng.IntN(6)
	parts := make([]string, n)
	for i := range parts {
		parts[i] = f.pick(words)
	}
	return strings.Join(parts, " ") + "."
}

func (f faker) word() string {
	return f.pick(words)
}

func (f faker) slug() string {
	n := 2 + f.rng.IntN(2)
	parts := make([]string, n)
	for i := range parts {
		parts[i] = f.pick(words)
	}
	return strings.Join(parts, "-")
}

func (f faker) digits(n int) string {
	buf := make([]byte, n)
	for i := range buf {
		buf[i] = byte('0' + f.rng.IntN(10))
	}
	return string(buf)
}

func (f faker) hex(n int) string {
	const alphabet = "0123456789abcdef"
	buf := make([]byte, n)
	for i := range buf {
		buf[i] = alphabet[f.rng.IntN(16)]
	}
	return string(buf)
}

func (f faker) letters(n int) string {
	const alphabet = "abcdefghijklmnopqrstuvwxyz"
	buf := make([]byte, n)
	for i := range buf {
		buf[i] = alphabet[f.rng.IntN(len(alphabet))]
	}
	return string(buf)
}
