package engine

import (
	"fmt"
	"math/rand"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/lucasjones/reggen"
)

// Character sets for random generators
const (
	lettersLower = "abcdefghijklmnopqrstuvwxyz"
	lettersUpper = "ABCDEFGHIJKLMNOPQRSTUVWXYZ"
	digits       = "0123456789"
	hexChars     = "0123456789abcdef"
	alphanum     = lettersLower + lettersUpper + digits
)

// regexLimit bounds repetitions (*, +) when generating from a pattern.
const regexLimit = 10

// Generators produce dynamic template values such as {{uuid}} or {{timestamp}}.
// The sources are replaceable so that tests get deterministic output.
type Generators struct {
	Now  func() time.Time
	IntN func(n int) int
	UUID func() string
}

// NewGenerators returns generators backed by the clock, math/rand and google/uuid.
func NewGenerators() *Generators {
	return &Generators{
		Now:  time.Now,
		IntN: rand.Intn,
		UUID: func() string { return uuid.New().String() },
	}
}

// value returns the generated value for name, and false if name is not a generator.
func (g *Generators) value(name string) (string, bool) {
	switch name {
	case "uuid":
		return g.UUID(), true
	case "random_int":
		return fmt.Sprintf("%d", g.IntN(100000)), true
	case "timestamp":
		return fmt.Sprintf("%d", g.Now().Unix()), true
	case "timestamp_ms":
		return fmt.Sprintf("%d", g.Now().UnixMilli()), true
	case "iso8601":
		return g.Now().UTC().Format(time.RFC3339), true
	case "random_email":
		return fmt.Sprintf("user%d@example.com", g.IntN(1000000)), true
	case "random_bool":
		if g.IntN(2) == 0 {
			return "false", true
		}
		return "true", true
	case "random_alphanum":
		return g.fromCharset(alphanum, 10), true
	}

	if strings.HasPrefix(name, "random_digits_") {
		length := parsePositiveInt(name[len("random_digits_"):], 10, 20)
		return g.fromCharset(digits, length), true
	}
	if strings.HasPrefix(name, "random_hex_") {
		length := parsePositiveInt(name[len("random_hex_"):], 8, 64)
		return g.fromCharset(hexChars, length), true
	}
	if strings.HasPrefix(name, "random_alphanum_") {
		length := parsePositiveInt(name[len("random_alphanum_"):], 10, 64)
		return g.fromCharset(alphanum, length), true
	}

	return "", false
}

// call evaluates a function reference like regex(^[a-z]{8}$).
// ok is false when name is not a known function.
func (g *Generators) call(name, args string) (val string, ok bool, err error) {
	switch name {
	case "regex":
		out, err := reggen.Generate(args, regexLimit)
		if err != nil {
			return "", true, fmt.Errorf("invalid regex %q: %w", args, err)
		}
		return out, true, nil
	case "upper":
		return strings.ToUpper(args), true, nil
	case "lower":
		return strings.ToLower(args), true, nil
	}
	return "", false, nil
}

func (g *Generators) fromCharset(charset string, length int) string {
	b := make([]byte, length)
	for i := range b {
		b[i] = charset[g.IntN(len(charset))]
	}
	return string(b)
}

// parsePositiveInt parses a string to int with a default and max value
func parsePositiveInt(s string, defaultVal, maxVal int) int {
	var n int
	for _, c := range s {
		if c >= '0' && c <= '9' {
			n = n*10 + int(c-'0')
		} else {
			return defaultVal
		}
	}
	if n <= 0 {
		return defaultVal
	}
	if n > maxVal {
		return maxVal
	}
	return n
}
