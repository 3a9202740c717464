package config

import (
	"fmt"
	"net/url"
	"os"
	"strings"

	"github.com/Amr-9/rrt/pkg/models"
	"gopkg.in/yaml.v3"
)

// ValidationError represents a single validation error with context and suggestions
type ValidationError struct {
	Field      string // Field path (e.g., "tests[2].status")
	Value      string // The actual value provided (if any)
	Message    string // Error description
	Expected   string // Expected format/type
	Hint       string // Helpful suggestion
	DidYouMean string // Typo correction suggestion
}

// ValidationResult holds all validation errors
type ValidationResult struct {
	Errors []ValidationError
}

// Add adds a new validation error
func (v *ValidationResult) Add(err ValidationError) {
	v.Errors = append(v.Errors, err)
}

// HasErrors returns true if there are validation errors
func (v *ValidationResult) HasErrors() bool {
	return len(v.Errors) > 0
}

// FormatErrors formats all errors into a user-friendly string
func (v *ValidationResult) FormatErrors() string {
	if !v.HasErrors() {
		return ""
	}

	var sb strings.Builder
	sb.WriteString("\n❌ Configuration Errors:\n")

	for i, err := range v.Errors {
		sb.WriteString(fmt.Sprintf("\n  %d. %s\n", i+1, err.Field))

		if err.Value != "" {
			sb.WriteString(fmt.Sprintf("     ├─ Value: %q\n", truncate(err.Value, 50)))
		}

		sb.WriteString(fmt.Sprintf("     ├─ Error: %s\n", err.Message))

		if err.Expected != "" {
			sb.WriteString(fmt.Sprintf("     ├─ Expected: %s\n", err.Expected))
		}

		if err.DidYouMean != "" {
			sb.WriteString(fmt.Sprintf("     ├─ Did you mean: %q?\n", err.DidYouMean))
		}

		if err.Hint != "" {
			sb.WriteString(fmt.Sprintf("     └─ 💡 Hint: %s\n", err.Hint))
		}
	}

	return sb.String()
}

// Known valid field names for typo detection
var validGlobalFields = []string{"api_address", "verbose", "to_file", "time_boundaries", "headers", "insecure", "http2", "rate_limit", "data", "tests"}
var validTestFields = []string{"it", "description", "route", "method", "status", "time_boundaries", "verbose", "auto_description", "json_body", "headers", "capture", "bearer_token", "critical"}
var validDataFields = []string{"name", "path"}
var validHTTPMethods = []string{"GET", "POST", "PUT", "DELETE", "PATCH", "HEAD", "OPTIONS"}

// Hints for common fields
var fieldHints = map[string]string{
	"api_address":     "Provide the base URI including protocol (e.g., https://api.example.com/v1)",
	"time_boundaries": "Three increasing millisecond values: [fast_ceiling, slow_ceiling, timeout], e.g. [500, 1000, 10000]",
	"to_file":         "Directory the run logfile is written into; it must already exist",
	"rate_limit":      "Maximum requests per second as a positive integer, 0 disables pacing",
	"tests":           "List the test cases in the order they must run",
	"route":           "Path relative to api_address, e.g. /users/1",
	"method":          "HTTP method: GET, POST, PUT, DELETE, PATCH, HEAD, OPTIONS",
	"status":          "Expected HTTP status code, e.g. 200",
	"capture":         "Map of variable name to top-level response key, e.g. {bearer: token}",
	"data":            "List of CSV fixtures with 'name' and 'path'",
}

// Validate checks a configuration built outside LoadConfig.
func Validate(cfg *models.Config) error {
	result := &ValidationResult{}
	validate(cfg, result)
	if result.HasErrors() {
		return fmt.Errorf("%s", result.FormatErrors())
	}
	return nil
}

func validate(cfg *models.Config, result *ValidationResult) {
	g := cfg.Global

	if g.APIAddress == "" {
		result.Add(ValidationError{
			Field:   "api_address",
			Message: "missing required field",
			Hint:    GetHint("api_address"),
		})
	} else if u, err := url.Parse(g.APIAddress); err != nil || u.Scheme == "" || u.Host == "" {
		result.Add(ValidationError{
			Field:    "api_address",
			Value:    g.APIAddress,
			Message:  "not an absolute URI",
			Expected: "http:// or https:// URI",
			Hint:     GetHint("api_address"),
		})
	}

	if !g.TimeBoundaries.Valid() {
		result.Add(boundariesError("time_boundaries", g.TimeBoundaries))
	}

	if g.ToFile != "" {
		if info, err := os.Stat(g.ToFile); err != nil || !info.IsDir() {
			result.Add(ValidationError{
				Field:   "to_file",
				Value:   g.ToFile,
				Message: "not an existing directory",
				Hint:    GetHint("to_file"),
			})
		}
	}

	if g.RateLimit < 0 {
		result.Add(ValidationError{
			Field:    "rate_limit",
			Value:    fmt.Sprintf("%d", g.RateLimit),
			Message:  "rate limit cannot be negative",
			Expected: "non-negative integer",
			Hint:     GetHint("rate_limit"),
		})
	}

	for i, d := range g.Data {
		if d.Name == "" || d.Path == "" {
			result.Add(ValidationError{
				Field:   fmt.Sprintf("data[%d]", i),
				Message: "data source needs both name and path",
				Hint:    GetHint("data"),
			})
		}
	}

	if len(cfg.Tests) == 0 {
		result.Add(ValidationError{
			Field:   "tests",
			Message: "at least one test case is required",
			Hint:    GetHint("tests"),
		})
	}

	for i, tc := range cfg.Tests {
		prefix := fmt.Sprintf("tests[%d]", i)

		if tc.Route == "" {
			result.Add(ValidationError{
				Field:   prefix + ".route",
				Message: "missing required route",
				Hint:    GetHint("route"),
			})
		}

		if tc.Method == "" {
			result.Add(ValidationError{
				Field:   prefix + ".method",
				Message: "missing required HTTP method",
				Hint:    GetHint("method"),
			})
		} else if valid, suggestion := ValidateHTTPMethod(tc.Method); !valid {
			err := ValidationError{
				Field:    prefix + ".method",
				Value:    tc.Method,
				Message:  "invalid HTTP method",
				Expected: "GET, POST, PUT, DELETE, PATCH, HEAD, or OPTIONS",
			}
			if suggestion != "" {
				err.DidYouMean = suggestion
			}
			result.Add(err)
		}

		if tc.ExpectedStatus < 100 || tc.ExpectedStatus > 599 {
			result.Add(ValidationError{
				Field:    prefix + ".status",
				Value:    fmt.Sprintf("%d", tc.ExpectedStatus),
				Message:  "missing or invalid expected status",
				Expected: "HTTP status code between 100 and 599",
				Hint:     GetHint("status"),
			})
		}

		if tc.TimeBoundaries != nil && !tc.TimeBoundaries.Valid() {
			result.Add(boundariesError(prefix+".time_boundaries", *tc.TimeBoundaries))
		}

		for name, key := range tc.Capture {
			if strings.TrimSpace(name) == "" || strings.TrimSpace(key) == "" {
				result.Add(ValidationError{
					Field:   prefix + ".capture",
					Value:   fmt.Sprintf("%s: %s", name, key),
					Message: "capture entries need a variable name and a response key",
					Hint:    GetHint("capture"),
				})
			}
		}
	}
}

func boundariesError(field string, tb models.TimeBoundaries) ValidationError {
	return ValidationError{
		Field:    field,
		Value:    fmt.Sprintf("%v", [3]int64(tb)),
		Message:  "boundaries must be positive and strictly increasing",
		Expected: "fast_ceiling < slow_ceiling < timeout",
		Hint:     GetHint("time_boundaries"),
	}
}

// checkUnknownKeys walks the YAML document and reports keys that are not part
// of the schema, suggesting the closest known key.
func checkUnknownKeys(root *yaml.Node, result *ValidationResult) {
	if root.Kind != yaml.DocumentNode || len(root.Content) == 0 {
		return
	}
	top := root.Content[0]
	checkMappingKeys(top, "", validGlobalFields, result)

	tests := mappingValue(top, "tests")
	if tests != nil && tests.Kind == yaml.SequenceNode {
		for i, item := range tests.Content {
			checkMappingKeys(item, fmt.Sprintf("tests[%d].", i), validTestFields, result)
		}
	}

	data := mappingValue(top, "data")
	if data != nil && data.Kind == yaml.SequenceNode {
		for i, item := range data.Content {
			checkMappingKeys(item, fmt.Sprintf("data[%d].", i), validDataFields, result)
		}
	}
}

func checkMappingKeys(node *yaml.Node, prefix string, valid []string, result *ValidationResult) {
	if node.Kind != yaml.MappingNode {
		return
	}
	for i := 0; i+1 < len(node.Content); i += 2 {
		key := node.Content[i].Value
		if contains(valid, key) {
			continue
		}
		result.Add(ValidationError{
			Field:      prefix + key,
			Message:    "unknown field",
			DidYouMean: FindClosestMatch(key, valid),
		})
	}
}

func mappingValue(node *yaml.Node, key string) *yaml.Node {
	if node.Kind != yaml.MappingNode {
		return nil
	}
	for i := 0; i+1 < len(node.Content); i += 2 {
		if node.Content[i].Value == key {
			return node.Content[i+1]
		}
	}
	return nil
}

func contains(list []string, s string) bool {
	for _, v := range list {
		if v == s {
			return true
		}
	}
	return false
}

// levenshteinDistance calculates the edit distance between two strings
func levenshteinDistance(a, b string) int {
	a = strings.ToLower(a)
	b = strings.ToLower(b)

	if len(a) == 0 {
		return len(b)
	}
	if len(b) == 0 {
		return len(a)
	}

	matrix := make([][]int, len(a)+1)
	for i := range matrix {
		matrix[i] = make([]int, len(b)+1)
		matrix[i][0] = i
	}
	for j := range matrix[0] {
		matrix[0][j] = j
	}

	for i := 1; i <= len(a); i++ {
		for j := 1; j <= len(b); j++ {
			cost := 1
			if a[i-1] == b[j-1] {
				cost = 0
			}
			matrix[i][j] = min(
				matrix[i-1][j]+1,      // deletion
				matrix[i][j-1]+1,      // insertion
				matrix[i-1][j-1]+cost, // substitution
			)
		}
	}

	return matrix[len(a)][len(b)]
}

// FindClosestMatch finds the closest matching field name from valid options
func FindClosestMatch(input string, validOptions []string) string {
	if input == "" {
		return ""
	}

	bestMatch := ""
	bestDistance := 100

	for _, option := range validOptions {
		distance := levenshteinDistance(input, option)
		// Only suggest if distance is reasonable (less than half the word length)
		if distance < bestDistance && distance <= len(option)/2+1 {
			bestDistance = distance
			bestMatch = option
		}
	}

	// Don't return exact matches as "did you mean"
	if strings.EqualFold(input, bestMatch) {
		return ""
	}

	return bestMatch
}

// GetHint returns a helpful hint for a field
func GetHint(field string) string {
	if hint, ok := fieldHints[field]; ok {
		return hint
	}
	return ""
}

// ValidateHTTPMethod checks if a method is valid and suggests corrections
func ValidateHTTPMethod(method string) (bool, string) {
	upper := strings.ToUpper(method)
	for _, valid := range validHTTPMethods {
		if upper == valid {
			return true, ""
		}
	}

	suggestion := FindClosestMatch(method, validHTTPMethods)
	return false, suggestion
}

// truncate shortens a string for display
func truncate(s string, maxLen int) string {
	if len(s) <= maxLen {
		return s
	}
	return s[:maxLen-3] + "..."
}
