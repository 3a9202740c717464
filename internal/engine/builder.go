package engine

import (
	"encoding/json"
	"fmt"
	"net/http"
	"sort"
	"strconv"
	"strings"

	"github.com/Amr-9/rrt/internal/transport"
	"github.com/Amr-9/rrt/pkg/models"
)

const (
	userAgent   = "rrt/1.0"
	contentJSON = "application/json"
)

// ResolutionError reports a template or bearer reference that names a
// variable which was never captured.
type ResolutionError struct {
	Variable string
	Field    string // Where the reference appeared, e.g. "bearer_token" or "route"
}

func (e *ResolutionError) Error() string {
	if e.Field == "" {
		return fmt.Sprintf("variable %q was never captured", e.Variable)
	}
	return fmt.Sprintf("variable %q referenced by %s was never captured", e.Variable, e.Field)
}

// Builder turns a test case into a fully resolved transport.Request.
// It reads captured variables but never writes them.
type Builder struct {
	global   models.GlobalConfig
	fixtures map[string]string
	gen      *Generators
}

// NewBuilder creates a builder for one run. fixtures may be nil; a nil gen
// uses NewGenerators.
func NewBuilder(global models.GlobalConfig, fixtures map[string]string, gen *Generators) *Builder {
	if gen == nil {
		gen = NewGenerators()
	}
	return &Builder{global: global, fixtures: fixtures, gen: gen}
}

// Build resolves tc against the global config and vars.
func (b *Builder) Build(tc *models.TestCase, vars Variables) (*transport.Request, error) {
	s := &scope{vars: vars, fixtures: b.fixtures, gen: b.gen}

	route, err := s.render(tc.Route, "route")
	if err != nil {
		return nil, err
	}

	header, err := b.headers(tc, s)
	if err != nil {
		return nil, err
	}

	if tc.BearerToken != "" {
		token, ok := lookup(vars, tc.BearerToken)
		if !ok {
			return nil, &ResolutionError{Variable: tc.BearerToken, Field: "bearer_token"}
		}
		header.Set("Authorization", "Bearer "+token)
	}

	var body []byte
	if tc.JSONBody != nil {
		resolved, err := s.walk(tc.JSONBody, "json_body")
		if err != nil {
			return nil, err
		}
		body, err = json.Marshal(resolved)
		if err != nil {
			return nil, fmt.Errorf("failed to encode json_body: %w", err)
		}
		if header.Get("Content-Type") == "" {
			header.Set("Content-Type", contentJSON)
		}
	}

	return &transport.Request{
		Method:  strings.ToUpper(tc.Method),
		URL:     joinURL(b.global.APIAddress, route),
		Header:  header,
		Body:    body,
		Timeout: ResolveTimeBoundaries(tc, &b.global).Timeout(),
	}, nil
}

func (b *Builder) headers(tc *models.TestCase, s *scope) (http.Header, error) {
	header := make(http.Header)
	header.Set("User-Agent", userAgent)
	header.Set("Accept", "*/*")

	merged := ResolveHeaders(tc, &b.global)
	names := make([]string, 0, len(merged))
	for k := range merged {
		names = append(names, k)
	}
	sort.Strings(names)

	for _, k := range names {
		v, err := s.render(merged[k], "headers."+k)
		if err != nil {
			return nil, err
		}
		header.Set(k, v)
	}
	return header, nil
}

// ResolveTimeBoundaries returns the case boundaries, else the global ones,
// else DefaultTimeBoundaries.
func ResolveTimeBoundaries(tc *models.TestCase, g *models.GlobalConfig) models.TimeBoundaries {
	if tc.TimeBoundaries != nil {
		return *tc.TimeBoundaries
	}
	if g.TimeBoundaries != (models.TimeBoundaries{}) {
		return g.TimeBoundaries
	}
	return models.DefaultTimeBoundaries
}

// ResolveVerbose returns the case override, else the global flag.
func ResolveVerbose(tc *models.TestCase, g *models.GlobalConfig) bool {
	if tc.Verbose != nil {
		return *tc.Verbose
	}
	return g.Verbose
}

// ResolveDescription returns the declared description, or one generated from
// method, route and status unless auto_description is false.
func ResolveDescription(tc *models.TestCase) string {
	if tc.Description != "" {
		return tc.Description
	}
	if tc.AutoDescription != nil && !*tc.AutoDescription {
		return ""
	}
	return fmt.Sprintf("%s %s -> %d", strings.ToUpper(tc.Method), tc.Route, tc.ExpectedStatus)
}

// ResolveHeaders merges case headers over global headers.
func ResolveHeaders(tc *models.TestCase, g *models.GlobalConfig) map[string]string {
	merged := make(map[string]string, len(g.Headers)+len(tc.Headers))
	for k, v := range g.Headers {
		merged[k] = v
	}
	for k, v := range tc.Headers {
		merged[k] = v
	}
	return merged
}

func joinURL(base, route string) string {
	if route == "" {
		return base
	}
	if strings.HasSuffix(base, "/") && strings.HasPrefix(route, "/") {
		return base + route[1:]
	}
	if !strings.HasSuffix(base, "/") && !strings.HasPrefix(route, "/") && !strings.HasPrefix(route, "?") {
		return base + "/" + route
	}
	return base + route
}

func lookup(vars Variables, name string) (string, bool) {
	if vars == nil {
		return "", false
	}
	return vars.Lookup(name)
}

// scope resolves template references for a single build.
type scope struct {
	vars     Variables
	fixtures map[string]string
	gen      *Generators
	field    string
}

func (s *scope) render(input, field string) (string, error) {
	s.field = field
	return CompileTemplate(input).Execute(s)
}

// resolve looks a reference up in captured variables, then fixtures, then generators.
func (s *scope) resolve(ref string) (string, error) {
	if open := strings.IndexByte(ref, '('); open > 0 && strings.HasSuffix(ref, ")") {
		name := strings.TrimSpace(ref[:open])
		args := ref[open+1 : len(ref)-1]
		val, ok, err := s.gen.call(name, args)
		if err != nil {
			return "", fmt.Errorf("%s: %w", s.field, err)
		}
		if ok {
			return val, nil
		}
		return "", &ResolutionError{Variable: ref, Field: s.field}
	}

	if v, ok := lookup(s.vars, ref); ok {
		return v, nil
	}
	if v, ok := s.fixtures[ref]; ok {
		return v, nil
	}
	if v, ok := s.gen.value(ref); ok {
		return v, nil
	}
	return "", &ResolutionError{Variable: ref, Field: s.field}
}

// walk renders every string leaf of a decoded YAML value.
func (s *scope) walk(v interface{}, field string) (interface{}, error) {
	switch val := v.(type) {
	case string:
		return s.render(val, field)
	case map[string]interface{}:
		out := make(map[string]interface{}, len(val))
		for k, child := range val {
			r, err := s.walk(child, field+"."+k)
			if err != nil {
				return nil, err
			}
			out[k] = r
		}
		return out, nil
	case map[interface{}]interface{}:
		out := make(map[string]interface{}, len(val))
		for k, child := range val {
			key := fmt.Sprint(k)
			r, err := s.walk(child, field+"."+key)
			if err != nil {
				return nil, err
			}
			out[key] = r
		}
		return out, nil
	case []interface{}:
		out := make([]interface{}, len(val))
		for i, child := range val {
			r, err := s.walk(child, field+"["+strconv.Itoa(i)+"]")
			if err != nil {
				return nil, err
			}
			out[i] = r
		}
		return out, nil
	default:
		return v, nil
	}
}
