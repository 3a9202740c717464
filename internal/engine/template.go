package engine

import "strings"

// templatePart is either a static literal or a variable/function reference.
type templatePart struct {
	isLiteral bool
	literal   string // set when isLiteral == true
	ref       string // content between {{ and }}, set when isLiteral == false
}

// Template is a parsed string with {{name}} or {{func(args)}} references.
type Template struct {
	parts   []templatePart
	hasVars bool // false → purely static string, Execute returns parts[0].literal
}

// CompileTemplate parses a template string.
func CompileTemplate(input string) *Template {
	// Fast-path: no placeholders at all.
	if !strings.Contains(input, "{{") {
		return &Template{
			parts:   []templatePart{{isLiteral: true, literal: input}},
			hasVars: false,
		}
	}

	t := &Template{hasVars: true}
	remaining := input
	for {
		start := strings.Index(remaining, "{{")
		if start == -1 {
			if remaining != "" {
				t.parts = append(t.parts, templatePart{isLiteral: true, literal: remaining})
			}
			break
		}
		// Literal text before {{
		if start > 0 {
			t.parts = append(t.parts, templatePart{isLiteral: true, literal: remaining[:start]})
		}
		afterOpen := remaining[start+2:]
		end := strings.Index(afterOpen, "}}")
		if end == -1 {
			// Unterminated: treat the rest as a literal.
			t.parts = append(t.parts, templatePart{isLiteral: true, literal: remaining[start:]})
			break
		}
		ref := strings.TrimSpace(afterOpen[:end])
		t.parts = append(t.parts, templatePart{isLiteral: false, ref: ref})
		remaining = afterOpen[end+2:]
	}
	return t
}

// Execute renders the template. The first reference the scope cannot
// resolve aborts rendering with a *ResolutionError.
func (t *Template) Execute(s *scope) (string, error) {
	if !t.hasVars {
		return t.parts[0].literal, nil
	}

	var sb strings.Builder
	for i := range t.parts {
		p := &t.parts[i]
		if p.isLiteral {
			sb.WriteString(p.literal)
			continue
		}
		val, err := s.resolve(p.ref)
		if err != nil {
			return "", err
		}
		sb.WriteString(val)
	}
	return sb.String(), nil
}
