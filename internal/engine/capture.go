package engine

import (
	"fmt"
	"sort"
	"strings"

	"github.com/Amr-9/rrt/internal/transport"
	"github.com/tidwall/gjson"
)

// headerPrefix marks a capture that reads a response header instead of the body.
const headerPrefix = "header:"

// CaptureError reports a capture key missing from an otherwise successful response.
type CaptureError struct {
	Variable string
	Key      string
	Reason   string
}

func (e *CaptureError) Error() string {
	return fmt.Sprintf("capture %q: key %q %s", e.Variable, e.Key, e.Reason)
}

// extractCaptures reads every capture entry from resp. Keys are looked up at
// the top level of the JSON body only. Either all entries resolve or an
// error is returned and nothing is captured.
func extractCaptures(capture map[string]string, resp *transport.Response) (map[string]string, error) {
	if len(capture) == 0 {
		return nil, nil
	}

	names := make([]string, 0, len(capture))
	for name := range capture {
		names = append(names, name)
	}
	sort.Strings(names)

	var (
		root   gjson.Result
		parsed bool
	)
	captured := make(map[string]string, len(capture))

	for _, name := range names {
		key := capture[name]

		if header, ok := strings.CutPrefix(key, headerPrefix); ok {
			values := resp.Header.Values(strings.TrimSpace(header))
			if len(values) == 0 {
				return nil, &CaptureError{Variable: name, Key: key, Reason: "not present in response headers"}
			}
			captured[name] = values[0]
			continue
		}

		if !parsed {
			if !gjson.ValidBytes(resp.Body) {
				return nil, &CaptureError{Variable: name, Key: key, Reason: "not found: response body is not valid JSON"}
			}
			root = gjson.ParseBytes(resp.Body)
			parsed = true
		}
		if !root.IsObject() {
			return nil, &CaptureError{Variable: name, Key: key, Reason: "not found: response body is not a JSON object"}
		}

		value, ok := topLevel(root, key)
		if !ok {
			return nil, &CaptureError{Variable: name, Key: key, Reason: "not found in response body"}
		}
		captured[name] = value
	}

	return captured, nil
}

// topLevel returns the member key of obj. Strings are unquoted, every other
// type is returned as raw JSON. A null member counts as absent.
func topLevel(obj gjson.Result, key string) (string, bool) {
	var (
		found gjson.Result
		ok    bool
	)
	obj.ForEach(func(k, v gjson.Result) bool {
		if k.String() == key {
			found, ok = v, true
			return false
		}
		return true
	})
	if !ok || found.Type == gjson.Null {
		return "", false
	}
	if found.Type == gjson.String {
		return found.String(), true
	}
	return found.Raw, true
}
