package apierr

import (
	"encoding/json"
	"fmt"
	"strings"
)

const defaultValidationMessage = "Some fields are invalid. Please review the form and try again."

// locationPrefixes are request-part markers at the head of a FastAPI "loc" path.
var locationPrefixes = map[string]struct{}{"body": {}, "query": {}, "path": {}, "header": {}}

type fieldError struct {
	Field   string `json:"field"`
	Loc     []any  `json:"loc"`
	Message string `json:"message"`
	Msg     string `json:"msg"`
}

func (f fieldError) name() string {
	if f.Field != "" {
		return f.Field
	}
	parts := make([]string, 0, len(f.Loc))
	for i, p := range f.Loc {
		s := fmt.Sprint(p)
		if _, ok := locationPrefixes[s]; ok && i == 0 {
			continue
		}
		parts = append(parts, s)
	}
	return strings.Join(parts, ".")
}

func (f fieldError) text() string {
	if f.Message != "" {
		return f.Message
	}
	return f.Msg
}

// FormatValidationErrors renders a JSON list of field errors, either
// {"field","message"} or FastAPI {"loc","msg"} objects, as
// "<field>: <message>" entries joined by ", ". An empty or malformed list
// yields a generic sentence.
func FormatValidationErrors(detail json.RawMessage) string {
	if s, ok := formatFieldErrors(detail); ok {
		return s
	}
	return defaultValidationMessage
}

func formatFieldErrors(detail json.RawMessage) (string, bool) {
	var items []json.RawMessage
	if err := json.Unmarshal(detail, &items); err != nil {
		return "", false
	}

	entries := make([]string, 0, len(items))
	for _, item := range items {
		var fe fieldError
		if err := json.Unmarshal(item, &fe); err != nil {
			continue
		}
		name, text := fe.name(), strings.TrimSpace(fe.text())
		if name == "" || text == "" {
			continue
		}
		entries = append(entries, name+": "+text)
	}
	if len(entries) == 0 {
		return "", false
	}
	return strings.Join(entries, ", "), true
}
