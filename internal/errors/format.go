package errors

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"sort"
	"strings"
)

// FormatForUser returns a user-friendly error message.
// If verbose is true, details and the underlying cause are included.
func FormatForUser(err error, verbose bool) string {
	if err == nil {
		return ""
	}

	we, ok := as(err)
	if !ok {
		return err.Error()
	}

	var sb strings.Builder

	sb.WriteString("Error: ")
	sb.WriteString(we.Message)
	sb.WriteString("\n")

	if verbose {
		for _, k := range sortedKeys(we.Details) {
			sb.WriteString(fmt.Sprintf("  %s: %s\n", k, we.Details[k]))
		}
		if we.Cause != nil && we.Cause.Error() != we.Message {
			sb.WriteString(fmt.Sprintf("  cause: %s\n", we.Cause))
		}
	}

	if we.Suggestion != "" {
		sb.WriteString("\nSuggestion: ")
		sb.WriteString(we.Suggestion)
		sb.WriteString("\n")
	}

	sb.WriteString(fmt.Sprintf("\n[%s]", we.Code))

	return sb.String()
}

// FormatForCLI formats an error for CLI output.
// Uses a concise format suitable for terminal display.
func FormatForCLI(err error) string {
	if err == nil {
		return ""
	}

	we, ok := as(err)
	if !ok {
		we = Wrap(ErrCodeInternal, err)
	}

	var sb strings.Builder
	sb.WriteString(fmt.Sprintf("Error: %s\n", we.Message))
	if root, ok := we.Details["root"]; ok {
		sb.WriteString(fmt.Sprintf("  Root: %s\n", root))
	}
	if we.Suggestion != "" {
		sb.WriteString(fmt.Sprintf("  Hint: %s\n", we.Suggestion))
	}
	sb.WriteString(fmt.Sprintf("  Code: %s\n", we.Code))

	return sb.String()
}

// jsonError is the JSON representation of an error.
type jsonError struct {
	Code       string            `json:"code"`
	Message    string            `json:"message"`
	Category   string            `json:"category"`
	Severity   string            `json:"severity"`
	Details    map[string]string `json:"details,omitempty"`
	Suggestion string            `json:"suggestion,omitempty"`
	Cause      string            `json:"cause,omitempty"`
	Retryable  bool              `json:"retryable"`
}

// FormatJSON returns a JSON representation of the error.
// Used by the CLI when --format=json is selected.
func FormatJSON(err error) ([]byte, error) {
	if err == nil {
		return json.Marshal(nil)
	}

	we, ok := as(err)
	if !ok {
		we = Wrap(ErrCodeInternal, err)
	}

	je := jsonError{
		Code:       we.Code,
		Message:    we.Message,
		Category:   string(we.Category),
		Severity:   string(we.Severity),
		Details:    we.Details,
		Suggestion: we.Suggestion,
		Retryable:  we.Retryable,
	}
	if we.Cause != nil {
		je.Cause = we.Cause.Error()
	}

	return json.Marshal(je)
}

// LogAttrs returns slog attributes describing err.
// Plain errors produce a single "error" attribute.
func LogAttrs(err error) []any {
	if err == nil {
		return nil
	}

	we, ok := as(err)
	if !ok {
		return []any{slog.String("error", err.Error())}
	}

	attrs := []any{
		slog.String("error_code", we.Code),
		slog.String("error", we.Message),
		slog.String("category", string(we.Category)),
		slog.String("severity", string(we.Severity)),
		slog.Bool("retryable", we.Retryable),
	}
	if we.Cause != nil {
		attrs = append(attrs, slog.String("cause", we.Cause.Error()))
	}
	for _, k := range sortedKeys(we.Details) {
		attrs = append(attrs, slog.String("detail_"+k, we.Details[k]))
	}
	return attrs
}

func sortedKeys(m map[string]string) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// FormatForLog returns err as a flat map for structured sinks that are not
// slog, such as the JSON change stream.
func FormatForLog(err error) map[string]any {
	if err == nil {
		return nil
	}

	we, ok := as(err)
	if !ok {
		return map[string]any{"error": err.Error()}
	}

	result := map[string]any{
		"error_code": we.Code,
		"message":    we.Message,
		"category":   string(we.Category),
		"severity":   string(we.Severity),
		"retryable":  we.Retryable,
	}
	if we.Cause != nil {
		result["cause"] = we.Cause.Error()
	}
	if we.Suggestion != "" {
		result["suggestion"] = we.Suggestion
	}
	for k, v := range we.Details {
		result["detail_"+k] = v
	}
	return result
}
