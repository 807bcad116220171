package apierr

import (
	"encoding/json"
	"errors"
	"net/http"
	"strings"
)

const (
	msgTimeout       = "The request took too long. Please try again."
	msgNetwork       = "Unable to connect to the server. Check your connection and try again."
	msgBadRequest    = "The submitted data is invalid."
	msgUnauthorized  = "Invalid credentials."
	msgForbidden     = "You do not have permission to perform this action."
	msgNotFound      = "The requested resource was not found."
	msgConflict      = "This conflicts with existing data."
	msgValidation    = "Please check your input and try again."
	msgRateLimit     = "Too many requests. Please wait a moment and try again."
	msgServer        = "The server encountered an error. Please try again later."
	msgUnknownStatus = "An unexpected error occurred."
	msgUnknown       = "An unknown error occurred."
)

// Classify maps the outcome of a failed request to an Info. It is pure: the
// same err always yields the same Info. A nil err has nothing to describe and
// classifies as UNKNOWN.
func Classify(err error) Info {
	if err == nil {
		return Info{Title: "Unknown error", Message: msgUnknown, Code: CodeUnknown}
	}

	var classified *Error
	if errors.As(err, &classified) {
		return classified.Info
	}

	var respErr *ResponseError
	if errors.As(err, &respErr) {
		return classifyStatus(respErr.StatusCode, serverMessage(respErr.Body))
	}

	if isNoResponse(err) {
		if isTimeout(err) {
			return Info{Title: "Request timed out", Message: msgTimeout, Action: ActionRetry, Code: CodeTimeout}
		}
		return Info{Title: "Connection error", Message: msgNetwork, Action: ActionRetry, Code: CodeNetwork}
	}

	msg := strings.TrimSpace(err.Error())
	if msg == "" {
		msg = msgUnknown
	}
	return Info{Title: "Error", Message: msg, Code: CodeGeneric}
}

func classifyStatus(status int, serverMsg string) Info {
	orElse := func(fallback string) string {
		if serverMsg != "" {
			return serverMsg
		}
		return fallback
	}

	switch {
	case status == http.StatusBadRequest:
		return Info{Title: "Invalid request", Message: orElse(msgBadRequest), Code: CodeBadRequest}
	case status == http.StatusUnauthorized:
		return Info{Title: "Authentication failed", Message: orElse(msgUnauthorized), Code: CodeUnauthorized}
	case status == http.StatusForbidden:
		return Info{Title: "Access denied", Message: orElse(msgForbidden), Code: CodeForbidden}
	case status == http.StatusNotFound:
		return Info{Title: "Not found", Message: orElse(msgNotFound), Code: CodeNotFound}
	case status == http.StatusConflict:
		return Info{Title: "Conflict", Message: orElse(msgConflict), Code: CodeConflict}
	case status == http.StatusUnprocessableEntity:
		return Info{Title: "Validation error", Message: orElse(msgValidation), Code: CodeValidation}
	case status == http.StatusTooManyRequests:
		return Info{Title: "Too many requests", Message: msgRateLimit, Action: ActionWait, Code: CodeRateLimit}
	case status >= 500 && status <= 599:
		return Info{Title: "Server error", Message: msgServer, Action: ActionRetry, Code: CodeServer}
	}
	return Info{Title: "Unexpected response", Message: orElse(msgUnknownStatus), Code: CodeUnknownStatus}
}

// serverMessage pulls a human message out of an error body. A "detail" list of
// field errors is flattened with FormatValidationErrors.
func serverMessage(body []byte) string {
	if len(body) == 0 {
		return ""
	}
	var fields map[string]json.RawMessage
	if err := json.Unmarshal(body, &fields); err != nil {
		return ""
	}

	if raw, ok := fields["detail"]; ok {
		if s := rawString(raw); s != "" {
			return s
		}
		if s, ok := formatFieldErrors(raw); ok {
			return s
		}
	}
	for _, key := range []string{"message", "error_description", "error"} {
		if s := rawString(fields[key]); s != "" {
			return s
		}
	}
	return ""
}

func rawString(raw json.RawMessage) string {
	if len(raw) == 0 {
		return ""
	}
	var s string
	if err := json.Unmarshal(raw, &s); err != nil {
		return ""
	}
	return strings.TrimSpace(s)
}
