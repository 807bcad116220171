package apierr_test

import (
	"encoding/json"
	"testing"

	"github.com/jrsteele09/go-hr-session/apierr"
	"github.com/stretchr/testify/assert"
)

func TestFormatValidationErrors(t *testing.T) {
	const generic = "Some fields are invalid. Please review the form and try again."

	tests := []struct {
		name   string
		detail string
		want   string
	}{
		{
			name:   "field and message",
			detail: `[{"field":"email","message":"is invalid"},{"field":"start_date","message":"must be in the future"}]`,
			want:   "email: is invalid, start_date: must be in the future",
		},
		{
			name:   "fastapi loc and msg",
			detail: `[{"loc":["body","address","zip"],"msg":"too short"},{"loc":["query",3],"msg":"bad index"}]`,
			want:   "address.zip: too short, 3: bad index",
		},
		{
			name:   "skips incomplete entries",
			detail: `[{"field":"email"},{"msg":"orphan"},{"field":"name","message":"required"}]`,
			want:   "name: required",
		},
		{name: "empty list", detail: `[]`, want: generic},
		{name: "not a list", detail: `{"field":"email","message":"x"}`, want: generic},
		{name: "garbage", detail: `not json`, want: generic},
		{name: "list of strings", detail: `["a","b"]`, want: generic},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, apierr.FormatValidationErrors(json.RawMessage(tt.detail)))
		})
	}
}
