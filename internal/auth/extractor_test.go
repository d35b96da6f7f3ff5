package auth

import (
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestExtractBearerToken(t *testing.T) {
	tests := []struct {
		name          string
		authorization string
		want          string
	}{
		{
			name:          "valid bearer",
			authorization: "Bearer abc.def.ghi",
			want:          "abc.def.ghi",
		},
		{
			name:          "no header",
			authorization: "",
			want:          "",
		},
		{
			name:          "lowercase scheme rejected",
			authorization: "bearer abc",
			want:          "",
		},
		{
			name:          "basic scheme rejected",
			authorization: "Basic dXNlcjpwYXNz",
			want:          "",
		},
		{
			name:          "surrounding whitespace trimmed",
			authorization: "Bearer   abc  ",
			want:          "abc",
		},
		{
			name:          "scheme only",
			authorization: "Bearer ",
			want:          "",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req, _ := http.NewRequest(http.MethodGet, "/", nil)
			if tt.authorization != "" {
				req.Header.Set("Authorization", tt.authorization)
			}
			assert.Equal(t, tt.want, ExtractBearerToken(req))
		})
	}
}

func TestExtractor_APIKey(t *testing.T) {
	extractor := NewExtractor("X-Service-Key")

	req, _ := http.NewRequest(http.MethodGet, "/", nil)
	assert.Empty(t, extractor.APIKey(req))

	req.Header.Set("X-Service-Key", "  sk-12345  ")
	assert.Equal(t, "sk-12345", extractor.APIKey(req))
}

func TestExtractor_DefaultHeader(t *testing.T) {
	extractor := NewExtractor("")

	req, _ := http.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set(DefaultAPIKeyHeader, "sk-abc")
	assert.Equal(t, "sk-abc", extractor.APIKey(req))
}
