package enrich

import (
	"strings"
	"testing"
	"unicode/utf8"

	"github.com/stretchr/testify/assert"
)

func TestValidatePageURL(t *testing.T) {
	tests := []struct {
		name    string
		url     string
		wantErr bool
	}{
		{"https allowed", "https://example.com/guide", false},
		{"http allowed", "http://example.com", false},
		{"ftp rejected", "ftp://example.com/file", true},
		{"file rejected", "file:///etc/passwd", true},
		{"localhost rejected", "http://localhost:8080/admin", true},
		{"loopback rejected", "http://127.0.0.1/", true},
		{"private IP rejected", "http://10.0.0.5/internal", true},
		{"link-local rejected", "http://169.254.169.254/metadata", true},
		{"local domain rejected", "http://nas.local/share", true},
		{"internal domain rejected", "http://db.internal/status", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := validatePageURL(tt.url)
			if tt.wantErr {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestTruncateAtBoundary(t *testing.T) {
	assert.Equal(t, "short text", truncateAtBoundary("short text", 100))

	long := strings.Repeat("A line of digest text.\n", 40)
	cut := truncateAtBoundary(long, 200)
	assert.LessOrEqual(t, len(cut), 205)
	assert.True(t, strings.HasSuffix(cut, "…"))
	// The cut lands on a line boundary, not mid-sentence.
	body := strings.TrimSuffix(cut, "\n…")
	assert.True(t, strings.HasSuffix(body, "A line of digest text."))
}

func TestTruncateAtBoundary_RuneBoundary(t *testing.T) {
	// Multibyte text with no line breaks: the cut must not split a rune.
	long := strings.Repeat("日", 100)
	cut := truncateAtBoundary(long, 50)

	assert.True(t, utf8.ValidString(cut))
	assert.Equal(t, strings.Repeat("日", 16)+"\n…", cut)
}

func TestNewDigester_Defaults(t *testing.T) {
	d := NewDigester(0, 0)
	assert.Equal(t, 1200, d.maxChars)
	assert.NotNil(t, d.converter)
}
