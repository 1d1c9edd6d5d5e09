package session_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/taskdocs/agentic-web-ui/internal/session"
)

func TestValidateUpload(t *testing.T) {
	tests := []struct {
		name      string
		filename  string
		mediaType string
		size      int64
		wantErr   bool
	}{
		{"plain text", "notes.txt", "text/plain", 1024, false},
		{"csv", "data.csv", "text/csv", 1024, false},
		{"json", "payload.json", "application/json", 1024, false},
		{"markdown", "readme.md", "text/markdown", 1024, false},
		{"html", "page.html", "text/html", 1024, false},
		{"charset parameter ignored", "notes.txt", "text/plain; charset=utf-8", 1024, false},
		{"mixed case", "notes.txt", "Text/Plain", 1024, false},
		{"exactly at the limit", "big.txt", "text/plain", session.MaxUploadSize, false},
		{"pdf rejected", "report.pdf", "application/pdf", 1024, true},
		{"image rejected", "photo.png", "image/png", 1024, true},
		{"empty media type rejected", "mystery", "", 1024, true},
		{"over the limit", "huge.txt", "text/plain", session.MaxUploadSize + 1, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := session.ValidateUpload(tt.filename, tt.mediaType, tt.size)
			if tt.wantErr {
				var ve *session.ValidationError
				assert.ErrorAs(t, err, &ve)
				assert.NotEmpty(t, ve.Reason)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}
