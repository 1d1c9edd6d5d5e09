package session

import (
	"fmt"
	"strings"
)

// MaxUploadSize is the byte ceiling for a single upload. The service enforces the same limit on
// its side; checking here saves the round trip.
const MaxUploadSize = 10 << 20

// allowedMediaTypes is the fixed allow-list of declared media types accepted for upload.
var allowedMediaTypes = map[string]struct{}{
	"text/plain":       {},
	"text/csv":         {},
	"application/json": {},
	"text/markdown":    {},
	"text/html":        {},
}

// ValidationError reports a local upload policy rejection. No network call has been made when one
// of these is returned.
type ValidationError struct {
	Reason string
}

func (e *ValidationError) Error() string { return e.Reason }

// ValidateUpload checks a candidate file's declared media type and size against the upload
// policy before any network call. Media type parameters (e.g. "; charset=utf-8") are ignored.
// This check is advisory: the service remains the authority and may still reject the upload.
func ValidateUpload(filename, mediaType string, size int64) error {
	normalized := strings.ToLower(strings.TrimSpace(mediaType))
	if base, _, ok := strings.Cut(normalized, ";"); ok {
		normalized = strings.TrimSpace(base)
	}

	if _, ok := allowedMediaTypes[normalized]; !ok {
		return &ValidationError{
			Reason: fmt.Sprintf("unsupported file type %q: only plain text, CSV, JSON, Markdown and HTML files are accepted", mediaType),
		}
	}
	if size > MaxUploadSize {
		return &ValidationError{
			Reason: fmt.Sprintf("file %q is too large: the limit is 10 MiB", filename),
		}
	}
	return nil
}
