package models

import "time"

// Document represents a file the user has uploaded to the remote service for analysis. The ID is
// assigned by the server and is the handle every other operation uses; the remaining fields are
// metadata echoed back by the service and never change after upload.
type Document struct {
	ID         string
	Name       string
	MediaType  string
	Size       int64
	UploadedAt time.Time
}
