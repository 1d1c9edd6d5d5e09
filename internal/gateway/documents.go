package gateway

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"net/textproto"
	"net/url"

	"github.com/taskdocs/agentic-web-ui/internal/models"
)

type fileInfo struct {
	FileID      string `json:"file_id"`
	Filename    string `json:"filename"`
	FileSize    int64  `json:"file_size"`
	UploadTime  string `json:"upload_time"`
	ContentType string `json:"content_type"`
}

type uploadResponse struct {
	fileInfo
	Message string `json:"message"`
}

type deleteResponse struct {
	Message string `json:"message"`
}

type questionRequest struct {
	FileID   string `json:"file_id"`
	Question string `json:"question"`
}

type agentResponse struct {
	FileID       string `json:"file_id"`
	Question     string `json:"question"`
	Answer       string `json:"answer"`
	ResponseTime string `json:"response_time"`
	AgentType    string `json:"agent_type"`
}

type chatMessage struct {
	Timestamp string `json:"timestamp"`
	Question  string `json:"question"`
	Answer    string `json:"answer"`
	AgentType string `json:"agent_type"`
}

type chatHistory struct {
	FileID        string        `json:"file_id"`
	Conversations []chatMessage `json:"conversations"`
}

func (f fileInfo) document() models.Document {
	return models.Document{
		ID:         f.FileID,
		Name:       f.Filename,
		MediaType:  f.ContentType,
		Size:       f.FileSize,
		UploadedAt: parseTime(f.UploadTime),
	}
}

// Upload submits the file as a multipart request with the declared media type on the file part.
// The caller is expected to have run the local upload policy first; the service re-checks it and
// answers with a rejection of its own when it disagrees.
func (c *Client) Upload(ctx context.Context, filename, mediaType string, content io.Reader) (models.Document, error) {
	var body bytes.Buffer
	mw := multipart.NewWriter(&body)

	header := textproto.MIMEHeader{}
	header.Set("Content-Disposition", fmt.Sprintf(`form-data; name="file"; filename=%q`, filename))
	header.Set("Content-Type", mediaType)
	part, err := mw.CreatePart(header)
	if err != nil {
		return models.Document{}, fmt.Errorf("upload: error creating form part: %w", err)
	}
	if _, err := io.Copy(part, content); err != nil {
		return models.Document{}, fmt.Errorf("upload: error writing file content: %w", err)
	}
	if err := mw.Close(); err != nil {
		return models.Document{}, fmt.Errorf("upload: error finalizing form: %w", err)
	}

	req, err := c.newRequest(ctx, http.MethodPost, "/agentic/upload", &body)
	if err != nil {
		return models.Document{}, err
	}
	req.Header.Set("Content-Type", mw.FormDataContentType())

	var res uploadResponse
	if err := c.send("upload", req, &res); err != nil {
		return models.Document{}, err
	}
	return res.document(), nil
}

// ListDocuments fetches the user's uploaded documents. An empty list is a valid result, not an
// error.
func (c *Client) ListDocuments(ctx context.Context) ([]models.Document, error) {
	var res []fileInfo
	if err := c.getJSON(ctx, "list documents", "/agentic/files", &res); err != nil {
		return nil, err
	}

	docs := make([]models.Document, len(res))
	for i, f := range res {
		docs[i] = f.document()
	}
	return docs, nil
}

// DeleteDocument removes the document with the given id. Deleting an id the service no longer
// knows comes back as a rejection; whether that is worth surfacing is the caller's call.
func (c *Client) DeleteDocument(ctx context.Context, id string) error {
	req, err := c.newRequest(ctx, http.MethodDelete, "/agentic/files/"+url.PathEscape(id), nil)
	if err != nil {
		return err
	}
	return c.send("delete document", req, &deleteResponse{})
}

// FetchHistory retrieves the full conversation for a document, oldest first. A document without
// prior conversation yields an empty slice.
func (c *Client) FetchHistory(ctx context.Context, id string) ([]models.ChatMessage, error) {
	var res chatHistory
	if err := c.getJSON(ctx, "fetch history", "/agentic/chat/"+url.PathEscape(id), &res); err != nil {
		return nil, err
	}

	msgs := make([]models.ChatMessage, len(res.Conversations))
	for i, m := range res.Conversations {
		msgs[i] = models.ChatMessage{
			Question:  m.Question,
			Answer:    m.Answer,
			AgentType: m.AgentType,
			Timestamp: parseTime(m.Timestamp),
			State:     models.MessageStateFinal,
		}
	}
	return msgs, nil
}

// Ask submits a question about the document and blocks until the agent answers. This is the
// latency-bearing call of the whole client; no retry is attempted here.
func (c *Client) Ask(ctx context.Context, id, question string) (models.ChatMessage, error) {
	var res agentResponse
	err := c.sendJSON(ctx, "ask", http.MethodPost, "/agentic/ask", questionRequest{
		FileID:   id,
		Question: question,
	}, &res)
	if err != nil {
		return models.ChatMessage{}, err
	}

	return models.ChatMessage{
		Question:  res.Question,
		Answer:    res.Answer,
		AgentType: res.AgentType,
		Timestamp: parseTime(res.ResponseTime),
		State:     models.MessageStateFinal,
	}, nil
}
