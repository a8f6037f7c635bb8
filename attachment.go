package chatsdk

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"strconv"
	"strings"
)

// AttachmentUploader posts files to the channel's attachment endpoint over
// plain HTTP. Uploads happen outside the socket; the resulting URL is then
// attached to an outbound message.
type AttachmentUploader struct {
	client  *http.Client
	baseURL string
}

// NewAttachmentUploader returns an uploader for the given upload endpoint.
// A nil httpClient falls back to http.DefaultClient.
func NewAttachmentUploader(baseURL string, httpClient *http.Client) *AttachmentUploader {
	if httpClient == nil {
		httpClient = http.DefaultClient
	}
	return &AttachmentUploader{client: httpClient, baseURL: strings.TrimRight(baseURL, "/")}
}

// AttachmentError is the parsed failure response from the upload endpoint.
// The server sends the numeric limits as strings.
type AttachmentError struct {
	AllowedFileSize      float64
	AllowedFileTypes     []string
	IsAttachmentsEnabled bool
}

// Error implements the error interface.
func (e *AttachmentError) Error() string {
	if !e.IsAttachmentsEnabled {
		return "attachment upload rejected: attachments are disabled for this channel"
	}
	return fmt.Sprintf("attachment upload rejected: allowed size %.0f MB, allowed types %s",
		e.AllowedFileSize, strings.Join(e.AllowedFileTypes, ", "))
}

type uploadSuccessBody struct {
	FileURL string `json:"fileUrl"`
}

type uploadFailureBody struct {
	AllowedFileSize      string `json:"allowedFileSize"`
	AllowedFileTypes     string `json:"allowedFileTypes"`
	IsAttachmentsEnabled string `json:"isAttachmentsEnabled"`
}

// Upload posts the file as a multipart form and returns an Attachment ready
// to send with a message. A 2xx body carries the hosted file URL; any other
// status is parsed as an AttachmentError when the body allows it.
func (u *AttachmentUploader) Upload(ctx context.Context, brandID int, channelID, filename, mimeType string, content io.Reader) (Attachment, error) {
	var body bytes.Buffer
	form := multipart.NewWriter(&body)
	part, err := form.CreateFormFile("file", filename)
	if err != nil {
		return Attachment{}, fmt.Errorf("build upload form: %w", err)
	}
	if _, err := io.Copy(part, content); err != nil {
		return Attachment{}, fmt.Errorf("read attachment content: %w", err)
	}
	if err := form.WriteField("mimeType", mimeType); err != nil {
		return Attachment{}, fmt.Errorf("build upload form: %w", err)
	}
	if err := form.Close(); err != nil {
		return Attachment{}, fmt.Errorf("build upload form: %w", err)
	}

	url := fmt.Sprintf("%s/1.0/brand/%d/channel/%s/attachment", u.baseURL, brandID, channelID)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, &body)
	if err != nil {
		return Attachment{}, fmt.Errorf("build upload request: %w", err)
	}
	req.Header.Set("Content-Type", form.FormDataContentType())

	resp, err := u.client.Do(req)
	if err != nil {
		return Attachment{}, fmt.Errorf("upload attachment: %w", err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return Attachment{}, fmt.Errorf("read upload response: %w", err)
	}

	if resp.StatusCode >= 200 && resp.StatusCode < 300 {
		var ok uploadSuccessBody
		if err := json.Unmarshal(respBody, &ok); err != nil || ok.FileURL == "" {
			return Attachment{}, fmt.Errorf("upload response missing file url (status %d)", resp.StatusCode)
		}
		return Attachment{URL: ok.FileURL, FriendlyName: filename, MimeType: mimeType}, nil
	}

	if attErr := parseUploadFailure(respBody); attErr != nil {
		return Attachment{}, attErr
	}
	return Attachment{}, fmt.Errorf("upload attachment: unexpected status %d", resp.StatusCode)
}

// parseUploadFailure decodes the failure body. Its numeric fields arrive as
// strings and need explicit parsing; a body that does not match returns nil.
func parseUploadFailure(body []byte) *AttachmentError {
	var raw uploadFailureBody
	if err := json.Unmarshal(body, &raw); err != nil {
		return nil
	}
	if raw.AllowedFileSize == "" && raw.AllowedFileTypes == "" && raw.IsAttachmentsEnabled == "" {
		return nil
	}
	out := &AttachmentError{}
	if size, err := strconv.ParseFloat(raw.AllowedFileSize, 64); err == nil {
		out.AllowedFileSize = size
	}
	if raw.AllowedFileTypes != "" {
		for _, t := range strings.Split(raw.AllowedFileTypes, ",") {
			if t = strings.TrimSpace(t); t != "" {
				out.AllowedFileTypes = append(out.AllowedFileTypes, t)
			}
		}
	}
	if enabled, err := strconv.ParseBool(raw.IsAttachmentsEnabled); err == nil {
		out.IsAttachmentsEnabled = enabled
	}
	return out
}
