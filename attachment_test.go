package chatsdk_test

import (
	"context"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	chatsdk "github.com/openlivechat/chatsdk-go"
)

// TestUploadAttachmentSuccess verifies the multipart request shape and the
// success response mapping.
func TestUploadAttachmentSuccess(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "/1.0/brand/42/channel/chat_1/attachment", r.URL.Path)

		require.NoError(t, r.ParseMultipartForm(1<<20))
		file, header, err := r.FormFile("file")
		require.NoError(t, err)
		defer file.Close()

		content, err := io.ReadAll(file)
		require.NoError(t, err)
		assert.Equal(t, "receipt.pdf", header.Filename)
		assert.Equal(t, "fake pdf bytes", string(content))
		assert.Equal(t, "application/pdf", r.FormValue("mimeType"))

		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"fileUrl": "https://cdn.example.com/receipt.pdf"}`))
	}))
	defer srv.Close()

	uploader := chatsdk.NewAttachmentUploader(srv.URL, srv.Client())
	att, err := uploader.Upload(context.Background(), 42, "chat_1",
		"receipt.pdf", "application/pdf", strings.NewReader("fake pdf bytes"))
	require.NoError(t, err)

	assert.Equal(t, "https://cdn.example.com/receipt.pdf", att.URL)
	assert.Equal(t, "receipt.pdf", att.FriendlyName)
	assert.Equal(t, "application/pdf", att.MimeType)
}

// TestUploadAttachmentRejected verifies the failure body's string-encoded
// numerics are parsed into a typed error.
func TestUploadAttachmentRejected(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusBadRequest)
		_, _ = w.Write([]byte(`{
			"allowedFileSize": "40",
			"allowedFileTypes": "image/png, image/jpeg",
			"isAttachmentsEnabled": "true"
		}`))
	}))
	defer srv.Close()

	uploader := chatsdk.NewAttachmentUploader(srv.URL, srv.Client())
	_, err := uploader.Upload(context.Background(), 42, "chat_1",
		"huge.bin", "application/octet-stream", strings.NewReader("x"))
	require.Error(t, err)

	var attErr *chatsdk.AttachmentError
	require.True(t, errors.As(err, &attErr))
	assert.Equal(t, float64(40), attErr.AllowedFileSize)
	assert.Equal(t, []string{"image/png", "image/jpeg"}, attErr.AllowedFileTypes)
	assert.True(t, attErr.IsAttachmentsEnabled)
}

// TestUploadAttachmentDisabled verifies the attachments-disabled flag is
// surfaced.
func TestUploadAttachmentDisabled(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusForbidden)
		_, _ = w.Write([]byte(`{"allowedFileSize": "0", "allowedFileTypes": "", "isAttachmentsEnabled": "false"}`))
	}))
	defer srv.Close()

	uploader := chatsdk.NewAttachmentUploader(srv.URL, srv.Client())
	_, err := uploader.Upload(context.Background(), 42, "chat_1",
		"a.png", "image/png", strings.NewReader("x"))
	require.Error(t, err)

	var attErr *chatsdk.AttachmentError
	require.True(t, errors.As(err, &attErr))
	assert.False(t, attErr.IsAttachmentsEnabled)
	assert.Contains(t, attErr.Error(), "disabled")
}

// TestUploadAttachmentUnexpectedStatus verifies a failure body that matches
// nothing yields a plain error, not a panic or an empty typed error.
func TestUploadAttachmentUnexpectedStatus(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
		_, _ = w.Write([]byte(`upstream exploded`))
	}))
	defer srv.Close()

	uploader := chatsdk.NewAttachmentUploader(srv.URL, srv.Client())
	_, err := uploader.Upload(context.Background(), 42, "chat_1",
		"a.png", "image/png", strings.NewReader("x"))
	require.Error(t, err)

	var attErr *chatsdk.AttachmentError
	assert.False(t, errors.As(err, &attErr))
	assert.Contains(t, err.Error(), "502")
}

// TestUploadAttachmentMissingFileURL verifies a 2xx response without a file
// url is an error.
func TestUploadAttachmentMissingFileURL(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{}`))
	}))
	defer srv.Close()

	uploader := chatsdk.NewAttachmentUploader(srv.URL, srv.Client())
	_, err := uploader.Upload(context.Background(), 42, "chat_1",
		"a.png", "image/png", strings.NewReader("x"))
	assert.Error(t, err)
}
