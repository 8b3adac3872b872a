package testutil

import (
	"bytes"
	"context"
	"io"
	"mime"
	"mime/multipart"
	"net/textproto"
	"sync"
	"testing"
)

var (
	PNGHeader  = []byte("\x89PNG\r\n\x1a\n\x00\x00\x00\rIHDR")
	JPEGHeader = []byte("\xff\xd8\xff\xe0\x00\x10JFIF\x00")
	WebPHeader = []byte("RIFF\x24\x00\x00\x00WEBPVP8 ")
)

// Image returns size bytes starting with header.
func Image(header []byte, size int) []byte {
	b := make([]byte, size)
	copy(b, header)
	return b
}

// FileHeader builds a multipart file header holding data, as a parsed form would.
func FileHeader(t *testing.T, field, filename string, data []byte) *multipart.FileHeader {
	t.Helper()
	body, contentType := MultipartBody(t, nil, field, filename, data)

	_, params, err := mime.ParseMediaType(contentType)
	if err != nil {
		t.Fatalf("parse content type: %v", err)
	}
	form, err := multipart.NewReader(body, params["boundary"]).ReadForm(int64(len(data)) + 1024)
	if err != nil {
		t.Fatalf("read form: %v", err)
	}
	t.Cleanup(func() { form.RemoveAll() })
	files := form.File[field]
	if len(files) != 1 {
		t.Fatalf("expected one file in form, got %d", len(files))
	}
	return files[0]
}

// MultipartBody encodes fields plus an optional file part.
func MultipartBody(t *testing.T, fields map[string]string, fileField, filename string, data []byte) (*bytes.Buffer, string) {
	t.Helper()
	var buf bytes.Buffer
	w := multipart.NewWriter(&buf)
	for k, v := range fields {
		if err := w.WriteField(k, v); err != nil {
			t.Fatalf("write field: %v", err)
		}
	}
	if fileField != "" {
		h := make(textproto.MIMEHeader)
		h.Set("Content-Disposition", `form-data; name="`+fileField+`"; filename="`+filename+`"`)
		h.Set("Content-Type", "application/octet-stream")
		part, err := w.CreatePart(h)
		if err != nil {
			t.Fatalf("create part: %v", err)
		}
		if _, err := part.Write(data); err != nil {
			t.Fatalf("write part: %v", err)
		}
	}
	if err := w.Close(); err != nil {
		t.Fatalf("close writer: %v", err)
	}
	return &buf, w.FormDataContentType()
}

// MemoryStore is an in-memory image store.
type MemoryStore struct {
	mu      sync.Mutex
	Objects map[string][]byte
	FailPut error
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{Objects: make(map[string][]byte)}
}

func (m *MemoryStore) Put(_ context.Context, key, _ string, r io.Reader, _ int64) error {
	if m.FailPut != nil {
		return m.FailPut
	}
	b, err := io.ReadAll(r)
	if err != nil {
		return err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.Objects[key] = b
	return nil
}

func (m *MemoryStore) Delete(_ context.Context, key string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.Objects, key)
	return nil
}

func (m *MemoryStore) URL(key string) string {
	return "/uploads/" + key
}

func (m *MemoryStore) Len() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.Objects)
}
