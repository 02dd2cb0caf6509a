package services

import (
	"bytes"
	"mime/multipart"
	"net/http"
	"net/textproto"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

// multipartFile builds a *multipart.FileHeader the way gin would hand it
// to the handler.
func multipartFile(t *testing.T, contentType string, size int) *multipart.FileHeader {
	t.Helper()

	var buf bytes.Buffer
	writer := multipart.NewWriter(&buf)
	header := textproto.MIMEHeader{}
	header.Set("Content-Disposition", `form-data; name="file"; filename="upload.bin"`)
	header.Set("Content-Type", contentType)
	part, err := writer.CreatePart(header)
	if err != nil {
		t.Fatalf("create part: %v", err)
	}
	if _, err := part.Write(bytes.Repeat([]byte("a"), size)); err != nil {
		t.Fatalf("write part: %v", err)
	}
	writer.Close()

	req, err := http.NewRequest(http.MethodPost, "/", &buf)
	if err != nil {
		t.Fatalf("new request: %v", err)
	}
	req.Header.Set("Content-Type", writer.FormDataContentType())
	if err := req.ParseMultipartForm(32 << 20); err != nil {
		t.Fatalf("parse form: %v", err)
	}
	return req.MultipartForm.File["file"][0]
}

func TestSaveExpenseImage(t *testing.T) {
	service := NewUploadService(t.TempDir())

	url, err := service.SaveExpenseImage(multipartFile(t, "image/png", 128))
	if err != nil {
		t.Fatalf("SaveExpenseImage() error = %v", err)
	}
	if !strings.HasPrefix(url, "/uploads/expenses/") {
		t.Errorf("url = %q, want /uploads/expenses/ prefix", url)
	}
	if !strings.HasSuffix(url, ".png") {
		t.Errorf("url = %q, want .png extension", url)
	}
}

func TestSaveExpenseImage_Rejections(t *testing.T) {
	tests := []struct {
		name        string
		contentType string
		size        int
	}{
		{"unsupported type", "text/plain", 128},
		{"empty file", "image/png", 0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			service := NewUploadService(t.TempDir())
			_, err := service.SaveExpenseImage(multipartFile(t, tt.contentType, tt.size))
			if !IsBusinessError(err) {
				t.Errorf("SaveExpenseImage() error = %v, want a business error", err)
			}
		})
	}
}

func TestSaveExpenseImage_TooLarge(t *testing.T) {
	service := NewUploadService(t.TempDir())
	file := multipartFile(t, "image/png", 64)
	file.Size = MaxUploadSize + 1 // Size is taken from the header, no need to allocate 5MB

	if _, err := service.SaveExpenseImage(file); !IsBusinessError(err) {
		t.Errorf("SaveExpenseImage() error = %v, want a business error", err)
	}
}

func TestDeleteExpenseImage(t *testing.T) {
	root := t.TempDir()
	service := NewUploadService(root)

	url, err := service.SaveExpenseImage(multipartFile(t, "image/jpeg", 128))
	if err != nil {
		t.Fatalf("SaveExpenseImage() error = %v", err)
	}
	stored := filepath.Join(root, "expenses", filepath.Base(url))
	if _, err := os.Stat(stored); err != nil {
		t.Fatalf("stored file missing: %v", err)
	}

	if err := service.DeleteExpenseImage(url); err != nil {
		t.Fatalf("DeleteExpenseImage() error = %v", err)
	}
	if _, err := os.Stat(stored); !os.IsNotExist(err) {
		t.Error("file should be gone after delete")
	}
}

func TestDeleteExpenseImage_IgnoresForeignPaths(t *testing.T) {
	root := t.TempDir()
	service := NewUploadService(root)

	// Plant a file outside the uploads root that a traversal would reach
	outside := filepath.Join(root, "..", "victim.txt")
	if err := os.WriteFile(outside, []byte("keep me"), 0o644); err != nil {
		t.Fatalf("write victim: %v", err)
	}
	t.Cleanup(func() { os.Remove(outside) })

	tests := []struct {
		name string
		url  string
	}{
		{"empty", ""},
		{"not under uploads", "/etc/passwd"},
		{"absolute url elsewhere", "https://example.com/other/file.png"},
		{"traversal", "/uploads/../victim.txt"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if err := service.DeleteExpenseImage(tt.url); err != nil {
				t.Errorf("DeleteExpenseImage(%q) error = %v, want nil no-op", tt.url, err)
			}
		})
	}

	if _, err := os.Stat(outside); err != nil {
		t.Error("file outside the uploads root must survive")
	}
}

func TestDeleteExpenseImage_MissingFileIsFine(t *testing.T) {
	service := NewUploadService(t.TempDir())
	if err := service.DeleteExpenseImage("/uploads/expenses/nope.png"); err != nil {
		t.Errorf("DeleteExpenseImage() error = %v, want nil for missing files", err)
	}
}
