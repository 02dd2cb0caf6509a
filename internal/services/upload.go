package services

import (
	"fmt"
	"io"
	"mime/multipart"
	"net/url"
	"os"
	"path/filepath"
	"strings"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
)

// MaxUploadSize is the largest accepted image, in bytes.
const MaxUploadSize = 5 << 20

// allowedImageTypes are the accepted upload content types, keyed to the
// file extension used on disk.
var allowedImageTypes = map[string]string{
	"image/jpeg": ".jpg",
	"image/png":  ".png",
	"image/webp": ".webp",
	"image/gif":  ".gif",
}

// AllowedImageType reports whether the content type can be uploaded.
func AllowedImageType(contentType string) bool {
	_, ok := allowedImageTypes[contentType]
	return ok
}

// UploadService stores expense images on local disk under
// <root>/expenses and serves them as /uploads/expenses/<name>.
type UploadService struct {
	root string
}

// NewUploadService creates an UploadService rooted at dir.
func NewUploadService(dir string) *UploadService {
	return &UploadService{root: dir}
}

// SaveExpenseImage writes the uploaded file under a random name and
// returns its public relative URL.
func (s *UploadService) SaveExpenseImage(file *multipart.FileHeader) (string, error) {
	if file.Size == 0 || file.Size > MaxUploadSize {
		return "", NewBusinessError("invalid file size")
	}
	contentType := file.Header.Get("Content-Type")
	ext, ok := allowedImageTypes[contentType]
	if !ok {
		return "", NewBusinessError("unsupported file type, use JPEG, PNG, WEBP or GIF")
	}

	dir := filepath.Join(s.root, "expenses")
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", err
	}

	name := strings.ReplaceAll(uuid.NewString(), "-", "") + ext
	dst := filepath.Join(dir, name)

	src, err := file.Open()
	if err != nil {
		return "", err
	}
	defer src.Close()

	out, err := os.Create(dst)
	if err != nil {
		return "", err
	}
	defer out.Close()

	if _, err := io.Copy(out, src); err != nil {
		os.Remove(dst)
		return "", err
	}

	logrus.WithField("file", name).Info("expense image stored")
	return fmt.Sprintf("/uploads/expenses/%s", name), nil
}

// DeleteExpenseImage removes a previously uploaded image by URL.
// Only paths under /uploads/ are eligible; anything else is ignored.
func (s *UploadService) DeleteExpenseImage(imageURL string) error {
	if strings.TrimSpace(imageURL) == "" {
		return nil
	}

	relPath := imageURL
	if u, err := url.Parse(imageURL); err == nil && u.Path != "" {
		relPath = u.Path
	}
	if !strings.HasPrefix(strings.ToLower(relPath), "/uploads/") {
		return nil
	}

	// Resolve against the upload root and refuse traversal outside it
	rel := strings.TrimPrefix(relPath, "/uploads/")
	full := filepath.Join(s.root, filepath.FromSlash(rel))
	rootAbs, err := filepath.Abs(s.root)
	if err != nil {
		return err
	}
	fullAbs, err := filepath.Abs(full)
	if err != nil {
		return err
	}
	if !strings.HasPrefix(fullAbs, rootAbs+string(os.PathSeparator)) {
		return nil
	}

	if err := os.Remove(fullAbs); err != nil && !os.IsNotExist(err) {
		return err
	}
	return nil
}
