package services

import (
	"context"
	"errors"
	"fmt"
	"mime"
	"mime/multipart"
	"path"
	"strings"
	"time"
	"unicode"
	"unicode/utf8"

	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"

	"user-registry-api/internal/application/ports"
)

const (
	// MaxUploadSize caps a single profile picture.
	MaxUploadSize = 5 << 20
	// PublicPrefix is the URL path stored files are served under.
	PublicPrefix = "/uploads/"

	maxBaseNameLen = 64
)

var (
	ErrInvalidFileType = errors.New("invalid file type")
	ErrFileTooLarge    = errors.New("file too large")

	allowedExts = map[string]struct{}{
		".jpeg": {}, ".jpg": {}, ".png": {}, ".gif": {},
	}
	allowedTypes = map[string]struct{}{
		"image/jpeg": {}, "image/jpg": {}, "image/png": {}, "image/gif": {},
	}
	windowsReserved = map[string]struct{}{
		"con": {}, "prn": {}, "aux": {}, "nul": {},
		"com1": {}, "com2": {}, "com3": {}, "com4": {}, "com5": {}, "com6": {}, "com7": {}, "com8": {}, "com9": {},
		"lpt1": {}, "lpt2": {}, "lpt3": {}, "lpt4": {}, "lpt5": {}, "lpt6": {}, "lpt7": {}, "lpt8": {}, "lpt9": {},
	}
)

type UploadService struct {
	storage  ports.FileStorage
	mCounter *prometheus.CounterVec
	now      func() time.Time
}

func NewUploadService(storage ports.FileStorage, mCounter *prometheus.CounterVec) *UploadService {
	return &UploadService{
		storage:  storage,
		mCounter: mCounter,
		now:      time.Now,
	}
}

// Check accepts only JPEG, PNG and GIF images up to MaxUploadSize.
// Both the file extension and the declared content type must match.
func (s *UploadService) Check(fh *multipart.FileHeader) error {
	if fh == nil || fh.Size <= 0 {
		return ErrInvalidFileType
	}
	if _, ok := allowedExts[strings.ToLower(path.Ext(fh.Filename))]; !ok {
		return ErrInvalidFileType
	}
	if _, ok := allowedTypes[contentType(fh)]; !ok {
		return ErrInvalidFileType
	}
	if fh.Size > MaxUploadSize {
		return ErrFileTooLarge
	}

	return nil
}

// Save checks and stores the file and returns its public path.
func (s *UploadService) Save(ctx context.Context, fh *multipart.FileHeader) (string, error) {
	if err := s.Check(fh); err != nil {
		return "", err
	}

	f, err := fh.Open()
	if err != nil {
		return "", fmt.Errorf("open upload: %w", err)
	}
	defer f.Close()

	name := s.fileName(fh.Filename)
	if err = s.storage.Save(ctx, name, f, fh.Size, contentType(fh)); err != nil {
		return "", fmt.Errorf("store %s: %w", name, err)
	}

	s.mCounter.WithLabelValues("files_stored_total").Inc()

	return PublicPrefix + name, nil
}

// Remove deletes the file behind a public path. Paths outside PublicPrefix
// and files that are already gone are ignored.
func (s *UploadService) Remove(ctx context.Context, publicPath string) error {
	name, ok := StoredName(publicPath)
	if !ok {
		return nil
	}

	if err := s.storage.Delete(ctx, name); err != nil {
		if errors.Is(err, ports.ErrFileNotFound) {
			return nil
		}
		return fmt.Errorf("remove %s: %w", name, err)
	}

	s.mCounter.WithLabelValues("files_removed_total").Inc()

	return nil
}

// StoredName extracts the flat storage name from a public upload path.
func StoredName(publicPath string) (string, bool) {
	if !strings.HasPrefix(publicPath, PublicPrefix) {
		return "", false
	}
	name := strings.TrimPrefix(publicPath, PublicPrefix)
	if name == "" || name == "." || name == ".." || strings.ContainsAny(name, `/\`) {
		return "", false
	}
	return name, true
}

// fileName: "<base>-<unix-nanos>-<8 hex><.ext>"
func (s *UploadService) fileName(original string) string {
	clean := sanitizeFileName(original)
	ext := path.Ext(clean)
	base := strings.TrimSuffix(clean, ext)

	suffix := strings.ReplaceAll(uuid.NewString(), "-", "")[:8]

	return fmt.Sprintf("%s-%d-%s%s", base, s.now().UnixNano(), suffix, ext)
}

func contentType(fh *multipart.FileHeader) string {
	mt, _, err := mime.ParseMediaType(fh.Header.Get("Content-Type"))
	if err != nil {
		return ""
	}
	return strings.ToLower(mt)
}

// sanitizeFileName make file name ASCII standard
func sanitizeFileName(original string) string {
	if original == "" {
		return "file"
	}

	s := strings.TrimSpace(original)
	s = strings.ReplaceAll(s, "\\", "/")
	s = path.Base(s)

	if s == "." || s == ".." || s == "" {
		return "file"
	}

	t := transform.Chain(norm.NFD, transform.RemoveFunc(isMn), norm.NFC)
	s, _, _ = transform.String(t, s)

	ext := strings.ToLower(path.Ext(s))
	base := strings.TrimSuffix(s, path.Ext(s))

	// [a-z0-9], '-' and '_', dot/space -> '-'
	var b strings.Builder
	b.Grow(len(base))
	prevDash := false
	for _, r := range base {
		switch {
		case r >= '0' && r <= '9', r >= 'a' && r <= 'z':
			b.WriteRune(r)
			prevDash = false
		case r >= 'A' && r <= 'Z':
			b.WriteRune(unicode.ToLower(r))
			prevDash = false
		case r == '-' || r == '_' || r == '.' || unicode.IsSpace(r):
			if !prevDash {
				b.WriteRune('-')
				prevDash = true
			}
		default:
		}
	}
	base = strings.Trim(b.String(), "-")

	if base == "" {
		base = "file"
	}
	if _, bad := windowsReserved[base]; bad {
		base = "_" + base
	}

	for utf8.RuneCountInString(base) > maxBaseNameLen {
		_, size := utf8.DecodeLastRuneInString(base)
		base = base[:len(base)-size]
	}

	return base + ext
}

func isMn(r rune) bool { return unicode.Is(unicode.Mn, r) }
