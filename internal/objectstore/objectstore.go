// Package objectstore keeps uploaded KYC documents and deposit proofs on local
// disk and hands back the public URL they are served from.
package objectstore

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"path"
	"path/filepath"
	"strings"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

var (
	ErrTooLarge        = errors.New("file exceeds the upload size limit")
	ErrUnsupportedType = errors.New("unsupported file type")
	ErrEmpty           = errors.New("file is empty")
)

// Buckets group objects the same way the upload flows do
const (
	BucketKYC          = "kyc-documents"
	BucketDepositProof = "deposit-proofs"
)

var allowedExtensions = map[string]bool{
	".png":  true,
	".jpg":  true,
	".jpeg": true,
	".webp": true,
	".pdf":  true,
}

type Store struct {
	root    string
	baseURL string
}

// Object is a stored file
type Object struct {
	Key  string
	URL  string
	Size int64
}

func New(root, publicBaseURL string) (*Store, error) {
	if root == "" {
		return nil, fmt.Errorf("upload directory cannot be empty")
	}
	if err := os.MkdirAll(root, 0o750); err != nil {
		return nil, fmt.Errorf("unable to create upload directory: %w", err)
	}
	return &Store{root: root, baseURL: strings.TrimRight(publicBaseURL, "/")}, nil
}

// Put writes r under bucket/owner/<uuid><ext>. Reading stops after maxBytes;
// a larger upload is removed and reported as ErrTooLarge.
func (s *Store) Put(ctx context.Context, bucket, owner, filename string, r io.Reader, maxBytes int64) (*Object, error) {
	ext := strings.ToLower(filepath.Ext(filename))
	if !allowedExtensions[ext] {
		return nil, fmt.Errorf("%w: %q", ErrUnsupportedType, ext)
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	key := path.Join(bucket, owner, uuid.New().String()+ext)
	fullPath := filepath.Join(s.root, filepath.FromSlash(key))
	if err := os.MkdirAll(filepath.Dir(fullPath), 0o750); err != nil {
		return nil, fmt.Errorf("unable to create bucket directory: %w", err)
	}

	f, err := os.OpenFile(fullPath, os.O_CREATE|os.O_EXCL|os.O_WRONLY, 0o640)
	if err != nil {
		return nil, fmt.Errorf("unable to create object: %w", err)
	}

	written, copyErr := io.Copy(f, io.LimitReader(r, maxBytes+1))
	closeErr := f.Close()

	switch {
	case copyErr != nil:
		s.remove(fullPath)
		return nil, fmt.Errorf("unable to write object: %w", copyErr)
	case closeErr != nil:
		s.remove(fullPath)
		return nil, fmt.Errorf("unable to write object: %w", closeErr)
	case written > maxBytes:
		s.remove(fullPath)
		return nil, ErrTooLarge
	case written == 0:
		s.remove(fullPath)
		return nil, ErrEmpty
	}

	zap.L().Info("Stored object",
		zap.String("key", key),
		zap.Int64("size", written))

	return &Object{Key: key, URL: s.URL(key), Size: written}, nil
}

// URL returns the public address of key
func (s *Store) URL(key string) string {
	return s.baseURL + "/files/" + key
}

// Handler serves stored objects; mount it under /files/. Bucket and owner
// directories are never listed.
func (s *Store) Handler() http.Handler {
	return http.StripPrefix("/files/", http.FileServer(objectsOnly{http.Dir(s.root)}))
}

// objectsOnly opens regular files and reports directories as missing
type objectsOnly struct {
	fs http.FileSystem
}

func (o objectsOnly) Open(name string) (http.File, error) {
	f, err := o.fs.Open(name)
	if err != nil {
		return nil, err
	}
	info, err := f.Stat()
	if err != nil || info.IsDir() {
		_ = f.Close()
		return nil, os.ErrNotExist
	}
	return f, nil
}

func (s *Store) remove(fullPath string) {
	if err := os.Remove(fullPath); err != nil && !errors.Is(err, os.ErrNotExist) {
		zap.L().Warn("Failed to remove partial object", zap.String("path", fullPath), zap.Error(err))
	}
}
