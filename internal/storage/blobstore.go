package storage

import (
	"encoding/base64"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/doriangym/contratos-backend/internal/domain"
)

// BlobStore keeps signature and photo images on disk in two parallel
// directories keyed by cedula. Writes for the same cedula are serialized by
// a per-key lock so a resubmission cannot interleave a new photo with a
// stale signature.
type BlobStore struct {
	signaturesDir string
	photosDir     string

	mu    sync.Mutex
	locks map[string]*sync.Mutex
}

func NewBlobStore(signaturesDir, photosDir string) (*BlobStore, error) {
	for _, dir := range []string{signaturesDir, photosDir} {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("failed to create blob dir %s: %w", dir, err)
		}
	}
	return &BlobStore{
		signaturesDir: signaturesDir,
		photosDir:     photosDir,
		locks:         make(map[string]*sync.Mutex),
	}, nil
}

func (s *BlobStore) lockFor(cedula string) *sync.Mutex {
	s.mu.Lock()
	defer s.mu.Unlock()
	l, ok := s.locks[cedula]
	if !ok {
		l = &sync.Mutex{}
		s.locks[cedula] = l
	}
	return l
}

// checkKey rejects cedulas that could escape the blob directories once
// joined into a file name. Validation upstream already constrains the cedula
// to digits; the store enforces the invariant on its own too.
func checkKey(cedula string) error {
	if cedula == "" || strings.Contains(cedula, "..") || strings.ContainsAny(cedula, `/\`) {
		return fmt.Errorf("invalid blob key %q", cedula)
	}
	return nil
}

func (s *BlobStore) signaturePath(cedula string) string {
	return filepath.Join(s.signaturesDir, cedula+".png")
}

func (s *BlobStore) photoPath(cedula string) string {
	return filepath.Join(s.photosDir, cedula+".jpg")
}

// Save decodes and stores the signature and optional photo for a cedula.
// Existing blobs for the same cedula are overwritten; both files are written
// under the same lock so readers never observe a half-updated pair.
func (s *BlobStore) Save(cedula, firmaDataURL, fotoDataURL string) error {
	if err := checkKey(cedula); err != nil {
		return err
	}

	firma, err := decodeDataURL(firmaDataURL)
	if err != nil {
		return fmt.Errorf("invalid firma payload: %w", err)
	}

	var foto []byte
	if fotoDataURL != "" {
		if foto, err = decodeDataURL(fotoDataURL); err != nil {
			return fmt.Errorf("invalid foto payload: %w", err)
		}
	}

	l := s.lockFor(cedula)
	l.Lock()
	defer l.Unlock()

	if err := writeAtomic(s.signaturePath(cedula), firma); err != nil {
		return fmt.Errorf("failed to write firma: %w", err)
	}
	if foto != nil {
		if err := writeAtomic(s.photoPath(cedula), foto); err != nil {
			return fmt.Errorf("failed to write foto: %w", err)
		}
	}
	return nil
}

func (s *BlobStore) ReadSignature(cedula string) ([]byte, error) {
	if err := checkKey(cedula); err != nil {
		return nil, err
	}
	return s.read(s.signaturePath(cedula))
}

func (s *BlobStore) ReadPhoto(cedula string) ([]byte, error) {
	if err := checkKey(cedula); err != nil {
		return nil, err
	}
	return s.read(s.photoPath(cedula))
}

func (s *BlobStore) read(path string) ([]byte, error) {
	data, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		return nil, domain.ErrMissingArtifact
	}
	if err != nil {
		return nil, err
	}
	return data, nil
}

// Remove deletes both blobs for a cedula. Missing files are not an error;
// member deletion must succeed even when the photo was never uploaded.
func (s *BlobStore) Remove(cedula string) error {
	if err := checkKey(cedula); err != nil {
		return err
	}

	l := s.lockFor(cedula)
	l.Lock()
	defer l.Unlock()

	for _, path := range []string{s.signaturePath(cedula), s.photoPath(cedula)} {
		if err := os.Remove(path); err != nil && !os.IsNotExist(err) {
			return err
		}
	}
	return nil
}

// writeAtomic writes to a temp file in the target directory and renames it
// into place, so a crash mid-write never leaves a truncated image behind.
func writeAtomic(path string, data []byte) error {
	tmp, err := os.CreateTemp(filepath.Dir(path), ".tmp-*")
	if err != nil {
		return err
	}
	tmpName := tmp.Name()

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(tmpName)
		return err
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpName)
		return err
	}
	return os.Rename(tmpName, path)
}

// decodeDataURL accepts both a bare base64 string and the
// "data:image/...;base64," form the registration form submits.
func decodeDataURL(s string) ([]byte, error) {
	if idx := strings.Index(s, ";base64,"); idx != -1 {
		s = s[idx+len(";base64,"):]
	}
	data, err := base64.StdEncoding.DecodeString(s)
	if err != nil {
		return nil, err
	}
	if len(data) == 0 {
		return nil, fmt.Errorf("empty image payload")
	}
	return data, nil
}
