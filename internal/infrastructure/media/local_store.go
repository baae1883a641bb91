package media

import (
	"context"
	"fmt"
	"io"
	"os"
	"path"
	"path/filepath"
	"strings"

	"github.com/gabriel-vasile/mimetype"
	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	domain "github.com/mohammadpnp/data-import/internal/domain/dataimport"
)

const (
	secureFolder = "secure"
	publicFolder = "public"
)

type LocalStoreConfig struct {
	Dir      string
	BaseURL  string
	TypeName string
}

// LocalStore copies media files under Dir and records a media entity for each.
// Secure files go to a separate folder and get no public URL.
type LocalStore struct {
	store    domain.EntityStore
	registry *domain.Registry
	cfg      LocalStoreConfig
	log      logrus.FieldLogger
}

func NewLocalStore(store domain.EntityStore, registry *domain.Registry, cfg LocalStoreConfig, log logrus.FieldLogger) *LocalStore {
	if cfg.TypeName == "" {
		cfg.TypeName = "Media"
	}
	return &LocalStore{store: store, registry: registry, cfg: cfg, log: log}
}

func (s *LocalStore) Store(ctx context.Context, upload domain.MediaUpload) (*domain.Entity, error) {
	t, err := s.registry.Lookup(s.cfg.TypeName)
	if err != nil {
		return nil, err
	}

	mime, err := mimetype.DetectFile(upload.File)
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %v", domain.ErrMediaUnavailable, upload.File, err)
	}
	info, err := os.Stat(upload.File)
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %v", domain.ErrMediaUnavailable, upload.File, err)
	}

	code := uuid.NewString()
	ext := strings.ToLower(filepath.Ext(upload.File))
	if ext == "" {
		ext = mime.Extension()
	}
	folder := publicFolder
	if upload.Secure {
		folder = secureFolder
	}
	rel := path.Join(folder, code+ext)
	dest := filepath.Join(s.cfg.Dir, filepath.FromSlash(rel))
	if err := copyFile(upload.File, dest); err != nil {
		return nil, err
	}

	e := s.store.Create(t)
	values := map[string]any{
		"code":         code,
		"realFileName": filepath.Base(upload.File),
		"mime":         mime.String(),
		"size":         info.Size(),
		"secure":       upload.Secure,
		"location":     rel,
	}
	if !upload.Secure {
		values["url"] = strings.TrimSuffix(s.cfg.BaseURL, "/") + "/" + rel
	}
	if upload.Category != nil {
		values["category"] = upload.Category
	}
	if upload.Site != nil {
		values["site"] = upload.Site
	}
	if f, err := t.Field("size"); err == nil && f.Kind == domain.KindInt {
		values["size"] = int32(info.Size())
	}
	for name, v := range values {
		if t.HasField(name) {
			e.Set(name, v)
		}
	}

	if err := s.store.SaveAll(ctx, []*domain.Entity{e}); err != nil {
		_ = os.Remove(dest)
		return nil, &domain.PersistError{Op: "write " + t.Name, Err: err}
	}

	if upload.DeleteSource {
		if err := os.Remove(upload.File); err != nil {
			s.log.WithField("file", upload.File).Warnf("remove media source: %v", err)
		}
	}
	s.log.WithFields(logrus.Fields{"media": code, "mime": mime.String(), "secure": upload.Secure}).Debug("media stored")
	return e, nil
}

func copyFile(src, dest string) error {
	if err := os.MkdirAll(filepath.Dir(dest), 0o755); err != nil {
		return fmt.Errorf("create media folder: %w", err)
	}
	in, err := os.Open(src)
	if err != nil {
		return fmt.Errorf("%w: %s: %v", domain.ErrMediaUnavailable, src, err)
	}
	defer in.Close()

	out, err := os.Create(dest)
	if err != nil {
		return fmt.Errorf("create media file: %w", err)
	}
	if _, err := io.Copy(out, in); err != nil {
		out.Close()
		return fmt.Errorf("copy media file: %w", err)
	}
	return out.Close()
}
