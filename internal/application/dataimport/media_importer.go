package dataimport

import (
	"context"
	"encoding/json"
	"fmt"
	"net/url"
	"os"
	"path"
	"path/filepath"
	"strings"

	"github.com/sirupsen/logrus"
	"golang.org/x/text/language"

	domain "github.com/mohammadpnp/data-import/internal/domain/dataimport"
)

// Reserved columns of a media row.
const (
	mediaFieldColumn    = "field"
	mediaPathColumn     = "path"
	mediaURLColumn      = "url"
	mediaCategoryColumn = "mediaCategory"
	mediaSecureColumn   = "secure"

	DefaultMediaCategory = "OTHER"
)

// MediaFetcher downloads a remote file to dest.
type MediaFetcher interface {
	Fetch(ctx context.Context, rawURL, dest string) error
}

type MediaImporter struct {
	store      domain.EntityStore
	registry   *domain.Registry
	media      domain.MediaStore
	categories domain.CategoryResolver
	fetcher    MediaFetcher
	uploadDir  string
	locale     language.Tag
	log        logrus.FieldLogger
}

type MediaImporterConfig struct {
	UploadDir string
	Locale    language.Tag
}

func NewMediaImporter(
	store domain.EntityStore,
	registry *domain.Registry,
	media domain.MediaStore,
	categories domain.CategoryResolver,
	fetcher MediaFetcher,
	cfg MediaImporterConfig,
	log logrus.FieldLogger,
) *MediaImporter {
	if cfg.UploadDir == "" {
		cfg.UploadDir = "upload"
	}
	return &MediaImporter{
		store:      store,
		registry:   registry,
		media:      media,
		categories: categories,
		fetcher:    fetcher,
		uploadDir:  cfg.UploadDir,
		locale:     cfg.Locale,
		log:        log,
	}
}

// ImportMedia attaches one file per row to the entity selected by the row's
// unique columns. Rows are saved one at a time; failing rows are collected.
func (im *MediaImporter) ImportMedia(ctx context.Context, itemType string, rows []domain.Row, site *domain.Entity, move bool) domain.Result {
	t, err := im.registry.Lookup(itemType)
	if err != nil {
		return domain.Failure(err.Error())
	}
	log := im.log.WithFields(logrus.Fields{"item_type": t.Name, "process": domain.ProcessFile})

	res := newResolver(im.store, im.registry, site, im.locale)
	descs := make(map[string]domain.FieldDescriptor)

	var failed []domain.Row
	for _, raw := range rows {
		row := raw.Trimmed()
		if err := im.importRow(ctx, t, row, site, move, res, descs); err != nil {
			log.Errorf("row exception: %v", err)
			failed = append(failed, row)
			continue
		}
		log.Infof("imported file %s", row.JSON())
	}

	if len(failed) > 0 {
		log.Error("some items could not be imported")
		return domain.Failure("ERROR ROWS: " + rowsJSON(failed))
	}

	msg := fmt.Sprintf("%d of %s finished file integration...", len(rows), t.Name)
	log.Info(msg)
	return domain.Success(msg)
}

func (im *MediaImporter) importRow(ctx context.Context, t *domain.EntityType, row domain.Row, site *domain.Entity, move bool, res *resolver, descs map[string]domain.FieldDescriptor) error {
	columns, err := parseColumns(row, descs)
	if err != nil {
		return err
	}

	owner, existed, err := res.resolveRow(ctx, t, columns)
	if err != nil {
		return err
	}
	if !existed {
		return &domain.ResolutionError{Type: t.Name, Criteria: row.JSON(), Err: domain.ErrNotFound}
	}

	target, mode, ok := mediaTarget(columns)
	if !ok {
		return &domain.FormatError{Header: mediaFieldColumn, Reason: "media row needs a target field"}
	}
	f, err := t.Field(target)
	if err != nil {
		return err
	}
	if !f.Kind.IsRelation() {
		return &domain.FormatError{Header: mediaFieldColumn, Value: target, Reason: "target field is not a relation"}
	}

	file, remote, err := im.source(ctx, row)
	if remote {
		defer os.Remove(file)
	}
	if err != nil {
		return err
	}
	if info, err := os.Stat(file); err != nil || !info.Mode().IsRegular() {
		return fmt.Errorf("%w: %s", domain.ErrMediaUnavailable, file)
	}

	categoryCode := row[mediaCategoryColumn]
	if categoryCode == "" {
		categoryCode = DefaultMediaCategory
	}
	category, err := im.categories.GetByCode(ctx, categoryCode, site)
	if err != nil {
		return &domain.ResolutionError{Type: "category", Criteria: categoryCode, Err: err}
	}
	secure, _ := domain.Coerce(domain.Field{Name: mediaSecureColumn, Kind: domain.KindBool}, row[mediaSecureColumn], domain.ModeMerge, nil, im.locale)

	if err := im.store.FetchRelations(ctx, owner, []string{f.Name}); err != nil {
		return &domain.ResolutionError{Type: t.Name, Criteria: owner.ID, Err: err}
	}

	media, err := im.media.Store(ctx, domain.MediaUpload{
		File:         file,
		Secure:       secure.(bool),
		DeleteSource: !remote && move,
		Category:     category,
		Site:         site,
	})
	if err != nil {
		return &domain.PersistError{Op: "store media", Err: err}
	}

	replaced := attachMedia(owner, f, media, mode)

	if err := im.store.SaveAll(ctx, []*domain.Entity{owner}); err != nil {
		return &domain.PersistError{Op: "save " + t.Name, Err: err}
	}
	if len(replaced) > 0 {
		if err := im.store.RemoveAll(ctx, replaced); err != nil {
			return &domain.PersistError{Op: "remove replaced media", Err: err}
		}
	}
	return nil
}

// source returns the local file for a row. remote is true when the file was
// downloaded to the temp folder and must be removed afterwards.
func (im *MediaImporter) source(ctx context.Context, row domain.Row) (file string, remote bool, err error) {
	if p := row[mediaPathColumn]; p != "" {
		return filepath.Join(im.uploadDir, filepath.Clean("/"+p)), false, nil
	}

	raw := row[mediaURLColumn]
	if raw == "" {
		return "", false, fmt.Errorf("%w: row has neither path nor url", domain.ErrMediaUnavailable)
	}
	u, err := url.Parse(raw)
	if err != nil {
		return "", false, &domain.FormatError{Header: mediaURLColumn, Value: raw, Reason: err.Error()}
	}
	name := path.Base(u.Path)
	if name == "/" || name == "." {
		return "", false, &domain.FormatError{Header: mediaURLColumn, Value: raw, Reason: "url has no file name"}
	}

	dest := filepath.Join(im.uploadDir, "temp", name)
	if err := im.fetcher.Fetch(ctx, raw, dest); err != nil {
		return dest, true, fmt.Errorf("download %s: %w", raw, err)
	}
	return dest, true, nil
}

// attachMedia links media to the owner and returns the entities it replaced
// in OVERRIDE mode.
func attachMedia(owner *domain.Entity, f domain.Field, media *domain.Entity, mode domain.MergeMode) []*domain.Entity {
	current, _ := owner.Get(f.Name)

	if f.Kind == domain.KindRelation {
		owner.Set(f.Name, media)
		old, ok := current.(*domain.Entity)
		if mode == domain.ModeOverride && ok && old != nil && old.ID != media.ID {
			return []*domain.Entity{old}
		}
		return nil
	}

	existing, _ := current.([]*domain.Entity)
	if mode == domain.ModeOverride {
		owner.Set(f.Name, []*domain.Entity{media})
		var replaced []*domain.Entity
		for _, old := range existing {
			if old.ID != media.ID {
				replaced = append(replaced, old)
			}
		}
		return replaced
	}

	collection := append([]*domain.Entity(nil), existing...)
	owner.Set(f.Name, appendRelated(collection, media, true))
	return nil
}

// mediaTarget reads the target field and its mode from the field column.
func mediaTarget(columns []column) (string, domain.MergeMode, bool) {
	for _, col := range columns {
		if col.desc.BaseName == mediaFieldColumn && !col.desc.IsRelation() && strings.TrimSpace(col.value) != "" {
			return col.value, col.desc.Mode, true
		}
	}
	return "", domain.ModeMerge, false
}

func rowsJSON(rows []domain.Row) string {
	b, err := json.Marshal(rows)
	if err != nil {
		return ""
	}
	return string(b)
}
