package dataimport

import (
	"context"
	"fmt"

	"github.com/sirupsen/logrus"
	"golang.org/x/text/language"

	domain "github.com/mohammadpnp/data-import/internal/domain/dataimport"
)

const importErrorPrefix = "Error occurred while data was imported..."

type RowImporter struct {
	store    domain.EntityStore
	registry *domain.Registry
	locale   language.Tag
	log      logrus.FieldLogger
}

func NewRowImporter(store domain.EntityStore, registry *domain.Registry, locale language.Tag, log logrus.FieldLogger) *RowImporter {
	return &RowImporter{
		store:    store,
		registry: registry,
		locale:   locale,
		log:      log,
	}
}

// ImportRows resolves and links every row, then saves or removes the whole
// batch at once. Any failing row aborts the batch before anything is written.
func (im *RowImporter) ImportRows(ctx context.Context, itemType string, rows []domain.Row, kind domain.ProcessKind, site *domain.Entity) domain.Result {
	t, err := im.registry.Lookup(itemType)
	if err != nil {
		return domain.Failure(importErrorPrefix + err.Error())
	}
	log := im.log.WithFields(logrus.Fields{"item_type": t.Name, "process": kind})

	res := newResolver(im.store, im.registry, site, im.locale)
	lnk := &linker{res: res, store: im.store}
	descs := make(map[string]domain.FieldDescriptor)

	batch := make([]*domain.Entity, 0, len(rows))
	queued := make(map[*domain.Entity]bool, len(rows))
	for i, raw := range rows {
		row := raw.Trimmed()
		e, err := im.importRow(ctx, t, row, kind, res, lnk, descs)
		if err != nil {
			log.WithField("row", i).Errorf("row import failed: %v", err)
			return domain.Failure(fmt.Sprintf("%sError Row : %s Error Message : %s", importErrorPrefix, row.JSON(), err.Error()))
		}
		if e == nil || queued[e] {
			continue
		}
		queued[e] = true
		batch = append(batch, e)
	}

	log.Infof("writing %d entities", len(batch))
	if kind == domain.ProcessRemove {
		err = im.store.RemoveAll(ctx, batch)
	} else {
		err = im.store.SaveAll(ctx, batch)
	}
	if err != nil {
		err = &domain.PersistError{Op: "write " + t.Name, Err: err}
		log.Error(err)
		return domain.Failure(importErrorPrefix + err.Error())
	}

	msg := fmt.Sprintf("%d of %s data has been imported successfully", len(rows), t.Name)
	log.Info(msg)
	return domain.Success(msg)
}

func (im *RowImporter) importRow(ctx context.Context, t *domain.EntityType, row domain.Row, kind domain.ProcessKind, res *resolver, lnk *linker, descs map[string]domain.FieldDescriptor) (*domain.Entity, error) {
	columns, err := parseColumns(row, descs)
	if err != nil {
		return nil, err
	}

	e, existed, err := res.resolveRow(ctx, t, columns)
	if err != nil {
		return nil, err
	}

	if kind == domain.ProcessRemove {
		if !existed {
			im.log.WithField("item_type", t.Name).Infof("skipping removal of missing entity %s", row.JSON())
			return nil, nil
		}
		return e, nil
	}

	if err := lnk.link(ctx, t, e, existed, columns); err != nil {
		return nil, err
	}
	return e, nil
}
