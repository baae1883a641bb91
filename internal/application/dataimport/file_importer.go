package dataimport

import (
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"path/filepath"
	"strings"

	"golang.org/x/text/encoding/unicode"
	"golang.org/x/text/transform"

	domain "github.com/mohammadpnp/data-import/internal/domain/dataimport"
)

// Folders is the file system side of the intake pipeline.
type Folders interface {
	ListInbound() ([]string, error)
	Open(path string) (io.ReadCloser, error)
	MoveToProcessing(path string) (string, error)
	MoveToSuccess(path string) (string, error)
	MoveToError(path string) (string, error)
	// WriteErrorLog writes content next to the failed file in the error folder.
	WriteErrorLog(path, content string) (string, error)
}

// ImportFile imports one CSV file named {Save|Remove|File}_{ItemType}[_...].csv.
// With move set the file goes through the processing folder and ends in the
// success or error folder. Only file name and item type errors are returned.
func (im *Importer) ImportFile(ctx context.Context, path string, move bool) (domain.Result, error) {
	im.mu.Lock()
	defer im.mu.Unlock()

	log := im.log.WithField("file", filepath.Base(path))
	current := path
	if move {
		moved, err := im.folders.MoveToProcessing(path)
		if err != nil {
			log.Errorf("move to processing folder: %v", err)
			return domain.Failure(err.Error()), nil
		}
		current = moved
	}
	log.Infof("started to import file %s", filepath.Base(current))

	kind, t, err := im.decodeFileName(filepath.Base(current), move)
	if err != nil {
		log.Errorf("decode file name: %v", err)
		result := domain.Failure(err.Error())
		im.routeFailure(current, move, result.Message)
		return result, err
	}

	batch := Batch{Kind: kind, Type: t, Move: move}
	var (
		job    *domain.ImportJob
		result domain.Result
	)
	rows, err := im.readFile(current)
	if err != nil {
		log.Errorf("read file: %v", err)
		job, result = im.failBatch(ctx, batch, err)
	} else {
		batch.Rows = rows
		job, result = im.runBatch(ctx, batch)
	}

	if result.OK {
		if move {
			dest, err := im.folders.MoveToSuccess(current)
			if err != nil {
				log.Errorf("move to success folder: %v", err)
				return result, nil
			}
			im.attachLogFile(ctx, job, dest)
		}
		return result, nil
	}

	if logFile := im.routeFailure(current, move, result.Message); logFile != "" {
		im.attachLogFile(ctx, job, logFile)
	}
	return result, nil
}

// routeFailure moves a failed file to the error folder and writes its log.
// Errors are logged and swallowed.
func (im *Importer) routeFailure(path string, move bool, message string) string {
	if !move {
		return ""
	}
	log := im.log.WithField("file", filepath.Base(path))
	if _, err := im.folders.MoveToError(path); err != nil {
		log.Errorf("move to error folder: %v", err)
	}
	logFile, err := im.folders.WriteErrorLog(path, message)
	if err != nil {
		log.Errorf("write error log: %v", err)
		return ""
	}
	return logFile
}

func (im *Importer) attachLogFile(ctx context.Context, job *domain.ImportJob, logFile string) {
	job.LogFile = logFile
	if err := im.jobs.Update(ctx, job); err != nil {
		im.log.WithField("job_code", job.Code).Errorf("update import job log file: %v", err)
	}
}

// decodeFileName reads the process kind and item type from a file name. A
// moved file carries a timestamp prefix, which shifts the parts by one.
func (im *Importer) decodeFileName(name string, moved bool) (domain.ProcessKind, *domain.EntityType, error) {
	base := strings.TrimSuffix(name, filepath.Ext(name))
	parts := strings.Split(base, "_")

	offset := 0
	if moved {
		offset = 1
	}
	if len(parts) < offset+2 {
		return "", nil, fmt.Errorf("%w: %s", domain.ErrInvalidFileName, name)
	}

	kind, err := domain.ParseProcessKind(parts[offset])
	if err != nil {
		return "", nil, err
	}
	t, err := im.registry.Lookup(parts[offset+1])
	if err != nil {
		return "", nil, err
	}
	return kind, t, nil
}

func (im *Importer) readFile(path string) ([]domain.Row, error) {
	f, err := im.folders.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	return readRows(f)
}

// readRows parses a header-aware CSV stream. A leading UTF-8 BOM is dropped
// and the comment column is removed from every row.
func readRows(r io.Reader) ([]domain.Row, error) {
	reader := csv.NewReader(transform.NewReader(r, unicode.BOMOverride(unicode.UTF8.NewDecoder())))

	header, err := reader.Read()
	if errors.Is(err, io.EOF) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("read csv header: %w", err)
	}
	for i := range header {
		header[i] = strings.TrimSpace(header[i])
	}

	var rows []domain.Row
	for {
		record, err := reader.Read()
		if errors.Is(err, io.EOF) {
			return rows, nil
		}
		if err != nil {
			return nil, fmt.Errorf("read csv record: %w", err)
		}

		row := make(domain.Row, len(header))
		for i, h := range header {
			if h == domain.CommentColumn {
				continue
			}
			row[h] = record[i]
		}
		rows = append(rows, row)
	}
}
