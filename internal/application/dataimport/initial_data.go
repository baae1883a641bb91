package dataimport

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/sirupsen/logrus"

	domain "github.com/mohammadpnp/data-import/internal/domain/dataimport"
)

type InitialDataConfig struct {
	Path         string
	Project      string
	MediaEnabled bool
}

// InitialData imports the seed files of a project at startup. Files live in
// Path/Project/<folder>/*.csv and are imported in place.
type InitialData struct {
	importer fileImporter
	cfg      InitialDataConfig
	log      logrus.FieldLogger
}

func NewInitialData(importer fileImporter, cfg InitialDataConfig, log logrus.FieldLogger) *InitialData {
	return &InitialData{importer: importer, cfg: cfg, log: log}
}

// Run returns the number of files handed to the importer.
func (s *InitialData) Run(ctx context.Context) (int, error) {
	root := filepath.Join(s.cfg.Path, s.cfg.Project)
	s.log.Infof("initial data folder %s", root)

	folders, err := os.ReadDir(root)
	if errors.Is(err, fs.ErrNotExist) {
		return 0, nil
	}
	if err != nil {
		return 0, fmt.Errorf("read initial data folder: %w", err)
	}
	sort.Slice(folders, func(i, j int) bool { return folders[i].Name() < folders[j].Name() })

	imported := 0
	for _, folder := range folders {
		if !folder.IsDir() {
			continue
		}
		files, err := filepath.Glob(filepath.Join(root, folder.Name(), "*.csv"))
		if err != nil {
			return imported, fmt.Errorf("list %s: %w", folder.Name(), err)
		}
		sort.Strings(files)

		for _, file := range files {
			if ctx.Err() != nil {
				return imported, ctx.Err()
			}
			if isMediaFile(file) && !s.cfg.MediaEnabled {
				continue
			}
			result, err := s.importer.ImportFile(ctx, file, false)
			imported++
			if err != nil {
				s.log.WithField("file", file).Errorf("initial data import failed: %v", err)
				continue
			}
			s.log.WithFields(logrus.Fields{"file": file, "ok": result.OK}).Info(result.Message)
		}
	}
	return imported, nil
}

func isMediaFile(path string) bool {
	return strings.HasPrefix(strings.ToUpper(filepath.Base(path)), string(domain.ProcessFile)+"_")
}
