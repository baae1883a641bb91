package file

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"
)

const timestampLayout = "02012006150405"

// Folders holds the four folders of the CSV intake pipeline.
type Folders struct {
	InboundDir    string
	ProcessingDir string
	SuccessDir    string
	ErrorDir      string

	now func() time.Time
}

func NewFolders(inbound, processing, success, errorDir string) (*Folders, error) {
	f := &Folders{
		InboundDir:    inbound,
		ProcessingDir: processing,
		SuccessDir:    success,
		ErrorDir:      errorDir,
		now:           time.Now,
	}
	for _, dir := range []string{inbound, processing, success, errorDir} {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("create folder %s: %w", dir, err)
		}
	}
	return f, nil
}

// ListInbound returns the .csv files of the inbound folder, oldest modified first.
func (f *Folders) ListInbound() ([]string, error) {
	entries, err := os.ReadDir(f.InboundDir)
	if err != nil {
		return nil, fmt.Errorf("read inbound folder: %w", err)
	}

	type candidate struct {
		path    string
		modTime time.Time
	}
	var files []candidate
	for _, entry := range entries {
		if entry.IsDir() || !strings.EqualFold(filepath.Ext(entry.Name()), ".csv") {
			continue
		}
		info, err := entry.Info()
		if err != nil {
			continue
		}
		files = append(files, candidate{path: filepath.Join(f.InboundDir, entry.Name()), modTime: info.ModTime()})
	}
	sort.SliceStable(files, func(i, j int) bool {
		if files[i].modTime.Equal(files[j].modTime) {
			return files[i].path < files[j].path
		}
		return files[i].modTime.Before(files[j].modTime)
	})

	out := make([]string, len(files))
	for i, c := range files {
		out[i] = c.path
	}
	return out, nil
}

func (f *Folders) Open(path string) (io.ReadCloser, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open file %s: %w", path, err)
	}
	return file, nil
}

// MoveToProcessing prefixes the name with a ddMMyyyyHHmmssSSS timestamp.
func (f *Folders) MoveToProcessing(path string) (string, error) {
	dest := filepath.Join(f.ProcessingDir, TimestampPrefix(f.now())+filepath.Base(path))
	if err := move(path, dest); err != nil {
		return "", err
	}
	return dest, nil
}

func (f *Folders) MoveToSuccess(path string) (string, error) {
	dest := filepath.Join(f.SuccessDir, filepath.Base(path))
	if err := move(path, dest); err != nil {
		return "", err
	}
	return dest, nil
}

func (f *Folders) MoveToError(path string) (string, error) {
	dest := filepath.Join(f.ErrorDir, filepath.Base(path))
	if err := move(path, dest); err != nil {
		return "", err
	}
	return dest, nil
}

// WriteErrorLog writes <base>.log into the error folder.
func (f *Folders) WriteErrorLog(path, content string) (string, error) {
	name := filepath.Base(path)
	logFile := filepath.Join(f.ErrorDir, strings.TrimSuffix(name, filepath.Ext(name))+".log")
	if err := os.WriteFile(logFile, []byte(content), 0o644); err != nil {
		return "", fmt.Errorf("write log file %s: %w", logFile, err)
	}
	return logFile, nil
}

// TimestampPrefix renders t as ddMMyyyyHHmmssSSS followed by an underscore.
func TimestampPrefix(t time.Time) string {
	return fmt.Sprintf("%s%03d_", t.Format(timestampLayout), t.Nanosecond()/int(time.Millisecond))
}

// move renames src to dest, replacing dest. It falls back to copy and delete
// when the folders are on different devices.
func move(src, dest string) error {
	if err := os.Rename(src, dest); err == nil {
		return nil
	}

	info, err := os.Stat(src)
	if err != nil {
		return fmt.Errorf("move %s: %w", src, err)
	}
	in, err := os.Open(src)
	if err != nil {
		return fmt.Errorf("move %s: %w", src, err)
	}
	defer in.Close()

	out, err := os.OpenFile(dest, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, info.Mode().Perm())
	if err != nil {
		return fmt.Errorf("move %s: %w", src, err)
	}
	if _, err := io.Copy(out, in); err != nil {
		out.Close()
		return fmt.Errorf("move %s: %w", src, err)
	}
	if err := out.Close(); err != nil {
		return fmt.Errorf("move %s: %w", src, err)
	}
	_ = os.Chtimes(dest, info.ModTime(), info.ModTime())
	in.Close()

	if err := os.Remove(src); err != nil {
		return fmt.Errorf("move %s: remove source: %w", src, err)
	}
	return nil
}
