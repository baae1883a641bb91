package dataimport

import (
	"fmt"
	"strings"
	"time"
)

type ProcessKind string

const (
	ProcessSave   ProcessKind = "SAVE"
	ProcessRemove ProcessKind = "REMOVE"
	ProcessFile   ProcessKind = "FILE"
)

// ParseProcessKind accepts "save", "Save", "SAVE" and so on.
func ParseProcessKind(s string) (ProcessKind, error) {
	switch ProcessKind(strings.ToUpper(strings.TrimSpace(s))) {
	case ProcessSave:
		return ProcessSave, nil
	case ProcessRemove:
		return ProcessRemove, nil
	case ProcessFile:
		return ProcessFile, nil
	}
	return "", fmt.Errorf("%w: %q", ErrInvalidProcess, s)
}

// Title returns the kind as used in permissions and file names, e.g. "Save".
func (k ProcessKind) Title() string {
	s := strings.ToLower(string(k))
	if s == "" {
		return s
	}
	return strings.ToUpper(s[:1]) + s[1:]
}

type JobStatus string

const (
	JobPending    JobStatus = "PENDING"
	JobProcessing JobStatus = "PROCESSING"
	JobSuccess    JobStatus = "SUCCESS"
	JobFail       JobStatus = "FAIL"
)

func (s JobStatus) Terminal() bool {
	return s == JobSuccess || s == JobFail
}

// ImportJob records one batch import, from either HTTP or a file.
type ImportJob struct {
	Code        string
	ItemType    string
	RowCount    int
	Site        string
	Process     ProcessKind
	Status      JobStatus
	StartedAt   time.Time
	FinishedAt  *time.Time
	Description string
	LogFile     string
	Request     string
}

// Result is what an import returns to its caller.
type Result struct {
	OK      bool
	Message string
}

func Success(message string) Result {
	return Result{OK: true, Message: message}
}

func Failure(message string) Result {
	return Result{OK: false, Message: message}
}
