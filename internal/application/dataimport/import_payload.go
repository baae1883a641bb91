package dataimport

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"

	domain "github.com/mohammadpnp/data-import/internal/domain/dataimport"
)

// SuperAdminAuthority may import every item type.
const SuperAdminAuthority = "SUPER_ADMIN"

type ImportPayloadInput struct {
	ProcessType string
	ItemType    string
	Body        []byte
	Authorities []string
}

type ImportPayloadOutput struct {
	JobCode  string `json:"job_code"`
	ItemType string `json:"item_type"`
	Status   string `json:"status"`
	Rows     int    `json:"rows"`
	Message  string `json:"message"`
}

type ImportPayload interface {
	Execute(ctx context.Context, in ImportPayloadInput) (ImportPayloadOutput, error)
}

type batchRunner interface {
	RunBatch(ctx context.Context, b Batch) (domain.ImportJob, domain.Result)
}

type importPayload struct {
	registry *domain.Registry
	runner   batchRunner
}

func NewImportPayload(registry *domain.Registry, runner batchRunner) ImportPayload {
	return &importPayload{registry: registry, runner: runner}
}

func (uc *importPayload) Execute(ctx context.Context, in ImportPayloadInput) (ImportPayloadOutput, error) {
	kind, err := domain.ParseProcessKind(in.ProcessType)
	if err != nil {
		return ImportPayloadOutput{}, err
	}
	t, err := uc.registry.Lookup(in.ItemType)
	if err != nil {
		return ImportPayloadOutput{}, err
	}
	if !Authorized(in.Authorities, t, kind) {
		return ImportPayloadOutput{}, fmt.Errorf("%w: %s_%s", ErrPermissionDenied, t.Name, kind.Title())
	}

	rows, err := decodeRows(in.Body)
	if err != nil {
		return ImportPayloadOutput{}, err
	}

	job, result := uc.runner.RunBatch(ctx, Batch{
		Kind:    kind,
		Type:    t,
		Rows:    rows,
		Request: string(in.Body),
		Move:    true,
	})

	out := ImportPayloadOutput{
		JobCode:  job.Code,
		ItemType: t.Name,
		Status:   string(job.Status),
		Rows:     len(rows),
		Message:  result.Message,
	}
	if !result.OK {
		return out, fmt.Errorf("%w: %s", ErrImportFailed, result.Message)
	}
	return out, nil
}

// Authorized reports whether authorities allow kind on t: SUPER_ADMIN or <Type>_<Process>.
func Authorized(authorities []string, t *domain.EntityType, kind domain.ProcessKind) bool {
	required := t.Name + "_" + kind.Title()
	for _, a := range authorities {
		if a == SuperAdminAuthority || a == required {
			return true
		}
	}
	return false
}

// decodeRows reads a JSON array of flat objects. Scalar values are kept in
// their textual form; null becomes an empty cell.
func decodeRows(body []byte) ([]domain.Row, error) {
	dec := json.NewDecoder(bytes.NewReader(body))
	dec.UseNumber()

	var raw []map[string]any
	if err := dec.Decode(&raw); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidPayload, err)
	}

	rows := make([]domain.Row, 0, len(raw))
	for i, obj := range raw {
		row := make(domain.Row, len(obj))
		for header, v := range obj {
			switch val := v.(type) {
			case nil:
				row[header] = ""
			case string:
				row[header] = val
			case json.Number:
				row[header] = val.String()
			case bool:
				row[header] = fmt.Sprintf("%t", val)
			default:
				return nil, fmt.Errorf("%w: row %d column %q is not a scalar", ErrInvalidPayload, i, header)
			}
		}
		rows = append(rows, row)
	}
	return rows, nil
}
