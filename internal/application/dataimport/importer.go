package dataimport

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"
	"unicode/utf8"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	domain "github.com/mohammadpnp/data-import/internal/domain/dataimport"
)

const siteCodeKey = "code"

type rowImporter interface {
	ImportRows(ctx context.Context, itemType string, rows []domain.Row, kind domain.ProcessKind, site *domain.Entity) domain.Result
}

type mediaImporter interface {
	ImportMedia(ctx context.Context, itemType string, rows []domain.Row, site *domain.Entity, move bool) domain.Result
}

// Batch is one set of rows of a single type, from a request body or a file.
type Batch struct {
	Kind    domain.ProcessKind
	Type    *domain.EntityType
	Rows    []domain.Row
	Request string
	Move    bool
}

type ImporterDeps struct {
	Registry *domain.Registry
	Rows     rowImporter
	Media    mediaImporter
	Sites    domain.SiteResolver
	Jobs     domain.JobRepository
	Folders  Folders
	Observer JobObserver
	Log      logrus.FieldLogger
	Now      func() time.Time
}

// Importer runs batches with their job bookkeeping. Every import, HTTP or
// file, runs while holding the importer's lock.
type Importer struct {
	registry *domain.Registry
	rows     rowImporter
	media    mediaImporter
	sites    domain.SiteResolver
	jobs     domain.JobRepository
	folders  Folders
	observer JobObserver
	log      logrus.FieldLogger
	now      func() time.Time

	mu sync.Mutex
}

func NewImporter(deps ImporterDeps) *Importer {
	if deps.Observer == nil {
		deps.Observer = JobObservers(nil)
	}
	if deps.Now == nil {
		deps.Now = time.Now
	}
	if deps.Log == nil {
		deps.Log = logrus.StandardLogger()
	}
	return &Importer{
		registry: deps.Registry,
		rows:     deps.Rows,
		media:    deps.Media,
		sites:    deps.Sites,
		jobs:     deps.Jobs,
		folders:  deps.Folders,
		observer: deps.Observer,
		log:      deps.Log,
		now:      deps.Now,
	}
}

// RunBatch imports a batch and returns its finished job.
func (im *Importer) RunBatch(ctx context.Context, b Batch) (domain.ImportJob, domain.Result) {
	im.mu.Lock()
	defer im.mu.Unlock()

	job, result := im.runBatch(ctx, b)
	return *job, result
}

func (im *Importer) runBatch(ctx context.Context, b Batch) (*domain.ImportJob, domain.Result) {
	job := im.newJob(b)
	log := im.log.WithFields(logrus.Fields{"job_code": job.Code, "item_type": job.ItemType, "process": job.Process})
	if err := im.jobs.Create(ctx, job); err != nil {
		log.Errorf("create import job: %v", err)
	}

	site, err := im.batchSite(ctx, b)
	if site != nil {
		job.Site = site.String()
	}
	if err != nil {
		log.Errorf("batch validation failed: %v", err)
		return job, im.finish(ctx, job, domain.Failure(err.Error()))
	}

	job.Status = domain.JobProcessing
	if err := im.jobs.Update(ctx, job); err != nil {
		log.Errorf("mark import job processing: %v", err)
	}
	log.Infof("processing %d rows", len(b.Rows))

	var result domain.Result
	if b.Kind == domain.ProcessFile {
		result = im.media.ImportMedia(ctx, b.Type.Name, b.Rows, site, b.Move)
	} else {
		result = im.rows.ImportRows(ctx, b.Type.Name, b.Rows, b.Kind, site)
	}
	return job, im.finish(ctx, job, result)
}

// failBatch records a batch that failed before its rows could be read.
func (im *Importer) failBatch(ctx context.Context, b Batch, cause error) (*domain.ImportJob, domain.Result) {
	job := im.newJob(b)
	if err := im.jobs.Create(ctx, job); err != nil {
		im.log.WithField("job_code", job.Code).Errorf("create import job: %v", err)
	}
	return job, im.finish(ctx, job, domain.Failure(cause.Error()))
}

func (im *Importer) newJob(b Batch) *domain.ImportJob {
	return &domain.ImportJob{
		Code:      uuid.NewString(),
		ItemType:  b.Type.Name,
		RowCount:  len(b.Rows),
		Process:   b.Kind,
		Status:    domain.JobPending,
		StartedAt: im.now().UTC(),
		Request:   b.Request,
	}
}

func (im *Importer) finish(ctx context.Context, job *domain.ImportJob, result domain.Result) domain.Result {
	finishedAt := im.now().UTC()
	job.FinishedAt = &finishedAt
	job.Description = truncateReason(result.Message)
	if result.OK {
		job.Status = domain.JobSuccess
	} else {
		job.Status = domain.JobFail
	}

	if err := im.jobs.Update(ctx, job); err != nil {
		im.log.WithField("job_code", job.Code).Errorf("finish import job: %v", err)
	}
	im.observer.JobFinished(ctx, *job)
	return result
}

// batchSite checks that all rows share one site and resolves it. The site type
// takes its site from the first row's code and tolerates lookup failures.
func (im *Importer) batchSite(ctx context.Context, b Batch) (*domain.Entity, error) {
	if len(b.Rows) == 0 {
		return nil, nil
	}

	if b.Type.IsSite() {
		code := columnValue(b.Rows[0], func(d domain.FieldDescriptor) bool {
			return d.BaseName == siteCodeKey && !d.IsRelation()
		})
		if code == "" {
			return nil, nil
		}
		site, err := im.sites.GetByCode(ctx, code)
		if err != nil {
			im.log.WithField("site", code).Debugf("site not found, importing without site: %v", err)
			return nil, nil
		}
		return site, nil
	}

	if !b.Type.SiteScoped() {
		return nil, nil
	}

	header, desc := siteColumn(b.Rows[0])
	first := strings.TrimSpace(b.Rows[0][header])
	if header == "" || first == "" {
		return nil, &domain.ValidationError{
			Reason: fmt.Sprintf("%s(%s)[unique] field must not be null", domain.SiteFieldName, siteCodeKey),
			Err:    domain.ErrSiteRequired,
		}
	}
	for _, row := range b.Rows[1:] {
		if strings.TrimSpace(row[header]) != first {
			return nil, &domain.ValidationError{Reason: domain.SiteMismatchMessage, Err: domain.ErrSiteMismatch}
		}
	}

	tuples, err := domain.ParseReferences(desc, first)
	if err != nil {
		return nil, err
	}
	if len(tuples) != 1 || tuples[0].IsNull() {
		return nil, &domain.ValidationError{
			Reason: fmt.Sprintf("column %s must reference exactly one site", header),
			Err:    domain.ErrSiteRequired,
		}
	}
	code, ok := tuples[0][siteCodeKey]
	if !ok {
		code = tuples[0][desc.Relation.Keys[0]]
	}

	site, err := im.sites.GetByCode(ctx, code)
	if err != nil {
		return nil, &domain.ResolutionError{Type: domain.SiteTypeName, Criteria: code, Err: err}
	}
	return site, nil
}

func siteColumn(row domain.Row) (string, domain.FieldDescriptor) {
	for header := range row {
		desc, err := domain.ParseColumn(header)
		if err == nil && desc.BaseName == domain.SiteFieldName && desc.IsRelation() {
			return header, desc
		}
	}
	return "", domain.FieldDescriptor{}
}

func columnValue(row domain.Row, match func(domain.FieldDescriptor) bool) string {
	for header, value := range row {
		desc, err := domain.ParseColumn(header)
		if err == nil && match(desc) {
			return strings.TrimSpace(value)
		}
	}
	return ""
}

func truncateReason(reason string) string {
	const maxLen = 1000
	reason = strings.TrimSpace(reason)
	if len(reason) <= maxLen {
		return reason
	}
	n := maxLen
	for n > 0 && !utf8.RuneStart(reason[n]) {
		n--
	}
	return reason[:n]
}
