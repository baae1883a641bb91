package dataimport

import "context"

// EntityStore is the persistence contract the importer works against.
// SearchOne returns ErrNotFound or ErrAmbiguous when the criteria do not
// select exactly one entity. Returned entities carry relations as stubs.
type EntityStore interface {
	Create(t *EntityType) *Entity
	SearchOne(ctx context.Context, t *EntityType, criteria Criteria) (*Entity, error)
	// FetchRelations replaces the stubs held by the named relation fields with stored entities.
	FetchRelations(ctx context.Context, e *Entity, names []string) error
	SaveAll(ctx context.Context, entities []*Entity) error
	RemoveAll(ctx context.Context, entities []*Entity) error
}

type SiteResolver interface {
	GetByCode(ctx context.Context, code string) (*Entity, error)
	GetByDomain(ctx context.Context, host string) (*Entity, error)
}

type CategoryResolver interface {
	GetByCode(ctx context.Context, code string, site *Entity) (*Entity, error)
}

// MediaUpload describes one file handed to the media store.
type MediaUpload struct {
	File         string
	Secure       bool
	DeleteSource bool
	Category     *Entity
	Site         *Entity
}

type MediaStore interface {
	Store(ctx context.Context, upload MediaUpload) (*Entity, error)
}

type JobRepository interface {
	Create(ctx context.Context, job *ImportJob) error
	Update(ctx context.Context, job *ImportJob) error
	GetByCode(ctx context.Context, code string) (*ImportJob, error)
}
