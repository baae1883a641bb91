package dataimport

import "errors"

var (
	ErrPermissionDenied  = errors.New("not authorized to import this item type")
	ErrInvalidPayload    = errors.New("request body must be a JSON array of objects")
	ErrImportFailed      = errors.New("import failed")
	ErrInvalidJobCode    = errors.New("invalid import job code")
	ErrImportJobNotFound = errors.New("import job not found")
	ErrGetImportJob      = errors.New("failed to get import job")
	ErrInvalidImportFile = errors.New("invalid import file")
)
