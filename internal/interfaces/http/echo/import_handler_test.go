package echo_test

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/labstack/echo/v4"
	"github.com/sirupsen/logrus"
	"golang.org/x/text/language"

	app "github.com/mohammadpnp/data-import/internal/application/dataimport"
	domain "github.com/mohammadpnp/data-import/internal/domain/dataimport"
	httpecho "github.com/mohammadpnp/data-import/internal/interfaces/http/echo"
)

type fakeImportPayload struct {
	in     app.ImportPayloadInput
	output app.ImportPayloadOutput
	err    error
}

func (f *fakeImportPayload) Execute(ctx context.Context, in app.ImportPayloadInput) (app.ImportPayloadOutput, error) {
	f.in = in
	return f.output, f.err
}

type fakeImportLocalFile struct {
	in     app.ImportLocalFileInput
	output app.ImportLocalFileOutput
	err    error
}

func (f *fakeImportLocalFile) Execute(ctx context.Context, in app.ImportLocalFileInput) (app.ImportLocalFileOutput, error) {
	f.in = in
	return f.output, f.err
}

type fakeSites struct {
	byDomain map[string]*domain.Entity
}

func (f fakeSites) GetByCode(ctx context.Context, code string) (*domain.Entity, error) {
	return nil, domain.ErrNotFound
}

func (f fakeSites) GetByDomain(ctx context.Context, host string) (*domain.Entity, error) {
	if site, ok := f.byDomain[host]; ok {
		return site, nil
	}
	return nil, domain.ErrNotFound
}

func quietLogger() logrus.FieldLogger {
	log := logrus.New()
	log.SetOutput(io.Discard)
	return log
}

type server struct {
	e       *echo.Echo
	payload *fakeImportPayload
	file    *fakeImportLocalFile
	job     *fakeGetImportJob
}

func newServer(t *testing.T) *server {
	t.Helper()

	germanSite := domain.NewEntity("Site")
	germanSite.Set("language", "de")
	locales := httpecho.NewLocaleResolver(fakeSites{byDomain: map[string]*domain.Entity{"shop.de": germanSite}}, language.English)
	tokens, err := httpecho.ParseTokenAuthorities("admin:SUPER_ADMIN,editor:Product_Save")
	if err != nil {
		t.Fatalf("tokens: %v", err)
	}

	s := &server{
		e:       echo.New(),
		payload: &fakeImportPayload{},
		file:    &fakeImportLocalFile{},
		job:     &fakeGetImportJob{},
	}
	importHandler := httpecho.NewImportHandler(s.payload, s.file, tokens, locales, quietLogger())
	jobHandler := httpecho.NewJobHandler(s.job, locales)
	httpecho.RegisterRoutes(s.e, importHandler, jobHandler)
	return s
}

func (s *server) do(method, target, token string, body []byte) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, target, bytes.NewReader(body))
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	if token != "" {
		req.Header.Set(httpecho.HeaderAPIToken, token)
	}
	rec := httptest.NewRecorder()
	s.e.ServeHTTP(rec, req)
	return rec
}

func decodeBody(t *testing.T, rec *httptest.ResponseRecorder) map[string]any {
	t.Helper()
	var got map[string]any
	if err := json.Unmarshal(rec.Body.Bytes(), &got); err != nil {
		t.Fatalf("unexpected json: %v", err)
	}
	return got
}

func TestImportDataSuccess(t *testing.T) {
	t.Parallel()

	s := newServer(t)
	s.payload.output = app.ImportPayloadOutput{JobCode: "job-1", ItemType: "Product", Status: "SUCCESS", Rows: 2}

	rec := s.do(http.MethodPost, "/dataimport/save/product", "editor", []byte(`[{"code[unique]":"a"},{"code[unique]":"b"}]`))
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}

	data, ok := decodeBody(t, rec)["data"].(map[string]any)
	if !ok {
		t.Fatalf("unexpected data payload: %s", rec.Body.String())
	}
	if data["job_code"] != "job-1" || data["detail"] != "2 rows processed" {
		t.Fatalf("unexpected data: %#v", data)
	}
	if s.payload.in.ProcessType != "save" || s.payload.in.ItemType != "product" {
		t.Fatalf("unexpected input: %+v", s.payload.in)
	}
	if len(s.payload.in.Authorities) != 1 || s.payload.in.Authorities[0] != "Product_Save" {
		t.Fatalf("unexpected authorities: %v", s.payload.in.Authorities)
	}
}

func TestImportDataLocale(t *testing.T) {
	t.Parallel()

	s := newServer(t)
	s.payload.output = app.ImportPayloadOutput{Rows: 1}

	rec := s.do(http.MethodPost, "/dataimport/save/product?isoCode=de", "admin", []byte(`[]`))
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	data := decodeBody(t, rec)["data"].(map[string]any)
	if data["detail"] != "1 Zeilen verarbeitet" {
		t.Fatalf("expected german detail, got %#v", data["detail"])
	}

	req := httptest.NewRequest(http.MethodPost, "/dataimport/save/product", bytes.NewReader([]byte(`[]`)))
	req.Host = "shop.de"
	req.Header.Set(httpecho.HeaderAPIToken, "admin")
	rec = httptest.NewRecorder()
	s.e.ServeHTTP(rec, req)
	data = decodeBody(t, rec)["data"].(map[string]any)
	if data["detail"] != "1 Zeilen verarbeitet" {
		t.Fatalf("expected site language, got %#v", data["detail"])
	}
}

func TestImportDataErrors(t *testing.T) {
	t.Parallel()

	cases := []struct {
		name   string
		token  string
		err    error
		status int
		code   string
	}{
		{"no token", "", nil, http.StatusUnauthorized, "unauthorized"},
		{"unknown token", "nope", nil, http.StatusUnauthorized, "unauthorized"},
		{"forbidden", "editor", fmt.Errorf("%w: Product_Remove", app.ErrPermissionDenied), http.StatusForbidden, "forbidden"},
		{"bad process", "admin", fmt.Errorf("%w: %q", domain.ErrInvalidProcess, "update"), http.StatusBadRequest, "invalid_process"},
		{"unknown type", "admin", &domain.UnknownTypeError{Name: "order"}, http.StatusNotFound, "unknown_item_type"},
		{"bad payload", "admin", fmt.Errorf("%w: eof", app.ErrInvalidPayload), http.StatusBadRequest, "invalid_payload"},
		{"import failed", "admin", fmt.Errorf("%w: boom", app.ErrImportFailed), http.StatusUnprocessableEntity, "import_failed"},
		{"internal", "admin", errors.New("boom"), http.StatusInternalServerError, "internal_error"},
	}
	for _, tc := range cases {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()

			s := newServer(t)
			s.payload.err = tc.err
			s.payload.output = app.ImportPayloadOutput{JobCode: "job-9", Message: "Site field must be same for all rows"}

			rec := s.do(http.MethodPost, "/dataimport/remove/product", tc.token, []byte(`[]`))
			if rec.Code != tc.status {
				t.Fatalf("expected %d, got %d", tc.status, rec.Code)
			}
			body := decodeBody(t, rec)
			errBody, _ := body["error"].(map[string]any)
			if errBody["code"] != tc.code {
				t.Fatalf("unexpected error body: %#v", body)
			}
			if tc.code == "import_failed" && errBody["message"] != "Site field must be same for all rows" {
				t.Fatalf("import failure must carry the job message: %#v", errBody)
			}
		})
	}
}

func TestImportFileEndpoint(t *testing.T) {
	t.Parallel()

	s := newServer(t)
	s.file.output = app.ImportLocalFileOutput{Path: "Save_Site.csv", OK: true, Message: "done"}

	rec := s.do(http.MethodPost, "/dataimport/files", "admin", []byte(`{"path":"Save_Site.csv","move":true}`))
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	if s.file.in.Path != "Save_Site.csv" || !s.file.in.Move {
		t.Fatalf("unexpected input: %+v", s.file.in)
	}

	s.file.err = app.ErrInvalidImportFile
	rec = s.do(http.MethodPost, "/dataimport/files", "admin", []byte(`{"path":"x.txt"}`))
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", rec.Code)
	}

	rec = s.do(http.MethodPost, "/dataimport/files", "admin", []byte(`{"path":`))
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 for bad json, got %d", rec.Code)
	}
}

func TestHeartBeat(t *testing.T) {
	t.Parallel()

	s := newServer(t)
	rec := s.do(http.MethodGet, "/dataimport/heart-beat", "", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
}

func TestParseTokenAuthorities(t *testing.T) {
	t.Parallel()

	tokens, err := httpecho.ParseTokenAuthorities(" a: SUPER_ADMIN , b:Product_Save|Product_Remove ")
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	if got, ok := tokens.Lookup("b"); !ok || len(got) != 2 {
		t.Fatalf("unexpected authorities: %v", got)
	}
	if _, ok := tokens.Lookup(""); ok {
		t.Fatal("empty token must not match")
	}
	if _, err := httpecho.ParseTokenAuthorities("missing-colon"); err == nil {
		t.Fatal("expected error")
	}
}
