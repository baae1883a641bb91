package dataimport_test

import (
	"context"
	"strings"
	"testing"

	"github.com/shopspring/decimal"
	"golang.org/x/text/language"

	app "github.com/mohammadpnp/data-import/internal/application/dataimport"
	domain "github.com/mohammadpnp/data-import/internal/domain/dataimport"
)

func TestImportRowsCreatesAndIsIdempotent(t *testing.T) {
	t.Parallel()

	fx := newFixture(t)
	rows := []domain.Row{{
		"site(code)[unique]": "ACME",
		"code[unique]":       " SKU1 ",
		"price":              "19.99",
	}}

	for i := 0; i < 2; i++ {
		res := fx.rows.ImportRows(context.Background(), "product", rows, domain.ProcessSave, fx.site)
		if !res.OK {
			t.Fatalf("run %d: expected success, got %s", i, res.Message)
		}
		if res.Message != "1 of Product data has been imported successfully" {
			t.Fatalf("unexpected message: %s", res.Message)
		}
	}

	products := fx.store.All("Product")
	if len(products) != 1 {
		t.Fatalf("expected 1 product, got %d", len(products))
	}
	p := products[0]
	if code, _ := p.Get("code"); code != "SKU1" {
		t.Fatalf("unexpected code: %v", code)
	}
	price, _ := p.Get("price")
	if !price.(decimal.Decimal).Equal(decimal.RequireFromString("19.99")) {
		t.Fatalf("unexpected price: %v", price)
	}
	site, _ := p.Get("site")
	if site.(*domain.Entity).ID != fx.site.ID {
		t.Fatalf("product not linked to site")
	}
}

func TestImportRowsBatchIsAtomic(t *testing.T) {
	t.Parallel()

	fx := newFixture(t)
	seed(t, fx.store, "Category", map[string]any{"code": "shoes", "site": fx.site})

	var rows []domain.Row
	for i, category := range []string{"shoes", "shoes", "missing", "shoes", "shoes"} {
		rows = append(rows, domain.Row{
			"site(code)[unique]": "ACME",
			"code[unique]":       "SKU" + string(rune('1'+i)),
			"categories(code)":   category,
		})
	}

	res := fx.rows.ImportRows(context.Background(), "Product", rows, domain.ProcessSave, fx.site)
	if res.OK {
		t.Fatal("expected failure")
	}
	if !strings.HasPrefix(res.Message, "Error occurred while data was imported...Error Row : ") {
		t.Fatalf("unexpected message: %s", res.Message)
	}
	if !strings.Contains(res.Message, `"code[unique]":"SKU3"`) {
		t.Fatalf("message must name the third row: %s", res.Message)
	}
	if n := len(fx.store.All("Product")); n != 0 {
		t.Fatalf("expected no product to be persisted, got %d", n)
	}
}

func TestImportRowsPersistFailure(t *testing.T) {
	t.Parallel()

	fx := newFixture(t)
	importer := app.NewRowImporter(failingStore{EntityStore: fx.store, err: errBoom}, fx.reg, language.English, testLogger())

	res := importer.ImportRows(context.Background(), "Product", []domain.Row{{
		"site(code)[unique]": "ACME",
		"code[unique]":       "SKU1",
	}}, domain.ProcessSave, fx.site)
	if res.OK {
		t.Fatal("expected failure")
	}
	if !strings.HasPrefix(res.Message, "Error occurred while data was imported...") || strings.Contains(res.Message, "Error Row") {
		t.Fatalf("unexpected message: %s", res.Message)
	}
	if !strings.Contains(res.Message, "boom") {
		t.Fatalf("message must carry the cause: %s", res.Message)
	}
}

func TestImportRowsRelationMergeAndOverride(t *testing.T) {
	t.Parallel()

	fx := newFixture(t)
	for _, code := range []string{"a", "b", "c"} {
		seed(t, fx.store, "Category", map[string]any{"code": code, "site": fx.site})
	}
	ctx := context.Background()

	importCategories := func(header, cell string) {
		t.Helper()
		res := fx.rows.ImportRows(ctx, "Product", []domain.Row{{
			"site(code)[unique]": "ACME",
			"code[unique]":       "SKU1",
			header:               cell,
		}}, domain.ProcessSave, fx.site)
		if !res.OK {
			t.Fatalf("%s=%s: %s", header, cell, res.Message)
		}
	}
	categoryCodes := func() []string {
		t.Helper()
		p := findByCode(t, fx.store, "Product", "SKU1")
		if err := fx.store.FetchRelations(ctx, p, []string{"categories"}); err != nil {
			t.Fatalf("fetch relations: %v", err)
		}
		v, _ := p.Get("categories")
		var codes []string
		for _, c := range v.([]*domain.Entity) {
			code, _ := c.Get("code")
			codes = append(codes, code.(string))
		}
		return codes
	}

	importCategories("categories(code)", "a;b")
	importCategories("categories(code)[mode=merge]", "b;c")
	if got := strings.Join(categoryCodes(), ","); got != "a,b,c" {
		t.Fatalf("merge: expected a,b,c, got %s", got)
	}

	importCategories("categories(code)[mode=override]", "c")
	if got := strings.Join(categoryCodes(), ","); got != "c" {
		t.Fatalf("override: expected c, got %s", got)
	}

	importCategories("categories(code)", "null")
	if got := strings.Join(categoryCodes(), ","); got != "c" {
		t.Fatalf("null cell must leave the relation untouched, got %s", got)
	}
}

func TestImportRowsPlainFieldsAndLocales(t *testing.T) {
	t.Parallel()

	fx := newFixture(t)
	ctx := context.Background()

	res := fx.rows.ImportRows(ctx, "Category", []domain.Row{
		{"site(code)[unique]": "ACME", "code[unique]": "shoes", "name[lang=de]": "Schuhe", "name": "Shoes"},
	}, domain.ProcessSave, fx.site)
	if !res.OK {
		t.Fatalf("expected success, got %s", res.Message)
	}

	c := findByCode(t, fx.store, "Category", "shoes")
	name, _ := c.Get("name")
	l := name.(domain.Localized)
	if l.Value(language.German) != "Schuhe" || l.Value(language.English) != "Shoes" {
		t.Fatalf("unexpected name: %v", l)
	}
}

func TestImportRowsResolvesEntitiesCreatedEarlierInBatch(t *testing.T) {
	t.Parallel()

	fx := newFixture(t)
	res := fx.rows.ImportRows(context.Background(), "Category", []domain.Row{
		{"site(code)[unique]": "ACME", "code[unique]": "root"},
		{"site(code)[unique]": "ACME", "code[unique]": "child", "parent(code)": "root"},
	}, domain.ProcessSave, fx.site)
	if !res.OK {
		t.Fatalf("expected success, got %s", res.Message)
	}

	root := findByCode(t, fx.store, "Category", "root")
	child := findByCode(t, fx.store, "Category", "child")
	parent, _ := child.Get("parent")
	if parent.(*domain.Entity).ID != root.ID {
		t.Fatal("child must reference root")
	}
}

func TestImportRowsRemove(t *testing.T) {
	t.Parallel()

	fx := newFixture(t)
	seed(t, fx.store, "Product", map[string]any{"code": "SKU1", "site": fx.site})

	res := fx.rows.ImportRows(context.Background(), "Product", []domain.Row{
		{"site(code)[unique]": "ACME", "code[unique]": "SKU1"},
		{"site(code)[unique]": "ACME", "code[unique]": "SKU-UNKNOWN"},
	}, domain.ProcessRemove, fx.site)
	if !res.OK {
		t.Fatalf("expected success, got %s", res.Message)
	}
	if n := len(fx.store.All("Product")); n != 0 {
		t.Fatalf("expected product to be removed, %d left", n)
	}
}

func TestImportRowsUnknownFieldAndEnum(t *testing.T) {
	t.Parallel()

	fx := newFixture(t)
	cases := map[string]domain.Row{
		"colour":  {"site(code)[unique]": "ACME", "code[unique]": "SKU1", "colour": "red"},
		"status":  {"site(code)[unique]": "ACME", "code[unique]": "SKU1", "status": "archived"},
		"header":  {"site(code)[unique]": "ACME", "code[unique]": "SKU1", "tags[bogus]": "x"},
		"single":  {"site(code)[unique]": "ACME", "code[unique]": "SKU1", "thumbnail(code)": "m1;m2"},
		"no keys": {"site(code)[unique]": "ACME", "code[unique]": "SKU1", "categories": "a"},
	}
	for name, row := range cases {
		res := fx.rows.ImportRows(context.Background(), "Product", []domain.Row{row}, domain.ProcessSave, fx.site)
		if res.OK {
			t.Fatalf("%s: expected failure", name)
		}
	}
	if n := len(fx.store.All("Product")); n != 0 {
		t.Fatalf("expected nothing persisted, got %d", n)
	}
}

func TestImportRowsUnknownType(t *testing.T) {
	t.Parallel()

	fx := newFixture(t)
	res := fx.rows.ImportRows(context.Background(), "Order", nil, domain.ProcessSave, nil)
	if res.OK || !strings.Contains(res.Message, "unknown item type") {
		t.Fatalf("unexpected result: %+v", res)
	}
}

func TestImportRowsUsesDefaultLocale(t *testing.T) {
	t.Parallel()

	fx := newFixture(t)
	importer := app.NewRowImporter(fx.store, fx.reg, language.German, testLogger())
	res := importer.ImportRows(context.Background(), "Category", []domain.Row{
		{"site(code)[unique]": "ACME", "code[unique]": "shoes", "name": "Schuhe", "name[lang=en]": "Shoes"},
	}, domain.ProcessSave, fx.site)
	if !res.OK {
		t.Fatalf("expected success, got %s", res.Message)
	}

	c := findByCode(t, fx.store, "Category", "shoes")
	name, _ := c.Get("name")
	l := name.(domain.Localized)
	if l.Value(language.German) != "Schuhe" || l.Value(language.English) != "Shoes" {
		t.Fatalf("unexpected name: %v", l)
	}
}
