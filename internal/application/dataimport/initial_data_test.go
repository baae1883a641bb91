package dataimport_test

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	app "github.com/mohammadpnp/data-import/internal/application/dataimport"
)

func writeSeed(t *testing.T, root string, files ...string) {
	t.Helper()
	for _, f := range files {
		path := filepath.Join(root, f)
		if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
			t.Fatalf("mkdir: %v", err)
		}
		if err := os.WriteFile(path, []byte("code[unique]\nx\n"), 0o644); err != nil {
			t.Fatalf("write %s: %v", f, err)
		}
	}
}

func TestInitialDataImportsFoldersInOrder(t *testing.T) {
	t.Parallel()

	root := t.TempDir()
	writeSeed(t, root,
		"shop/02_catalog/Save_Product.csv",
		"shop/02_catalog/File_Product.csv",
		"shop/01_sites/Save_Site.csv",
		"shop/01_sites/Save_CmsCategory.csv",
		"shop/01_sites/notes.txt",
		"other/01_x/Save_Site.csv",
	)

	importer := &fakeFileImporter{}
	n, err := app.NewInitialData(importer, app.InitialDataConfig{Path: root, Project: "shop"}, testLogger()).Run(context.Background())
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	if n != 3 {
		t.Fatalf("expected 3 files, got %d", n)
	}

	want := []string{
		filepath.Join(root, "shop/01_sites/Save_CmsCategory.csv"),
		filepath.Join(root, "shop/01_sites/Save_Site.csv"),
		filepath.Join(root, "shop/02_catalog/Save_Product.csv"),
	}
	for i, path := range want {
		if importer.calls[i] != path {
			t.Fatalf("call %d: expected %s, got %s", i, path, importer.calls[i])
		}
		if importer.moved[i] {
			t.Fatalf("seed file %s must not be moved", path)
		}
	}
}

func TestInitialDataMediaEnabled(t *testing.T) {
	t.Parallel()

	root := t.TempDir()
	writeSeed(t, root, "shop/01/File_Product.csv", "shop/01/Save_Product.csv")

	importer := &fakeFileImporter{}
	cfg := app.InitialDataConfig{Path: root, Project: "shop", MediaEnabled: true}
	n, err := app.NewInitialData(importer, cfg, testLogger()).Run(context.Background())
	if err != nil || n != 2 {
		t.Fatalf("expected 2 files, got %d (%v)", n, err)
	}
}

func TestInitialDataMissingFolder(t *testing.T) {
	t.Parallel()

	importer := &fakeFileImporter{}
	cfg := app.InitialDataConfig{Path: t.TempDir(), Project: "missing"}
	n, err := app.NewInitialData(importer, cfg, testLogger()).Run(context.Background())
	if err != nil || n != 0 {
		t.Fatalf("expected nothing imported, got %d (%v)", n, err)
	}
}
