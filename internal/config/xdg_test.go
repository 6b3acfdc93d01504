package config

import (
	"path/filepath"
	"strings"
	"testing"

	"github.com/spf13/afero"
)

func TestXDGCachePaths(t *testing.T) {
	x := NewXDGDirsWithFilesystem(afero.NewMemMapFs())

	testCases := []struct {
		purpose string
		suffix  string
	}{
		{"", "minply"},
		{"logs", filepath.Join("minply", "logs")},
	}

	for _, tc := range testCases {
		path := x.GetCachePath(tc.purpose)
		if !filepath.IsAbs(path) {
			t.Errorf("cache path for %q is not absolute: %s", tc.purpose, path)
		}
		if !strings.HasSuffix(path, tc.suffix) {
			t.Errorf("cache path for %q should end with %s, got %s", tc.purpose, tc.suffix, path)
		}
	}
}

func TestXDGConfigPaths(t *testing.T) {
	x := NewXDGDirsWithFilesystem(afero.NewMemMapFs())

	paths := x.GetConfigPaths("config.json")
	if len(paths) == 0 {
		t.Fatal("GetConfigPaths returned no paths")
	}

	want := filepath.Join("minply", "config.json")
	for _, path := range paths {
		if !strings.HasSuffix(path, want) {
			t.Errorf("config path should end with %s, got %s", want, path)
		}
	}
}

func TestXDGCreateCacheDir(t *testing.T) {
	memFS := afero.NewMemMapFs()
	x := NewXDGDirsWithFilesystem(memFS)

	if err := x.CreateCacheDir("logs"); err != nil {
		t.Fatalf("CreateCacheDir failed: %v", err)
	}

	exists, err := afero.DirExists(memFS, x.GetCachePath("logs"))
	if err != nil || !exists {
		t.Errorf("cache dir was not created (exists=%v, err=%v)", exists, err)
	}
}
