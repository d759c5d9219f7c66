package schema

import (
	"context"
	"net/http"
	"net/http/httptest"
	"os"
	"testing"
	"testing/fstest"
)

func TestLoader_FileFSAndHTTP(t *testing.T) {
	t.Parallel()

	v2, err := os.ReadFile("testdata/v2.json")
	if err != nil {
		t.Fatalf("read fixture: %v", err)
	}

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/schema.json" {
			http.NotFound(w, r)
			return
		}
		_, _ = w.Write(v2)
	}))
	t.Cleanup(server.Close)

	loader := NewLoader(LoaderOptions{
		FileSystem: fstest.MapFS{"forms/v2.yaml": {Data: mustRead(t, "testdata/v2.yaml")}},
		AllowHTTP:  true,
	})
	ctx := context.Background()

	fromFile, err := loader.Load(ctx, SourceFromFile("testdata/v1.json"))
	if err != nil || len(fromFile.Components) != 2 {
		t.Fatalf("file load: %v", err)
	}

	fromFS, err := loader.Load(ctx, SourceFromFS("forms/v2.yaml"))
	if err != nil || len(fromFS.Components) != 2 {
		t.Fatalf("fs load: %v", err)
	}

	src, err := SourceFor(server.URL + "/schema.json")
	if err != nil {
		t.Fatalf("source for url: %v", err)
	}
	if src.Kind() != SourceKindURL {
		t.Fatalf("expected url source, got %s", src.Kind())
	}
	fromHTTP, err := loader.Load(ctx, src)
	if err != nil || len(fromHTTP.Components) != 4 {
		t.Fatalf("http load: %v", err)
	}

	missing, _ := SourceFor(server.URL + "/missing.json")
	if _, err := loader.Load(ctx, missing); err == nil {
		t.Fatalf("expected 404 to fail")
	}
}

func TestLoader_HTTPDisabledByDefault(t *testing.T) {
	t.Parallel()

	src, err := SourceFromURL("https://example.com/form.json")
	if err != nil {
		t.Fatalf("source from url: %v", err)
	}
	if _, err := NewLoader(LoaderOptions{}).Load(context.Background(), src); err == nil {
		t.Fatalf("expected http to be disabled")
	}
	if _, err := SourceFromURL("ftp://example.com/form.json"); err == nil {
		t.Fatalf("expected unsupported scheme to fail")
	}
}

func mustRead(t *testing.T, path string) []byte {
	t.Helper()
	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read %s: %v", path, err)
	}
	return data
}
