package cli

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/usetrmnl/inkpipe/pkg/config"
)

func TestOpenCacheBackends(t *testing.T) {
	ctx := context.Background()
	c := New(&bytes.Buffer{}, LogInfo)

	tests := []struct {
		name    string
		cfg     config.CacheConfig
		wantErr bool
	}{
		{"memory", config.CacheConfig{Backend: "memory"}, false},
		{"none", config.CacheConfig{Backend: "none"}, false},
		{"file", config.CacheConfig{Backend: "file", Dir: t.TempDir()}, false},
		{"unknown", config.CacheConfig{Backend: "etcd"}, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := c.openCache(ctx, tt.cfg)
			if (err != nil) != tt.wantErr {
				t.Fatalf("openCache() error = %v, wantErr %v", err, tt.wantErr)
			}
			if err == nil {
				got.Close()
			}
		})
	}
}

func TestOpenCacheNoCacheFlag(t *testing.T) {
	c := New(&bytes.Buffer{}, LogInfo)
	c.noCache = true

	got, err := c.openCache(context.Background(), config.CacheConfig{Backend: "file", Dir: t.TempDir()})
	if err != nil {
		t.Fatalf("openCache() error: %v", err)
	}
	if err := got.Set(context.Background(), "k", []byte("v"), time.Minute); err != nil {
		t.Fatalf("Set() error: %v", err)
	}
	if _, ok, _ := got.Get(context.Background(), "k"); ok {
		t.Error("--no-cache should disable caching")
	}
}

func TestCachePathCommand(t *testing.T) {
	dir := t.TempDir()
	cfgPath := writeConfig(t, dir, "[cache]\nbackend = \"file\"\ndir = \""+filepath.ToSlash(filepath.Join(dir, "artifacts"))+"\"\n")

	var out bytes.Buffer
	root := New(&bytes.Buffer{}, LogInfo).RootCommand()
	root.SetOut(&out)
	root.SetArgs([]string{"cache", "path", "--config", cfgPath})
	if err := root.ExecuteContext(context.Background()); err != nil {
		t.Fatalf("cache path: %v", err)
	}

	want := filepath.Join(dir, "artifacts")
	if got := strings.TrimSpace(out.String()); filepath.Clean(got) != want {
		t.Errorf("cache path = %q, want %q", got, want)
	}
}

func TestCacheClearCommand(t *testing.T) {
	dir := t.TempDir()
	artifacts := filepath.Join(dir, "artifacts")
	cfgPath := writeConfig(t, dir, "[cache]\nbackend = \"file\"\ndir = \""+filepath.ToSlash(artifacts)+"\"\n")

	root := New(&bytes.Buffer{}, LogInfo).RootCommand()
	root.SetArgs([]string{"render", "hello", "--config", cfgPath, "-o", filepath.Join(dir, "hello.png")})
	if err := root.ExecuteContext(context.Background()); err != nil {
		t.Fatalf("render: %v", err)
	}
	if n := countFiles(t, artifacts); n == 0 {
		t.Fatal("render left no cached artifacts")
	}

	root = New(&bytes.Buffer{}, LogInfo).RootCommand()
	root.SetArgs([]string{"cache", "clear", "--config", cfgPath})
	if err := root.ExecuteContext(context.Background()); err != nil {
		t.Fatalf("cache clear: %v", err)
	}
	if n := countFiles(t, artifacts); n != 0 {
		t.Errorf("%d files left after cache clear", n)
	}
}

func writeConfig(t *testing.T, dir, body string) string {
	t.Helper()
	path := filepath.Join(dir, "inkpipe.toml")
	if err := os.WriteFile(path, []byte(body), 0o644); err != nil {
		t.Fatal(err)
	}
	return path
}

func countFiles(t *testing.T, dir string) int {
	t.Helper()
	n := 0
	filepath.WalkDir(dir, func(_ string, d os.DirEntry, err error) error {
		if err == nil && !d.IsDir() {
			n++
		}
		return nil
	})
	return n
}
