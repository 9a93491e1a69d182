package config

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"
)

type fakeSecrets map[string]string

func (f fakeSecrets) Resolve(_ context.Context, ref string) (string, error) {
	if v, ok := f[ref]; ok {
		return v, nil
	}
	return "", errors.New("no such secret")
}

func writeRoot(t *testing.T, yaml string) string {
	t.Helper()
	root := t.TempDir()
	if err := os.MkdirAll(filepath.Join(root, "conf"), 0o755); err != nil {
		t.Fatal(err)
	}
	if yaml != "" {
		if err := os.WriteFile(filepath.Join(root, "conf", "global.yaml"), []byte(yaml), 0o644); err != nil {
			t.Fatal(err)
		}
	}
	t.Setenv("CADASTRO_ROOT", root)
	return root
}

func TestLoadYAMLAndEnvOverlay(t *testing.T) {
	root := writeRoot(t, `
http:
  listen_addr: "127.0.0.1:9000"
csrf:
  min_age: 2s
database:
  dsn: "app:%s@tcp(db:3306)/cadastro"
  password: "vault:secret/cadastro#db_password"
`)
	t.Setenv("CADASTRO_HTTP__FORCE_HTTPS", "true")
	t.Setenv("CADASTRO_NATS__URL", "nats://localhost:4222")

	cfg, err := Load(context.Background(), fakeSecrets{"vault:secret/cadastro#db_password": "pw"})
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.HTTP.ListenAddr != "127.0.0.1:9000" || !cfg.HTTP.ForceHTTPS {
		t.Fatalf("http = %+v", cfg.HTTP)
	}
	if cfg.CSRF.MinAge != 2*time.Second || cfg.CSRF.MaxAge != 2*time.Hour {
		t.Fatalf("csrf = %+v", cfg.CSRF)
	}
	if got := cfg.DSN(); got != "app:pw@tcp(db:3306)/cadastro" {
		t.Fatalf("DSN = %q", got)
	}
	if cfg.NATS.URL != "nats://localhost:4222" || cfg.NATS.Name != "cadastro" {
		t.Fatalf("nats = %+v", cfg.NATS)
	}
	if cfg.Paths.Root != root || cfg.Abs("conf/forms") != filepath.Join(root, "conf/forms") {
		t.Fatalf("paths = %+v", cfg.Paths)
	}
	if Get() != cfg {
		t.Fatal("Get did not return the loaded config")
	}
}

func TestLoadDefaultsWithoutYAML(t *testing.T) {
	writeRoot(t, "")
	cfg, err := Load(context.Background(), nil)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.HTTP.ListenAddr != ":8080" || cfg.Log.Level != "info" || cfg.Database.Enabled() {
		t.Fatalf("defaults = %+v", cfg)
	}
}

func TestLoadRejects(t *testing.T) {
	cases := map[string]string{
		"bad listen addr":  "http: {listen_addr: nope}",
		"bad level":        "log: {level: loud}",
		"two verbs":        `database: {dsn: "%s:%s@tcp(x)/y", password: p}`,
		"verb no password": `database: {dsn: "u:%s@tcp(x)/y"}`,
		"vault no client":  `csrf: {key: "vault:secret/x#k"}`,
		"bad yaml":         "http: [",
	}
	for name, yaml := range cases {
		t.Run(name, func(t *testing.T) {
			writeRoot(t, yaml)
			if _, err := Load(context.Background(), nil); err == nil {
				t.Fatal("expected error")
			}
		})
	}
}
