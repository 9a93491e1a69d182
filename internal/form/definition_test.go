package form

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"testing/fstest"

	"github.com/yanizio/cadastro/internal/options"
)

func TestParseFormDefRejects(t *testing.T) {
	cases := map[string]string{
		"missing id": `
fields:
  - {name: a, label: A, type: text}`,
		"no fields": `id: x`,
		"bad type": `
id: x
fields:
  - {name: a, label: A, type: date}`,
		"duplicate field": `
id: x
fields:
  - {name: a, label: A, type: text}
  - {name: a, label: B, type: text}`,
		"choice without options": `
id: x
fields:
  - {name: a, label: A, type: select}`,
		"options and options_from": `
id: x
fields:
  - name: a
    label: A
    type: radio
    options_from: states
    options: [x]`,
		"enum on checkboxes": `
id: x
fields:
  - {name: a, label: A, type: checkboxes, enum: true, options: [x]}`,
		"bad action": `
id: x
fields:
  - {name: a, label: A, type: text}
actions:
  - type: email`,
	}
	for name, raw := range cases {
		t.Run(name, func(t *testing.T) {
			if _, err := ParseFormDef([]byte(raw), name); err == nil {
				t.Fatal("expected error")
			}
		})
	}
}

func TestParseFormDefActionParams(t *testing.T) {
	fd, err := ParseFormDef([]byte(`
id: x
fields:
  - {name: a, label: A, type: text}
actions:
  - type: webhook
    url: https://example.com/hook
    header.X-Token: abc
`), "inline")
	if err != nil {
		t.Fatal(err)
	}
	p := fd.Actions[0].Params
	if p["url"] != "https://example.com/hook" || p["header.X-Token"] != "abc" {
		t.Fatalf("params = %v", p)
	}
}

func TestCompileResolvesOptionsFrom(t *testing.T) {
	fd, _ := testForm(t)
	for _, f := range fd.Fields {
		if f.Name != "state" {
			continue
		}
		if len(f.Options) != 27 {
			t.Fatalf("state has %d options, want 27", len(f.Options))
		}
		return
	}
	t.Fatal("state field missing")
}

func TestCompileUnknownOptionList(t *testing.T) {
	cat, _ := options.Default()
	fd, err := ParseFormDef([]byte(`
id: x
fields:
  - {name: a, label: A, type: select, options_from: planets}
`), "inline")
	if err != nil {
		t.Fatal(err)
	}
	if _, err := Compile(fd, cat); err == nil || !strings.Contains(err.Error(), "planets") {
		t.Fatalf("err = %v", err)
	}
	if _, err := Compile(fd, nil); err == nil {
		t.Fatal("nil lookup should fail")
	}
}

func TestCompileDefaultMessages(t *testing.T) {
	fd, err := ParseFormDef([]byte(`
id: x
fields:
  - {name: a, label: A, type: text, required: true, minlength: 3}
  - {name: b, label: B, type: select, enum: true, options: [p, q]}
`), "inline")
	if err != nil {
		t.Fatal(err)
	}
	sc, err := Compile(fd, nil)
	if err != nil {
		t.Fatal(err)
	}
	_, err = sc.Validate(Snapshot{"a": Text("ab"), "b": Text("z")})
	ve, ok := AsValidationError(err)
	if !ok {
		t.Fatalf("err = %v", err)
	}
	m := ve.Map()
	if m["a"] != "Mínimo de 3 caracteres" || m["b"] != "Opção inválida" {
		t.Fatalf("messages = %v", m)
	}
}

func TestRegisterFirstWins(t *testing.T) {
	dir := t.TempDir()
	override := `
id: first-wins
title: Override
fields:
  - {name: a, label: A, type: text}
`
	if err := os.WriteFile(filepath.Join(dir, "f.yaml"), []byte(override), 0o644); err != nil {
		t.Fatal(err)
	}
	embedded := fstest.MapFS{
		"forms/f.yaml": {Data: []byte(strings.Replace(override, "Override", "Embedded", 1))},
	}

	if err := RegisterForms([]string{dir, filepath.Join(dir, "missing")}, nil); err != nil {
		t.Fatalf("RegisterForms: %v", err)
	}
	if err := RegisterFS(embedded, nil); err != nil {
		t.Fatalf("RegisterFS: %v", err)
	}
	fd, ok := GetFormDef("first-wins")
	if !ok || fd.Title != "Override" {
		t.Fatalf("got %+v", fd)
	}
}

func TestLoadFormDefTestdata(t *testing.T) {
	fd, err := ParseFormDef(readTestdata(t, "registration.yaml"), "registration.yaml")
	if err != nil {
		t.Fatal(err)
	}
	if !fd.Trim || len(fd.Fields) != 14 {
		t.Fatalf("trim=%v fields=%d", fd.Trim, len(fd.Fields))
	}
}
