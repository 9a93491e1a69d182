// internal/form/definition.go
//
// Cadastro – Forms subsystem: YAML definition loader and registry.
//
// Context
//   Each form is declared in a YAML file: its identifier, title, fields,
//   normalisation policy, and post-submit actions.  Components embed their
//   default definitions; operators may drop overrides into a directory.  At
//   start-up every definition is parsed, checked, compiled into a Schema
//   (schema.go), and stored in an in-memory registry keyed by ID, so the
//   renderer, the coordinator, and the actions all read one source of truth.
//
// Workflow
//   •  Structs mirror the YAML: FormDef → FieldDef / ActionDef.
//   •  ParseFormDef decodes and checks structure (validator/v10 tags plus
//      rules tags cannot express).
//   •  Compile resolves options_from against the option catalog and emits
//      typed constraints.
//   •  RegisterForms walks override directories, then RegisterFS adds the
//      embedded defaults.  The first registration of an ID wins.
//
//------------------------------------------------------------------------------

package form

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/go-playground/validator/v10"
	"gopkg.in/yaml.v3"

	"github.com/yanizio/cadastro/internal/options"
)

// ErrUnknownForm is returned when a form ID is not registered.
var ErrUnknownForm = errors.New("unknown form")

// Field types understood by the renderer and the compiler.
const (
	TypeText       = "text"
	TypeTextarea   = "textarea"
	TypeSelect     = "select"
	TypeRadio      = "radio"
	TypeCheckboxes = "checkboxes"
)

// -----------------------------------------------------------------------------
// Data structures
// -----------------------------------------------------------------------------

// FormDef represents one form definition loaded from YAML.
type FormDef struct {
	ID      string      `yaml:"id"      validate:"required"`
	Title   string      `yaml:"title"`
	Desc    string      `yaml:"description"` // page meta description
	Trim    bool        `yaml:"trim"`        // strip surrounding whitespace before validating
	Fields  []FieldDef  `yaml:"fields"  validate:"required,min=1,dive"`
	Actions []ActionDef `yaml:"actions" validate:"dive"`
}

// FieldDef describes a single input control.  Validation metadata lives
// inline; Error overrides every default message of the field.
type FieldDef struct {
	Name        string           `yaml:"name"         validate:"required"`
	Label       string           `yaml:"label"        validate:"required"`
	Type        string           `yaml:"type"         validate:"required,oneof=text textarea select radio checkboxes"`
	Placeholder string           `yaml:"placeholder"`
	Help        string           `yaml:"help"` // limited HTML, sanitised at render
	Required    bool             `yaml:"required"`
	MinLength   int              `yaml:"minlength"    validate:"gte=0"`
	Enum        bool             `yaml:"enum"` // value must be one of Options
	Options     []options.Option `yaml:"options"`
	OptionsFrom string           `yaml:"options_from"`
	ErrorMsg    string           `yaml:"error"`
}

// ActionDef configures a success handler run after validation.  Provider
// specific keys are kept inline in Params.
type ActionDef struct {
	Type   string         `yaml:"type"    validate:"required,oneof=log store webhook publish"`
	Params map[string]any `yaml:",inline"`
}

// OptionLookup resolves options_from references.  *options.Catalog
// satisfies it.
type OptionLookup interface {
	Lookup(name string) ([]options.Option, bool)
}

// -----------------------------------------------------------------------------
// Registry
// -----------------------------------------------------------------------------

type entry struct {
	def    *FormDef
	schema *Schema
}

var (
	registryMu sync.RWMutex
	registry   = make(map[string]entry)
)

// GetFormDef returns a compiled FormDef by ID.  Options are already
// resolved.  Callers must treat the result as read-only.
func GetFormDef(id string) (*FormDef, bool) {
	registryMu.RLock()
	defer registryMu.RUnlock()
	e, ok := registry[id]
	return e.def, ok
}

// LookupSchema returns the compiled Schema for id.
func LookupSchema(id string) (*Schema, bool) {
	registryMu.RLock()
	defer registryMu.RUnlock()
	e, ok := registry[id]
	return e.schema, ok
}

// Register compiles fd and adds it unless the ID is already taken.  It
// reports whether fd was added.
func Register(fd *FormDef, lookup OptionLookup) (bool, error) {
	s, err := Compile(fd, lookup)
	if err != nil {
		return false, err
	}
	registryMu.Lock()
	defer registryMu.Unlock()
	if _, taken := registry[fd.ID]; taken {
		return false, nil
	}
	registry[fd.ID] = entry{def: fd, schema: s}
	return true, nil
}

// -----------------------------------------------------------------------------
// Loader API
// -----------------------------------------------------------------------------

var structCheck = validator.New()

// ParseFormDef decodes raw YAML and checks its structure.  src names the
// origin in error messages.  It never touches the registry.
func ParseFormDef(raw []byte, src string) (*FormDef, error) {
	var fd FormDef
	if err := yaml.Unmarshal(raw, &fd); err != nil {
		return nil, fmt.Errorf("parse YAML %s: %w", src, err)
	}
	if err := structCheck.Struct(&fd); err != nil {
		return nil, fmt.Errorf("form definition %s: %w", src, err)
	}
	if err := checkFields(&fd, src); err != nil {
		return nil, err
	}
	return &fd, nil
}

// LoadFormDef parses one YAML file from disk.
func LoadFormDef(path string) (*FormDef, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read form file %s: %w", path, err)
	}
	return ParseFormDef(raw, path)
}

// RegisterForms walks each directory for "*.yaml" definitions and registers
// them.  dirs must be ordered by precedence, highest first.  Missing
// directories are skipped.
func RegisterForms(dirs []string, lookup OptionLookup) error {
	for _, dir := range dirs {
		err := filepath.WalkDir(dir, func(path string, d fs.DirEntry, walkErr error) error {
			if walkErr != nil {
				return walkErr
			}
			if d.IsDir() || !isYAML(d.Name()) {
				return nil
			}
			fd, err := LoadFormDef(path)
			if err != nil {
				return err
			}
			_, err = Register(fd, lookup)
			return err
		})
		if err != nil && !errors.Is(err, fs.ErrNotExist) {
			return err
		}
	}
	return nil
}

// RegisterFS registers every "*.yaml" definition found in fsys.  Components
// call it with their embedded defaults after overrides are in place.
func RegisterFS(fsys fs.FS, lookup OptionLookup) error {
	return fs.WalkDir(fsys, ".", func(path string, d fs.DirEntry, walkErr error) error {
		if walkErr != nil {
			return walkErr
		}
		if d.IsDir() || !isYAML(d.Name()) {
			return nil
		}
		raw, err := fs.ReadFile(fsys, path)
		if err != nil {
			return err
		}
		fd, err := ParseFormDef(raw, path)
		if err != nil {
			return err
		}
		_, err = Register(fd, lookup)
		return err
	})
}

func isYAML(name string) bool {
	return strings.HasSuffix(name, ".yaml") || strings.HasSuffix(name, ".yml")
}

// -----------------------------------------------------------------------------
// Structural checks
// -----------------------------------------------------------------------------

// checkFields enforces rules validator tags cannot express.
func checkFields(fd *FormDef, src string) error {
	seen := make(map[string]struct{}, len(fd.Fields))
	for _, f := range fd.Fields {
		if _, dup := seen[f.Name]; dup {
			return fmt.Errorf("form %s: duplicate field name '%s'", src, f.Name)
		}
		seen[f.Name] = struct{}{}

		if len(f.Options) > 0 && f.OptionsFrom != "" {
			return fmt.Errorf("form %s: field '%s' sets both 'options' and 'options_from'", src, f.Name)
		}
		if isChoice(f.Type) && len(f.Options) == 0 && f.OptionsFrom == "" {
			return fmt.Errorf("form %s: field '%s' of type %s needs options", src, f.Name, f.Type)
		}
		if f.Enum && f.Type != TypeSelect && f.Type != TypeRadio {
			return fmt.Errorf("form %s: field '%s': enum only applies to select and radio", src, f.Name)
		}
	}
	return nil
}

func isChoice(typ string) bool {
	return typ == TypeSelect || typ == TypeRadio || typ == TypeCheckboxes
}

// -----------------------------------------------------------------------------
// Compile
// -----------------------------------------------------------------------------

// Compile resolves options_from in place and returns the typed Schema.
func Compile(fd *FormDef, lookup OptionLookup) (*Schema, error) {
	rules := make([]FieldRule, 0, len(fd.Fields))
	for i := range fd.Fields {
		f := &fd.Fields[i]
		if f.OptionsFrom != "" {
			if lookup == nil {
				return nil, fmt.Errorf("form %s: field '%s': no option catalog for %q", fd.ID, f.Name, f.OptionsFrom)
			}
			opts, ok := lookup.Lookup(f.OptionsFrom)
			if !ok {
				return nil, fmt.Errorf("form %s: field '%s': unknown option list %q", fd.ID, f.Name, f.OptionsFrom)
			}
			f.Options = opts
		}
		rules = append(rules, compileField(f))
	}
	return NewSchema(fd.ID, fd.Trim, rules...), nil
}

func compileField(f *FieldDef) FieldRule {
	r := FieldRule{Name: f.Name, Kind: KindText}
	if f.Type == TypeCheckboxes {
		r.Kind = KindSet
	}

	if f.Required {
		r.Constraints = append(r.Constraints, Required{Msg: msgOr(f.ErrorMsg, "Campo obrigatório")})
	}
	if f.MinLength > 0 {
		r.Constraints = append(r.Constraints, MinLength{
			N:   f.MinLength,
			Msg: msgOr(f.ErrorMsg, fmt.Sprintf("Mínimo de %d caracteres", f.MinLength)),
		})
	}
	if f.Enum && r.Kind == KindText {
		vals := make([]string, len(f.Options))
		for i, o := range f.Options {
			vals[i] = o.Value
		}
		r.Constraints = append(r.Constraints, OneOf{Values: vals, Msg: msgOr(f.ErrorMsg, "Opção inválida")})
	}
	return r
}

func msgOr(custom, fallback string) string {
	if custom != "" {
		return custom
	}
	return fallback
}
