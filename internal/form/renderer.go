// internal/form/renderer.go
//
// Cadastro – Forms subsystem: HTML renderer.
//
// Context
//   Given a registered FormDef this file produces the form markup: one
//   wrapper per field, select and radio options from the resolved option
//   lists, checkbox groups checked from the current Set, the latest error
//   message under each field, and a hidden CSRF token.  Output is plain
//   markup with class hooks (form-field, has-error, error) so pages style it.
//
// Help text in definitions may carry limited HTML (links, emphasis).  It is
// passed through bluemonday's UGC policy before being marked safe.
//
//------------------------------------------------------------------------------

package form

import (
	"bytes"
	_ "embed"
	"fmt"
	"html/template"
	"sync"

	"github.com/microcosm-cc/bluemonday"
)

//go:embed templates/form.html
var formTemplate string

var (
	tmpl      = template.Must(template.New("cadastro").Parse(formTemplate))
	helpOnce  sync.Once
	helpClean *bluemonday.Policy
)

// RenderOptions bundles what changes between renders of the same form.
type RenderOptions struct {
	Action string            // form action URL
	Values Snapshot          // prefill; nil renders empty
	Errors map[string]string // field → message
	Notice string            // form-level message (token failures etc.)
	Token  string            // CSRF token
	Submit string            // button label; defaults to "Cadastrar"
}

type optionView struct {
	Value    string
	Label    string
	Selected bool
}

type fieldView struct {
	ID          string
	Name        string
	Label       string
	Type        string
	Placeholder string
	Help        template.HTML
	MinLength   int
	Value       string
	Options     []optionView
	Error       string
}

type formView struct {
	Title  string
	Action string
	Notice string
	Token  string
	Submit string
	Fields []fieldView
}

// RenderForm returns the markup for the registered form formID.
func RenderForm(formID string, opts RenderOptions) (template.HTML, error) {
	fd, ok := GetFormDef(formID)
	if !ok {
		return "", fmt.Errorf("render: %w: %q", ErrUnknownForm, formID)
	}
	return Render(fd, opts)
}

// Render returns the markup for fd.
func Render(fd *FormDef, opts RenderOptions) (template.HTML, error) {
	view := formView{
		Title:  fd.Title,
		Action: opts.Action,
		Notice: opts.Notice,
		Token:  opts.Token,
		Submit: opts.Submit,
	}
	if view.Submit == "" {
		view.Submit = "Cadastrar"
	}
	for _, f := range fd.Fields {
		view.Fields = append(view.Fields, buildFieldView(f, opts.Values[f.Name], opts.Errors[f.Name]))
	}

	var buf bytes.Buffer
	if err := tmpl.ExecuteTemplate(&buf, "form", view); err != nil {
		return "", fmt.Errorf("render %s: %w", fd.ID, err)
	}
	return template.HTML(buf.String()), nil
}

func buildFieldView(f FieldDef, v Value, errMsg string) fieldView {
	fv := fieldView{
		ID:          "fld-" + f.Name,
		Name:        f.Name,
		Label:       f.Label,
		Type:        f.Type,
		Placeholder: f.Placeholder,
		Help:        sanitizeHelp(f.Help),
		MinLength:   f.MinLength,
		Value:       v.String(),
		Error:       errMsg,
	}
	for _, o := range f.Options {
		sel := o.Value == v.String()
		if v.Kind() == KindSet {
			sel = v.set.Has(o.Value)
		}
		fv.Options = append(fv.Options, optionView{Value: o.Value, Label: o.Label, Selected: sel})
	}
	return fv
}

func sanitizeHelp(raw string) template.HTML {
	if raw == "" {
		return ""
	}
	helpOnce.Do(func() { helpClean = bluemonday.UGCPolicy() })
	return template.HTML(helpClean.Sanitize(raw))
}
