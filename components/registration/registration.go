// components/registration/registration.go
//
// Registration Component – the "Campo de Treinamento" sign-up form.
//
// Context
// -------
// Serves one form, declared in forms/registration.yaml, in two flavours:
//
//   - GET/POST /cadastro       – HTML form; failures re-render with 422
//   - POST /api/cadastro       – JSON in, 201 {id,data} or 422 {errors}
//   - GET  /api/options        – the option catalog behind the selects
//
// Validation, CSRF, and post-submit actions live in internal/form; this
// file only maps outcomes onto HTTP.
package registration

import (
	"bytes"
	"embed"
	"encoding/json"
	"errors"
	"fmt"
	"html/template"
	"io/fs"
	"net/http"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"github.com/yanizio/cadastro/internal/component"
	"github.com/yanizio/cadastro/internal/form"
	"github.com/yanizio/cadastro/internal/head"
	"github.com/yanizio/cadastro/internal/options"
)

// FormID is the registry key of the registration form.
const FormID = "registration"

// Ack is shown after a successful submit.
const Ack = "Cadastro feito com sucesso!"

const path = "/cadastro"

//go:embed forms/*.yaml
var embedded embed.FS

//go:embed templates/page.html
var pageHTML string

var pageTmpl = template.Must(template.New("registration").Parse(pageHTML))

// compile-time assertion
var _ component.Component = (*Comp)(nil)

func init() { component.Register(&Comp{}) }

// Comp implements component.Component.
type Comp struct {
	env component.Env
}

func (c *Comp) Name() string { return FormID }

// Init registers form definitions: override directories first, then the
// embedded default.
func (c *Comp) Init(env component.Env) error {
	if env.Log == nil {
		env.Log = zap.S()
	}
	if env.Submitter == nil {
		env.Submitter = &form.Submitter{}
	}
	c.env = env
	return LoadForms(env.FormDirs, env.Catalog)
}

// LoadForms registers overrides from dirs and then the embedded definition.
// cmd/cadastro calls it directly.
func LoadForms(dirs []string, cat *options.Catalog) error {
	var lookup form.OptionLookup
	if cat != nil {
		lookup = cat
	}
	if err := form.RegisterForms(dirs, lookup); err != nil {
		return err
	}
	sub, err := fs.Sub(embedded, "forms")
	if err != nil {
		return err
	}
	return form.RegisterFS(sub, lookup)
}

// Migrations creates the table the opt-in store action writes to.
func (c *Comp) Migrations() []string {
	return []string{
		`CREATE TABLE IF NOT EXISTS form_submission (
	id           CHAR(36)    NOT NULL PRIMARY KEY,
	form_id      VARCHAR(64) NOT NULL,
	submitted_at DATETIME(6) NOT NULL,
	data         JSON        NOT NULL,
	KEY idx_form_submitted (form_id, submitted_at)
)`,
	}
}

func (c *Comp) Routes() chi.Router {
	r := chi.NewRouter()
	r.Get(path, c.getForm)
	r.Post(path, c.postForm)
	r.Route("/api", func(api chi.Router) {
		api.Post(path, c.postJSON)
		api.Get("/options", c.getOptions)
	})
	return r
}

/*──────────────────────────── HTML handlers ────────────────────────────────*/

type pageView struct {
	Head   template.HTML
	Title  string
	Action string
	Form   template.HTML
	Ack    string
}

func (c *Comp) getForm(w http.ResponseWriter, r *http.Request) {
	c.renderForm(w, http.StatusOK, form.RenderOptions{})
}

func (c *Comp) postForm(w http.ResponseWriter, r *http.Request) {
	res, err := c.env.Submitter.HandleSubmit(FormID, r)
	switch {
	case err == nil:
		c.renderPage(w, http.StatusOK, pageView{Ack: Ack})

	case form.IsValidationError(err):
		ve, _ := form.AsValidationError(err)
		c.renderForm(w, http.StatusUnprocessableEntity, form.RenderOptions{
			Values: res.Values,
			Errors: ve.Map(),
		})

	case errors.Is(err, form.ErrTokenInvalid), errors.Is(err, form.ErrTooFast), errors.Is(err, form.ErrExpired):
		c.env.Log.Warnw("registration token rejected", "err", err.Error(), "remote", r.RemoteAddr)
		c.renderForm(w, http.StatusForbidden, form.RenderOptions{
			Values: res.Values,
			Notice: err.Error(),
		})

	default:
		c.env.Log.Errorw("registration submit failed", "err", err)
		http.Error(w, http.StatusText(http.StatusBadRequest), http.StatusBadRequest)
	}
}

// renderForm renders the form page with a fresh CSRF token.
func (c *Comp) renderForm(w http.ResponseWriter, status int, opts form.RenderOptions) {
	opts.Action = path
	if g := c.env.Submitter.Guard; g != nil {
		tok, err := g.Issue()
		if err != nil {
			c.fail(w, err)
			return
		}
		opts.Token = tok
	}
	markup, err := form.RenderForm(FormID, opts)
	if err != nil {
		c.fail(w, err)
		return
	}
	c.renderPage(w, status, pageView{Form: markup})
}

func (c *Comp) renderPage(w http.ResponseWriter, status int, v pageView) {
	hb := head.New()
	if fd, ok := form.GetFormDef(FormID); ok {
		v.Title = fd.Title
		hb.SetTitle(fd.Title)
		hb.Meta("description", fd.Desc)
	}
	hb.Link("canonical", path)
	if status != http.StatusOK || v.Ack != "" {
		hb.NoIndex()
	}
	v.Head = hb.HTML()
	v.Action = path

	var buf bytes.Buffer
	if err := pageTmpl.ExecuteTemplate(&buf, "page", v); err != nil {
		c.fail(w, err)
		return
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(status)
	_, _ = buf.WriteTo(w)
}

func (c *Comp) fail(w http.ResponseWriter, err error) {
	c.env.Log.Errorw("registration render failed", "err", err)
	http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
}

/*──────────────────────────── JSON handlers ────────────────────────────────*/

type created struct {
	ID   string       `json:"id"`
	Data Registration `json:"data"`
}

type invalid struct {
	Errors []form.FieldError `json:"errors"`
}

func (c *Comp) postJSON(w http.ResponseWriter, r *http.Request) {
	var meta map[string]string
	if c.env.Submitter.Meta != nil {
		meta = c.env.Submitter.Meta(r)
	}
	r.Body = http.MaxBytesReader(w, r.Body, 64<<10)

	res, err := c.env.Submitter.SubmitJSON(r.Context(), FormID, r.Body, meta)
	switch {
	case err == nil:
		writeJSON(w, http.StatusCreated, created{ID: res.Submission.ID, Data: FromSnapshot(res.Submission.Data)})
	case form.IsValidationError(err):
		ve, _ := form.AsValidationError(err)
		writeJSON(w, http.StatusUnprocessableEntity, invalid{Errors: ve.Fields})
	default:
		c.env.Log.Warnw("registration JSON submit failed", "err", err.Error())
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": fmt.Sprintf("invalid request: %v", err)})
	}
}

func (c *Comp) getOptions(w http.ResponseWriter, _ *http.Request) {
	if c.env.Catalog == nil {
		writeJSON(w, http.StatusOK, map[string]any{})
		return
	}
	writeJSON(w, http.StatusOK, c.env.Catalog)
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
