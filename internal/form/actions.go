// internal/form/actions.go
//
// Cadastro – Forms subsystem: post-submit actions.
//
// Context
//   A FormDef lists the success handlers to run once a submission has
//   validated.  Runner executes them concurrently: log (diagnostic entry),
//   store (row in form_submission), webhook (JSON POST), and publish
//   (message queue).  Failures are logged and counted but never returned,
//   so the user still sees the acknowledgment.
//
//------------------------------------------------------------------------------

package form

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"regexp"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/yanizio/cadastro/internal/message"
	"github.com/yanizio/cadastro/internal/metrics"
)

// Submission is the record handed to actions.
type Submission struct {
	ID          string            `json:"id"`
	FormID      string            `json:"form"`
	SubmittedAt time.Time         `json:"submitted_at"`
	Data        Snapshot          `json:"data"`
	Meta        map[string]string `json:"meta,omitempty"`
}

// NewSubmission stamps data with a fresh ID and the current UTC time.
func NewSubmission(formID string, data Snapshot, meta map[string]string) Submission {
	return Submission{
		ID:          uuid.NewString(),
		FormID:      formID,
		SubmittedAt: time.Now().UTC(),
		Data:        data,
		Meta:        meta,
	}
}

// Runner carries the collaborators actions need.  Zero fields disable the
// actions that depend on them.
type Runner struct {
	DB     *sqlx.DB
	Queue  message.Queue
	Client *http.Client
	Log    *zap.SugaredLogger
}

// Run executes every action of fd for sub and waits for them to finish.
func (r *Runner) Run(ctx context.Context, fd *FormDef, sub Submission) {
	if len(fd.Actions) == 0 {
		return
	}
	log := r.logger()

	var g errgroup.Group
	g.SetLimit(4)
	for _, ac := range fd.Actions {
		ac := ac
		g.Go(func() error {
			if err := r.runOne(ctx, ac, sub); err != nil {
				metrics.ActionFailuresTotal.WithLabelValues(fd.ID, ac.Type).Inc()
				log.Errorw("form action failed",
					"form", fd.ID, "action", ac.Type, "submission", sub.ID, "error", err.Error())
			}
			return nil
		})
	}
	_ = g.Wait()
}

func (r *Runner) runOne(ctx context.Context, ac ActionDef, sub Submission) error {
	switch ac.Type {
	case "log":
		return r.runLog(ac.Params, sub)
	case "store":
		return r.runStore(ctx, ac.Params, sub)
	case "webhook":
		return r.runWebhook(ctx, ac.Params, sub)
	case "publish":
		return r.runPublish(ctx, ac.Params, sub)
	default:
		return fmt.Errorf("unsupported action %q", ac.Type)
	}
}

func (r *Runner) logger() *zap.SugaredLogger {
	if r.Log != nil {
		return r.Log
	}
	return zap.S()
}

// -----------------------------------------------------------------------------
// Log action
// -----------------------------------------------------------------------------

func (r *Runner) runLog(p map[string]any, sub Submission) error {
	msg, _ := p["message"].(string)
	if msg == "" {
		msg = "Dados cadastrados"
	}
	r.logger().Infow(msg, "form", sub.FormID, "submission", sub.ID, "data", sub.Data)
	return nil
}

// -----------------------------------------------------------------------------
// Store action
// -----------------------------------------------------------------------------

var identRe = regexp.MustCompile(`^[A-Za-z_][A-Za-z0-9_]*$`)

func (r *Runner) runStore(ctx context.Context, p map[string]any, sub Submission) error {
	if r.DB == nil {
		return fmt.Errorf("store action: no database configured")
	}
	table, _ := p["table"].(string)
	if table == "" {
		table = "form_submission"
	}
	if !identRe.MatchString(table) {
		return fmt.Errorf("store action: invalid table name %q", table)
	}

	data, err := json.Marshal(sub.Data)
	if err != nil {
		return err
	}
	q := r.DB.Rebind(fmt.Sprintf(
		`INSERT INTO %s (id, form_id, submitted_at, data) VALUES (?, ?, ?, ?)`, table))
	_, err = r.DB.ExecContext(ctx, q, sub.ID, sub.FormID, sub.SubmittedAt, data)
	return err
}

// -----------------------------------------------------------------------------
// Webhook action
// -----------------------------------------------------------------------------

func (r *Runner) runWebhook(ctx context.Context, p map[string]any, sub Submission) error {
	url, _ := p["url"].(string)
	if url == "" {
		return fmt.Errorf("webhook action requires 'url'")
	}
	method, _ := p["method"].(string)
	if method == "" {
		method = http.MethodPost
	}
	timeout := 5 * time.Second
	if s, ok := p["timeout"].(string); ok {
		d, err := time.ParseDuration(s)
		if err != nil {
			return fmt.Errorf("webhook action: bad timeout %q: %w", s, err)
		}
		timeout = d
	}

	payload, err := json.Marshal(sub)
	if err != nil {
		return err
	}

	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, method, url, bytes.NewReader(payload))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")
	for k, v := range p {
		if strings.HasPrefix(k, "header.") {
			req.Header.Set(strings.TrimPrefix(k, "header."), fmt.Sprint(v))
		}
	}

	cli := r.Client
	if cli == nil {
		cli = http.DefaultClient
	}
	resp, err := cli.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return fmt.Errorf("webhook %s %s: status %d", method, url, resp.StatusCode)
	}
	return nil
}

// -----------------------------------------------------------------------------
// Publish action
// -----------------------------------------------------------------------------

func (r *Runner) runPublish(ctx context.Context, p map[string]any, sub Submission) error {
	q := r.Queue
	if q == nil {
		q = message.NewLogQueue(r.logger())
	}
	subject, _ := p["subject"].(string)
	if subject == "" {
		subject = "cadastro.submissions." + sub.FormID
	}
	payload, err := json.Marshal(sub)
	if err != nil {
		return err
	}
	return q.Publish(ctx, subject, payload)
}
