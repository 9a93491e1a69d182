// internal/form/submit.go
//
// Cadastro – Forms subsystem: consolidated submit helpers.
//
// Context
//   Handlers want one call that parses the request, checks the CSRF token,
//   feeds the values through a Coordinator, and runs the form's actions on
//   success.  Submitter provides that for urlencoded posts (HandleSubmit)
//   and JSON bodies (SubmitJSON), keeping component code terse.
//
//------------------------------------------------------------------------------

package form

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/yanizio/cadastro/internal/metrics"
)

// Outcome labels used on form_submissions_total.
const (
	OutcomeAccepted = "accepted"
	OutcomeInvalid  = "invalid"
	OutcomeRejected = "rejected"
	OutcomeFailed   = "failed"
)

// Submitter binds the CSRF guard and action runner used by submit helpers.
type Submitter struct {
	Guard  *Guard  // nil skips token checks
	Runner *Runner // nil runs no actions
	// Meta extracts request metadata stored on each Submission.  Optional.
	Meta func(*http.Request) map[string]string
}

// Result is what a submit attempt leaves behind.  Values always holds what
// the user sent so a failed attempt can be re-rendered with prefill.
type Result struct {
	Submission Submission
	Values     Snapshot
}

// HandleSubmit parses r as a urlencoded form and submits it to formID.
// Token failures and validation failures are user errors: check with
// IsValidationError or errors.Is against ErrTokenInvalid, ErrTooFast, and
// ErrExpired.
func (s *Submitter) HandleSubmit(formID string, r *http.Request) (Result, error) {
	if err := r.ParseForm(); err != nil {
		return Result{}, fmt.Errorf("parse form: %w", err)
	}
	sc, ok := LookupSchema(formID)
	if !ok {
		return Result{}, fmt.Errorf("%w: %q", ErrUnknownForm, formID)
	}
	posted := SnapshotFromValues(sc, r.PostForm)

	if s.Guard != nil {
		if err := s.Guard.Verify(r.PostForm.Get(CSRFField)); err != nil {
			metrics.SubmissionsTotal.WithLabelValues(formID, OutcomeRejected).Inc()
			return Result{Values: posted}, err
		}
	}
	return s.submit(r.Context(), formID, posted, s.meta(r))
}

// SubmitJSON decodes a JSON object of field → string | [string] from body
// and submits it to formID.  No CSRF check is made.
func (s *Submitter) SubmitJSON(ctx context.Context, formID string, body io.Reader, meta map[string]string) (Result, error) {
	var snap Snapshot
	if err := json.NewDecoder(body).Decode(&snap); err != nil {
		return Result{}, fmt.Errorf("decode JSON body: %w", err)
	}
	return s.submit(ctx, formID, snap, meta)
}

func (s *Submitter) submit(ctx context.Context, formID string, in Snapshot, meta map[string]string) (Result, error) {
	start := time.Now()
	defer func() {
		metrics.SubmitDuration.WithLabelValues(formID).Observe(time.Since(start).Seconds())
	}()

	fd, ok := GetFormDef(formID)
	sc, _ := LookupSchema(formID)
	if !ok {
		return Result{}, fmt.Errorf("%w: %q", ErrUnknownForm, formID)
	}

	c := NewCoordinator(sc)
	if err := c.Load(in); err != nil {
		return Result{}, err
	}
	res := Result{Values: c.Values()}

	_, err := c.Submit(ctx, func(ctx context.Context, data Snapshot) error {
		res.Submission = NewSubmission(formID, data, meta)
		if s.Runner != nil {
			s.Runner.Run(ctx, fd, res.Submission)
		}
		return nil
	})
	if err != nil {
		if ve, ok := AsValidationError(err); ok {
			metrics.SubmissionsTotal.WithLabelValues(formID, OutcomeInvalid).Inc()
			for _, fe := range ve.Fields {
				metrics.FieldErrorsTotal.WithLabelValues(formID, fe.Name).Inc()
			}
			return res, err
		}
		metrics.SubmissionsTotal.WithLabelValues(formID, OutcomeFailed).Inc()
		return res, err
	}

	metrics.SubmissionsTotal.WithLabelValues(formID, OutcomeAccepted).Inc()
	return res, nil
}

func (s *Submitter) meta(r *http.Request) map[string]string {
	if s.Meta == nil {
		return nil
	}
	return s.Meta(r)
}
