// internal/prompt/fill.go
//
// Terminal form filler.
//
// Context
// -------
// Fill drives a form.Coordinator from a Driver: one question per field in
// definition order, then a submit.  When the submit fails validation the
// messages are printed and only the failing fields are asked again, with
// the previous answers as defaults, until the form is accepted or the user
// aborts.  The terminal counterpart of re-rendering an HTML form with 422.

package prompt

import (
	"context"
	"errors"
	"fmt"

	"github.com/yanizio/cadastro/internal/form"
)

// Fill prompts for fd through d, feeding answers into c, and submits with h.
// It returns the validated snapshot once the submit succeeds.
func Fill(ctx context.Context, d Driver, fd *form.FormDef, c *form.Coordinator, h form.Handler) (form.Snapshot, error) {
	pending := fd.Fields
	for {
		for _, f := range pending {
			if err := ask(ctx, d, f, c); err != nil {
				return nil, err
			}
		}

		data, err := c.Submit(ctx, h)
		if err == nil {
			return data, nil
		}
		ve, ok := form.AsValidationError(err)
		if !ok {
			return nil, err
		}

		failed := ve.Map()
		pending = pending[:0:0]
		for _, f := range fd.Fields {
			msg, bad := failed[f.Name]
			if !bad {
				continue
			}
			if err := d.Info(ctx, fmt.Sprintf("✗ %s: %s", f.Label, msg)); err != nil {
				return nil, err
			}
			pending = append(pending, f)
		}
	}
}

// ask prompts for one field and stores the answer.
func ask(ctx context.Context, d Driver, f form.FieldDef, c *form.Coordinator) error {
	cur := c.Value(f.Name)
	labels := make([]string, len(f.Options))
	for i, o := range f.Options {
		labels[i] = o.Label
	}

	switch f.Type {
	case form.TypeSelect, form.TypeRadio:
		i, err := d.Select(ctx, SelectConfig{
			Message:      f.Label,
			Options:      labels,
			DefaultIndex: optionIndex(f, cur.String()),
			Help:         f.Help,
		})
		if err != nil {
			return err
		}
		val := ""
		if i >= 0 && i < len(f.Options) {
			val = f.Options[i].Value
		}
		return c.SetField(f.Name, val)

	case form.TypeCheckboxes:
		var defaults []int
		for _, m := range cur.Members() {
			if i := optionIndex(f, m); i >= 0 {
				defaults = append(defaults, i)
			}
		}
		idx, err := d.MultiSelect(ctx, SelectConfig{
			Message:  f.Label,
			Options:  labels,
			Defaults: defaults,
			Help:     f.Help,
		})
		if err != nil {
			return err
		}
		return syncMembers(c, f, cur.Members(), idx)

	case form.TypeTextarea:
		s, err := d.TextArea(ctx, InputConfig{Message: f.Label, Default: cur.String(), Help: f.Help})
		if err != nil {
			return err
		}
		return c.SetField(f.Name, s)

	case form.TypeText:
		s, err := d.Input(ctx, InputConfig{Message: f.Label, Default: cur.String(), Help: f.Help})
		if err != nil {
			return err
		}
		return c.SetField(f.Name, s)
	}
	return errors.New("prompt: unsupported field type " + f.Type)
}

// syncMembers toggles the difference between the current members and the
// chosen option indices, so kept members keep their position and new ones
// are appended in the order they were picked.
func syncMembers(c *form.Coordinator, f form.FieldDef, cur []string, idx []int) error {
	picked := make(map[string]bool, len(idx))
	var order []string
	for _, i := range idx {
		if i >= 0 && i < len(f.Options) && !picked[f.Options[i].Value] {
			picked[f.Options[i].Value] = true
			order = append(order, f.Options[i].Value)
		}
	}
	for _, m := range cur {
		if !picked[m] {
			if err := c.Toggle(f.Name, m, false); err != nil {
				return err
			}
		}
	}
	for _, v := range order {
		if err := c.Toggle(f.Name, v, true); err != nil {
			return err
		}
	}
	return nil
}

func optionIndex(f form.FieldDef, value string) int {
	for i, o := range f.Options {
		if o.Value == value {
			return i
		}
	}
	return -1
}
