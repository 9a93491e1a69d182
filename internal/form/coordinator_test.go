package form

import (
	"context"
	"errors"
	"testing"

	"github.com/google/go-cmp/cmp"
)

func fill(t *testing.T, c *Coordinator, in Snapshot) {
	t.Helper()
	for name, v := range in {
		var err error
		if v.Kind() == KindSet {
			err = c.SetItems(name, v.Members()...)
		} else {
			err = c.SetField(name, v.String())
		}
		if err != nil {
			t.Fatalf("set %s: %v", name, err)
		}
	}
}

func TestSubmitCallsHandlerOnceWithData(t *testing.T) {
	_, sc := testForm(t)
	c := NewCoordinator(sc)
	fill(t, c, validInput())

	var calls int
	var got Snapshot
	_, err := c.Submit(context.Background(), func(_ context.Context, data Snapshot) error {
		calls++
		got = data
		return nil
	})
	if err != nil {
		t.Fatalf("Submit: %v", err)
	}
	if calls != 1 {
		t.Fatalf("handler called %d times", calls)
	}

	want := validInput()
	want["complement"] = Text("")
	want["suggestions"] = Text("")
	want["favoriteFoods"] = Items()
	if diff := cmp.Diff(want, got); diff != "" {
		t.Fatalf("handler data (-want +got):\n%s", diff)
	}
	if !c.Submitted() {
		t.Fatal("form not marked submitted")
	}
}

func TestSubmitInvalidSkipsHandler(t *testing.T) {
	_, sc := testForm(t)
	c := NewCoordinator(sc)
	in := validInput()
	in["zipCode"] = Text("123")
	fill(t, c, in)

	called := false
	_, err := c.Submit(context.Background(), func(context.Context, Snapshot) error {
		called = true
		return nil
	})
	if !IsValidationError(err) {
		t.Fatalf("want validation error, got %v", err)
	}
	if called {
		t.Fatal("handler ran on invalid data")
	}
	if diff := cmp.Diff(map[string]string{"zipCode": "CEP inválido"}, c.Errors()); diff != "" {
		t.Fatalf("Errors (-want +got):\n%s", diff)
	}
	if c.Status("zipCode") != Invalid || c.Status("firstName") != Valid {
		t.Fatalf("statuses: zip=%s first=%s", c.Status("zipCode"), c.Status("firstName"))
	}
	if c.Submitted() {
		t.Fatal("invalid form marked submitted")
	}
}

func TestFieldStatusLifecycle(t *testing.T) {
	_, sc := testForm(t)
	c := NewCoordinator(sc)

	if s := c.Status("firstName"); s != Untouched {
		t.Fatalf("initial status %s", s)
	}
	_ = c.SetField("firstName", "A")
	if s := c.Status("firstName"); s != Touched {
		t.Fatalf("after input %s", s)
	}
	if !c.ValidateField("firstName") || c.Status("firstName") != Valid {
		t.Fatalf("after ValidateField %s", c.Status("firstName"))
	}
	_ = c.SetField("firstName", "")
	if s := c.Status("firstName"); s != Touched {
		t.Fatalf("edit before submit should clear result, got %s", s)
	}
}

func TestRevalidateAfterAttemptedSubmit(t *testing.T) {
	_, sc := testForm(t)
	c := NewCoordinator(sc)
	_, _ = c.Submit(context.Background(), nil)

	if c.Errors()["firstName"] != "Nome é obrigatório" {
		t.Fatalf("missing firstName error: %v", c.Errors())
	}
	_ = c.SetField("firstName", "Ana")
	if _, ok := c.Errors()["firstName"]; ok {
		t.Fatal("stale error kept after correcting the field")
	}
	_ = c.SetField("firstName", " ")
	if c.Status("firstName") != Invalid {
		t.Fatalf("status = %s, want invalid", c.Status("firstName"))
	}
}

func TestHandlerErrorKeepsFormOpen(t *testing.T) {
	_, sc := testForm(t)
	c := NewCoordinator(sc)
	fill(t, c, validInput())

	boom := errors.New("boom")
	_, err := c.Submit(context.Background(), func(context.Context, Snapshot) error { return boom })
	if !errors.Is(err, boom) {
		t.Fatalf("err = %v, want wrapped boom", err)
	}
	if c.Submitted() {
		t.Fatal("form submitted despite handler error")
	}
	if _, err := c.Submit(context.Background(), nil); err != nil {
		t.Fatalf("retry: %v", err)
	}
}

func TestMutationAfterSubmit(t *testing.T) {
	_, sc := testForm(t)
	c := NewCoordinator(sc)
	fill(t, c, validInput())
	if _, err := c.Submit(context.Background(), nil); err != nil {
		t.Fatal(err)
	}

	for name, err := range map[string]error{
		"SetField": c.SetField("firstName", "B"),
		"SetItems": c.SetItems("favoriteFoods", "Pizza"),
		"Toggle":   c.Toggle("favoriteFoods", "Pizza", true),
		"Load":     c.Load(Snapshot{}),
	} {
		if !errors.Is(err, ErrSubmitted) {
			t.Errorf("%s after submit: %v", name, err)
		}
	}
	if _, err := c.Submit(context.Background(), nil); !errors.Is(err, ErrSubmitted) {
		t.Fatalf("second Submit: %v", err)
	}

	c.Reset()
	if c.Submitted() || c.Value("firstName").String() != "" {
		t.Fatal("Reset did not clear the form")
	}
}

func TestToggleAndKinds(t *testing.T) {
	_, sc := testForm(t)
	c := NewCoordinator(sc)

	_ = c.Toggle("favoriteFoods", "Pizza", true)
	_ = c.Toggle("favoriteFoods", "Carne", true)
	_ = c.Toggle("favoriteFoods", "Pizza", true)
	_ = c.Toggle("favoriteFoods", "Frango", false)
	if diff := cmp.Diff([]string{"Pizza", "Carne"}, c.Value("favoriteFoods").Members()); diff != "" {
		t.Fatalf("(-want +got):\n%s", diff)
	}

	if err := c.SetField("favoriteFoods", "x"); !errors.Is(err, ErrWrongKind) {
		t.Fatalf("SetField on set field: %v", err)
	}
	if err := c.Toggle("firstName", "x", true); !errors.Is(err, ErrWrongKind) {
		t.Fatalf("Toggle on text field: %v", err)
	}
	if err := c.SetField("nope", "x"); !errors.Is(err, ErrUnknownField) {
		t.Fatalf("unknown field: %v", err)
	}
}

func TestToggleRoundTripRestoresFoods(t *testing.T) {
	_, sc := testForm(t)
	c := NewCoordinator(sc)
	if err := c.SetItems("favoriteFoods", "Carne", "Pizza"); err != nil {
		t.Fatal(err)
	}
	before := c.Value("favoriteFoods").Members()

	if err := c.Toggle("favoriteFoods", "Frango", true); err != nil {
		t.Fatal(err)
	}
	if diff := cmp.Diff([]string{"Carne", "Pizza", "Frango"}, c.Value("favoriteFoods").Members()); diff != "" {
		t.Fatalf("after include (-want +got):\n%s", diff)
	}
	if err := c.Toggle("favoriteFoods", "Frango", false); err != nil {
		t.Fatal(err)
	}
	if diff := cmp.Diff(before, c.Value("favoriteFoods").Members()); diff != "" {
		t.Fatalf("round trip (-want +got):\n%s", diff)
	}
}

func TestValuesAreCopies(t *testing.T) {
	_, sc := testForm(t)
	c := NewCoordinator(sc)
	_ = c.SetItems("favoriteFoods", "Pizza")

	v := c.Values()
	v["favoriteFoods"].set.Add("Carne")
	if c.Value("favoriteFoods").set.Has("Carne") {
		t.Fatal("Values leaked internal set")
	}
}

func TestSubmitCancelledContext(t *testing.T) {
	_, sc := testForm(t)
	c := NewCoordinator(sc)
	fill(t, c, validInput())

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if _, err := c.Submit(ctx, nil); !errors.Is(err, context.Canceled) {
		t.Fatalf("err = %v", err)
	}
	if c.Submitted() {
		t.Fatal("cancelled submit marked form submitted")
	}
}
