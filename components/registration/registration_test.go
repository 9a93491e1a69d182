package registration

import (
	"bytes"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"

	"github.com/yanizio/cadastro/internal/component"
	"github.com/yanizio/cadastro/internal/form"
	"github.com/yanizio/cadastro/internal/options"
)

type harness struct {
	srv   *httptest.Server
	guard *form.Guard
	logs  *observer.ObservedLogs
}

func newHarness(t *testing.T) *harness {
	t.Helper()
	cat, err := options.Default()
	if err != nil {
		t.Fatal(err)
	}
	core, logs := observer.New(zap.InfoLevel)
	log := zap.New(core).Sugar()
	guard := form.NewGuard(bytes.Repeat([]byte("t"), 32), 0, time.Hour)

	c := &Comp{}
	err = c.Init(component.Env{
		Log:     log,
		Catalog: cat,
		Submitter: &form.Submitter{
			Guard:  guard,
			Runner: &form.Runner{Log: log},
			Meta:   func(*http.Request) map[string]string { return map[string]string{"ip": "192.0.2.1"} },
		},
	})
	if err != nil {
		t.Fatalf("Init: %v", err)
	}
	srv := httptest.NewServer(c.Routes())
	t.Cleanup(srv.Close)
	return &harness{srv: srv, guard: guard, logs: logs}
}

func validForm(token string) url.Values {
	return url.Values{
		"firstName":  {"Ana"},
		"lastName":   {"Silva"},
		"street":     {"Rua A"},
		"number":     {"10"},
		"district":   {"Centro"},
		"city":       {"SP"},
		"state":      {"SP"},
		"zipCode":    {"01000000"},
		"gender":     {"F"},
		"education":  {"Superior"},
		"sports":     {"Futebol"},
		"csrf_token": {token},
	}
}

func readBody(t *testing.T, resp *http.Response) string {
	t.Helper()
	defer resp.Body.Close()
	b, err := io.ReadAll(resp.Body)
	if err != nil {
		t.Fatal(err)
	}
	return string(b)
}

func TestGetForm(t *testing.T) {
	h := newHarness(t)
	resp, err := http.Get(h.srv.URL + "/cadastro")
	if err != nil {
		t.Fatal(err)
	}
	body := readBody(t, resp)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("status = %d", resp.StatusCode)
	}
	for _, want := range []string{"<title>Campo de Treinamento</title>", `<meta name="description"`, "<h3>Campo de Treinamento</h3>", `name="csrf_token" value="`, "Cadastrar", "Ensino Médio"} {
		if !strings.Contains(body, want) {
			t.Errorf("page missing %q", want)
		}
	}
}

func TestPostFormSuccess(t *testing.T) {
	h := newHarness(t)
	tok, _ := h.guard.Issue()

	resp, err := http.PostForm(h.srv.URL+"/cadastro", validForm(tok))
	if err != nil {
		t.Fatal(err)
	}
	body := readBody(t, resp)
	if resp.StatusCode != http.StatusOK || !strings.Contains(body, Ack) {
		t.Fatalf("status %d body %s", resp.StatusCode, body)
	}
	if !strings.Contains(body, `content="noindex"`) {
		t.Fatal("acknowledgement page should not be indexed")
	}

	entries := h.logs.FilterMessage("Dados cadastrados").All()
	if len(entries) != 1 {
		t.Fatalf("log action ran %d times", len(entries))
	}
	if h.logs.FilterMessage("queue publish").Len() != 1 {
		t.Fatal("publish action did not reach the log queue")
	}
}

func TestPostFormShortZip(t *testing.T) {
	h := newHarness(t)
	tok, _ := h.guard.Issue()
	vals := validForm(tok)
	vals.Set("zipCode", "123")

	resp, err := http.PostForm(h.srv.URL+"/cadastro", vals)
	if err != nil {
		t.Fatal(err)
	}
	body := readBody(t, resp)
	if resp.StatusCode != http.StatusUnprocessableEntity {
		t.Fatalf("status = %d", resp.StatusCode)
	}
	if strings.Count(body, `class="error"`) != 1 || !strings.Contains(body, "CEP inválido") {
		t.Fatalf("want exactly the CEP error, body:\n%s", body)
	}
	if !strings.Contains(body, `value="Ana"`) {
		t.Fatal("prefill lost on re-render")
	}
	if h.logs.FilterMessage("Dados cadastrados").Len() != 0 {
		t.Fatal("actions ran for an invalid submission")
	}
}

func TestPostFormBadToken(t *testing.T) {
	h := newHarness(t)
	resp, err := http.PostForm(h.srv.URL+"/cadastro", validForm("nope"))
	if err != nil {
		t.Fatal(err)
	}
	body := readBody(t, resp)
	if resp.StatusCode != http.StatusForbidden || !strings.Contains(body, "form-notice") {
		t.Fatalf("status %d body %s", resp.StatusCode, body)
	}
}

func TestPostJSON(t *testing.T) {
	h := newHarness(t)
	payload := `{"firstName":"Ana","lastName":"Silva","street":"Rua A","number":"10",
	"district":"Centro","city":"SP","state":"SP","zipCode":"01000000","gender":"F",
	"education":"Superior","sports":"Futebol","favoriteFoods":["Pizza"]}`

	resp, err := http.Post(h.srv.URL+"/api/cadastro", "application/json", strings.NewReader(payload))
	if err != nil {
		t.Fatal(err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusCreated {
		t.Fatalf("status = %d", resp.StatusCode)
	}
	var got created
	if err := json.NewDecoder(resp.Body).Decode(&got); err != nil {
		t.Fatal(err)
	}
	want := Registration{
		FirstName: "Ana", LastName: "Silva", Street: "Rua A", Number: "10",
		District: "Centro", City: "SP", State: "SP", ZipCode: "01000000",
		Gender: "F", Education: "Superior", Sports: "Futebol",
		FavoriteFoods: []string{"Pizza"},
	}
	if got.ID == "" {
		t.Fatal("missing id")
	}
	if diff := cmp.Diff(want, got.Data); diff != "" {
		t.Fatalf("data (-want +got):\n%s", diff)
	}
}

func TestPostJSONInvalid(t *testing.T) {
	h := newHarness(t)
	payload := `{"firstName":"Ana","lastName":"Silva","street":"Rua A","number":"10",
	"district":"Centro","city":"SP","state":"SP","zipCode":"123","gender":"F",
	"education":"Superior","sports":"Futebol"}`

	resp, err := http.Post(h.srv.URL+"/api/cadastro", "application/json", strings.NewReader(payload))
	if err != nil {
		t.Fatal(err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusUnprocessableEntity {
		t.Fatalf("status = %d", resp.StatusCode)
	}
	var got invalid
	if err := json.NewDecoder(resp.Body).Decode(&got); err != nil {
		t.Fatal(err)
	}
	want := []form.FieldError{{Name: "zipCode", Message: "CEP inválido"}}
	if diff := cmp.Diff(want, got.Errors); diff != "" {
		t.Fatalf("errors (-want +got):\n%s", diff)
	}

	resp2, err := http.Post(h.srv.URL+"/api/cadastro", "application/json", strings.NewReader("{"))
	if err != nil {
		t.Fatal(err)
	}
	resp2.Body.Close()
	if resp2.StatusCode != http.StatusBadRequest {
		t.Fatalf("bad JSON status = %d", resp2.StatusCode)
	}
}

func TestGetOptions(t *testing.T) {
	h := newHarness(t)
	resp, err := http.Get(h.srv.URL + "/api/options")
	if err != nil {
		t.Fatal(err)
	}
	defer resp.Body.Close()
	var got map[string][]options.Option
	if err := json.NewDecoder(resp.Body).Decode(&got); err != nil {
		t.Fatal(err)
	}
	if len(got["states"]) != 27 || len(got["foods"]) != 4 {
		t.Fatalf("states=%d foods=%d", len(got["states"]), len(got["foods"]))
	}
}

func TestFromSnapshotEmptyFoods(t *testing.T) {
	r := FromSnapshot(form.Snapshot{"firstName": form.Text("Ana")})
	if r.FirstName != "Ana" || r.FavoriteFoods == nil || len(r.FavoriteFoods) != 0 {
		t.Fatalf("got %+v", r)
	}
}

func TestMigrations(t *testing.T) {
	m := (&Comp{}).Migrations()
	if len(m) != 1 || !strings.Contains(m[0], "form_submission") {
		t.Fatalf("migrations = %v", m)
	}
}
