package form

import (
	"os"
	"sync"
	"testing"

	"github.com/yanizio/cadastro/internal/options"
)

const testFormID = "test-registration"

var registerOnce sync.Once

// testForm registers testdata/registration.yaml once and returns its
// definition and schema.
func testForm(t *testing.T) (*FormDef, *Schema) {
	t.Helper()
	var err error
	registerOnce.Do(func() {
		var cat *options.Catalog
		cat, err = options.Default()
		if err != nil {
			return
		}
		err = RegisterForms([]string{"testdata"}, cat)
	})
	if err != nil {
		t.Fatalf("register test form: %v", err)
	}
	fd, ok := GetFormDef(testFormID)
	if !ok {
		t.Fatalf("form %s not registered", testFormID)
	}
	sc, _ := LookupSchema(testFormID)
	return fd, sc
}

// validInput is a complete registration that passes every rule.
func validInput() Snapshot {
	return Snapshot{
		"firstName": Text("Ana"),
		"lastName":  Text("Silva"),
		"street":    Text("Rua A"),
		"number":    Text("10"),
		"district":  Text("Centro"),
		"city":      Text("SP"),
		"state":     Text("SP"),
		"zipCode":   Text("01000000"),
		"gender":    Text("F"),
		"education": Text("Superior"),
		"sports":    Text("Futebol"),
	}
}

func readTestdata(t *testing.T, name string) []byte {
	t.Helper()
	raw, err := os.ReadFile("testdata/" + name)
	if err != nil {
		t.Fatal(err)
	}
	return raw
}
