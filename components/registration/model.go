// components/registration/model.go
//
// Typed view of a validated registration snapshot, used by the JSON API
// response and by consumers that prefer struct fields to map lookups.

package registration

import "github.com/yanizio/cadastro/internal/form"

// Registration mirrors the fields of forms/registration.yaml.
type Registration struct {
	FirstName     string   `json:"firstName"`
	LastName      string   `json:"lastName"`
	Street        string   `json:"street"`
	Number        string   `json:"number"`
	Complement    string   `json:"complement"`
	District      string   `json:"district"`
	City          string   `json:"city"`
	State         string   `json:"state"`
	ZipCode       string   `json:"zipCode"`
	Gender        string   `json:"gender"`
	Education     string   `json:"education"`
	Sports        string   `json:"sports"`
	FavoriteFoods []string `json:"favoriteFoods"`
	Suggestions   string   `json:"suggestions"`
}

// FromSnapshot copies s into a Registration.  Missing fields stay empty.
func FromSnapshot(s form.Snapshot) Registration {
	return Registration{
		FirstName:     s.Text("firstName"),
		LastName:      s.Text("lastName"),
		Street:        s.Text("street"),
		Number:        s.Text("number"),
		Complement:    s.Text("complement"),
		District:      s.Text("district"),
		City:          s.Text("city"),
		State:         s.Text("state"),
		ZipCode:       s.Text("zipCode"),
		Gender:        s.Text("gender"),
		Education:     s.Text("education"),
		Sports:        s.Text("sports"),
		FavoriteFoods: s.Members("favoriteFoods"),
		Suggestions:   s.Text("suggestions"),
	}
}
