package models

// GradedAttribute is a prospect rating that is either revealed (Value) or
// hidden behind a letter grade placeholder (Grade).
type GradedAttribute struct {
	Name     string `json:"name"`
	Value    int    `json:"value,omitempty"`
	Grade    string `json:"grade,omitempty"`
	Revealed bool   `json:"revealed"`
}

// Display returns the value when revealed, otherwise the letter grade.
func (a GradedAttribute) Display() any {
	if a.Revealed {
		return a.Value
	}
	return a.Grade
}

// Draftee represents a prospect eligible to be selected.
type Draftee struct {
	ID         int               `json:"id"`
	SportID    string            `json:"sport_id"`
	FirstName  string            `json:"first_name"`
	LastName   string            `json:"last_name"`
	Position   string            `json:"position"`
	Archetype  string            `json:"archetype"`
	Height     int               `json:"height"` // inches
	Weight     int               `json:"weight"` // pounds
	Age        int               `json:"age"`
	College    string            `json:"college,omitempty"`
	Attributes []GradedAttribute `json:"attributes"`
	Potential  GradedAttribute   `json:"potential"`
}

// FullName returns "First Last".
func (d Draftee) FullName() string {
	if d.LastName == "" {
		return d.FirstName
	}
	if d.FirstName == "" {
		return d.LastName
	}
	return d.FirstName + " " + d.LastName
}

// Attribute returns the named attribute, if present.
func (d Draftee) Attribute(name string) (GradedAttribute, bool) {
	for _, a := range d.Attributes {
		if a.Name == name {
			return a, true
		}
	}
	return GradedAttribute{}, false
}
