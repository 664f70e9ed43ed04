package directory

// Legislator is one member of Congress as returned by the directory API,
// plus the two derived display fields filled in by the lookup cache.
type Legislator struct {
	BioguideID string `json:"bioguide_id" bson:"bioguide_id"`
	FirstName  string `json:"firstname" bson:"firstname"`
	LastName   string `json:"lastname" bson:"lastname"`

	// ShortTitle is the raw title code from the API ("Sen", "Rep", "Del").
	ShortTitle string `json:"short_title" bson:"short_title"`

	// Title is the spoken display title derived from ShortTitle.
	Title string `json:"title" bson:"title"`

	// FullName is "{Title} {FirstName} {LastName}".
	FullName string `json:"fullname" bson:"fullname"`

	Phone    string `json:"phone" bson:"phone"`
	Chamber  string `json:"chamber" bson:"chamber"`
	State    string `json:"state" bson:"state"`
	District string `json:"district" bson:"district"`
}

// Contribution is one donor entry for a legislator.
type Contribution struct {
	Name        string `json:"name"`
	TotalAmount string `json:"total_amount"`
}

// Vote is one recent roll-call vote cast by a legislator.
type Vote struct {
	Question string `json:"question"`
	Voted    string `json:"voted"`
	Result   string `json:"result"`
}

// Committee is one committee assignment.
type Committee struct {
	Name string `json:"name"`
}

// titles maps raw title codes to spoken display titles. Unrecognized
// codes fall back to "Representative".
var titles = map[string]string{
	"Rep": "Representative",
	"Sen": "Senator",
}

// TitleForCode returns the spoken display title for a raw title code.
func TitleForCode(code string) string {
	if t, ok := titles[code]; ok {
		return t
	}
	return "Representative"
}
