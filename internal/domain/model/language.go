package model

// Language is an entry of the judge's language table; ID is the judge's numeric id.
type Language struct {
	ID   int    `json:"id"`
	Name string `json:"name"`
	Slug string `json:"slug"`
}

var supportedLanguages = []Language{
	{ID: 50, Name: "C (GCC 9.2.0)", Slug: "c"},
	{ID: 54, Name: "C++ (GCC 9.2.0)", Slug: "cpp"},
	{ID: 60, Name: "Go (1.13.5)", Slug: "go"},
	{ID: 62, Name: "Java (OpenJDK 13.0.1)", Slug: "java"},
	{ID: 63, Name: "JavaScript (Node.js 12.14.0)", Slug: "javascript"},
	{ID: 71, Name: "Python (3.8.1)", Slug: "python"},
}

func SupportedLanguages() []Language {
	out := make([]Language, len(supportedLanguages))
	copy(out, supportedLanguages)
	return out
}

func LanguageByID(id int) (Language, bool) {
	for _, l := range supportedLanguages {
		if l.ID == id {
			return l, true
		}
	}
	return Language{}, false
}
