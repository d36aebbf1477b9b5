package poet

// Poet names a poetic voice used to style the generation request.
type Poet struct {
	Name string `json:"name"`
}

// Seed provides the default roster of poets shipped with the product.
func Seed() []Poet {
	return []Poet{
		{Name: "Emily Dickinson"},
		{Name: "T.S. Eliot"},
		{Name: "Langston Hughes"},
		{Name: "Sylvia Plath"},
		{Name: "Seamus Heaney"},
		{Name: "Shel Silverstein"},
		{Name: "Lewis Carroll"},
		{Name: "Robert Frost"},
		{Name: "Ogden Nash"},
		{Name: "Pablo Neruda"},
		{Name: "Dr. Seuss"},
	}
}
