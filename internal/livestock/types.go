package livestock

// Breed is a single breed row joined with its species.
type Breed struct {
	BreedLookupID int
	Name          string
	Description   string
	Species       string
	SpeciesID     int
	Meat          bool
	Milk          bool
	Wool          bool
	Egg           bool
	Working       bool
}

// Species holds the terminology and reproduction facts for one species.
type Species struct {
	SpeciesID       int
	Name            string
	SingularTerm    string
	PluralTerm      string
	MaleTerm        string
	FemaleTerm      string
	BabyTerm        string
	GestationPeriod int
}

// Summary aggregates row counts across the livestock tables.
type Summary struct {
	TotalSpecies  int `json:"total_species"`
	TotalBreeds   int `json:"total_breeds"`
	TotalColors   int `json:"total_colors"`
	TotalPatterns int `json:"total_patterns"`
}
