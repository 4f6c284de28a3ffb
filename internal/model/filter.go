package model

// DetectionFilter selects which object classes a detection job keeps.
type DetectionFilter string

const (
	// FilterAll keeps every detected class.
	FilterAll DetectionFilter = "all"
	// FilterPerson keeps people only.
	FilterPerson DetectionFilter = "person"
	// FilterCar keeps vehicles only.
	FilterCar DetectionFilter = "car"
	// FilterPersonCar keeps people and vehicles.
	FilterPersonCar DetectionFilter = "person_car"
)

// FilterFromSelection collapses the checked filter boxes into one filter.
// "all" wins over everything and an empty selection means all.
func FilterFromSelection(selected []string) DetectionFilter {
	var person, car bool
	for _, s := range selected {
		switch DetectionFilter(s) {
		case FilterAll:
			return FilterAll
		case FilterPerson:
			person = true
		case FilterCar:
			car = true
		}
	}
	switch {
	case person && car:
		return FilterPersonCar
	case person:
		return FilterPerson
	case car:
		return FilterCar
	default:
		return FilterAll
	}
}

// DisplayName returns the label shown next to results.
func (f DetectionFilter) DisplayName() string {
	switch f {
	case FilterPerson:
		return "Person Only"
	case FilterCar:
		return "Vehicles Only"
	case FilterPersonCar:
		return "Person + Vehicles"
	default:
		return "All Objects"
	}
}
