package resolver

// Limits caps every query and merged set the recipes produce.
type Limits struct {
	Places            int
	PlacesBroad       int
	PlacesAny         int
	RestaurantExact   int
	RestaurantSimilar int
	Breakfast         int
	Events            int
	DayPlanTotal      int

	ChatPlaces      int
	ChatRestaurants int
	ChatEvents      int

	Clients int
	Lookup  int
	Listing int
}

// DefaultLimits returns the production caps.
func DefaultLimits() Limits {
	return Limits{
		Places:            6,
		PlacesBroad:       20,
		PlacesAny:         12,
		RestaurantExact:   10,
		RestaurantSimilar: 6,
		Breakfast:         2,
		Events:            4,
		DayPlanTotal:      18,
		ChatPlaces:        10,
		ChatRestaurants:   10,
		ChatEvents:        6,
		Clients:           10,
		Lookup:            5,
		Listing:           15,
	}
}

// withDefaults replaces non-positive caps with the production value.
func (l Limits) withDefaults() Limits {
	d := DefaultLimits()
	fill := func(v *int, def int) {
		if *v <= 0 {
			*v = def
		}
	}
	fill(&l.Places, d.Places)
	fill(&l.PlacesBroad, d.PlacesBroad)
	fill(&l.PlacesAny, d.PlacesAny)
	fill(&l.RestaurantExact, d.RestaurantExact)
	fill(&l.RestaurantSimilar, d.RestaurantSimilar)
	fill(&l.Breakfast, d.Breakfast)
	fill(&l.Events, d.Events)
	fill(&l.DayPlanTotal, d.DayPlanTotal)
	fill(&l.ChatPlaces, d.ChatPlaces)
	fill(&l.ChatRestaurants, d.ChatRestaurants)
	fill(&l.ChatEvents, d.ChatEvents)
	fill(&l.Clients, d.Clients)
	fill(&l.Lookup, d.Lookup)
	fill(&l.Listing, d.Listing)
	return l
}
