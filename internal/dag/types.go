package dag

// Graph links stages through the lanes they produce and consume. A stage
// producing a lane points at every other stage consuming it.
type Graph struct {
	// stages in the order they were first seen.
	stages []string
	known  map[string]bool
	// produced maps a stage to its lanes, producers and consumers map a lane
	// to its stages. All three keep insertion order.
	produced  map[string][]string
	producers map[string][]string
	consumers map[string][]string
}
