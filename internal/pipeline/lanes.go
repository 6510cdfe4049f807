package pipeline

// Fragment category labels, chosen from the fragment's stage types and open
// output lanes.
const (
	LabelOrigins      = "Origins"
	LabelProcessors   = "Processors"
	LabelDestinations = "Destinations"
)

// OpenOutputLanes returns the output lanes no stage consumes, in the order
// they were declared.
func OpenOutputLanes(stages []*StageInstance) []string {
	consumed := make(map[string]struct{})
	for _, s := range stages {
		for _, l := range s.InputLanes {
			consumed[l] = struct{}{}
		}
	}

	seen := make(map[string]struct{})
	open := []string{}
	for _, s := range stages {
		for _, l := range s.OutputLanes {
			if _, ok := consumed[l]; ok {
				continue
			}
			if _, ok := seen[l]; ok {
				continue
			}
			seen[l] = struct{}{}
			open = append(open, l)
		}
	}
	return open
}

// FragmentLabel classifies a fragment: no open output lanes makes it a
// destination fragment, otherwise any source makes it an origin fragment.
func FragmentLabel(stages []*StageInstance, openLanes int) string {
	label := LabelProcessors
	for _, s := range stages {
		if s.UIInfo.StageType == StageTypeSource {
			label = LabelOrigins
			break
		}
	}
	if openLanes == 0 {
		label = LabelDestinations
	}
	return label
}

// FragmentStageLabel is the stage definition label of the boundary stage for
// a fragment category, e.g. "Fragment Origin" for "Origins".
func FragmentStageLabel(category string) string {
	if category == "" {
		return "Fragment "
	}
	return "Fragment " + category[:len(category)-1]
}
