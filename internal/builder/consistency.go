package builder

import (
	"slices"
	"strings"

	"github.com/vk/stagegraph/internal/dag"
	"github.com/vk/stagegraph/internal/pipeerr"
	"github.com/vk/stagegraph/internal/pipeline"
)

// checkLanes reports lanes consumed without a producer, stages consuming
// their own lane, lanes with several producers, cycles and, outside
// fragments, produced lanes nobody consumes.
func checkLanes(doc *pipeline.Document, fragment bool) []error {
	stages := doc.AllStages()
	g := dag.New()
	for _, s := range stages {
		for _, l := range produced(s) {
			g.Produce(s.InstanceName, l)
		}
		for _, l := range s.InputLanes {
			g.Consume(s.InstanceName, l)
		}
	}

	var warnings []error
	for _, s := range stages {
		for _, l := range s.InputLanes {
			from := g.Producers(l)
			switch {
			case len(from) == 0:
				warnings = append(warnings, &pipeerr.DanglingLaneWarning{Lane: l, Stage: s.InstanceName, Reason: "is consumed but never produced"})
			case slices.Contains(from, s.InstanceName):
				warnings = append(warnings, &pipeerr.StructuralError{Reason: "stage " + s.InstanceName + " consumes its own lane " + l})
			}
		}
	}

	for _, s := range stages {
		for _, l := range produced(s) {
			if from := g.Producers(l); len(from) > 1 && from[0] == s.InstanceName {
				warnings = append(warnings, &pipeerr.DanglingLaneWarning{Lane: l, Stage: s.InstanceName, Reason: "is produced by more than one stage"})
			}
			if !fragment && len(g.Consumers(l)) == 0 {
				warnings = append(warnings, &pipeerr.DanglingLaneWarning{Lane: l, Stage: s.InstanceName, Reason: "is produced but never consumed"})
			}
		}
	}

	if cycle := g.Cycle(); cycle != nil {
		warnings = append(warnings, &pipeerr.StructuralError{Reason: "cycle detected between stages " + strings.Join(cycle, " -> ")})
	}
	return warnings
}

// produced returns the output lanes of s followed by its event lanes.
func produced(s *pipeline.StageInstance) []string {
	return append(slices.Clone(s.OutputLanes), s.EventLanes...)
}
