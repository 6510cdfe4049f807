// Package layout assigns canvas coordinates to pipeline stages. Positions are
// presentation metadata only; the engine ignores them when running.
package layout

import (
	"context"

	"github.com/vk/stagegraph/internal/ctxlog"
	"github.com/vk/stagegraph/internal/pipeline"
)

const (
	originX = 60
	originY = 50
	// columnWidth is the horizontal distance between a stage and its consumers.
	columnWidth = 220
	// laneStride separates the fan-out of a stage with several output lanes.
	laneStride = 130
	// branchStride pushes later consumers of an already placed lane down.
	branchStride = 150
)

// AutoArrange positions stages in a single pass in declaration order. Each
// stage is placed one column right of its rightmost producer and on the row
// of its first input lane; stages without inputs start a new column on the
// top row.
func AutoArrange(ctx context.Context, stages []*pipeline.StageInstance) {
	logger := ctxlog.FromContext(ctx)

	nextX := originX
	laneX := make(map[string]int)
	laneY := make(map[string]int)

	for _, s := range stages {
		var x, y int
		if len(s.InputLanes) > 0 {
			first := s.InputLanes[0]
			y = laneY[first]
			x = laneX[first] + columnWidth
		} else {
			y = originY
			x = nextX
		}

		if len(s.InputLanes) > 1 {
			maxX := 0
			for _, l := range s.InputLanes {
				if laneX[l] > maxX {
					maxX = laneX[l]
				}
			}
			x = maxX + columnWidth
		}

		if len(s.InputLanes) > 0 && laneY[s.InputLanes[0]] != 0 {
			laneY[s.InputLanes[0]] += branchStride
		}

		if y == 0 {
			y = originY
		}

		if len(s.OutputLanes) > 1 {
			for i, l := range s.OutputLanes {
				laneY[l] = y - 10 + laneStride*i
				laneX[l] = x
			}
			if y == originY {
				y += 30 * len(s.OutputLanes)
			}
		} else {
			if len(s.OutputLanes) == 1 {
				laneY[s.OutputLanes[0]] = y
				laneX[s.OutputLanes[0]] = x
			}
			if len(s.InputLanes) > 1 && y == originY {
				y += laneStride
			}
		}

		if len(s.EventLanes) > 0 {
			laneY[s.EventLanes[0]] = y + branchStride
			laneX[s.EventLanes[0]] = x
		}

		s.SetPosition(x, y)
		logger.Debug("Stage positioned.", "stage", s.InstanceName, "x", x, "y", y)

		nextX = x + columnWidth
	}
}
