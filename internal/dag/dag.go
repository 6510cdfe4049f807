package dag

import "slices"

// New returns an empty Graph.
func New() *Graph {
	return &Graph{
		known:     make(map[string]bool),
		produced:  make(map[string][]string),
		producers: make(map[string][]string),
		consumers: make(map[string][]string),
	}
}

func (g *Graph) addStage(stage string) {
	if !g.known[stage] {
		g.known[stage] = true
		g.stages = append(g.stages, stage)
	}
}

// Produce records that stage writes to lane.
func (g *Graph) Produce(stage, lane string) {
	g.addStage(stage)
	g.produced[stage] = appendOnce(g.produced[stage], lane)
	g.producers[lane] = appendOnce(g.producers[lane], stage)
}

// Consume records that stage reads from lane.
func (g *Graph) Consume(stage, lane string) {
	g.addStage(stage)
	g.consumers[lane] = appendOnce(g.consumers[lane], stage)
}

// Producers returns the stages writing to lane, in the order they were seen.
func (g *Graph) Producers(lane string) []string { return g.producers[lane] }

// Consumers returns the stages reading from lane, in the order they were seen.
func (g *Graph) Consumers(lane string) []string { return g.consumers[lane] }

// Cycle returns the stages of the first cycle found, starting and ending with
// the same stage, or nil when there is none. Stages are tried in the order
// they were seen and their successors in name order. A stage consuming its
// own lane is not a cycle here.
func (g *Graph) Cycle() []string {
	const (
		active = iota + 1
		done
	)
	state := make(map[string]int, len(g.stages))
	var path []string

	var visit func(stage string) []string
	visit = func(stage string) []string {
		switch state[stage] {
		case done:
			return nil
		case active:
			i := slices.Index(path, stage)
			return append(slices.Clone(path[i:]), stage)
		}

		state[stage] = active
		path = append(path, stage)
		for _, next := range g.successors(stage) {
			if cycle := visit(next); cycle != nil {
				return cycle
			}
		}
		path = path[:len(path)-1]
		state[stage] = done
		return nil
	}

	for _, stage := range g.stages {
		if cycle := visit(stage); cycle != nil {
			return cycle
		}
	}
	return nil
}

// successors returns the other stages consuming a lane of stage, sorted.
func (g *Graph) successors(stage string) []string {
	var out []string
	for _, lane := range g.produced[stage] {
		for _, c := range g.consumers[lane] {
			if c != stage {
				out = appendOnce(out, c)
			}
		}
	}
	slices.Sort(out)
	return out
}

func appendOnce(list []string, v string) []string {
	if slices.Contains(list, v) {
		return list
	}
	return append(list, v)
}
