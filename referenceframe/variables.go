package referenceframe

import "sort"

// ActiveVariables returns the indices of the model variables that
// kinematically influence at least one of the requested tip links, restricted
// to joints in the named group. It walks each tip's ancestor chain back to
// its root and collects the variable indices of the non-fixed joints it
// encounters. The result is ordered by variable index and free of
// duplicates.
func ActiveVariables(m *Model, group string, tips []string) ([]int, error) {
	groupJoints, ok := m.Group(group)
	if !ok {
		return nil, NewGroupNotFoundError(group)
	}
	inGroup := make(map[string]bool, len(groupJoints))
	for _, name := range groupJoints {
		inGroup[name] = true
	}

	seen := map[int]bool{}
	var active []int
	for _, tip := range tips {
		if !m.HasLink(tip) {
			return nil, NewLinkNotFoundError(tip)
		}
		for _, j := range ancestorJoints(m, tip) {
			idx, ok := m.varIndex[j.name]
			if !ok || !inGroup[j.name] || seen[idx] {
				continue
			}
			seen[idx] = true
			active = append(active, idx)
		}
	}
	sort.Ints(active)
	return active, nil
}

// MinimalDisplacementFactors returns, for each active variable, a weight
// proportional to how many of the requested tips that variable's motion
// influences. Variables with more leverage over the goal poses are penalized
// more for drifting. The factors are normalized to sum to 1.
func MinimalDisplacementFactors(m *Model, active []int, tips []string) []float64 {
	fanOut := make(map[int]float64, len(active))
	for _, tip := range tips {
		for _, j := range ancestorJoints(m, tip) {
			if idx, ok := m.varIndex[j.name]; ok {
				fanOut[idx]++
			}
		}
	}

	factors := make([]float64, len(active))
	total := 0.0
	for i, idx := range active {
		factors[i] = fanOut[idx]
		total += factors[i]
	}
	if total > 0 {
		for i := range factors {
			factors[i] /= total
		}
	}
	return factors
}

// ancestorJoints returns the joints on the path from the given link back to
// its chain root, tip first. Model construction guarantees the walk
// terminates.
func ancestorJoints(m *Model, link string) []*Joint {
	var chain []*Joint
	for {
		j, ok := m.parentJoint[link]
		if !ok {
			return chain
		}
		chain = append(chain, j)
		link = j.parent
	}
}
