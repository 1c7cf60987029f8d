package pipeline

// buildLevels converts a Definition into an ordered list of levels of
// mutually independent steps, per spec §4.1: (L1) the union of levels
// equals the definition's tokens, (L2) each token appears in exactly one
// level, (L3) every edge's source level is strictly less than its
// target's, (L4) steps within a level are pairwise independent.
//
// The algorithm is Kahn-style wave expansion: repeatedly collect every
// remaining token whose dependencies are already resolved, assign that
// wave as the next level, and fail if a wave is empty while tokens
// remain (a cycle). Within a level, order follows insertion order in
// the Definition for determinism — tests rely on this, per the spec.
func buildLevels(d *Definition) ([][]Token, error) {
	seen := make(map[Token]bool, len(d.entries))
	byToken := make(map[Token]*entry, len(d.entries))

	for i := range d.entries {
		e := &d.entries[i]
		if seen[e.token] {
			return nil, dupErr(e.token)
		}
		seen[e.token] = true
		byToken[e.token] = e
	}

	for _, e := range byToken {
		for _, dep := range e.dependsOn {
			if _, ok := byToken[dep]; !ok {
				return nil, unknownDepErr(dep)
			}
		}
	}

	resolved := make(map[Token]bool, len(byToken))
	remaining := make([]*entry, 0, len(byToken))
	for i := range d.entries {
		remaining = append(remaining, &d.entries[i])
	}

	var levels [][]Token
	for len(remaining) > 0 {
		var wave []*entry
		var rest []*entry
		for _, e := range remaining {
			ready := true
			for _, dep := range e.dependsOn {
				if !resolved[dep] {
					ready = false
					break
				}
			}
			if ready {
				wave = append(wave, e)
			} else {
				rest = append(rest, e)
			}
		}
		if len(wave) == 0 {
			return nil, cycleErr()
		}
		level := make([]Token, 0, len(wave))
		for _, e := range wave {
			level = append(level, e.token)
			resolved[e.token] = true
		}
		levels = append(levels, level)
		remaining = rest
	}

	return levels, nil
}
