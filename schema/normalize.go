package schema

// NormalizeTabIDs drops empty and duplicate identifiers while keeping order.
// It returns ErrNoTabs when nothing remains.
func NormalizeTabIDs(ids []TabID) ([]TabID, error) {
	if len(ids) == 0 {
		return nil, ErrNoTabs
	}
	seen := make(map[TabID]struct{}, len(ids))
	out := make([]TabID, 0, len(ids))
	for _, id := range ids {
		if id == "" {
			continue
		}
		if _, ok := seen[id]; ok {
			continue
		}
		seen[id] = struct{}{}
		out = append(out, id)
	}
	if len(out) == 0 {
		return nil, ErrNoTabs
	}
	return out, nil
}
