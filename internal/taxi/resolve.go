package taxi

// MissingFiles returns the available identifiers that do not appear in
// processed: the set difference available − processed. Identifiers are
// opaque strings compared by exact equality; the result carries no
// duplicates and no ordering guarantee.
func MissingFiles(available, processed []string) []string {
	done := make(map[string]struct{}, len(processed))
	for _, id := range processed {
		done[id] = struct{}{}
	}

	missing := make([]string, 0, len(available))
	seen := make(map[string]struct{}, len(available))
	for _, id := range available {
		if _, ok := done[id]; ok {
			continue
		}
		if _, ok := seen[id]; ok {
			continue
		}
		seen[id] = struct{}{}
		missing = append(missing, id)
	}
	return missing
}
