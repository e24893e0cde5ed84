package manifest

// StripKeysetDirectives removes every $keyset(path) pre-processing
// directive from a decoded manifest tree, returning the cleaned tree
// alongside the bundle paths it found. $keyset(...) is not part of the
// manifest language proper: it is a convenience for CLI tooling to
// load a bundle file of signer keyfiles before the five-pass resolver
// ever sees the manifest (spec.md §6).
func StripKeysetDirectives(tree any) (any, []string) {
	var paths []string
	out := stripWalk(tree, &paths)
	return out, paths
}

func stripWalk(node any, paths *[]string) any {
	switch n := node.(type) {
	case string:
		if m := reKeyset.FindStringSubmatch(n); m != nil {
			*paths = append(*paths, m[1])
			return nil
		}
		return n
	case map[string]any:
		out := make(map[string]any, len(n))
		for k, v := range n {
			out[k] = stripWalk(v, paths)
		}
		return out
	case []any:
		out := make([]any, 0, len(n))
		for _, v := range n {
			nv := stripWalk(v, paths)
			if nv == nil {
				if _, wasString := v.(string); wasString {
					continue
				}
			}
			out = append(out, nv)
		}
		return out
	default:
		return node
	}
}
