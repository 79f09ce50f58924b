package example

import "strings"

// Selection is an ordered set of example ids.
// Order is insertion order and there are no duplicates when built through
// NewSelection or any Selection method.
type Selection []ID

// NewSelection builds a Selection, keeping the first occurrence of each id.
func NewSelection(ids ...ID) Selection {
	seen := make(map[string]struct{}, len(ids))
	sel := make(Selection, 0, len(ids))
	for _, id := range ids {
		key := id.String()
		if _, ok := seen[key]; ok {
			continue
		}
		seen[key] = struct{}{}
		sel = append(sel, id)
	}
	return sel
}

// Len returns the number of ids.
func (s Selection) Len() int { return len(s) }

// IDs returns a copy of the ids.
func (s Selection) IDs() []ID {
	out := make([]ID, len(s))
	copy(out, s)
	return out
}

// Strings renders every id.
func (s Selection) Strings() []string {
	out := make([]string, len(s))
	for i, id := range s {
		out[i] = id.String()
	}
	return out
}

func (s Selection) keys() map[string]struct{} {
	m := make(map[string]struct{}, len(s))
	for _, id := range s {
		m[id.String()] = struct{}{}
	}
	return m
}

// Contains reports whether id is part of the selection.
func (s Selection) Contains(id ID) bool {
	for _, x := range s {
		if x.Equal(id) {
			return true
		}
	}
	return false
}

// Without returns the selection minus every id in other, order preserved.
func (s Selection) Without(other Selection) Selection {
	drop := other.keys()
	out := make(Selection, 0, len(s))
	for _, id := range s {
		if _, ok := drop[id.String()]; !ok {
			out = append(out, id)
		}
	}
	return out
}

// Union appends the ids of other that are not already present.
func (s Selection) Union(other Selection) Selection {
	all := make([]ID, 0, len(s)+len(other))
	all = append(all, s...)
	all = append(all, other...)
	return NewSelection(all...)
}

// OrderedBy re-sorts the selection into the order of reference. Ids missing
// from reference keep their relative order after the referenced ones.
func (s Selection) OrderedBy(reference []ID) Selection {
	members := s.keys()
	out := make(Selection, 0, len(s))
	placed := make(map[string]struct{}, len(s))
	for _, id := range reference {
		key := id.String()
		if _, ok := members[key]; !ok {
			continue
		}
		if _, dup := placed[key]; dup {
			continue
		}
		placed[key] = struct{}{}
		out = append(out, id)
	}
	for _, id := range s {
		if _, ok := placed[id.String()]; !ok {
			out = append(out, id)
		}
	}
	return out
}

// Compact renders the selection in the runner's grouped notation: one
// argument per file, files in first-seen order, ids in selection order.
func (s Selection) Compact() []string {
	var files []string
	grouped := make(map[string][]string)
	for _, id := range s {
		if _, ok := grouped[id.File]; !ok {
			files = append(files, id.File)
		}
		grouped[id.File] = append(grouped[id.File], id.ScopeString())
	}

	out := make([]string, 0, len(files))
	for _, f := range files {
		out = append(out, f+"["+strings.Join(grouped[f], ",")+"]")
	}
	return out
}

// Chunks splits ids into consecutive slices of size n; the last one may be
// shorter. n < 1 is treated as 1.
func Chunks(ids []ID, n int) [][]ID {
	if n < 1 {
		n = 1
	}
	var out [][]ID
	for start := 0; start < len(ids); start += n {
		end := start + n
		if end > len(ids) {
			end = len(ids)
		}
		chunk := make([]ID, end-start)
		copy(chunk, ids[start:end])
		out = append(out, chunk)
	}
	return out
}
