package depgraph

// pathIndex numbers file paths densely in insertion order so the adjacency
// lists can be plain int slices. It has a single writer: the graph is filled
// once by Build and only read afterwards, so it carries no lock.
type pathIndex struct {
	ids   map[string]int
	paths []string
}

func newPathIndex() *pathIndex {
	return &pathIndex{ids: make(map[string]int)}
}

// intern returns the ID of path, assigning the next one on first sight.
func (idx *pathIndex) intern(path string) int {
	if id, ok := idx.ids[path]; ok {
		return id
	}

	id := len(idx.paths)
	idx.paths = append(idx.paths, path)
	idx.ids[path] = id

	return id
}

// id returns the ID of path without assigning one.
func (idx *pathIndex) id(path string) (int, bool) {
	id, ok := idx.ids[path]

	return id, ok
}

// path returns the path of id, or "" for an unknown ID.
func (idx *pathIndex) path(id int) string {
	if id < 0 || id >= len(idx.paths) {
		return ""
	}

	return idx.paths[id]
}

func (idx *pathIndex) len() int {
	return len(idx.paths)
}
