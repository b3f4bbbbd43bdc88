package objectmap

import "github.com/GM-Alex/user-access-manager-sub006/internal/domain"

// CrossMap is a one-hop association between two general object types. It is
// never transitively closed: only direct relations appear.
type CrossMap map[string]map[string]string

// Related returns the objects associated with id, mapped to their concrete
// type. Nil when id has no associations.
func (m CrossMap) Related(id string) map[string]string {
	return m[id]
}

// BuildCrossMaps splits the raw relation rows into both lookup directions:
// termID -> {postID: postType} and postID -> {termID: taxonomy}.
func BuildCrossMaps(relations []domain.Relation) (termPost, postTerm CrossMap) {
	termPost = CrossMap{}
	postTerm = CrossMap{}
	for _, r := range relations {
		if r.TermID == "" || r.PostID == "" {
			continue
		}
		if termPost[r.TermID] == nil {
			termPost[r.TermID] = map[string]string{}
		}
		termPost[r.TermID][r.PostID] = r.PostType
		if postTerm[r.PostID] == nil {
			postTerm[r.PostID] = map[string]string{}
		}
		postTerm[r.PostID][r.TermID] = r.Taxonomy
	}
	return termPost, postTerm
}
