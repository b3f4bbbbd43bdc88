package domain

// General object categories. Every concrete object type (a post type such as
// "page", a taxonomy such as "category", or a pluggable custom type) resolves
// to exactly one of these.
const (
	GeneralPost = "post"
	GeneralTerm = "term"
	GeneralUser = "user"
	GeneralRole = "role"
)

// GeneralTypes lists the fixed general categories in a stable order.
func GeneralTypes() []string {
	return []string{GeneralRole, GeneralUser, GeneralTerm, GeneralPost}
}

// IsGeneralType reports whether t is one of the fixed general categories.
func IsGeneralType(t string) bool {
	switch t {
	case GeneralPost, GeneralTerm, GeneralUser, GeneralRole:
		return true
	}
	return false
}

// Edge is a raw parent/child row from the data source. Type is the concrete
// object type of the child (e.g. a post type or taxonomy name).
type Edge struct {
	ID       string
	ParentID string
	Type     string
}

// Relation is a raw one-hop association row between a post and a term.
type Relation struct {
	PostID   string
	PostType string
	TermID   string
	Taxonomy string
}

// PostInfo carries the per-post attributes the decision engine needs.
type PostInfo struct {
	ID       string
	Type     string
	AuthorID string
}
