package domain

import "context"

type viewerKey struct{}

// Viewer carries the identity evaluating access through request context:
// who is asking, which roles and capabilities they hold, where the request
// comes from, and whether it runs in an administrative context.
type Viewer struct {
	UserID       string // empty when not logged in
	Roles        []string
	Capabilities []string
	SuperAdmin   bool
	IP           string
	AdminContext bool
}

// LoggedIn reports whether the viewer is an authenticated user.
func (v *Viewer) LoggedIn() bool { return v.UserID != "" }

// HasRole reports whether the viewer holds the given role.
func (v *Viewer) HasRole(role string) bool {
	for _, r := range v.Roles {
		if r == role {
			return true
		}
	}
	return false
}

// HasCapability reports whether the viewer holds the given capability.
// Super admins hold every capability.
func (v *Viewer) HasCapability(capability string) bool {
	if v.SuperAdmin {
		return true
	}
	for _, c := range v.Capabilities {
		if c == capability {
			return true
		}
	}
	return false
}

// WithViewer stores a Viewer in the context.
func WithViewer(ctx context.Context, v Viewer) context.Context {
	return context.WithValue(ctx, viewerKey{}, v)
}

// ViewerFromContext extracts the Viewer from the context. The second return
// is false for unauthenticated requests; callers then evaluate against the
// anonymous viewer.
func ViewerFromContext(ctx context.Context) (Viewer, bool) {
	v, ok := ctx.Value(viewerKey{}).(Viewer)
	return v, ok
}
