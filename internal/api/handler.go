// Package api provides the HTTP surface: access checks, excluded-object
// listings, and group administration.
package api

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"sort"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/GM-Alex/user-access-manager-sub006/internal/access"
	"github.com/GM-Alex/user-access-manager-sub006/internal/domain"
	"github.com/GM-Alex/user-access-manager-sub006/internal/registry"
	"github.com/GM-Alex/user-access-manager-sub006/internal/service"
)

// Handler bundles the evaluation engine and the administration service
// behind JSON endpoints. Transport stays thin; all semantics live below.
type Handler struct {
	engine     *access.Engine
	groups     *service.GroupService
	reg        *registry.Registry
	capability string
	logger     *slog.Logger
}

// NewHandler creates a Handler. capability is the administrative capability
// gating mutation endpoints.
func NewHandler(engine *access.Engine, groups *service.GroupService, reg *registry.Registry, capability string, logger *slog.Logger) *Handler {
	if capability == "" {
		capability = access.DefaultFullAccessCapability
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Handler{engine: engine, groups: groups, reg: reg, capability: capability, logger: logger}
}

// Routes mounts every endpoint on a fresh chi router.
func (h *Handler) Routes() chi.Router {
	r := chi.NewRouter()

	r.Route("/v1", func(r chi.Router) {
		r.Post("/access/check", h.checkAccess)
		r.Get("/access/excluded/posts", h.excludedPosts)
		r.Get("/access/excluded/terms", h.excludedTerms)
		r.Get("/access/memberships/{objectType}/{objectID}", h.objectMemberships)

		r.Get("/object-types", h.objectTypes)

		r.Route("/groups", func(r chi.Router) {
			r.Get("/", h.listGroups)
			r.Post("/", h.createGroup)
			r.Get("/{id}", h.getGroup)
			r.Put("/{id}", h.updateGroup)
			r.Delete("/{id}", h.deleteGroup)

			r.Post("/{key}/assignments", h.createAssignment)
			r.Delete("/{key}/assignments/{objectType}/{objectID}", h.deleteAssignment)
			r.Put("/{key}/defaults/{objectType}", h.setDefault)
			r.Delete("/{key}/defaults/{objectType}", h.deleteDefault)
		})

		r.Post("/events/object-created", h.objectCreated)
		r.Post("/cache/invalidate", h.invalidateCaches)
	})

	return r
}

// --- access evaluation ---

type checkAccessRequest struct {
	ObjectType string `json:"objectType"`
	ObjectID   string `json:"objectID"`
}

type checkAccessResponse struct {
	Granted bool `json:"granted"`
}

func (h *Handler) checkAccess(w http.ResponseWriter, r *http.Request) {
	var req checkAccessRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON body")
		return
	}
	if req.ObjectType == "" || req.ObjectID == "" {
		writeError(w, http.StatusBadRequest, "objectType and objectID are required")
		return
	}

	viewer, _ := domain.ViewerFromContext(r.Context())
	granted, err := h.engine.Begin(viewer).CheckObjectAccess(r.Context(), req.ObjectType, req.ObjectID)
	if err != nil {
		h.writeDomainError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, checkAccessResponse{Granted: granted})
}

type excludedResponse struct {
	IDs []string `json:"ids"`
}

func (h *Handler) excludedPosts(w http.ResponseWriter, r *http.Request) {
	viewer, _ := domain.ViewerFromContext(r.Context())
	excluded, err := h.engine.Begin(viewer).ExcludedPosts(r.Context())
	if err != nil {
		h.writeDomainError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, excludedResponse{IDs: sortedIDs(excluded)})
}

func (h *Handler) excludedTerms(w http.ResponseWriter, r *http.Request) {
	viewer, _ := domain.ViewerFromContext(r.Context())
	excluded, err := h.engine.Begin(viewer).ExcludedTerms(r.Context())
	if err != nil {
		h.writeDomainError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, excludedResponse{IDs: sortedIDs(excluded)})
}

type membershipResponse struct {
	GroupKeys []string `json:"groupKeys"`
}

func (h *Handler) objectMemberships(w http.ResponseWriter, r *http.Request) {
	if !h.requireAdmin(w, r) {
		return
	}
	memberships, err := h.engine.ObjectMembership(r.Context(), chi.URLParam(r, "objectType"), chi.URLParam(r, "objectID"))
	if err != nil {
		h.writeDomainError(w, r, err)
		return
	}
	keys := make(map[string]bool, len(memberships))
	for key := range memberships {
		keys[key] = true
	}
	writeJSON(w, http.StatusOK, membershipResponse{GroupKeys: sortedIDs(keys)})
}

func (h *Handler) objectTypes(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string][]string{"objectTypes": h.reg.AllObjectTypes()})
}

// --- group administration ---

type groupPayload struct {
	ID          int64    `json:"id,omitempty"`
	Name        string   `json:"name"`
	Description string   `json:"description,omitempty"`
	ReadAccess  string   `json:"readAccess"`
	WriteAccess string   `json:"writeAccess"`
	IPRanges    []string `json:"ipRanges,omitempty"`
}

func groupToPayload(g *domain.Group) groupPayload {
	return groupPayload{
		ID:          g.ID,
		Name:        g.Name,
		Description: g.Description,
		ReadAccess:  g.ReadAccess,
		WriteAccess: g.WriteAccess,
		IPRanges:    g.IPRanges,
	}
}

func (p *groupPayload) toDomain() *domain.Group {
	return &domain.Group{
		ID:          p.ID,
		Name:        p.Name,
		Description: p.Description,
		ReadAccess:  p.ReadAccess,
		WriteAccess: p.WriteAccess,
		IPRanges:    p.IPRanges,
	}
}

func (h *Handler) listGroups(w http.ResponseWriter, r *http.Request) {
	if !h.requireAdmin(w, r) {
		return
	}
	groups, err := h.groups.List(r.Context())
	if err != nil {
		h.writeDomainError(w, r, err)
		return
	}
	payload := make([]groupPayload, 0, len(groups))
	for i := range groups {
		payload = append(payload, groupToPayload(&groups[i]))
	}
	writeJSON(w, http.StatusOK, map[string][]groupPayload{"groups": payload})
}

func (h *Handler) createGroup(w http.ResponseWriter, r *http.Request) {
	if !h.requireAdmin(w, r) {
		return
	}
	var payload groupPayload
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON body")
		return
	}
	created, err := h.groups.Create(r.Context(), payload.toDomain())
	if err != nil {
		h.writeDomainError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, groupToPayload(created))
}

func (h *Handler) getGroup(w http.ResponseWriter, r *http.Request) {
	if !h.requireAdmin(w, r) {
		return
	}
	id, ok := h.groupID(w, r)
	if !ok {
		return
	}
	g, err := h.groups.Get(r.Context(), id)
	if err != nil {
		h.writeDomainError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, groupToPayload(g))
}

func (h *Handler) updateGroup(w http.ResponseWriter, r *http.Request) {
	if !h.requireAdmin(w, r) {
		return
	}
	id, ok := h.groupID(w, r)
	if !ok {
		return
	}
	var payload groupPayload
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON body")
		return
	}
	g := payload.toDomain()
	g.ID = id
	if err := h.groups.Update(r.Context(), g); err != nil {
		h.writeDomainError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, groupToPayload(g))
}

func (h *Handler) deleteGroup(w http.ResponseWriter, r *http.Request) {
	if !h.requireAdmin(w, r) {
		return
	}
	id, ok := h.groupID(w, r)
	if !ok {
		return
	}
	if err := h.groups.Delete(r.Context(), id); err != nil {
		h.writeDomainError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// --- assignments ---

type assignmentPayload struct {
	ObjectType      string     `json:"objectType"`
	ObjectID        string     `json:"objectID"`
	FromDate        *time.Time `json:"fromDate,omitempty"`
	ToDate          *time.Time `json:"toDate,omitempty"`
	LockedRecursive bool       `json:"lockedRecursive,omitempty"`
}

func (h *Handler) createAssignment(w http.ResponseWriter, r *http.Request) {
	if !h.requireAdmin(w, r) {
		return
	}
	var payload assignmentPayload
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON body")
		return
	}
	err := h.groups.Assign(r.Context(), &domain.Assignment{
		GroupKey:        chi.URLParam(r, "key"),
		ObjectType:      payload.ObjectType,
		ObjectID:        payload.ObjectID,
		FromDate:        payload.FromDate,
		ToDate:          payload.ToDate,
		LockedRecursive: payload.LockedRecursive,
	})
	if err != nil {
		h.writeDomainError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) deleteAssignment(w http.ResponseWriter, r *http.Request) {
	if !h.requireAdmin(w, r) {
		return
	}
	err := h.groups.Unassign(r.Context(),
		chi.URLParam(r, "key"), chi.URLParam(r, "objectType"), chi.URLParam(r, "objectID"))
	if err != nil {
		h.writeDomainError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

type defaultPayload struct {
	FromOffsetSeconds *int64 `json:"fromOffsetSeconds,omitempty"`
	ToOffsetSeconds   *int64 `json:"toOffsetSeconds,omitempty"`
}

func (h *Handler) setDefault(w http.ResponseWriter, r *http.Request) {
	if !h.requireAdmin(w, r) {
		return
	}
	var payload defaultPayload
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON body")
		return
	}
	err := h.groups.SetDefault(r.Context(), &domain.DefaultAssignment{
		GroupKey:   chi.URLParam(r, "key"),
		ObjectType: chi.URLParam(r, "objectType"),
		FromOffset: secondsToDuration(payload.FromOffsetSeconds),
		ToOffset:   secondsToDuration(payload.ToOffsetSeconds),
	})
	if err != nil {
		h.writeDomainError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) deleteDefault(w http.ResponseWriter, r *http.Request) {
	if !h.requireAdmin(w, r) {
		return
	}
	err := h.groups.RemoveDefault(r.Context(), chi.URLParam(r, "key"), chi.URLParam(r, "objectType"))
	if err != nil {
		h.writeDomainError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// --- events and maintenance ---

type objectCreatedPayload struct {
	ObjectType string     `json:"objectType"`
	ObjectID   string     `json:"objectID"`
	CreatedAt  *time.Time `json:"createdAt,omitempty"`
}

func (h *Handler) objectCreated(w http.ResponseWriter, r *http.Request) {
	if !h.requireAdmin(w, r) {
		return
	}
	var payload objectCreatedPayload
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON body")
		return
	}
	createdAt := time.Time{}
	if payload.CreatedAt != nil {
		createdAt = *payload.CreatedAt
	}
	if err := h.groups.ObjectCreated(r.Context(), payload.ObjectType, payload.ObjectID, createdAt); err != nil {
		h.writeDomainError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) invalidateCaches(w http.ResponseWriter, r *http.Request) {
	if !h.requireAdmin(w, r) {
		return
	}
	h.groups.InvalidateMaps(r.Context())
	h.engine.Invalidate()
	w.WriteHeader(http.StatusNoContent)
}

// --- helpers ---

func (h *Handler) requireAdmin(w http.ResponseWriter, r *http.Request) bool {
	viewer, _ := domain.ViewerFromContext(r.Context())
	if !viewer.HasCapability(h.capability) {
		writeError(w, http.StatusForbidden, "administrative capability required")
		return false
	}
	return true
}

func (h *Handler) groupID(w http.ResponseWriter, r *http.Request) (int64, bool) {
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil {
		writeError(w, http.StatusBadRequest, "group id must be an integer")
		return 0, false
	}
	return id, true
}

func (h *Handler) writeDomainError(w http.ResponseWriter, r *http.Request, err error) {
	status := httpStatusFromDomainError(err)
	if status == http.StatusInternalServerError {
		h.logger.Error("request failed", "path", r.URL.Path, "error", err)
		writeError(w, status, "internal error")
		return
	}
	writeError(w, status, err.Error())
}

func writeJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(body)
}

func writeError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, map[string]any{"code": status, "message": message})
}

func secondsToDuration(secs *int64) *time.Duration {
	if secs == nil {
		return nil
	}
	d := time.Duration(*secs) * time.Second
	return &d
}

func sortedIDs(set map[string]bool) []string {
	ids := make([]string, 0, len(set))
	for id := range set {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}
