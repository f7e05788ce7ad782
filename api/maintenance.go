package api

import (
	"encoding/json"
	"fmt"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/warp/overtime-engine/generic"
	"github.com/warp/overtime-engine/maintenance"
)

// =============================================================================
// ASSET HANDLERS
// =============================================================================

// ListAssets returns all assets.
func (h *Handler) ListAssets(w http.ResponseWriter, r *http.Request) {
	assets, err := h.Maintenance.ListAssets(r.Context())
	if err != nil {
		h.respondError(w, r, "Failed to list assets", err)
		return
	}
	today := h.Maintenance.Today()
	dtos := make([]AssetDTO, len(assets))
	for i, a := range assets {
		dtos[i] = toAssetDTO(a, today)
	}
	writeJSON(w, http.StatusOK, dtos)
}

// CreateAsset stores a new asset.
func (h *Handler) CreateAsset(w http.ResponseWriter, r *http.Request) {
	a, ok := h.decodeAsset(w, r)
	if !ok {
		return
	}
	created, err := h.Maintenance.CreateAsset(r.Context(), a)
	if err != nil {
		h.respondError(w, r, "Failed to create asset", err)
		return
	}
	writeJSON(w, http.StatusCreated, toAssetDTO(created, h.Maintenance.Today()))
}

// GetAsset returns one asset.
func (h *Handler) GetAsset(w http.ResponseWriter, r *http.Request) {
	a, err := h.Maintenance.GetAsset(r.Context(), generic.AssetID(chi.URLParam(r, "id")))
	if err != nil {
		h.respondError(w, r, "Failed to get asset", err)
		return
	}
	writeJSON(w, http.StatusOK, toAssetDTO(a, h.Maintenance.Today()))
}

// UpdateAsset replaces an asset's details and recurrence.
func (h *Handler) UpdateAsset(w http.ResponseWriter, r *http.Request) {
	a, ok := h.decodeAsset(w, r)
	if !ok {
		return
	}
	a.ID = generic.AssetID(chi.URLParam(r, "id"))
	updated, err := h.Maintenance.UpdateAsset(r.Context(), a)
	if err != nil {
		h.respondError(w, r, "Failed to update asset", err)
		return
	}
	writeJSON(w, http.StatusOK, toAssetDTO(updated, h.Maintenance.Today()))
}

// DeleteAsset removes a draft asset and its requests.
func (h *Handler) DeleteAsset(w http.ResponseWriter, r *http.Request) {
	if err := h.Maintenance.DeleteAsset(r.Context(), generic.AssetID(chi.URLParam(r, "id"))); err != nil {
		h.respondError(w, r, "Failed to delete asset", err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// SetAssetStatus moves an asset to draft, active or maintenance.
func (h *Handler) SetAssetStatus(w http.ResponseWriter, r *http.Request) {
	a, err := h.Maintenance.SetAssetStatus(r.Context(),
		generic.AssetID(chi.URLParam(r, "id")), maintenance.AssetStatus(chi.URLParam(r, "status")))
	if err != nil {
		h.respondError(w, r, "Failed to change asset status", err)
		return
	}
	writeJSON(w, http.StatusOK, toAssetDTO(a, h.Maintenance.Today()))
}

// GenerateAssetSchedule creates the preventive requests of an asset's recurrence.
func (h *Handler) GenerateAssetSchedule(w http.ResponseWriter, r *http.Request) {
	requests, err := h.Maintenance.GenerateSchedule(r.Context(), generic.AssetID(chi.URLParam(r, "id")))
	if err != nil {
		h.respondError(w, r, "Failed to generate maintenance schedule", err)
		return
	}
	writeJSON(w, http.StatusCreated, toMaintenanceRequestDTOs(requests))
}

// GetAssetRequests lists the maintenance requests of an asset.
func (h *Handler) GetAssetRequests(w http.ResponseWriter, r *http.Request) {
	id := generic.AssetID(chi.URLParam(r, "id"))
	if _, err := h.Maintenance.GetAsset(r.Context(), id); err != nil {
		h.respondError(w, r, "Failed to get asset", err)
		return
	}
	requests, err := h.Maintenance.ListRequests(r.Context(), maintenance.RequestFilter{AssetID: id})
	if err != nil {
		h.respondError(w, r, "Failed to list maintenance requests", err)
		return
	}
	writeJSON(w, http.StatusOK, toMaintenanceRequestDTOs(requests))
}

func (h *Handler) decodeAsset(w http.ResponseWriter, r *http.Request) (maintenance.Asset, bool) {
	var req AssetRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body", err)
		return maintenance.Asset{}, false
	}
	a, err := fromAssetRequest(req)
	if err != nil {
		h.respondError(w, r, "Invalid asset", err)
		return maintenance.Asset{}, false
	}
	return a, true
}

// =============================================================================
// TEAM HANDLERS
// =============================================================================

// ListTeams returns all maintenance teams.
func (h *Handler) ListTeams(w http.ResponseWriter, r *http.Request) {
	teams, err := h.Maintenance.ListTeams(r.Context())
	if err != nil {
		h.respondError(w, r, "Failed to list teams", err)
		return
	}
	dtos := make([]TeamDTO, len(teams))
	for i, t := range teams {
		dtos[i] = toTeamDTO(t)
	}
	writeJSON(w, http.StatusOK, dtos)
}

// SaveTeam creates a team, or updates it when an id is given.
func (h *Handler) SaveTeam(w http.ResponseWriter, r *http.Request) {
	var req TeamDTO
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body", err)
		return
	}
	team := maintenance.Team{ID: generic.TeamID(req.ID), Name: req.Name, Active: req.Active}
	for _, m := range req.Members {
		team.Members = append(team.Members, generic.EmployeeID(m))
	}
	saved, err := h.Maintenance.SaveTeam(r.Context(), team)
	if err != nil {
		h.respondError(w, r, "Failed to save team", err)
		return
	}
	status := http.StatusOK
	if req.ID == "" {
		status = http.StatusCreated
	}
	writeJSON(w, status, toTeamDTO(saved))
}

// =============================================================================
// MAINTENANCE REQUEST HANDLERS
// =============================================================================

// ListMaintenanceRequests lists requests, optionally by asset_id and state.
func (h *Handler) ListMaintenanceRequests(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	f := maintenance.RequestFilter{AssetID: generic.AssetID(q.Get("asset_id"))}
	for _, st := range q["state"] {
		f.States = append(f.States, maintenance.RequestState(st))
	}
	requests, err := h.Maintenance.ListRequests(r.Context(), f)
	if err != nil {
		h.respondError(w, r, "Failed to list maintenance requests", err)
		return
	}
	writeJSON(w, http.StatusOK, toMaintenanceRequestDTOs(requests))
}

// CreateMaintenanceRequest stores a draft maintenance request.
func (h *Handler) CreateMaintenanceRequest(w http.ResponseWriter, r *http.Request) {
	in, ok := h.decodeMaintenanceInput(w, r)
	if !ok {
		return
	}
	req, err := h.Maintenance.CreateRequest(r.Context(), in)
	if err != nil {
		h.respondError(w, r, "Failed to create maintenance request", err)
		return
	}
	writeJSON(w, http.StatusCreated, toMaintenanceRequestDTO(req))
}

// GetMaintenanceRequest returns one maintenance request.
func (h *Handler) GetMaintenanceRequest(w http.ResponseWriter, r *http.Request) {
	req, err := h.Maintenance.GetRequest(r.Context(), generic.MaintenanceRequestID(chi.URLParam(r, "id")))
	if err != nil {
		h.respondError(w, r, "Failed to get maintenance request", err)
		return
	}
	writeJSON(w, http.StatusOK, toMaintenanceRequestDTO(req))
}

// UpdateMaintenanceRequest edits a request that is not done.
func (h *Handler) UpdateMaintenanceRequest(w http.ResponseWriter, r *http.Request) {
	in, ok := h.decodeMaintenanceInput(w, r)
	if !ok {
		return
	}
	req, err := h.Maintenance.UpdateRequest(r.Context(), generic.MaintenanceRequestID(chi.URLParam(r, "id")), in)
	if err != nil {
		h.respondError(w, r, "Failed to update maintenance request", err)
		return
	}
	writeJSON(w, http.StatusOK, toMaintenanceRequestDTO(req))
}

// DeleteMaintenanceRequest removes a draft or cancelled request.
func (h *Handler) DeleteMaintenanceRequest(w http.ResponseWriter, r *http.Request) {
	if err := h.Maintenance.DeleteRequest(r.Context(), generic.MaintenanceRequestID(chi.URLParam(r, "id"))); err != nil {
		h.respondError(w, r, "Failed to delete maintenance request", err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// MaintenanceRequestAction runs start, repair, done, cancel or draft.
func (h *Handler) MaintenanceRequestAction(w http.ResponseWriter, r *http.Request) {
	id := generic.MaintenanceRequestID(chi.URLParam(r, "id"))
	action := chi.URLParam(r, "action")
	ctx := r.Context()

	var run func(*maintenance.Service) (maintenance.Request, error)
	switch action {
	case "start":
		run = func(s *maintenance.Service) (maintenance.Request, error) { return s.StartRequest(ctx, id) }
	case "repair":
		run = func(s *maintenance.Service) (maintenance.Request, error) { return s.MarkRepaired(ctx, id) }
	case "done":
		run = func(s *maintenance.Service) (maintenance.Request, error) { return s.MarkDone(ctx, id) }
	case "draft":
		run = func(s *maintenance.Service) (maintenance.Request, error) { return s.SetRequestDraft(ctx, id) }
	case "cancel":
		var body CancelMaintenanceRequest
		if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
			writeError(w, http.StatusBadRequest, "Invalid request body", err)
			return
		}
		run = func(s *maintenance.Service) (maintenance.Request, error) { return s.CancelRequest(ctx, id, body.Reason) }
	default:
		writeError(w, http.StatusNotFound, "Unknown action", fmt.Errorf("action %q", action))
		return
	}

	req, err := run(h.Maintenance)
	if err != nil {
		h.respondError(w, r, "Failed to "+action+" maintenance request", err)
		return
	}
	writeJSON(w, http.StatusOK, toMaintenanceRequestDTO(req))
}

func (h *Handler) decodeMaintenanceInput(w http.ResponseWriter, r *http.Request) (maintenance.RequestInput, bool) {
	var req MaintenanceRequestInput
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body", err)
		return maintenance.RequestInput{}, false
	}
	in, err := fromMaintenanceRequestInput(req)
	if err != nil {
		h.respondError(w, r, "Invalid maintenance request", err)
		return maintenance.RequestInput{}, false
	}
	return in, true
}

func toMaintenanceRequestDTOs(requests []maintenance.Request) []MaintenanceRequestDTO {
	dtos := make([]MaintenanceRequestDTO, len(requests))
	for i, req := range requests {
		dtos[i] = toMaintenanceRequestDTO(req)
	}
	return dtos
}
