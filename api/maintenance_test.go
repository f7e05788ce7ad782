package api_test

import (
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/warp/overtime-engine/api"
)

func TestAssetMaintenanceFlow(t *testing.T) {
	h := newServer(t)

	// GIVEN: a team and an active asset serviced monthly
	rec := do(t, h, http.MethodPost, "/api/maintenance/teams", `{"name": "Mechanics", "members": ["emp-1"]}`)
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	team := decode[api.TeamDTO](t, rec)
	assert.True(t, team.Active)

	rec = do(t, h, http.MethodPost, "/api/assets", `{
		"name": "Compressor", "team_id": "`+team.ID+`", "status": "active", "maintenance_required": true,
		"schedule": {"pattern": "monthly", "start": "2025-01-31", "interval": 1, "end": "2025-04-30"}
	}`)
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	asset := decode[api.AssetDTO](t, rec)
	assert.Equal(t, "monthly", asset.Schedule.Pattern)
	assert.Nil(t, asset.NextMaintenance, "only assets in maintenance have a next date")

	// WHEN: generating its schedule
	rec = do(t, h, http.MethodPost, "/api/assets/"+asset.ID+"/schedule", "")

	// THEN: one preventive draft per due date is created
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	generated := decode[[]api.MaintenanceRequestDTO](t, rec)
	require.Len(t, generated, 4)
	assert.Equal(t, "2025-02-28", generated[1].ScheduledDate)
	assert.Equal(t, "preventive", generated[1].Kind)

	// WHEN: the first request is started
	first := generated[0].ID
	rec = do(t, h, http.MethodPost, "/api/maintenance/requests/"+first+"/start", "")
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	// THEN: the asset is in maintenance and shows its next due date
	rec = do(t, h, http.MethodGet, "/api/assets/"+asset.ID, "")
	require.Equal(t, http.StatusOK, rec.Code)
	asset = decode[api.AssetDTO](t, rec)
	assert.Equal(t, "maintenance", asset.Status)
	require.NotNil(t, asset.NextMaintenance)
	assert.Equal(t, "2025-03-31", *asset.NextMaintenance)

	// cancelling needs a reason
	rec = do(t, h, http.MethodPost, "/api/maintenance/requests/"+first+"/cancel", `{}`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = do(t, h, http.MethodPost, "/api/maintenance/requests/"+first+"/done", "")
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	done := decode[api.MaintenanceRequestDTO](t, rec)
	assert.Equal(t, "done", done.State)
	assert.Equal(t, "2025-03-01", done.ScheduledEnd)

	// a done request is frozen
	assert.Equal(t, http.StatusConflict, do(t, h, http.MethodPost, "/api/maintenance/requests/"+first+"/start", "").Code)
	assert.Equal(t, http.StatusConflict, do(t, h, http.MethodDelete, "/api/maintenance/requests/"+first, "").Code)
	assert.Equal(t, http.StatusNotFound, do(t, h, http.MethodPost, "/api/maintenance/requests/"+first+"/scrap", "").Code)

	// an active asset cannot be deleted
	assert.Equal(t, http.StatusConflict, do(t, h, http.MethodDelete, "/api/assets/"+asset.ID, "").Code)

	rec = do(t, h, http.MethodGet, "/api/maintenance/requests?asset_id="+asset.ID+"&state=draft", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Len(t, decode[[]api.MaintenanceRequestDTO](t, rec), 3)
}

func TestCreateMaintenanceRequest(t *testing.T) {
	h := newServer(t)
	rec := do(t, h, http.MethodPost, "/api/assets", `{"name": "Forklift"}`)
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	asset := decode[api.AssetDTO](t, rec)
	assert.Equal(t, "draft", asset.Status)

	rec = do(t, h, http.MethodPost, "/api/maintenance/requests",
		`{"asset_id": "`+asset.ID+`", "description": "Brake noise", "scheduled_date": "2025-03-04", "priority": 2}`)

	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	req := decode[api.MaintenanceRequestDTO](t, rec)
	assert.Equal(t, "MR/2025/00001", req.Reference)
	assert.Equal(t, "Maintenance for Forklift", req.Title)
	assert.Equal(t, "corrective", req.Kind)

	rec = do(t, h, http.MethodGet, "/api/assets/"+asset.ID+"/requests", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Len(t, decode[[]api.MaintenanceRequestDTO](t, rec), 1)

	// malformed dates and unknown assets
	rec = do(t, h, http.MethodPost, "/api/maintenance/requests", `{"asset_id": "`+asset.ID+`", "description": "x", "scheduled_date": "04/03/2025"}`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	rec = do(t, h, http.MethodPost, "/api/maintenance/requests", `{"asset_id": "ast-missing", "description": "x", "scheduled_date": "2025-03-04"}`)
	assert.Equal(t, http.StatusNotFound, rec.Code)

	// a draft asset can be deleted with its requests
	assert.Equal(t, http.StatusNoContent, do(t, h, http.MethodDelete, "/api/assets/"+asset.ID, "").Code)
	assert.Equal(t, http.StatusNotFound, do(t, h, http.MethodGet, "/api/maintenance/requests/"+req.ID, "").Code)
}
