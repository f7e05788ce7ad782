package maintenance

import (
	"context"

	"github.com/warp/overtime-engine/generic"
)

// RequestFilter narrows ListMaintenanceRequests. Zero fields do not filter.
type RequestFilter struct {
	AssetID       generic.AssetID
	States        []RequestState
	AutoGenerated *bool
}

type AssetStore interface {
	SaveAsset(ctx context.Context, a Asset) error
	GetAsset(ctx context.Context, id generic.AssetID) (Asset, error)
	ListAssets(ctx context.Context) ([]Asset, error)
	// DeleteAsset also removes the asset's maintenance requests.
	DeleteAsset(ctx context.Context, id generic.AssetID) error
}

type TeamStore interface {
	SaveTeam(ctx context.Context, t Team) error
	GetTeam(ctx context.Context, id generic.TeamID) (Team, error)
	ListTeams(ctx context.Context) ([]Team, error)
}

type RequestStore interface {
	SaveMaintenanceRequest(ctx context.Context, r Request) error
	GetMaintenanceRequest(ctx context.Context, id generic.MaintenanceRequestID) (Request, error)
	DeleteMaintenanceRequest(ctx context.Context, id generic.MaintenanceRequestID) error
	// ListMaintenanceRequests returns matches ordered by scheduled date, then reference.
	ListMaintenanceRequests(ctx context.Context, filter RequestFilter) ([]Request, error)
}

// Store is everything the Service needs. NextReference has the same
// contract as the overtime reference counters and shares their table.
type Store interface {
	AssetStore
	TeamStore
	RequestStore
	NextReference(ctx context.Context, code string, year int) (int64, error)
}
