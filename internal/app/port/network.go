package port

import (
	"context"

	"portfolio_aggregator/internal/domain/entity"
)

// BatchCaller issues many read-only contract calls in as few round trips as the network allows.
// Results are aligned with calls; one failed call never affects its siblings.
// A returned error always means the whole batch failed and wraps entity.ErrTransport.
type BatchCaller interface {
	Multicall(ctx context.Context, calls []entity.ContractCall) ([]entity.CallResult, error)

	// Definition returns the network definition associated with this client.
	Definition() entity.NetworkDefinition
}

// ObjectClient reads an object-model chain.
type ObjectClient interface {
	// GetOwnedObjects lists objects owned by owner that match filter, following pagination.
	GetOwnedObjects(ctx context.Context, owner string, filter entity.OwnedObjectsFilter) ([]entity.MoveObject, error)

	// MultiGetObjects fetches objects by id. Results are aligned with ids.
	MultiGetObjects(ctx context.Context, ids []string) ([]entity.ObjectResult, error)

	GetObject(ctx context.Context, id string) (entity.ObjectResult, error)

	Definition() entity.NetworkDefinition
}

// NetworkDefinitionProvider defines the interface for providing network definitions.
type NetworkDefinitionProvider interface {
	// GetAllNetworkDefinitions returns all available network definitions as a slice.
	GetAllNetworkDefinitions() []entity.NetworkDefinition

	// GetNetworkDefinition returns a specific network definition by its id.
	GetNetworkDefinition(id entity.NetworkID) (entity.NetworkDefinition, bool)
}

// ClientProvider hands out one client per network.
type ClientProvider interface {
	BatchCaller(networkID entity.NetworkID) (BatchCaller, error)
	ObjectClient(networkID entity.NetworkID) (ObjectClient, error)
}
