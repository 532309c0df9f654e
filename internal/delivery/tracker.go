package delivery

import (
	"context"
	"fmt"

	"github.com/pesansayur/storefront/internal/domain"
)

// LocationStore keeps the selected location of a session behind a selection
// token. Begin starts a new selection and drops the stored location; Commit
// stores loc only while token is still the latest.
type LocationStore interface {
	BeginLocation(ctx context.Context, sessionID string) (int64, error)
	CommitLocation(ctx context.Context, sessionID string, token int64, loc domain.DeliveryLocation) (bool, error)
}

// Tracker applies the last selection a session made, whatever order the
// resolutions finish in.
type Tracker struct {
	resolver *Resolver
	store    LocationStore
}

func NewTracker(resolver *Resolver, store LocationStore) *Tracker {
	return &Tracker{resolver: resolver, store: store}
}

// Select resolves p for the session. The location is returned even when a
// newer selection superseded it, with applied reporting whether it was stored.
func (t *Tracker) Select(ctx context.Context, sessionID string, p domain.Point) (loc domain.DeliveryLocation, applied bool, err error) {
	token, err := t.store.BeginLocation(ctx, sessionID)
	if err != nil {
		return domain.DeliveryLocation{}, false, fmt.Errorf("begin location: %w", err)
	}

	loc = t.resolver.Resolve(ctx, p)

	applied, err = t.store.CommitLocation(ctx, sessionID, token, loc)
	if err != nil {
		return loc, false, fmt.Errorf("commit location: %w", err)
	}
	return loc, applied, nil
}
