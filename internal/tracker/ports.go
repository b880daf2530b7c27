package tracker

import "context"

// Collection names understood by every Gateway.
const (
	CollectionGoals         = "goals"
	CollectionActivities    = "activities"
	CollectionSubActivities = "subactivities"
	CollectionRecords       = "records"
)

// Collections lists the four collections in load/save order.
var Collections = []string{CollectionGoals, CollectionActivities, CollectionSubActivities, CollectionRecords}

// Gateway loads and saves whole collections. Load must leave dst empty, not
// fail, when the collection was never saved. SaveAll replaces the collection.
type Gateway interface {
	Load(ctx context.Context, collection string, dst any) error
	SaveAll(ctx context.Context, collection string, items any) error
}

// Dialog asks the user to confirm destructive steps and shows alerts.
// A false answer or an error from Confirm aborts the pending mutation.
type Dialog interface {
	Confirm(ctx context.Context, title, message string, options ...string) (bool, error)
	Alert(ctx context.Context, title, message string) error
}

type acceptAll struct{}

func (acceptAll) Confirm(context.Context, string, string, ...string) (bool, error) { return true, nil }
func (acceptAll) Alert(context.Context, string, string) error                      { return nil }
