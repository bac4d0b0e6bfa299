package booking

import "context"

// CalendarSource defines how hosts discover calendar definitions.
// This allows the configuration layer (loam documents, plain files, tests)
// to be decoupled from the serving layer that seeds sessions from it.
type CalendarSource interface {
	// Load builds a fresh system for the named calendar.
	Load(ctx context.Context, id string) (*System, error)

	// List returns the ids of all known calendar definitions.
	List(ctx context.Context) ([]string, error)
}

// WatchableSource is implemented by sources that can report backend
// changes. Hosts use it to pick up new or edited calendars without a
// restart; the channel carries the id of the calendar that changed.
type WatchableSource interface {
	CalendarSource

	Watch(ctx context.Context) (<-chan string, error)
}
