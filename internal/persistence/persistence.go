package persistence

import "github.com/petrijr/benchseed/pkg/api"

// Persistence bundles the two store interfaces so callers can depend on a
// single abstraction. Most backends implement both on one type.
type Persistence struct {
	Status  api.StatusStore
	Cursors CursorStore
}
