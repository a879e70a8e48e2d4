package sluice

import (
	"fmt"

	"go.jetify.com/typeid/v2"
)

// drainerPrefix is the TypeID prefix for generated drainer identifiers.
const drainerPrefix = "drn"

// newDrainerID generates a globally unique drainer identifier in the
// TypeID format "drn_...". Used when no WithID option is given. IDs are
// diagnostic only; nothing keys on them.
func newDrainerID() string {
	tid, err := typeid.Generate(drainerPrefix)
	if err != nil {
		panic(fmt.Sprintf("sluice: invalid id prefix %q: %v", drainerPrefix, err))
	}
	return tid.String()
}
