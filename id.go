package conductor

import "github.com/xraph/conductor/id"

// ID is the identifier type for scheduled jobs.
type ID = id.ID
