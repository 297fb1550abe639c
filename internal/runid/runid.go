package runid

import "github.com/google/uuid"

// New returns a UUIDv7 string (time-ordered, millisecond precision) used to
// correlate all log lines of a single pipeline run.
func New() string {
	u, err := uuid.NewV7()
	if err != nil {
		// NewV7 only fails when crypto/rand does; a random v4 still
		// gives a usable correlation id.
		return uuid.New().String()
	}
	return u.String()
}
