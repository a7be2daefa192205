// Package job defines the job identity that scopes extension resolution.
// A Job is the cache key for the extension layer: one plugin runtime is
// started per distinct job identity.
package job

import (
	"fmt"
	"maps"

	"github.com/google/uuid"
)

// Job is an opaque job identity plus its associated metadata. The ID is the
// sole identity used by the extension cache; Name and Metadata are carried
// for plugins (decorators mutate Metadata, filters and notifiers read it).
type Job struct {
	ID       string
	Name     string
	Metadata map[string]string
}

// New creates a job with a fresh unique ID.
func New(name string, metadata map[string]string) *Job {
	return &Job{
		ID:       uuid.NewString(),
		Name:     name,
		Metadata: maps.Clone(metadata),
	}
}

// SetMeta sets a metadata entry, allocating the map on first use.
func (j *Job) SetMeta(key, value string) {
	if j.Metadata == nil {
		j.Metadata = make(map[string]string)
	}
	j.Metadata[key] = value
}

// Meta returns the metadata value for key, or "" when absent.
func (j *Job) Meta(key string) string {
	return j.Metadata[key]
}

// String implements fmt.Stringer for log output.
func (j *Job) String() string {
	return fmt.Sprintf("%s (%s)", j.Name, j.ID)
}
