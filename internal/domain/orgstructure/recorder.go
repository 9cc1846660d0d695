// Package orgstructure holds contracts shared by the version and department
// packages of the organization structure engine.
package orgstructure

// MutationRecorder observes the outcome of every write operation.
// The metrics package provides the Prometheus-backed implementation.
type MutationRecorder interface {
	// RecordMutation is called once per operation; touched is the number of
	// persisted rows and err the returned error, if any.
	RecordMutation(entity, op string, touched int, err error)
}

// NopRecorder discards observations.
type NopRecorder struct{}

// RecordMutation implements MutationRecorder.
func (NopRecorder) RecordMutation(string, string, int, error) {}
