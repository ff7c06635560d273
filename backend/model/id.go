package model

import "github.com/google/uuid"

// generateUniqueID produces a fresh opaque identifier and probes it against
// taken, retrying until an unused candidate comes back. The probe only guards
// against predictable collisions; the unique index on the target column is
// what actually enforces uniqueness at write time.
func generateUniqueID(taken func(string) (bool, error)) (string, error) {
	for {
		id := uuid.New().String()
		exists, err := taken(id)
		if err != nil {
			return "", err
		}
		if !exists {
			return id, nil
		}
	}
}

// NewServiceID returns an unused externally-visible service identifier.
func NewServiceID() (string, error) {
	return generateUniqueID(ServiceIDTaken)
}

// NewWorkspaceID returns an unused externally-visible workspace identifier.
func NewWorkspaceID() (string, error) {
	return generateUniqueID(WorkspaceIDTaken)
}
