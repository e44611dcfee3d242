package dto

import "github.com/hollis/causeconnect/internal/database/models"

// PermissionGrant is one entry of an UpdatePermissionsRequest.
type PermissionGrant struct {
	EntityType string `json:"entity_type"`
	CanCreate  bool   `json:"can_create"`
	CanRead    bool   `json:"can_read"`
	CanUpdate  bool   `json:"can_update"`
	CanDelete  bool   `json:"can_delete"`
}

type UpdatePermissionsRequest struct {
	Permissions []PermissionGrant `json:"permissions"`
}

func (r UpdatePermissionsRequest) Validate() map[string]string {
	errors := make(map[string]string)
	for _, grant := range r.Permissions {
		if !models.IsKnownEntityType(grant.EntityType) {
			errors[grant.EntityType] = "Unknown entity type"
		}
	}
	return errors
}
