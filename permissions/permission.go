package permissions

import (
	_ "embed"
	"encoding/json"
	"slices"

	"atrium/shared/constant"

	"github.com/rs/zerolog/log"
)

// Capability levels an endpoint or operation may require. Roles map onto
// capabilities as a flat predicate, not an inheritance hierarchy.
const (
	CapabilityAdmin           = "admin"
	CapabilityAdminOrDirector = "adminOrDirector"
	CapabilityAny             = "any"
)

//go:embed permissions.json
var permissionsData []byte

type Permission struct {
	Capability string `json:"capability"`
	Path       string `json:"path"`
	Method     string `json:"method"`
	Skip       bool   `json:"skip"`
}

type PermissionData struct {
	Endpoints []Permission `json:"endpoints"`
	Skip      bool         `json:"skip"`
}

func (r *PermissionData) FindPermissions(path, method string) Permission {
	idx := slices.IndexFunc(r.Endpoints, func(rp Permission) bool {
		return rp.Path == path && rp.Method == method
	})

	if idx == -1 {
		return Permission{}
	}

	return r.Endpoints[idx]
}

// Allowed reports whether a role satisfies the required capability.
func Allowed(role, capability string) bool {
	switch capability {
	case constant.Empty, CapabilityAny:
		return true
	case CapabilityAdminOrDirector:
		return role == constant.RoleAdmin || role == constant.RoleDirector
	case CapabilityAdmin:
		return role == constant.RoleAdmin
	default:
		return false
	}
}

func Get() *PermissionData {
	var permissions PermissionData

	err := json.Unmarshal(permissionsData, &permissions)
	if err != nil {
		log.Err(err).Msg("Failed to decode embedded permissions")

		return nil
	}

	log.Info().Int("endpoints", len(permissions.Endpoints)).Msg("Successfully loaded embedded permissions")

	return &permissions
}
