package permissions_test

import (
	"net/http"
	"testing"

	"atrium/permissions"
	"atrium/shared/constant"
)

func TestAllowed(t *testing.T) {
	tests := []struct {
		name       string
		role       string
		capability string
		want       bool
	}{
		{"admin satisfies admin", constant.RoleAdmin, permissions.CapabilityAdmin, true},
		{"director does not satisfy admin", constant.RoleDirector, permissions.CapabilityAdmin, false},
		{"guest does not satisfy admin", constant.RoleGuest, permissions.CapabilityAdmin, false},
		{"admin satisfies adminOrDirector", constant.RoleAdmin, permissions.CapabilityAdminOrDirector, true},
		{"director satisfies adminOrDirector", constant.RoleDirector, permissions.CapabilityAdminOrDirector, true},
		{"guest does not satisfy adminOrDirector", constant.RoleGuest, permissions.CapabilityAdminOrDirector, false},
		{"guest satisfies any", constant.RoleGuest, permissions.CapabilityAny, true},
		{"empty capability allows everyone", constant.RoleGuest, "", true},
		{"unknown capability denies everyone", constant.RoleAdmin, "superuser", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := permissions.Allowed(tt.role, tt.capability); got != tt.want {
				t.Errorf("Allowed(%q, %q) = %v, want %v", tt.role, tt.capability, got, tt.want)
			}
		})
	}
}

func TestGetLoadsEmbeddedPermissions(t *testing.T) {
	data := permissions.Get()

	if data == nil {
		t.Fatal("expected embedded permissions to load")
	}

	if len(data.Endpoints) == 0 {
		t.Fatal("expected at least one endpoint")
	}
}

func TestFindPermissions(t *testing.T) {
	data := permissions.Get()

	t.Run("known endpoint", func(t *testing.T) {
		permission := data.FindPermissions("/v1/appointments/{id}/approve", http.MethodPost)

		if permission.Capability != permissions.CapabilityAdminOrDirector {
			t.Errorf("expected adminOrDirector capability, got %q", permission.Capability)
		}
	})

	t.Run("public endpoint skips auth", func(t *testing.T) {
		permission := data.FindPermissions("/v1/rooms", http.MethodGet)

		if !permission.Skip {
			t.Error("expected GET /v1/rooms to skip auth")
		}
	})

	t.Run("unknown endpoint yields zero permission", func(t *testing.T) {
		permission := data.FindPermissions("/v1/unknown", http.MethodGet)

		if permission.Skip || permission.Capability != "" {
			t.Errorf("expected zero permission, got %+v", permission)
		}
	})
}
