package handlers

import (
	"testing"

	"backend/internal/models"
)

func TestApplyDefaultFlagKeepsSingleDefault(t *testing.T) {
	addresses := []models.Address{
		{ID: "a", IsDefault: true},
		{ID: "b"},
		{ID: "c", IsDefault: true},
	}

	applyDefaultFlag(addresses, "b")

	defaults := 0
	for _, address := range addresses {
		if address.IsDefault {
			defaults++
			if address.ID != "b" {
				t.Fatalf("expected b to be default, got %s", address.ID)
			}
		}
	}
	if defaults != 1 {
		t.Fatalf("expected exactly one default, got %d", defaults)
	}
}
