package handlers

import (
	"testing"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

func TestValidateProductShape(t *testing.T) {
	if problem := validateProductShape("standalone", true, 0); problem != "" {
		t.Fatalf("valid standalone rejected: %s", problem)
	}
	if problem := validateProductShape("standalone", true, 2); problem == "" {
		t.Fatal("standalone with variants must be rejected")
	}
	if problem := validateProductShape("standalone", false, 0); problem == "" {
		t.Fatal("standalone without stock must be rejected")
	}
	if problem := validateProductShape("variant", false, 3); problem != "" {
		t.Fatalf("valid variant rejected: %s", problem)
	}
	if problem := validateProductShape("variant", false, 0); problem == "" {
		t.Fatal("variant without variants must be rejected")
	}
	if problem := validateProductShape("variant", true, 3); problem == "" {
		t.Fatal("variant with root stock must be rejected")
	}
	if problem := validateProductShape("bundle", false, 0); problem == "" {
		t.Fatal("unknown product type must be rejected")
	}
}

func TestValidateDiscount(t *testing.T) {
	if problem := validateDiscount(nil); problem != "" {
		t.Fatalf("nil discount rejected: %s", problem)
	}
	if problem := validateDiscount(floatPtr(33)); problem != "" {
		t.Fatalf("valid discount rejected: %s", problem)
	}
	if problem := validateDiscount(floatPtr(-1)); problem == "" {
		t.Fatal("negative discount must be rejected")
	}
	if problem := validateDiscount(floatPtr(101)); problem == "" {
		t.Fatal("discount above 100 must be rejected")
	}
}

func TestBuildProductVariantsAssignsItemIDs(t *testing.T) {
	colorID := primitive.NewObjectID().Hex()
	variants, problem := buildProductVariants([]ProductVariantRequest{
		{ColorID: colorID, Stock: 5},
		{ItemID: "keep-me", ColorID: colorID, Stock: 2},
	})
	if problem != "" {
		t.Fatalf("unexpected problem: %s", problem)
	}
	if variants[0].ItemID == "" {
		t.Fatal("expected generated item id for first variant")
	}
	if variants[1].ItemID != "keep-me" {
		t.Fatalf("expected provided item id to survive, got %q", variants[1].ItemID)
	}
}

func TestBuildProductVariantsRejectsBadColorIDs(t *testing.T) {
	if _, problem := buildProductVariants([]ProductVariantRequest{{ColorID: "nope"}}); problem == "" {
		t.Fatal("malformed colorId must be rejected")
	}

	bad := "also-nope"
	good := primitive.NewObjectID().Hex()
	if _, problem := buildProductVariants([]ProductVariantRequest{{ColorID: good, SecondaryColorID: &bad}}); problem == "" {
		t.Fatal("malformed secondaryColorId must be rejected")
	}
}
