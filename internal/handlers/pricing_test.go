package handlers

import "testing"

func floatPtr(v float64) *float64 { return &v }

func TestCalculateDiscountPriceZeroOrMissingDiscount(t *testing.T) {
	if got := calculateDiscountPrice(20, nil); got != nil {
		t.Fatalf("expected nil for missing discount, got %v", *got)
	}
	if got := calculateDiscountPrice(20, floatPtr(0)); got != nil {
		t.Fatalf("expected nil for zero discount, got %v", *got)
	}
	if got := calculateDiscountPrice(20, floatPtr(-5)); got != nil {
		t.Fatalf("expected nil for negative discount, got %v", *got)
	}
}

func TestCalculateDiscountPriceRoundsToTwoDecimals(t *testing.T) {
	got := calculateDiscountPrice(20, floatPtr(25))
	if got == nil || *got != 15 {
		t.Fatalf("expected 15.00, got %v", got)
	}

	got = calculateDiscountPrice(19.99, floatPtr(33))
	if got == nil || *got != 13.39 {
		t.Fatalf("expected 13.39, got %v", got)
	}
}

func TestCalculateDiscountPriceNeverExceedsPrice(t *testing.T) {
	prices := []float64{0, 0.01, 9.99, 20, 149.95}
	for _, price := range prices {
		for d := 0.0; d <= 100; d += 12.5 {
			discount := d
			got := calculateDiscountPrice(price, &discount)
			if got == nil {
				continue
			}
			if *got > price {
				t.Fatalf("discount price %v exceeds base price %v at %v%%", *got, price, d)
			}
		}
	}
}

func TestEffectiveUnitPrice(t *testing.T) {
	if got := effectiveUnitPrice(20, floatPtr(15)); got != 15 {
		t.Fatalf("expected discounted price 15, got %v", got)
	}
	if got := effectiveUnitPrice(20, nil); got != 20 {
		t.Fatalf("expected base price 20, got %v", got)
	}
}

func TestHasDiscount(t *testing.T) {
	if !hasDiscount(20, floatPtr(15)) {
		t.Fatal("expected discount for 15 < 20")
	}
	if hasDiscount(20, nil) {
		t.Fatal("expected no discount without discountPrice")
	}
	if hasDiscount(20, floatPtr(20)) {
		t.Fatal("expected no discount when discountPrice equals price")
	}
	if hasDiscount(0, floatPtr(0)) {
		t.Fatal("expected no discount for zero price")
	}
}

func TestUnitAmountMinor(t *testing.T) {
	if got := unitAmountMinor(15); got != 1500 {
		t.Fatalf("expected 1500, got %d", got)
	}
	if got := unitAmountMinor(13.39); got != 1339 {
		t.Fatalf("expected 1339, got %d", got)
	}
}

func TestRoundMoney(t *testing.T) {
	if got := roundMoney(30.000000000000004); got != 30 {
		t.Fatalf("expected 30, got %v", got)
	}
	if got := roundMoney(13.385); got != 13.39 {
		t.Fatalf("expected 13.39, got %v", got)
	}
}
