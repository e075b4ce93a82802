package handlers

import (
	"net/http"
	"net/http/httptest"
	"sort"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
)

func assertDense(t *testing.T, orders []int) {
	t.Helper()
	sorted := append([]int(nil), orders...)
	sort.Ints(sorted)
	for i, order := range sorted {
		if order != i+1 {
			t.Fatalf("orders %v are not dense 1..%d", orders, len(orders))
		}
	}
}

func TestClampBannerOrder(t *testing.T) {
	if got := clampBannerOrder(0, 4); got != 1 {
		t.Fatalf("expected clamp to 1, got %d", got)
	}
	if got := clampBannerOrder(9, 4); got != 4 {
		t.Fatalf("expected clamp to 4, got %d", got)
	}
	if got := clampBannerOrder(3, 4); got != 3 {
		t.Fatalf("expected 3, got %d", got)
	}
}

func TestReorderRequestBindsZeroTarget(t *testing.T) {
	gin.SetMode(gin.TestMode)

	c, _ := gin.CreateTestContext(httptest.NewRecorder())
	c.Request = httptest.NewRequest(http.MethodPut, "/banners/x/reorder", strings.NewReader(`{"order":0}`))
	c.Request.Header.Set("Content-Type", "application/json")

	// 0 is a valid target and clamps to the front, same as any other
	// out-of-range value. It must not be rejected at binding time.
	var req BannerReorderRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		t.Fatalf("order 0 must bind: %v", err)
	}
	if got := clampBannerOrder(req.Order, 4); got != 1 {
		t.Fatalf("expected order 0 to clamp to 1, got %d", got)
	}
}

func TestPlanBannerShiftDirections(t *testing.T) {
	shift, moved := planBannerShift(4, 2)
	if !moved || shift.Low != 2 || shift.High != 3 || shift.Delta != 1 {
		t.Fatalf("unexpected shift moving down: %+v", shift)
	}

	shift, moved = planBannerShift(1, 3)
	if !moved || shift.Low != 2 || shift.High != 3 || shift.Delta != -1 {
		t.Fatalf("unexpected shift moving up: %+v", shift)
	}

	if _, moved = planBannerShift(2, 2); moved {
		t.Fatal("expected no-op for same position")
	}
}

func TestApplyBannerOrdersMoveKeepsDensity(t *testing.T) {
	orders := []int{1, 2, 3, 4}

	orders = applyBannerOrders(orders, 3, 1) // move last to front
	assertDense(t, orders)
	if orders[3] != 1 {
		t.Fatalf("expected moved banner at order 1, got %v", orders)
	}

	orders = applyBannerOrders(orders, 0, 99) // clamp beyond count
	assertDense(t, orders)
	if orders[0] != 4 {
		t.Fatalf("expected clamped banner at order 4, got %v", orders)
	}
}

func TestBannerOrderSequences(t *testing.T) {
	orders := []int{1, 2, 3, 4, 5}

	moves := []struct{ index, target int }{
		{0, 5}, {2, 1}, {4, 3}, {1, 1}, {3, 2},
	}
	for _, move := range moves {
		orders = applyBannerOrders(orders, move.index, move.target)
		assertDense(t, orders)
	}
}

func TestDeleteReindexesRemainingBanners(t *testing.T) {
	// Deleting order=2 from [1,2,3,4] decrements everything above it.
	orders := []int{1, 3, 4}
	for i, order := range orders {
		if order > 2 {
			orders[i] = order - 1
		}
	}
	assertDense(t, orders)
	if orders[0] != 1 || orders[1] != 2 || orders[2] != 3 {
		t.Fatalf("expected [1,2,3], got %v", orders)
	}
}
