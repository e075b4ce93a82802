package handlers

// Banner carousel ordering keeps a dense 1..N sequence. The pure planning
// helpers below decide which range shifts and in which direction; the handler
// applies the shift as a single range update before repositioning the moved
// banner.

// clampBannerOrder bounds a requested position to [1, count].
func clampBannerOrder(target, count int) int {
	if target < 1 {
		return 1
	}
	if target > count {
		return count
	}
	return target
}

// bannerShift describes the range update that reopens a slot at newOrder after
// vacating oldOrder: orders in [Low, High] move by Delta.
type bannerShift struct {
	Low   int
	High  int
	Delta int
}

// planBannerShift returns the shift for moving a banner from oldOrder to
// newOrder, and false when no other banner needs to move.
func planBannerShift(oldOrder, newOrder int) (bannerShift, bool) {
	switch {
	case newOrder < oldOrder:
		return bannerShift{Low: newOrder, High: oldOrder - 1, Delta: 1}, true
	case newOrder > oldOrder:
		return bannerShift{Low: oldOrder + 1, High: newOrder, Delta: -1}, true
	default:
		return bannerShift{}, false
	}
}

// applyBannerOrders simulates a move over an in-memory order list; used by the
// contiguity tests to exercise sequences of moves and deletes.
func applyBannerOrders(orders []int, fromIndex, target int) []int {
	count := len(orders)
	if count == 0 || fromIndex < 0 || fromIndex >= count {
		return orders
	}
	oldOrder := orders[fromIndex]
	newOrder := clampBannerOrder(target, count)

	shift, moved := planBannerShift(oldOrder, newOrder)
	if !moved {
		return orders
	}
	for i, order := range orders {
		if order >= shift.Low && order <= shift.High {
			orders[i] = order + shift.Delta
		}
	}
	orders[fromIndex] = newOrder
	return orders
}
