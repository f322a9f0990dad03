package domain

// Metrics is the aggregate view over the ledger.
type Metrics struct {
	// TotalCustomers counts all registered customers.
	TotalCustomers int

	// TotalOrders counts all orders regardless of status.
	TotalOrders int

	// CompletedOrders counts orders in the completed state.
	CompletedOrders int

	// TotalRevenue sums the amounts of completed orders.
	TotalRevenue float64

	// PremiumCustomers counts customers with premium status.
	PremiumCustomers int

	// ConversionRate is CompletedOrders/TotalOrders as a percentage,
	// 0 when there are no orders.
	ConversionRate float64

	// AverageOrderValue is TotalRevenue/CompletedOrders, 0 when none
	// completed.
	AverageOrderValue float64
}
