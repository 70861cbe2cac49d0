package strategy

// MaxRecoveryLength scans prices once, tracking the running maximum (starting
// at 0) and the number of consecutive steps without a new maximum. It returns
// the longest such run.
func MaxRecoveryLength(prices []float64) int {
	maxPrice := 0.0
	current, longest := 0, 0
	for _, p := range prices {
		if p > maxPrice {
			maxPrice = p
			current = 0
		} else {
			current++
		}
		if current > longest {
			longest = current
		}
	}
	return longest
}
