package model

// Course is the subset of catalog data needed for checkout.
type Course struct {
	ID         string
	Name       string
	Active     bool
	PriceMinor int64
}
