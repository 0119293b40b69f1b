package sellout

// Diagnostics counts per-record anomalies that were recovered locally
type Diagnostics struct {
	Records              int `json:"records"`
	Normalized           int `json:"normalized"`
	UnresolvedReferences int `json:"unresolved_references"`
	MalformedNumerics    int `json:"malformed_numerics"`
	UnclassifiablePrices int `json:"unclassifiable_prices"`
	Dropped              int `json:"dropped"`
	Filtered             int `json:"filtered"`
}

// Merge adds other into d
func (d *Diagnostics) Merge(other Diagnostics) {
	d.Records += other.Records
	d.Normalized += other.Normalized
	d.UnresolvedReferences += other.UnresolvedReferences
	d.MalformedNumerics += other.MalformedNumerics
	d.UnclassifiablePrices += other.UnclassifiablePrices
	d.Dropped += other.Dropped
	d.Filtered += other.Filtered
}

// Clean reports whether no anomaly was recorded
func (d Diagnostics) Clean() bool {
	return d.UnresolvedReferences == 0 && d.MalformedNumerics == 0 &&
		d.UnclassifiablePrices == 0 && d.Dropped == 0
}
