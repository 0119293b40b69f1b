package sellout

import (
	"math"
	"strings"

	"github.com/shopspring/decimal"
)

// Category selects which price ladder applies to a product
type Category string

const (
	CategorySmartphone Category = "smartphone"
	CategoryTab        Category = "tab"
	CategoryWearable   Category = "wearable"
)

// ParseCategory maps free-form catalog values onto a Category.
// Anything unrecognised is treated as a smartphone.
func ParseCategory(s string) Category {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "tab", "tablet":
		return CategoryTab
	case "wearable", "wearables", "watch":
		return CategoryWearable
	default:
		return CategorySmartphone
	}
}

// Segment is a price band label
type Segment string

// Smartphone bands
const (
	Segment100kPlus  Segment = "100k+"
	Segment70To100k  Segment = "70-100k"
	Segment40To70k   Segment = "40-70k"
	Segment30To40k   Segment = "30-40k"
	Segment20To30k   Segment = "20-30k"
	Segment15To20k   Segment = "15-20k"
	Segment10To15k   Segment = "10-15k"
	Segment6To10k    Segment = "6-10k"
	SegmentBelow10k  Segment = "<10k"
	SegmentBelow6k   Segment = "<6k"
	SegmentTabAbove  Segment = ">40k"
	SegmentTabBelow  Segment = "<40k"
	SegmentWearable  Segment = "Wearable"
	SegmentUnclassed Segment = "Unclassifiable"
)

// tabThreshold splits the tab ladder; a tab priced exactly at the threshold is in the lower band
const tabThreshold = 40000

// SegmentPolicy classifies a price per unit into a band
type SegmentPolicy interface {
	Name() string
	Classify(pricePerUnit float64, category Category) Segment
	Segments(category Category) []Segment
}

type rung struct {
	threshold float64
	segment   Segment
}

// ladderPolicy walks rungs from the highest threshold down
type ladderPolicy struct {
	name      string
	inclusive bool
	rungs     []rung
	floor     Segment
}

// InclusiveLadder uses >= comparisons, so a price exactly at a threshold takes the higher band.
// Its 6000 rung and its floor share the <10k label.
var InclusiveLadder SegmentPolicy = &ladderPolicy{
	name:      "inclusive",
	inclusive: true,
	rungs: []rung{
		{100000, Segment100kPlus},
		{70000, Segment70To100k},
		{40000, Segment40To70k},
		{30000, Segment30To40k},
		{20000, Segment20To30k},
		{15000, Segment15To20k},
		{10000, Segment10To15k},
		{6000, SegmentBelow10k},
	},
	floor: SegmentBelow10k,
}

// ExclusiveLadder uses > comparisons with finer low-end bands.
// A price exactly at a threshold stays in the lower band.
var ExclusiveLadder SegmentPolicy = &ladderPolicy{
	name:      "exclusive",
	inclusive: false,
	rungs: []rung{
		{100000, Segment100kPlus},
		{70000, Segment70To100k},
		{40000, Segment40To70k},
		{30000, Segment30To40k},
		{20000, Segment20To30k},
		{15000, Segment15To20k},
		{10000, Segment10To15k},
		{6000, Segment6To10k},
	},
	floor: SegmentBelow6k,
}

// PolicyByName returns the named segment policy
func PolicyByName(name string) (SegmentPolicy, bool) {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "inclusive", "gte":
		return InclusiveLadder, true
	case "exclusive", "gt":
		return ExclusiveLadder, true
	default:
		return nil, false
	}
}

func (p *ladderPolicy) Name() string {
	return p.name
}

// Classify returns exactly one band for any finite non-negative price
func (p *ladderPolicy) Classify(pricePerUnit float64, category Category) Segment {
	if math.IsNaN(pricePerUnit) || math.IsInf(pricePerUnit, 0) || pricePerUnit < 0 {
		return SegmentUnclassed
	}

	switch category {
	case CategoryWearable:
		return SegmentWearable
	case CategoryTab:
		if pricePerUnit > tabThreshold {
			return SegmentTabAbove
		}
		return SegmentTabBelow
	}

	for _, r := range p.rungs {
		if p.inclusive && pricePerUnit >= r.threshold {
			return r.segment
		}
		if !p.inclusive && pricePerUnit > r.threshold {
			return r.segment
		}
	}
	return p.floor
}

// Segments lists the distinct bands of a category, highest first
func (p *ladderPolicy) Segments(category Category) []Segment {
	switch category {
	case CategoryWearable:
		return []Segment{SegmentWearable}
	case CategoryTab:
		return []Segment{SegmentTabAbove, SegmentTabBelow}
	}

	out := make([]Segment, 0, len(p.rungs)+1)
	seen := make(map[Segment]struct{}, len(p.rungs)+1)
	add := func(s Segment) {
		if _, ok := seen[s]; ok {
			return
		}
		seen[s] = struct{}{}
		out = append(out, s)
	}
	for _, r := range p.rungs {
		add(r.segment)
	}
	add(p.floor)
	return out
}

// PricePerUnit divides value by volume. ok is false when volume is not positive.
func PricePerUnit(value, volume decimal.Decimal) (float64, bool) {
	if !volume.IsPositive() {
		return math.NaN(), false
	}
	price, _ := value.Div(volume).Float64()
	return price, true
}

// ClassifySale derives a segment from a line's value and volume
func ClassifySale(policy SegmentPolicy, value, volume decimal.Decimal, category Category) Segment {
	price, ok := PricePerUnit(value, volume)
	if !ok {
		return SegmentUnclassed
	}
	return policy.Classify(price, category)
}
