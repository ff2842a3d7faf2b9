package market

import (
	"math"
)

// Rule holds plausibility thresholds for snapshot validation.
// 구버전마다 달랐던 최소 지수 개수(2 vs 3)는 설정값으로 통일
type Rule struct {
	// MinIndices is the minimum number of in-band, positive indices
	MinIndices int

	// RequireMarket requires at least one domestic or overseas index
	// with a positive price (장 시간 외에는 국내 지수가 0일 수 있음)
	RequireMarket bool
}

// StrictRule is applied to stored snapshots before trusting them
func StrictRule(minIndices int) Rule {
	return Rule{MinIndices: minIndices}
}

// LiveRule is applied to freshly merged live data
func LiveRule(minIndices int) Rule {
	return Rule{MinIndices: minIndices, RequireMarket: true}
}

// Band is the plausible price range for an index
type Band struct {
	Low  float64
	High float64
}

// Known index bands. Values outside the band are treated as a failed fetch
// for that single index, not a hard validation failure.
var bands = map[string]Band{
	"KOSPI":  {Low: 1000, High: 5000},
	"KOSDAQ": {Low: 500, High: 1200},
	"S&P500": {Low: 3000, High: 8000},
	"NASDAQ": {Low: 10000, High: 25000},
	"DOW":    {Low: 25000, High: 50000},
}

// BandFor returns the plausibility band for an index, if one is known
func BandFor(name string) (Band, bool) {
	b, ok := bands[name]
	return b, ok
}

// InBand reports whether the price is plausible for the index.
// Unknown indices pass; only a known band can reject a value.
func InBand(name string, price float64) bool {
	b, ok := bands[name]
	if !ok {
		return true
	}
	return price >= b.Low && price <= b.High
}

// DropOutOfBand removes index entries whose price is implausible and
// returns the number of dropped entries. Changes for dropped entries are
// removed as well so the snapshot invariant holds.
func DropOutOfBand(s *Snapshot) int {
	if s == nil {
		return 0
	}
	dropped := 0
	for name, price := range s.Indices {
		if !InBand(name, price) {
			delete(s.Indices, name)
			delete(s.Changes, name)
			dropped++
		}
	}
	return dropped
}

// Validate reports whether the snapshot is good enough to use under the
// given rule. Pure and total: malformed input is invalid, never a panic.
func Validate(s *Snapshot, rule Rule) bool {
	if s == nil || len(s.Indices) == 0 {
		return false
	}

	valid := 0
	for name, price := range s.Indices {
		if price <= 0 || math.IsNaN(price) || math.IsInf(price, 0) {
			return false
		}
		if !InBand(name, price) {
			// Implausible value counts as a failed fetch for that index
			continue
		}
		valid++
	}

	if valid < rule.MinIndices {
		return false
	}

	if rule.RequireMarket && !s.HasDomestic() && !s.HasOverseas() {
		return false
	}

	return true
}
