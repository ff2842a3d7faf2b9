package market

import (
	"time"
)

// DataType labels a stored snapshot by collection purpose
type DataType string

const (
	DataTypeOpening DataType = "opening"
	DataTypeMidday  DataType = "midday"
	DataTypeClosing DataType = "closing"
)

// TimeSlot is one of the fixed briefing times of day (KST)
type TimeSlot string

const (
	SlotUSClose   TimeSlot = "07:00" // 미국 마켓 마감
	SlotKRPreview TimeSlot = "08:00" // 한국시장 프리뷰
	SlotKRMidday  TimeSlot = "12:00" // 오전장 중간
	SlotKRClose   TimeSlot = "15:40" // 한국시장 마감
	SlotUSPreview TimeSlot = "19:00" // 미국장 프리뷰
)

// Slots returns all briefing slots in chronological order
func Slots() []TimeSlot {
	return []TimeSlot{SlotUSClose, SlotKRPreview, SlotKRMidday, SlotKRClose, SlotUSPreview}
}

// Valid reports whether the slot is one of the defined briefing times
func (s TimeSlot) Valid() bool {
	switch s {
	case SlotUSClose, SlotKRPreview, SlotKRMidday, SlotKRClose, SlotUSPreview:
		return true
	}
	return false
}

// Topic returns the fixed briefing topic for the slot
func (s TimeSlot) Topic() string {
	switch s {
	case SlotUSClose:
		return "미국 증시 마감 요약"
	case SlotKRPreview:
		return "오늘의 한국시장 전망"
	case SlotKRMidday:
		return "오전장 시황 요약"
	case SlotKRClose:
		return "한국시장 마감 요약"
	case SlotUSPreview:
		return "미국장 개장 전 체크"
	}
	return "시장 브리핑"
}

// DataType returns the stored data type consulted for this slot.
// 12시 브리핑만 오전장(midday) 데이터, 나머지는 마감 데이터
func (s TimeSlot) DataType() DataType {
	if s == SlotKRMidday {
		return DataTypeMidday
	}
	return DataTypeClosing
}

// AutoSlot picks the briefing slot for the given wall-clock time: the most
// recent slot boundary at or before now, wrapping to the evening slot
// before the first morning briefing.
func AutoSlot(now time.Time) TimeSlot {
	minutes := now.Hour()*60 + now.Minute()

	slot := SlotUSPreview
	for _, s := range Slots() {
		t, _ := time.Parse("15:04", string(s))
		if minutes >= t.Hour()*60+t.Minute() {
			slot = s
		}
	}
	return slot
}

// Source tags for snapshot provenance
const (
	SourceStored    = "stored"
	SourceSynthetic = "synthetic"
)

// Snapshot is a captured, timestamped, source-tagged view of the market
type Snapshot struct {
	Indices map[string]float64 `json:"indices"`
	Changes map[string]float64 `json:"changes"`
	Sectors map[string]float64 `json:"sectors,omitempty"`
	Stocks  map[string]float64 `json:"stocks,omitempty"`
	Issues  []string           `json:"issues,omitempty"`
	Events  []string           `json:"events,omitempty"`

	Source      string    `json:"source"`
	CollectedAt time.Time `json:"collected_at"`
}

// NewSnapshot creates an empty snapshot tagged with a source
func NewSnapshot(source string) *Snapshot {
	return &Snapshot{
		Indices:     make(map[string]float64),
		Changes:     make(map[string]float64),
		Source:      source,
		CollectedAt: time.Now(),
	}
}

// Empty reports whether the snapshot carries no index data
func (s *Snapshot) Empty() bool {
	return s == nil || len(s.Indices) == 0
}

// Merge copies index/change entries from other into s. Later values win on
// duplicate keys, so callers must merge in their documented priority order.
func (s *Snapshot) Merge(other *Snapshot) {
	if other == nil {
		return
	}
	if s.Indices == nil {
		s.Indices = make(map[string]float64)
	}
	if s.Changes == nil {
		s.Changes = make(map[string]float64)
	}
	for name, price := range other.Indices {
		s.Indices[name] = price
		if change, ok := other.Changes[name]; ok {
			s.Changes[name] = change
		}
	}

	for name, change := range other.Stocks {
		if s.Stocks == nil {
			s.Stocks = make(map[string]float64)
		}
		s.Stocks[name] = change
	}
	for name, change := range other.Sectors {
		if s.Sectors == nil {
			s.Sectors = make(map[string]float64)
		}
		s.Sectors[name] = change
	}
	if len(other.Issues) > 0 {
		s.Issues = other.Issues
	}
	if len(other.Events) > 0 {
		s.Events = other.Events
	}
}

// SetStock records a daily change rate (%) for one individual stock
func (s *Snapshot) SetStock(name string, changePct float64) {
	if s.Stocks == nil {
		s.Stocks = make(map[string]float64)
	}
	s.Stocks[name] = changePct
}

// Set records a price and change for one index
func (s *Snapshot) Set(name string, price, change float64) {
	if s.Indices == nil {
		s.Indices = make(map[string]float64)
	}
	if s.Changes == nil {
		s.Changes = make(map[string]float64)
	}
	s.Indices[name] = price
	s.Changes[name] = change
}

// Index name groups. 해외 지수는 24시간 제공, 국내 지수는 장중에만 유효
var (
	DomesticIndices = []string{"KOSPI", "KOSDAQ"}
	OverseasIndices = []string{"S&P500", "NASDAQ", "DOW"}
)

// HasDomestic reports whether any domestic index has a positive price
func (s *Snapshot) HasDomestic() bool {
	return s.hasAny(DomesticIndices)
}

// HasOverseas reports whether any overseas index has a positive price
func (s *Snapshot) HasOverseas() bool {
	return s.hasAny(OverseasIndices)
}

func (s *Snapshot) hasAny(names []string) bool {
	if s == nil {
		return false
	}
	for _, name := range names {
		if s.Indices[name] > 0 {
			return true
		}
	}
	return false
}
