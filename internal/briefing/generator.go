package briefing

import (
	"errors"
	"fmt"
	"math"
	"sort"
	"strconv"
	"strings"

	"github.com/ark-poiop/dkwjawj-renew/internal/market"
)

// ErrInvalidTimeSlot is returned for a slot outside the five briefing times
var ErrInvalidTimeSlot = errors.New("unsupported briefing time slot")

// Content is a briefing split into the pieces Threads posts separately
type Content struct {
	MainContent string   `json:"main_content"` // 본문
	Comments    []string `json:"comments"`     // 댓글 리스트
	Hashtags    []string `json:"hashtags"`     // 해시태그
}

// Format joins the content into a single Threads-ready post body
func (c *Content) Format() string {
	var b strings.Builder
	b.WriteString(c.MainContent)
	b.WriteString("\n\n")

	for _, comment := range c.Comments {
		b.WriteString(comment)
		b.WriteString("\n")
	}

	if len(c.Hashtags) > 0 {
		b.WriteString("\n")
		b.WriteString(strings.Join(c.Hashtags, " "))
	}

	return b.String()
}

// Generate builds the briefing for one slot. Same data in, same bytes out:
// 체결 순서와 무관하게 동일 입력은 동일 본문을 만든다.
func Generate(slot market.TimeSlot, topic string, data *market.Snapshot) (*Content, error) {
	if data == nil {
		data = market.NewSnapshot("")
	}

	switch slot {
	case market.SlotUSClose:
		return usCloseBriefing(topic, data), nil
	case market.SlotKRPreview:
		return krPreviewBriefing(topic, data), nil
	case market.SlotKRMidday:
		return krMiddayBriefing(topic, data), nil
	case market.SlotKRClose:
		return krCloseBriefing(topic, data), nil
	case market.SlotUSPreview:
		return usPreviewBriefing(topic, data), nil
	}
	return nil, fmt.Errorf("%w: %q", ErrInvalidTimeSlot, slot)
}

// usCloseBriefing builds the 07:00 미국 마켓 마감 브리핑
func usCloseBriefing(topic string, data *market.Snapshot) *Content {
	var b strings.Builder
	fmt.Fprintf(&b, "🌅 %s\n", topic)

	writeIndexLine(&b, data, "S&P500", "S&P500", 2)
	writeIndexLine(&b, data, "NASDAQ", "나스닥", 2)
	writeIndexLine(&b, data, "DOW", "다우", 0)

	// 변동률 상위 3개 종목
	for _, m := range topMovers(data.Stocks, 3) {
		fmt.Fprintf(&b, "• %s %+.1f%%\n", m.name, m.change)
	}

	issue := "FOMC 결과 발표"
	if len(data.Issues) > 0 {
		issue = data.Issues[0]
	}
	sectorLine := "- 주요 섹터 성과 분화"
	if hasSector(data, "반도체") || hasSector(data, "AI") {
		sectorLine = "- 반도체, AI 섹터 랠리 지속"
	}

	return &Content{
		MainContent: strings.TrimSpace(b.String()),
		Comments: []string{
			"💡 오늘의 관전포인트",
			fmt.Sprintf("- %s 후 변동성 확대", issue),
			sectorLine,
			"- 주요 기업 실적 발표 대기",
		},
		Hashtags: []string{"#미국증시", "#S&P500", "#나스닥", "#글로벌마켓"},
	}
}

// krPreviewBriefing builds the 08:00 오늘의 한국시장 프리뷰
func krPreviewBriefing(topic string, data *market.Snapshot) *Content {
	var b strings.Builder
	fmt.Fprintf(&b, "🌞 %s\n", topic)

	writeIndexLine(&b, data, "KOSPI", "전일 코스피", 2)
	writeIndexLine(&b, data, "KOSDAQ", "전일 코스닥", 2)

	// 미국장 영향은 변동폭이 집계된 경우에만
	if _, ok := data.Changes["S&P500"]; ok {
		fmt.Fprintf(&b, "• 미국장 영향: S&P500 %+.1f%%\n", changePct(data, "S&P500"))
	}

	if len(data.Issues) > 0 {
		fmt.Fprintf(&b, "• 주요 이슈: %s\n", data.Issues[0])
	}

	return &Content{
		MainContent: strings.TrimSpace(b.String()),
		Comments: []string{
			"📋 개장 전 체크리스트",
			"- 글로벌 증시 동향 체크",
			"- 주요 경제지표 발표 일정",
			"- 섹터별 투자 포인트",
		},
		Hashtags: []string{"#한국증시", "#코스피", "#코스닥", "#오늘의시장"},
	}
}

// krMiddayBriefing builds the 12:00 한국시장 시황 중간 브리핑
func krMiddayBriefing(topic string, data *market.Snapshot) *Content {
	var b strings.Builder
	fmt.Fprintf(&b, "☀️ %s\n", topic)

	writeIndexLine(&b, data, "KOSPI", "코스피", 2)
	writeIndexLine(&b, data, "KOSDAQ", "코스닥", 2)

	for _, m := range topMovers(data.Sectors, 2) {
		fmt.Fprintf(&b, "• %s %+.1f%%\n", m.name, m.change)
	}

	b.WriteString("• 외국인/기관 수급 관심\n")

	return &Content{
		MainContent: strings.TrimSpace(b.String()),
		Comments: []string{
			"🔍 오후장 관전포인트",
			"- 변동성 확대 원인 분석",
			"- 외국인/기관 수급 동향",
			"- 섹터별 성과 전망",
		},
		Hashtags: []string{"#한국증시", "#오전장", "#시황", "#투자자동향"},
	}
}

// krCloseBriefing builds the 15:40 한국시장 마감 브리핑
func krCloseBriefing(topic string, data *market.Snapshot) *Content {
	var b strings.Builder
	fmt.Fprintf(&b, "🌆 %s\n", topic)

	writeIndexLine(&b, data, "KOSPI", "코스피", 2)
	writeIndexLine(&b, data, "KOSDAQ", "코스닥", 2)

	for _, m := range topMovers(data.Sectors, 2) {
		fmt.Fprintf(&b, "• %s %+.1f%%\n", m.name, m.change)
	}
	for _, m := range topMovers(data.Stocks, 2) {
		fmt.Fprintf(&b, "• %s %+.1f%%\n", m.name, m.change)
	}

	return &Content{
		MainContent: strings.TrimSpace(b.String()),
		Comments: []string{
			"📈 내일장 관전포인트",
			"- 실적발표 예정 기업 체크",
			"- 정책/이벤트 영향 분석",
			"- 투자 전략 점검",
		},
		Hashtags: []string{"#한국증시", "#마감", "#일일시황", "#투자전략"},
	}
}

// usPreviewBriefing builds the 19:00 미국 마켓 프리뷰
func usPreviewBriefing(topic string, data *market.Snapshot) *Content {
	var b strings.Builder
	fmt.Fprintf(&b, "🌙 %s\n", topic)

	writeIndexLine(&b, data, "S&P500", "S&P500 선물", 2)
	writeIndexLine(&b, data, "NASDAQ", "나스닥 선물", 2)

	if len(data.Issues) > 0 {
		fmt.Fprintf(&b, "• 글로벌 이슈: %s\n", data.Issues[0])
	}
	if len(data.Events) > 0 {
		fmt.Fprintf(&b, "• 발표 예정: %s\n", data.Events[0])
	}

	return &Content{
		MainContent: strings.TrimSpace(b.String()),
		Comments: []string{
			"🌃 오늘밤 주목 포인트",
			"- 주요 경제지표 발표",
			"- 기업 실적 발표 일정",
			"- 글로벌 이벤트 영향",
		},
		Hashtags: []string{"#미국증시", "#프리마켓", "#글로벌이슈", "#실적발표"},
	}
}

// writeIndexLine appends "• <label> 1,234.56pt (+0.9%)" when the index exists
func writeIndexLine(b *strings.Builder, data *market.Snapshot, name, label string, decimals int) {
	price, ok := data.Indices[name]
	if !ok {
		return
	}
	fmt.Fprintf(b, "• %s %spt (%+.1f%%)\n", label, formatPt(price, decimals), changePct(data, name))
}

// changePct converts an absolute change into a percentage of the price.
// 가격이 0 이하이면 0%를 반환, 0으로 나누지 않는다.
func changePct(data *market.Snapshot, name string) float64 {
	price := data.Indices[name]
	if price <= 0 {
		return 0
	}
	return data.Changes[name] / price * 100
}

// formatPt renders a price with thousands separators, e.g. 3,227.68
func formatPt(v float64, decimals int) string {
	s := strconv.FormatFloat(v, 'f', decimals, 64)
	neg := strings.HasPrefix(s, "-")
	if neg {
		s = s[1:]
	}

	intPart, frac := s, ""
	if i := strings.IndexByte(s, '.'); i >= 0 {
		intPart, frac = s[:i], s[i:]
	}

	var b strings.Builder
	for i := 0; i < len(intPart); i++ {
		if i > 0 && (len(intPart)-i)%3 == 0 {
			b.WriteByte(',')
		}
		b.WriteByte(intPart[i])
	}

	out := b.String() + frac
	if neg {
		out = "-" + out
	}
	return out
}

type mover struct {
	name   string
	change float64
}

// topMovers picks the n entries with the largest absolute change.
// 절대 변동률 내림차순, 동률은 이름 오름차순으로 고정해 출력을 결정적으로 유지
func topMovers(m map[string]float64, n int) []mover {
	movers := make([]mover, 0, len(m))
	for name, change := range m {
		movers = append(movers, mover{name: name, change: change})
	}

	sort.Slice(movers, func(i, j int) bool {
		ai, aj := math.Abs(movers[i].change), math.Abs(movers[j].change)
		if ai != aj {
			return ai > aj
		}
		return movers[i].name < movers[j].name
	})

	if len(movers) > n {
		movers = movers[:n]
	}
	return movers
}

func hasSector(data *market.Snapshot, name string) bool {
	_, ok := data.Sectors[name]
	return ok
}
