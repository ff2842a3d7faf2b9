package briefing

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ark-poiop/dkwjawj-renew/internal/market"
)

func krCloseData() *market.Snapshot {
	snap := market.NewSnapshot("stored")
	snap.Set("KOSPI", 3227.68, 29.05)  // +0.9%
	snap.Set("KOSDAQ", 805.81, 2.42)   // +0.3%
	snap.Sectors = map[string]float64{"반도체": 2.1, "바이오": -1.4, "금융": 0.3}
	snap.Stocks = map[string]float64{"삼성전자": 1.8, "SK하이닉스": 3.2, "현대차": -0.9}
	return snap
}

func TestGenerate_KRClose(t *testing.T) {
	content, err := Generate(market.SlotKRClose, market.SlotKRClose.Topic(), krCloseData())
	require.NoError(t, err)

	lines := strings.Split(content.MainContent, "\n")
	require.GreaterOrEqual(t, len(lines), 3)

	assert.Equal(t, "🌆 한국시장 마감 요약", lines[0])
	assert.Equal(t, "• 코스피 3,227.68pt (+0.9%)", lines[1])
	assert.Equal(t, "• 코스닥 805.81pt (+0.3%)", lines[2])

	// 상위 2개 섹터와 2개 종목, 절대 변동률 내림차순
	assert.Contains(t, content.MainContent, "• 반도체 +2.1%")
	assert.Contains(t, content.MainContent, "• 바이오 -1.4%")
	assert.NotContains(t, content.MainContent, "금융")
	assert.Contains(t, content.MainContent, "• SK하이닉스 +3.2%")
	assert.Contains(t, content.MainContent, "• 삼성전자 +1.8%")
	assert.NotContains(t, content.MainContent, "현대차")

	assert.Equal(t, []string{"#한국증시", "#마감", "#일일시황", "#투자전략"}, content.Hashtags)
	assert.Equal(t, "📈 내일장 관전포인트", content.Comments[0])
}

func TestGenerate_Deterministic(t *testing.T) {
	// 동일 입력이면 바이트 단위로 동일한 출력이어야 한다
	for i := 0; i < 20; i++ {
		a, err := Generate(market.SlotKRClose, "한국시장 마감 요약", krCloseData())
		require.NoError(t, err)
		b, err := Generate(market.SlotKRClose, "한국시장 마감 요약", krCloseData())
		require.NoError(t, err)

		assert.Equal(t, a.Format(), b.Format())
	}
}

func TestGenerate_DeterministicTieBreak(t *testing.T) {
	snap := market.NewSnapshot("stored")
	snap.Set("KOSPI", 3200.0, 0)
	snap.Stocks = map[string]float64{"가나다": 1.5, "라마바": 1.5, "사아자": -1.5}

	// 동률은 이름 오름차순으로 고정
	for i := 0; i < 20; i++ {
		content, err := Generate(market.SlotKRClose, "마감", snap)
		require.NoError(t, err)

		first := strings.Index(content.MainContent, "가나다")
		second := strings.Index(content.MainContent, "라마바")
		require.Positive(t, first)
		require.Positive(t, second)
		assert.Less(t, first, second)
	}
}

func TestGenerate_USClose(t *testing.T) {
	snap := market.NewSnapshot("stored")
	snap.Set("S&P500", 5842.50, 46.74)    // +0.8%
	snap.Set("NASDAQ", 19200.30, 211.20)  // +1.1%
	snap.Set("DOW", 42500.00, 127.50)     // +0.3%
	snap.Stocks = map[string]float64{"테슬라": 4.2, "엔비디아": 3.0, "애플": 1.8, "MS": 0.5}
	snap.Issues = []string{"CPI 발표"}

	content, err := Generate(market.SlotUSClose, "미국 증시 마감 요약", snap)
	require.NoError(t, err)

	assert.Contains(t, content.MainContent, "🌅 미국 증시 마감 요약")
	assert.Contains(t, content.MainContent, "• S&P500 5,842.50pt (+0.8%)")
	assert.Contains(t, content.MainContent, "• 나스닥 19,200.30pt (+1.1%)")
	// 다우는 소수점 없이
	assert.Contains(t, content.MainContent, "• 다우 42,500pt (+0.3%)")
	assert.Contains(t, content.MainContent, "• 테슬라 +4.2%")
	assert.NotContains(t, content.MainContent, "MS")
	assert.Contains(t, content.Comments[1], "CPI 발표")
}

func TestGenerate_ZeroPriceGuard(t *testing.T) {
	snap := market.NewSnapshot("stored")
	snap.Indices = map[string]float64{"KOSPI": 0}
	snap.Changes = map[string]float64{"KOSPI": 29.54}

	content, err := Generate(market.SlotKRClose, "마감", snap)
	require.NoError(t, err)

	// 가격이 0이면 0%로 표기, 0으로 나누지 않는다
	assert.Contains(t, content.MainContent, "• 코스피 0.00pt (+0.0%)")
}

func TestGenerate_MissingIndicesOmitted(t *testing.T) {
	snap := market.NewSnapshot("stored")
	snap.Set("KOSPI", 3200.0, 16.0)

	content, err := Generate(market.SlotKRClose, "마감", snap)
	require.NoError(t, err)

	assert.Contains(t, content.MainContent, "코스피")
	assert.NotContains(t, content.MainContent, "코스닥")
}

func TestGenerate_InvalidSlot(t *testing.T) {
	_, err := Generate(market.TimeSlot("13:00"), "주제", market.NewSnapshot("stored"))
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrInvalidTimeSlot)
}

func TestGenerate_NilData(t *testing.T) {
	content, err := Generate(market.SlotKRPreview, "전망", nil)
	require.NoError(t, err)
	assert.Equal(t, "🌞 전망", content.MainContent)
}

func TestContent_Format(t *testing.T) {
	content := &Content{
		MainContent: "본문",
		Comments:    []string{"댓글1", "댓글2"},
		Hashtags:    []string{"#태그1", "#태그2"},
	}

	formatted := content.Format()
	assert.Equal(t, "본문\n\n댓글1\n댓글2\n\n#태그1 #태그2", formatted)
}

func TestFormatPt(t *testing.T) {
	assert.Equal(t, "3,227.68", formatPt(3227.68, 2))
	assert.Equal(t, "805.81", formatPt(805.81, 2))
	assert.Equal(t, "42,500", formatPt(42500.00, 0))
	assert.Equal(t, "1,234,567.89", formatPt(1234567.89, 2))
	assert.Equal(t, "0.00", formatPt(0, 2))
}
