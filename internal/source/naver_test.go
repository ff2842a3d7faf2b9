package source

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ark-poiop/dkwjawj-renew/pkg/config"
	"github.com/ark-poiop/dkwjawj-renew/pkg/httputil"
	"github.com/ark-poiop/dkwjawj-renew/pkg/logger"
)

const naverHomeHTML = `<!DOCTYPE html>
<html><body>
<div class="kospi_area">
  <div class="num_quot up">
    <span class="num">3,227.68</span>
    <span class="num2">29.54</span>
  </div>
</div>
<div class="kosdaq_area">
  <div class="num_quot dn">
    <span class="num">805.81</span>
    <span class="num2">2.41</span>
  </div>
</div>
</body></html>`

func newNaverTest(t *testing.T, handler http.HandlerFunc) *Naver {
	t.Helper()
	server := httptest.NewServer(handler)
	t.Cleanup(server.Close)

	return NewNaver(config.NaverConfig{BaseURL: server.URL}, time.Millisecond, httputil.New(logger.Nop()), logger.Nop())
}

func TestNaver_Fetch(t *testing.T) {
	naver := newNaverTest(t, func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, naverHomeHTML)
	})

	snap, err := naver.Fetch(context.Background())
	require.NoError(t, err)

	assert.Equal(t, "naver", snap.Source)
	assert.InDelta(t, 3227.68, snap.Indices["KOSPI"], 0.001)
	assert.InDelta(t, 29.54, snap.Changes["KOSPI"], 0.001)
	assert.InDelta(t, 805.81, snap.Indices["KOSDAQ"], 0.001)
	// dn 클래스는 하락이므로 부호 반전
	assert.InDelta(t, -2.41, snap.Changes["KOSDAQ"], 0.001)
}

func TestNaver_FetchTextFallback(t *testing.T) {
	// 마크업이 바뀌어도 텍스트 패턴으로 지수를 찾아낸다
	naver := newNaverTest(t, func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, `<html><body><p>코스피 3,150.22 +12.30 상승, 코스닥 790.15 -3.20 하락</p></body></html>`)
	})

	snap, err := naver.Fetch(context.Background())
	require.NoError(t, err)

	assert.InDelta(t, 3150.22, snap.Indices["KOSPI"], 0.001)
	assert.InDelta(t, 790.15, snap.Indices["KOSDAQ"], 0.001)
}

func TestNaver_FetchOutOfBandDropped(t *testing.T) {
	naver := newNaverTest(t, func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, `<html><body>
<div class="kospi_area"><div class="num_quot"><span class="num">12.34</span><span class="num2">1.00</span></div></div>
</body></html>`)
	})

	snap, err := naver.Fetch(context.Background())
	require.NoError(t, err)
	assert.NotContains(t, snap.Indices, "KOSPI")
}

func TestNaver_FetchUnparseablePage(t *testing.T) {
	naver := newNaverTest(t, func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, `<html><body>점검 중입니다</body></html>`)
	})

	// Soft failure: empty snapshot, no error
	snap, err := naver.Fetch(context.Background())
	require.NoError(t, err)
	assert.True(t, snap.Empty())
}
