package server

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func quietLogger() *logrus.Logger {
	l := logrus.New()
	l.SetLevel(logrus.PanicLevel)
	return l
}

func testHandlers(fetcher *fixedFetcher) *Handlers {
	return &Handlers{
		Engine: NewEngine(fetcher, nil, nil, nil, "test-wallet", time.Second, 100),
		Logger: quietLogger(),
	}
}

func doGET(t *testing.T, h echo.HandlerFunc, target string) *httptest.ResponseRecorder {
	t.Helper()
	e := echo.New()
	req := httptest.NewRequest(http.MethodGet, target, nil)
	rec := httptest.NewRecorder()
	require.NoError(t, h(e.NewContext(req, rec)))
	return rec
}

func TestHealthEndpoint(t *testing.T) {
	rec := doGET(t, testHandlers(&fixedFetcher{}).Health, "/v1/health")
	assert.Equal(t, http.StatusOK, rec.Code)

	var resp HealthResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.True(t, resp.OK)
	assert.Equal(t, "test-wallet", resp.Wallet)
}

func TestQuoteEndpoint(t *testing.T) {
	h := testHandlers(&fixedFetcher{pool: solUsdcPool()})

	target := "/v1/quote?" + url.Values{
		"inputMint":  {"SOL"},
		"outputMint": {usdcMintAddr},
		"amount":     {"1000000000"},
	}.Encode()
	rec := doGET(t, h.Quote, target)
	assert.Equal(t, http.StatusOK, rec.Code)

	var resp QuoteResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, uint64(1_000_000_000), resp.AmountIn)
	assert.NotZero(t, resp.AmountOut)
	assert.NotZero(t, resp.BoundAmount)
	assert.Less(t, resp.BoundAmount, resp.AmountOut)
	assert.Equal(t, "wsol-usdc", resp.PoolID)
	assert.Equal(t, "USDC", resp.BuyAsset.Symbol)
}

func TestQuoteEndpointBadRequest(t *testing.T) {
	h := testHandlers(&fixedFetcher{pool: solUsdcPool()})

	rec := doGET(t, h.Quote, "/v1/quote?inputMint=SOL&outputMint=SOL&amount=100")
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = doGET(t, h.Quote, "/v1/quote?inputMint=SOL&outputMint="+usdcMintAddr+"&amount=abc")
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestQuoteEndpointNoPool(t *testing.T) {
	h := testHandlers(&fixedFetcher{pool: nil})

	target := "/v1/quote?inputMint=SOL&outputMint=" + usdcMintAddr + "&amount=1000000000"
	rec := doGET(t, h.Quote, target)
	assert.Equal(t, http.StatusNotFound, rec.Code)

	var resp ErrorResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, "no pool found for pair", resp.Error)
}

func postSwap(t *testing.T, h *Handlers, body string) *httptest.ResponseRecorder {
	t.Helper()
	e := echo.New()
	req := httptest.NewRequest(http.MethodPost, "/v1/swap", strings.NewReader(body))
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	rec := httptest.NewRecorder()
	require.NoError(t, h.Swap(e.NewContext(req, rec)))
	return rec
}

func TestSwapEndpointValidation(t *testing.T) {
	h := testHandlers(&fixedFetcher{pool: solUsdcPool()})

	rec := postSwap(t, h, `{"inputMint": "SOL"}`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = postSwap(t, h, `not json`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestSwapEndpointDebounce(t *testing.T) {
	h := testHandlers(&fixedFetcher{pool: solUsdcPool()})
	body := `{"inputMint": "SOL", "outputMint": "` + usdcMintAddr + `", "amount": "1000000000"}`

	// First submission passes the debounce (and then fails downstream since
	// no wallet is configured).
	rec := postSwap(t, h, body)
	assert.NotEqual(t, http.StatusTooManyRequests, rec.Code)

	// An immediate duplicate is rejected.
	rec = postSwap(t, h, body)
	assert.Equal(t, http.StatusTooManyRequests, rec.Code)
}

func TestSwapEndpointWithoutWallet(t *testing.T) {
	h := testHandlers(&fixedFetcher{pool: solUsdcPool()})
	body := `{"inputMint": "SOL", "outputMint": "` + usdcMintAddr + `", "amount": "1000000000"}`

	rec := postSwap(t, h, body)
	assert.Equal(t, http.StatusBadGateway, rec.Code)
}
