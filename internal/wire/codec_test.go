package wire

import (
	"encoding/json"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func suiReport() PriceReport {
	return PriceReport{Coins: map[string]CoinInfo{
		"0xabc": {Confidence: 0.9, Decimals: 9, Price: 1.23, Symbol: "SUI", Timestamp: 1700000000},
	}}
}

func TestEncodeRequest_Layout(t *testing.T) {
	tests := []struct {
		req  Request
		want []byte
	}{
		{RequestWhichToken, []byte{0, 0, 0, 0}},
		{RequestValidToken, []byte{1, 0, 0, 0}},
		{RequestRepeatedToken, []byte{2, 0, 0, 0}},
		{RequestTokenPrice, []byte{3, 0, 0, 0}},
	}

	for _, tt := range tests {
		t.Run(tt.req.String(), func(t *testing.T) {
			got := EncodeRequest(tt.req)
			assert.Equal(t, tt.want, got)

			decoded, err := DecodeRequest(got)
			require.NoError(t, err)
			assert.Equal(t, tt.req, decoded)
		})
	}
}

func TestDecodeRequest_Rejects(t *testing.T) {
	tests := []struct {
		name string
		data []byte
		want error
	}{
		{"empty", nil, ErrTruncated},
		{"short tag", []byte{1, 0}, ErrTruncated},
		{"unknown tag", []byte{4, 0, 0, 0}, ErrUnknownTag},
		{"trailing bytes", []byte{1, 0, 0, 0, 9}, ErrTrailingBytes},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := DecodeRequest(tt.data)
			require.Error(t, err)
			assert.ErrorIs(t, err, tt.want)

			var decErr *DecodeError
			require.True(t, errors.As(err, &decErr))
			assert.Equal(t, "request", decErr.Kind)
		})
	}
}

func TestEncodeResponse_WhichTokenLayout(t *testing.T) {
	got := EncodeResponse(WhichTokenResponse("SUI"))
	want := []byte{
		0, 0, 0, 0, // tag
		3, 0, 0, 0, 0, 0, 0, 0, // length
		'S', 'U', 'I',
	}
	assert.Equal(t, want, got)
}

func TestResponse_RoundTrip(t *testing.T) {
	t.Run("which token", func(t *testing.T) {
		resp, err := DecodeResponse(EncodeResponse(WhichTokenResponse("SUI")))
		require.NoError(t, err)
		assert.Equal(t, ResponseWhichToken, resp.Kind)
		assert.Equal(t, "SUI", resp.Token)
	})

	t.Run("token price", func(t *testing.T) {
		report := suiReport()
		report.Coins["0x123"] = CoinInfo{Price: 42, Symbol: "ETH", Decimals: 18}

		resp, err := DecodeResponse(EncodeResponse(TokenPriceResponse(report)))
		require.NoError(t, err)
		assert.Equal(t, ResponseTokenPrice, resp.Kind)
		assert.Equal(t, report, resp.Report)
	})

	t.Run("empty report", func(t *testing.T) {
		resp, err := DecodeResponse(EncodeResponse(TokenPriceResponse(PriceReport{})))
		require.NoError(t, err)
		assert.Empty(t, resp.Report.Coins)
	})
}

func TestEncodeResponse_Deterministic(t *testing.T) {
	report := PriceReport{Coins: map[string]CoinInfo{
		"0x3": {Symbol: "C"},
		"0x1": {Symbol: "A"},
		"0x2": {Symbol: "B"},
	}}
	first := EncodeResponse(TokenPriceResponse(report))
	for i := 0; i < 10; i++ {
		assert.Equal(t, first, EncodeResponse(TokenPriceResponse(report)))
	}
}

func TestDecodeResponse_Rejects(t *testing.T) {
	valid := EncodeResponse(TokenPriceResponse(suiReport()))

	hugeString := []byte{0, 0, 0, 0, 0xff, 0xff, 0xff, 0xff, 0xff, 0xff, 0xff, 0x7f}
	hugeMap := []byte{1, 0, 0, 0, 0xff, 0xff, 0xff, 0xff, 0, 0, 0, 0}

	tests := []struct {
		name string
		data []byte
		want error
	}{
		{"empty", []byte{}, ErrTruncated},
		{"unknown tag", []byte{7, 0, 0, 0}, ErrUnknownTag},
		{"missing string", []byte{0, 0, 0, 0}, ErrTruncated},
		{"string length beyond input", hugeString, ErrTruncated},
		{"map count beyond input", hugeMap, ErrTruncated},
		{"truncated report", valid[:len(valid)-3], ErrTruncated},
		{"trailing bytes", append(append([]byte{}, valid...), 0), ErrTrailingBytes},
		{"invalid utf8", []byte{0, 0, 0, 0, 1, 0, 0, 0, 0, 0, 0, 0, 0xff}, errInvalidUTF8},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			require.NotPanics(t, func() {
				_, err := DecodeResponse(tt.data)
				assert.ErrorIs(t, err, tt.want)
			})
		})
	}
}

func TestPriceReport_JSON(t *testing.T) {
	body := `{"coins":{"sui:0x2::sui::SUI":{"decimals":9,"symbol":"SUI","price":1.23,"timestamp":1700000000,"confidence":0.99}}}`

	var report PriceReport
	require.NoError(t, json.Unmarshal([]byte(body), &report))

	info, ok := report.Coins["sui:0x2::sui::SUI"]
	require.True(t, ok)
	assert.Equal(t, "SUI", info.Symbol)
	assert.Equal(t, uint64(9), info.Decimals)
	assert.Equal(t, 1.23, info.Price)
	assert.Equal(t, uint64(1700000000), info.Timestamp)
}

func TestPriceReport_String(t *testing.T) {
	got := suiReport().String()
	want := "\nContract Address: 0xabc\nSymbol: SUI\nPrice: 1.23\nDecimals: 9\nConfidence: 0.9\nTimestamp: 14-11-2023 22:13:20"
	assert.Equal(t, want, got)
}

func TestFormatTimestamp(t *testing.T) {
	assert.Equal(t, "01-01-1970 00:00:00", FormatTimestamp(0))
	assert.Equal(t, "14-11-2023 22:13:20", FormatTimestamp(1700000000))
	assert.Equal(t, "Invalid timestamp", FormatTimestamp(^uint64(0)))
}
