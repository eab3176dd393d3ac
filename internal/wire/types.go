package wire

import (
	"errors"
	"fmt"
)

// Errors
var (
	ErrUnknownTag    = errors.New("unknown variant tag")
	ErrTruncated     = errors.New("truncated frame")
	ErrTrailingBytes = errors.New("trailing bytes after message")
	errInvalidUTF8   = errors.New("string is not valid utf-8")
)

// DecodeError reports a frame that could not be decoded.
type DecodeError struct {
	Kind   string // "request" or "response"
	Offset int    // Byte offset where decoding stopped
	Err    error
}

func (e *DecodeError) Error() string {
	return fmt.Sprintf("decode %s at offset %d: %v", e.Kind, e.Offset, e.Err)
}

func (e *DecodeError) Unwrap() error {
	return e.Err
}

// Request is a hub→agent message. None of the variants carry a payload.
type Request uint32

const (
	RequestWhichToken Request = iota
	RequestValidToken
	RequestRepeatedToken
	RequestTokenPrice
)

func (r Request) String() string {
	switch r {
	case RequestWhichToken:
		return "WhichToken"
	case RequestValidToken:
		return "ValidToken"
	case RequestRepeatedToken:
		return "RepeatedToken"
	case RequestTokenPrice:
		return "TokenPrice"
	default:
		return fmt.Sprintf("Request(%d)", uint32(r))
	}
}

// ResponseKind discriminates the Response union.
type ResponseKind uint32

const (
	ResponseWhichToken ResponseKind = iota
	ResponseTokenPrice
)

func (k ResponseKind) String() string {
	switch k {
	case ResponseWhichToken:
		return "WhichToken"
	case ResponseTokenPrice:
		return "TokenPrice"
	default:
		return fmt.Sprintf("Response(%d)", uint32(k))
	}
}

// Response is an agent→hub message. Token is set for ResponseWhichToken,
// Report for ResponseTokenPrice.
type Response struct {
	Kind   ResponseKind
	Token  string
	Report PriceReport
}

// WhichTokenResponse builds the registration answer for symbol.
func WhichTokenResponse(symbol string) Response {
	return Response{Kind: ResponseWhichToken, Token: symbol}
}

// TokenPriceResponse builds a price answer carrying report.
func TokenPriceResponse(report PriceReport) Response {
	return Response{Kind: ResponseTokenPrice, Report: report}
}

// CoinInfo is the price record for one contract address.
type CoinInfo struct {
	Confidence float64 `json:"confidence"`
	Decimals   uint64  `json:"decimals"`
	Price      float64 `json:"price"`
	Symbol     string  `json:"symbol"`
	Timestamp  uint64  `json:"timestamp"` // Unix seconds
}

// PriceReport maps contract address to its price record. It unmarshals from
// the price oracle's {"coins": {...}} JSON body.
type PriceReport struct {
	Coins map[string]CoinInfo `json:"coins"`
}
