package wire

import (
	"encoding/binary"
	"math"
	"unicode/utf8"
)

// EncodeRequest encodes a request frame.
func EncodeRequest(r Request) []byte {
	return binary.LittleEndian.AppendUint32(make([]byte, 0, 4), uint32(r))
}

// DecodeRequest decodes a request frame.
func DecodeRequest(data []byte) (Request, error) {
	d := decoder{kind: "request", buf: data}
	tag, err := d.uint32()
	if err != nil {
		return 0, err
	}
	if tag > uint32(RequestTokenPrice) {
		return 0, d.fail(ErrUnknownTag)
	}
	if err := d.finish(); err != nil {
		return 0, err
	}
	return Request(tag), nil
}

// EncodeResponse encodes a response frame. Report entries are written in
// sorted address order so equal reports produce equal frames.
func EncodeResponse(r Response) []byte {
	buf := binary.LittleEndian.AppendUint32(make([]byte, 0, 64), uint32(r.Kind))
	switch r.Kind {
	case ResponseWhichToken:
		buf = appendString(buf, r.Token)
	case ResponseTokenPrice:
		buf = appendReport(buf, r.Report)
	}
	return buf
}

// DecodeResponse decodes a response frame.
func DecodeResponse(data []byte) (Response, error) {
	d := decoder{kind: "response", buf: data}
	tag, err := d.uint32()
	if err != nil {
		return Response{}, err
	}

	resp := Response{Kind: ResponseKind(tag)}
	switch resp.Kind {
	case ResponseWhichToken:
		if resp.Token, err = d.string(); err != nil {
			return Response{}, err
		}
	case ResponseTokenPrice:
		if resp.Report, err = d.report(); err != nil {
			return Response{}, err
		}
	default:
		return Response{}, d.fail(ErrUnknownTag)
	}

	if err := d.finish(); err != nil {
		return Response{}, err
	}
	return resp, nil
}

func appendString(buf []byte, s string) []byte {
	buf = binary.LittleEndian.AppendUint64(buf, uint64(len(s)))
	return append(buf, s...)
}

func appendFloat(buf []byte, f float64) []byte {
	return binary.LittleEndian.AppendUint64(buf, math.Float64bits(f))
}

func appendReport(buf []byte, report PriceReport) []byte {
	addrs := report.Addresses()
	buf = binary.LittleEndian.AppendUint64(buf, uint64(len(addrs)))
	for _, addr := range addrs {
		info := report.Coins[addr]
		buf = appendString(buf, addr)
		buf = appendFloat(buf, info.Confidence)
		buf = binary.LittleEndian.AppendUint64(buf, info.Decimals)
		buf = appendFloat(buf, info.Price)
		buf = appendString(buf, info.Symbol)
		buf = binary.LittleEndian.AppendUint64(buf, info.Timestamp)
	}
	return buf
}

// decoder walks a frame. Every read is bounds-checked against the remaining
// input; nothing is allocated from an unchecked length.
type decoder struct {
	kind string
	buf  []byte
	off  int
}

func (d *decoder) fail(err error) error {
	return &DecodeError{Kind: d.kind, Offset: d.off, Err: err}
}

func (d *decoder) remaining() int {
	return len(d.buf) - d.off
}

func (d *decoder) take(n int) ([]byte, error) {
	if n < 0 || d.remaining() < n {
		return nil, d.fail(ErrTruncated)
	}
	b := d.buf[d.off : d.off+n]
	d.off += n
	return b, nil
}

func (d *decoder) uint32() (uint32, error) {
	b, err := d.take(4)
	if err != nil {
		return 0, err
	}
	return binary.LittleEndian.Uint32(b), nil
}

func (d *decoder) uint64() (uint64, error) {
	b, err := d.take(8)
	if err != nil {
		return 0, err
	}
	return binary.LittleEndian.Uint64(b), nil
}

func (d *decoder) float64() (float64, error) {
	v, err := d.uint64()
	if err != nil {
		return 0, err
	}
	return math.Float64frombits(v), nil
}

func (d *decoder) length() (int, error) {
	n, err := d.uint64()
	if err != nil {
		return 0, err
	}
	if n > uint64(d.remaining()) {
		return 0, d.fail(ErrTruncated)
	}
	return int(n), nil
}

func (d *decoder) string() (string, error) {
	n, err := d.length()
	if err != nil {
		return "", err
	}
	b, err := d.take(n)
	if err != nil {
		return "", err
	}
	if !utf8.Valid(b) {
		return "", d.fail(errInvalidUTF8)
	}
	return string(b), nil
}

func (d *decoder) report() (PriceReport, error) {
	// Each entry is at least 48 bytes (two empty strings plus four 8-byte fields).
	const minEntry = 48

	n, err := d.uint64()
	if err != nil {
		return PriceReport{}, err
	}
	if n > uint64(d.remaining()/minEntry) {
		return PriceReport{}, d.fail(ErrTruncated)
	}

	report := PriceReport{Coins: make(map[string]CoinInfo, n)}
	for i := uint64(0); i < n; i++ {
		addr, err := d.string()
		if err != nil {
			return PriceReport{}, err
		}
		var info CoinInfo
		if info.Confidence, err = d.float64(); err != nil {
			return PriceReport{}, err
		}
		if info.Decimals, err = d.uint64(); err != nil {
			return PriceReport{}, err
		}
		if info.Price, err = d.float64(); err != nil {
			return PriceReport{}, err
		}
		if info.Symbol, err = d.string(); err != nil {
			return PriceReport{}, err
		}
		if info.Timestamp, err = d.uint64(); err != nil {
			return PriceReport{}, err
		}
		report.Coins[addr] = info
	}
	return report, nil
}

func (d *decoder) finish() error {
	if d.remaining() != 0 {
		return d.fail(ErrTrailingBytes)
	}
	return nil
}
