package cache

import (
	"errors"
	"fmt"
	"reflect"

	"github.com/fxamacker/cbor/v2"
	"github.com/klauspost/compress/zstd"
)

// Payload framing: one tag byte followed by CBOR, optionally zstd-compressed.
const (
	tagCBOR byte = 1
	tagZstd byte = 2

	// Payloads smaller than this are stored uncompressed.
	compressThreshold = 512
)

var errEmptyPayload = errors.New("empty cache payload")

var (
	encMode     cbor.EncMode
	decMode     cbor.DecMode
	zstdEncoder *zstd.Encoder
	zstdDecoder *zstd.Decoder
)

func init() {
	var err error

	opts := cbor.CoreDetEncOptions()
	opts.Time = cbor.TimeRFC3339Nano
	encMode, err = opts.EncMode()
	if err != nil {
		panic("cache: CBOR encoder initialization failed: " + err.Error())
	}
	decMode, err = cbor.DecOptions{
		DefaultMapType: reflect.TypeOf(map[string]any(nil)),
	}.DecMode()
	if err != nil {
		panic("cache: CBOR decoder initialization failed: " + err.Error())
	}

	zstdEncoder, err = zstd.NewWriter(nil, zstd.WithEncoderLevel(zstd.SpeedDefault))
	if err != nil {
		panic("cache: zstd encoder initialization failed: " + err.Error())
	}
	zstdDecoder, err = zstd.NewReader(nil)
	if err != nil {
		panic("cache: zstd decoder initialization failed: " + err.Error())
	}
}

func marshal(v any) ([]byte, error) {
	raw, err := encMode.Marshal(v)
	if err != nil {
		return nil, fmt.Errorf("encode payload: %w", err)
	}
	if len(raw) >= compressThreshold {
		compressed := zstdEncoder.EncodeAll(raw, []byte{tagZstd})
		if len(compressed) < len(raw) {
			return compressed, nil
		}
	}
	return append([]byte{tagCBOR}, raw...), nil
}

func unmarshal(data []byte, v any) error {
	if len(data) == 0 {
		return errEmptyPayload
	}
	body := data[1:]
	switch data[0] {
	case tagCBOR:
	case tagZstd:
		var err error
		body, err = zstdDecoder.DecodeAll(body, nil)
		if err != nil {
			return fmt.Errorf("decompress payload: %w", err)
		}
	default:
		return fmt.Errorf("unknown payload tag %d", data[0])
	}
	if err := decMode.Unmarshal(body, v); err != nil {
		return fmt.Errorf("decode payload: %w", err)
	}
	return nil
}
