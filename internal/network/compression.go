// File: internal/network/compression.go
package network

import (
	"compress/gzip"
	"compress/zlib"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"sync"

	"github.com/andybalholm/brotli"
)

// acceptEncoding is advertised on every upstream request. Python scanners behind
// a compressing proxy commonly answer with br or gzip.
const acceptEncoding = "br, gzip, deflate"

var (
	gzipReaderPool = sync.Pool{
		New: func() interface{} { return new(gzip.Reader) },
	}
	brotliReaderPool = sync.Pool{
		New: func() interface{} { return brotli.NewReader(nil) },
	}
)

// CompressionMiddleware is an http.RoundTripper that negotiates compression and
// transparently decodes gzip, deflate and brotli response bodies.
type CompressionMiddleware struct {
	Transport http.RoundTripper
}

// NewCompressionMiddleware wraps transport, defaulting to http.DefaultTransport.
func NewCompressionMiddleware(transport http.RoundTripper) *CompressionMiddleware {
	if transport == nil {
		transport = http.DefaultTransport
	}
	return &CompressionMiddleware{Transport: transport}
}

// RoundTrip implements http.RoundTripper.
func (cm *CompressionMiddleware) RoundTrip(req *http.Request) (*http.Response, error) {
	if req.Header.Get("Accept-Encoding") == "" {
		// Clone before mutating: a RoundTripper must not modify the caller's request.
		req = req.Clone(req.Context())
		req.Header.Set("Accept-Encoding", acceptEncoding)
	}

	resp, err := cm.Transport.RoundTrip(req)
	if err != nil {
		return nil, err
	}

	if err := DecompressResponse(resp); err != nil {
		_ = resp.Body.Close()
		return nil, fmt.Errorf("failed to initialize response decompression: %w", err)
	}
	return resp, nil
}

// decodedBody closes the decoder and the original body, then returns pooled readers.
type decodedBody struct {
	io.Reader
	decoder  io.Closer
	original io.ReadCloser
	release  func()
}

func (b *decodedBody) Close() error {
	var errDecoder error
	if b.decoder != nil {
		errDecoder = b.decoder.Close()
	}
	errOriginal := b.original.Close()
	if b.release != nil {
		b.release()
		b.release = nil
	}
	return errors.Join(errDecoder, errOriginal)
}

// DecompressResponse wraps resp.Body according to its Content-Encoding header.
// Layered encodings are undone in reverse order of application. On error the
// body may be partially consumed and the response should be discarded.
func DecompressResponse(resp *http.Response) error {
	if resp == nil || resp.Body == nil {
		return nil
	}

	encodings := contentEncodings(resp.Header)
	if len(encodings) == 0 {
		return nil
	}

	for i := len(encodings) - 1; i >= 0; i-- {
		var body *decodedBody

		switch encodings[i] {
		case "gzip", "x-gzip":
			zr := gzipReaderPool.Get().(*gzip.Reader)
			if err := zr.Reset(resp.Body); err != nil {
				gzipReaderPool.Put(zr)
				return fmt.Errorf("gzip initialization error: %w", err)
			}
			body = &decodedBody{Reader: zr, decoder: zr, original: resp.Body, release: func() { gzipReaderPool.Put(zr) }}

		case "br":
			br := brotliReaderPool.Get().(*brotli.Reader)
			if err := br.Reset(resp.Body); err != nil {
				brotliReaderPool.Put(br)
				return fmt.Errorf("brotli initialization error: %w", err)
			}
			body = &decodedBody{Reader: br, original: resp.Body, release: func() { brotliReaderPool.Put(br) }}

		case "deflate":
			// HTTP "deflate" is the zlib format (RFC 9110 section 8.4.1.2).
			zr, err := zlib.NewReader(resp.Body)
			if err != nil {
				return fmt.Errorf("deflate initialization error: %w", err)
			}
			body = &decodedBody{Reader: zr, decoder: zr, original: resp.Body}

		case "identity":
			continue

		default:
			return fmt.Errorf("unsupported Content-Encoding layer: %s", encodings[i])
		}

		resp.Body = body
	}

	resp.Header.Del("Content-Encoding")
	resp.Header.Del("Content-Length")
	resp.ContentLength = -1
	resp.Uncompressed = true
	return nil
}

// contentEncodings flattens every Content-Encoding header value into lowercase tokens.
func contentEncodings(h http.Header) []string {
	var out []string
	for _, v := range h.Values("Content-Encoding") {
		for _, part := range strings.Split(v, ",") {
			if token := strings.ToLower(strings.TrimSpace(part)); token != "" {
				out = append(out, token)
			}
		}
	}
	return out
}
