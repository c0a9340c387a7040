package protocol

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net"
)

// DispatchFunc turns one parsed request into a response. Implemented by the
// command dispatcher; tests substitute fakes.
type DispatchFunc func(ctx context.Context, req Request) Response

// ConnConfig tunes the per-connection loop.
type ConnConfig struct {
	// ReadChunk is the per-read buffer size.
	ReadChunk int

	// MaxBuffer caps the accumulating frame buffer; exceeding it
	// hard-closes the connection.
	MaxBuffer int64

	// Log receives connection-scoped events. Required.
	Log *slog.Logger

	// OnFrame, when set, observes the byte size of each complete frame.
	OnFrame func(n int)
}

// Serve runs the request/response loop for one accepted connection until
// the client disconnects, a fatal protocol error occurs, or ctx is
// cancelled. It always closes the socket before returning.
//
// Framing policy: the buffer is re-parsed after every read. A JSON error at
// the end of the accumulated input means an incomplete frame and the loop
// waits for more bytes; any other parse failure draws one error response
// and closes. Bytes trailing a complete object are kept as the start of the
// next frame.
func Serve(ctx context.Context, conn net.Conn, dispatch DispatchFunc, cfg ConnConfig) {
	defer conn.Close()
	log := cfg.Log
	if cfg.ReadChunk <= 0 {
		cfg.ReadChunk = 8 * 1024
	}

	if err := writeFrame(conn, Greeting()); err != nil {
		log.Debug("greeting write failed", "err", err)
		return
	}

	var buffer []byte
	chunk := make([]byte, cfg.ReadChunk)

	for ctx.Err() == nil {
		n, err := conn.Read(chunk)
		if n > 0 {
			buffer = append(buffer, chunk[:n]...)
		}
		if err != nil {
			if !errors.Is(err, io.EOF) && ctx.Err() == nil {
				log.Debug("read error", "err", err)
			}
			return
		}

		if cfg.MaxBuffer > 0 && int64(len(buffer)) > cfg.MaxBuffer {
			log.Warn("frame buffer over cap, closing", "bytes", len(buffer))
			_ = writeFrame(conn, Error("frame too large"))
			return
		}

		// Drain every complete object the buffer now holds.
		for len(bytes.TrimSpace(buffer)) > 0 {
			req, rest, perr := extractFrame(buffer)
			if perr != nil {
				if errors.Is(perr, errIncomplete) {
					break // wait for more bytes
				}
				log.Warn("malformed frame", "err", perr)
				_ = writeFrame(conn, Error("invalid JSON request"))
				return
			}
			frameLen := len(buffer) - len(rest)
			if cfg.OnFrame != nil {
				cfg.OnFrame(frameLen)
			}
			buffer = rest

			resp := dispatch(ctx, req)
			if err := writeFrame(conn, resp); err != nil {
				log.Debug("response write failed", "err", err)
				return
			}
		}
	}
}

// errIncomplete marks a buffer that ends mid-object.
var errIncomplete = errors.New("incomplete frame")

// extractFrame decodes the first complete JSON object in buf and returns
// the remaining bytes. An error at the very end of the input is reported as
// errIncomplete, indistinguishable from "malformed so far", which is the
// documented framing baseline: a frame that never completes blocks until
// the client closes.
func extractFrame(buf []byte) (Request, []byte, error) {
	dec := json.NewDecoder(bytes.NewReader(buf))
	var req Request
	if err := dec.Decode(&req); err != nil {
		if errors.Is(err, io.EOF) || errors.Is(err, io.ErrUnexpectedEOF) {
			return Request{}, buf, errIncomplete
		}
		var syn *json.SyntaxError
		if errors.As(err, &syn) && syn.Offset >= int64(len(bytes.TrimRight(buf, " \t\r\n"))) {
			return Request{}, buf, errIncomplete
		}
		return Request{}, buf, err
	}
	rest := buf[dec.InputOffset():]
	return req, bytes.TrimLeft(rest, " \t\r\n"), nil
}

// writeFrame writes one response as a single JSON object in one write call.
func writeFrame(conn net.Conn, r Response) error {
	_, err := conn.Write(Encode(r))
	return err
}
