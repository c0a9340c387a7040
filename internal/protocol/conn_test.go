package protocol

import (
	"context"
	"encoding/json"
	"log/slog"
	"net"
	"testing"
	"time"
)

// echoDispatch answers every request with its type in the result.
func echoDispatch(ctx context.Context, req Request) Response {
	return Success(map[string]any{"echo": req.Type})
}

// startServe runs Serve over one end of a pipe and returns the client end.
func startServe(t *testing.T, dispatch DispatchFunc) (net.Conn, context.CancelFunc) {
	t.Helper()
	client, server := net.Pipe()
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		defer close(done)
		Serve(ctx, server, dispatch, ConnConfig{Log: slog.Default()})
	}()
	t.Cleanup(func() {
		cancel()
		client.Close()
		select {
		case <-done:
		case <-time.After(time.Second):
			t.Error("serve loop did not exit")
		}
	})
	return client, cancel
}

func readResponse(t *testing.T, dec *json.Decoder) Response {
	t.Helper()
	var resp Response
	if err := dec.Decode(&resp); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	return resp
}

func TestServeSendsGreetingFirst(t *testing.T) {
	t.Parallel()
	client, _ := startServe(t, echoDispatch)
	dec := json.NewDecoder(client)

	greeting := readResponse(t, dec)
	if greeting.Status != StatusConnected {
		t.Fatalf("greeting status = %q", greeting.Status)
	}
	if greeting.Message != GreetingMessage {
		t.Fatalf("greeting message = %q, want %q", greeting.Message, GreetingMessage)
	}
}

func TestServeHandlesSplitFrames(t *testing.T) {
	t.Parallel()
	client, _ := startServe(t, echoDispatch)
	dec := json.NewDecoder(client)
	readResponse(t, dec) // greeting

	// The request arrives in two writes; the loop must wait for the rest.
	frame := []byte(`{"type":"get_session_info","params":{}}`)
	if _, err := client.Write(frame[:13]); err != nil {
		t.Fatalf("write first half: %v", err)
	}
	time.Sleep(20 * time.Millisecond)
	if _, err := client.Write(frame[13:]); err != nil {
		t.Fatalf("write second half: %v", err)
	}

	resp := readResponse(t, dec)
	if resp.Status != StatusSuccess {
		t.Fatalf("status = %q, message = %q", resp.Status, resp.Message)
	}
}

func TestServeHandlesConcatenatedFrames(t *testing.T) {
	t.Parallel()
	client, _ := startServe(t, echoDispatch)
	dec := json.NewDecoder(client)
	readResponse(t, dec) // greeting

	both := []byte(`{"type":"first"}{"type":"second"}`)
	if _, err := client.Write(both); err != nil {
		t.Fatalf("write: %v", err)
	}

	for _, want := range []string{"first", "second"} {
		resp := readResponse(t, dec)
		if resp.Status != StatusSuccess {
			t.Fatalf("status = %q", resp.Status)
		}
		result, ok := resp.Result.(map[string]any)
		if !ok || result["echo"] != want {
			t.Fatalf("result = %v, want echo %q", resp.Result, want)
		}
	}
}

func TestServeClosesOnMalformedFrame(t *testing.T) {
	t.Parallel()
	client, _ := startServe(t, echoDispatch)
	dec := json.NewDecoder(client)
	readResponse(t, dec) // greeting

	if _, err := client.Write([]byte(`{"type":] "trailing"}`)); err != nil {
		t.Fatalf("write: %v", err)
	}

	resp := readResponse(t, dec)
	if resp.Status != StatusError || resp.Message != "invalid JSON request" {
		t.Fatalf("resp = %+v", resp)
	}

	// The connection must be closed after the error frame.
	if err := dec.Decode(&Response{}); err == nil {
		t.Fatal("connection still open after malformed frame")
	}
}

func TestServeEnforcesBufferCap(t *testing.T) {
	t.Parallel()
	client, server := net.Pipe()
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	done := make(chan struct{})
	go func() {
		defer close(done)
		Serve(ctx, server, echoDispatch, ConnConfig{Log: slog.Default(), MaxBuffer: 64})
	}()
	defer client.Close()

	dec := json.NewDecoder(client)
	readResponse(t, dec) // greeting

	// An unterminated object larger than the cap hard-closes.
	big := append([]byte(`{"type":"`), make([]byte, 128)...)
	for i := range big[9:] {
		big[9+i] = 'a'
	}
	if _, err := client.Write(big); err != nil {
		t.Fatalf("write: %v", err)
	}

	resp := readResponse(t, dec)
	if resp.Status != StatusError || resp.Message != "frame too large" {
		t.Fatalf("resp = %+v", resp)
	}
	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("serve loop did not exit after cap breach")
	}
}

func TestExtractFrameIncompleteVsMalformed(t *testing.T) {
	t.Parallel()
	if _, _, err := extractFrame([]byte(`{"type":"par`)); err != errIncomplete {
		t.Fatalf("truncated frame err = %v, want errIncomplete", err)
	}
	// A syntax error at the very end of the buffer is indistinguishable
	// from a frame still in flight, so it reads as incomplete.
	if _, _, err := extractFrame([]byte(`{]`)); err != errIncomplete {
		t.Fatalf("end-of-buffer error = %v, want errIncomplete", err)
	}
	// With bytes after the error position the frame is provably malformed.
	if _, _, err := extractFrame([]byte(`{"type":] "trailing"}`)); err == nil || err == errIncomplete {
		t.Fatalf("malformed frame err = %v", err)
	}
	req, rest, err := extractFrame([]byte(`{"type":"x"} {"type":"y"}`))
	if err != nil || req.Type != "x" {
		t.Fatalf("first frame = %+v, err %v", req, err)
	}
	if string(rest) != `{"type":"y"}` {
		t.Fatalf("rest = %q", rest)
	}
}

func TestEncodeNeverFailsForEnvelope(t *testing.T) {
	t.Parallel()
	b := Encode(Success(map[string]any{"ok": true}))
	var resp Response
	if err := json.Unmarshal(b, &resp); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if resp.Status != StatusSuccess {
		t.Fatalf("status = %q", resp.Status)
	}
}
