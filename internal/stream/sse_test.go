package stream

import (
	"errors"
	"io"
	"strings"
	"testing"
)

func TestSSEReaderFramesAndComments(t *testing.T) {
	input := ": keep-alive\n" +
		"id: 1\n" +
		"event: status\n" +
		"data: {\"seq\":1}\n" +
		"\n" +
		"data: first\n" +
		"data: second\n" +
		"\n"
	reader := newSSEReader(strings.NewReader(input))

	frame, err := reader.Next()
	if err != nil {
		t.Fatalf("first frame: %v", err)
	}
	if frame.ID != "1" || frame.Event != "status" || string(frame.Data) != `{"seq":1}` {
		t.Errorf("unexpected first frame: %+v", frame)
	}

	frame, err = reader.Next()
	if err != nil {
		t.Fatalf("second frame: %v", err)
	}
	if string(frame.Data) != "first\nsecond" {
		t.Errorf("multi-line data: got %q", frame.Data)
	}

	if _, err = reader.Next(); !errors.Is(err, io.EOF) {
		t.Errorf("expected io.EOF at end of stream, got %v", err)
	}
}

func TestSSEReaderDispatchesUnterminatedFinalFrame(t *testing.T) {
	reader := newSSEReader(strings.NewReader("data: tail"))
	frame, err := reader.Next()
	if err != nil {
		t.Fatalf("final frame: %v", err)
	}
	if string(frame.Data) != "tail" {
		t.Errorf("final frame data: got %q", frame.Data)
	}
	if _, err = reader.Next(); !errors.Is(err, io.EOF) {
		t.Errorf("expected io.EOF after final frame, got %v", err)
	}
}

func TestSSEReaderSkipsBlankOnlyInput(t *testing.T) {
	reader := newSSEReader(strings.NewReader("\n\n: ping\n\n"))
	if _, err := reader.Next(); !errors.Is(err, io.EOF) {
		t.Errorf("comment-only stream should end with io.EOF, got %v", err)
	}
}

func TestSSEReaderFieldWithoutSpace(t *testing.T) {
	reader := newSSEReader(strings.NewReader("data:compact\n\n"))
	frame, err := reader.Next()
	if err != nil {
		t.Fatalf("frame: %v", err)
	}
	if string(frame.Data) != "compact" {
		t.Errorf("got %q, want %q", frame.Data, "compact")
	}
}

func TestDecodeEventClassifiesLegacyStatusPayloads(t *testing.T) {
	ev, err := decodeEvent([]byte(`{"status":"running"}`))
	if err != nil {
		t.Fatalf("decode running: %v", err)
	}
	if ev.Kind != EventStatus {
		t.Errorf("running: got kind %q, want %q", ev.Kind, EventStatus)
	}

	ev, err = decodeEvent([]byte(`{"status":"success"}`))
	if err != nil {
		t.Fatalf("decode success: %v", err)
	}
	if ev.Kind != EventTerminal {
		t.Errorf("success: got kind %q, want %q", ev.Kind, EventTerminal)
	}

	if _, err = decodeEvent([]byte(`{"kind":"testOutcome"}`)); err == nil {
		t.Error("testOutcome without outcome should fail decoding")
	}
	if _, err = decodeEvent([]byte(`not json`)); err == nil {
		t.Error("malformed payload should fail decoding")
	}
}
