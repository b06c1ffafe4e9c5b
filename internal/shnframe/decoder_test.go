package shnframe

import (
	"bytes"
	"testing"

	"github.com/birchlabs/shn/internal/bits"
)

func TestDecoderFixedDiff0ThenQuit(t *testing.T) {
	var buf bytes.Buffer
	w := newTestWriter(&buf)

	const energy = 0
	w.writeUnsignedRice(energySize, energy)
	residuals := []int32{5, -3, 2, 0}
	for _, r := range residuals {
		w.writeSignedRice(energy, r)
	}
	w.writeUnsignedRice(fnSize, fnQuit)
	w.close()

	br := bits.NewReader(bytes.NewReader(buf.Bytes()))
	params := StreamParams{Channels: 1, Blocksize: len(residuals), MaxNLPC: 0, Nmean: 0}
	dec := NewDecoder(br, params, fnDiff0)

	ok, err := dec.DecodeBlock()
	if err != nil {
		t.Fatalf("DecodeBlock: unexpected error: %v", err)
	}
	if !ok {
		t.Fatalf("DecodeBlock: ok = false, want true")
	}
	for i, want := range residuals {
		got, ok := dec.NextSample()
		if !ok {
			t.Fatalf("NextSample #%d: ok = false, want true", i)
		}
		if got != want {
			t.Errorf("NextSample #%d = %d, want %d", i, got, want)
		}
	}
	if _, ok := dec.NextSample(); ok {
		t.Fatalf("NextSample after block drained: ok = true, want false")
	}

	ok, err = dec.DecodeBlock()
	if err != nil {
		t.Fatalf("DecodeBlock (QUIT): unexpected error: %v", err)
	}
	if ok {
		t.Fatalf("DecodeBlock (QUIT): ok = true, want false")
	}
	if !dec.Finished() {
		t.Errorf("Finished() = false, want true")
	}
}

func TestDecoderFixedDiff1Prediction(t *testing.T) {
	var buf bytes.Buffer
	w := newTestWriter(&buf)

	const energy = 0
	w.writeUnsignedRice(energySize, energy)
	// All-zero residuals: DIFF1 output should just repeat sample[-1] (0
	// initially, then the previous output sample) each step.
	for i := 0; i < 4; i++ {
		w.writeSignedRice(energy, 0)
	}
	w.writeUnsignedRice(fnSize, fnQuit)
	w.close()

	br := bits.NewReader(bytes.NewReader(buf.Bytes()))
	params := StreamParams{Channels: 1, Blocksize: 4, MaxNLPC: 0, Nmean: 0}
	dec := NewDecoder(br, params, fnDiff1)

	ok, err := dec.DecodeBlock()
	if err != nil || !ok {
		t.Fatalf("DecodeBlock: ok=%v, err=%v", ok, err)
	}
	for i := 0; i < 4; i++ {
		got, ok := dec.NextSample()
		if !ok || got != 0 {
			t.Errorf("NextSample #%d = %d, %v; want 0, true", i, got, ok)
		}
	}
}

func TestDecoderInvalidCommand(t *testing.T) {
	params := StreamParams{Channels: 1, Blocksize: 4}
	dec := NewDecoder(bits.NewReader(bytes.NewReader(nil)), params, 42)
	if _, err := dec.DecodeBlock(); err == nil {
		t.Fatalf("DecodeBlock: expected error for invalid command 42")
	}
}
