package syslogin

import "testing"

func joinFrames(frames [][]byte) []string {
	out := make([]string, len(frames))
	for i, f := range frames {
		out[i] = string(f)
	}
	return out
}

func TestSplitFramesPlain(t *testing.T) {
	frames, residual := SplitFrames([]byte("<14>Dec 17 14:46:29 host prog: hello"), nil)
	if len(frames) != 1 || len(residual) != 0 {
		t.Fatalf("got %d frames, residual %q", len(frames), residual)
	}
	if string(frames[0]) != "<14>Dec 17 14:46:29 host prog: hello" {
		t.Errorf("frame = %q", frames[0])
	}
}

// TestSplitFramesOctetCounted exercises E2E-3: two octet-counted frames
// delivered in one read.
func TestSplitFramesOctetCounted(t *testing.T) {
	msg1 := "<14>one"
	msg2 := "<14>two"
	data := []byte(itoa(len(msg1)) + " " + msg1 + itoa(len(msg2)) + " " + msg2)

	frames, residual := SplitFrames(data, nil)
	if len(residual) != 0 {
		t.Fatalf("unexpected residual %q", residual)
	}
	got := joinFrames(frames)
	if len(got) != 2 || got[0] != msg1 || got[1] != msg2 {
		t.Fatalf("frames = %v", got)
	}
}

// TestSplitFramesResidualDigitPrefix covers residual state (a): a pure
// ASCII-digit run with no delimiter yet seen (spec §9 open question 2).
func TestSplitFramesResidualDigitPrefix(t *testing.T) {
	frames, residual := SplitFrames([]byte("10"), nil)
	if len(frames) != 0 {
		t.Fatalf("expected no complete frames, got %v", frames)
	}
	if string(residual) != "10" {
		t.Fatalf("residual = %q, want \"10\"", residual)
	}

	msg := "<14>012345"
	frames, residual = SplitFrames([]byte(" "+msg), residual)
	if len(residual) != 0 {
		t.Fatalf("unexpected residual after completion: %q", residual)
	}
	if len(frames) != 1 || string(frames[0]) != msg[:10] {
		t.Fatalf("frames = %v", joinFrames(frames))
	}
}

// TestSplitFramesResidualPartialBody covers residual state (b): a
// digit-prefix plus a partial frame body.
func TestSplitFramesResidualPartialBody(t *testing.T) {
	full := "<14>APPTRACK_SESSION_CLOSE"
	prefix := itoa(len(full)) + " " + full[:5]
	frames, residual := SplitFrames([]byte(prefix), nil)
	if len(frames) != 0 {
		t.Fatalf("expected no complete frames yet, got %v", frames)
	}

	frames, residual = SplitFrames([]byte(full[5:]), residual)
	if len(residual) != 0 {
		t.Fatalf("unexpected residual %q", residual)
	}
	if len(frames) != 1 || string(frames[0]) != full {
		t.Fatalf("frames = %v", joinFrames(frames))
	}
}

func TestSplitFramesBadLengthFallsBackToPlain(t *testing.T) {
	data := []byte("12x<14>bad prefix")
	frames, residual := SplitFrames(data, nil)
	if len(residual) != 0 {
		t.Fatalf("unexpected residual %q", residual)
	}
	if len(frames) != 1 || string(frames[0]) != string(data) {
		t.Fatalf("frames = %v", joinFrames(frames))
	}
}

func itoa(n int) string {
	if n == 0 {
		return "0"
	}
	var digits []byte
	for n > 0 {
		digits = append([]byte{byte('0' + n%10)}, digits...)
		n /= 10
	}
	return string(digits)
}
