package osc

import (
	"bytes"
	"io"
	"regexp"
	"testing"

	"github.com/stretchr/testify/assert"
	"pgregory.net/rapid"
)

func TestSplit(t *testing.T) {
	tests := []struct {
		name   string
		input  string
		tokens []Token
		rest   string
	}{
		{
			name:   "plain data",
			input:  "abc",
			tokens: []Token{{TokenData, []byte("abc")}},
		},
		{
			name:  "single sequence",
			input: "a" + osc("0;t", bel) + "b",
			tokens: []Token{
				{TokenData, []byte("a")},
				{TokenSequence, []byte("0;t")},
				{TokenData, []byte("b")},
			},
		},
		{
			name:  "back to back",
			input: osc("1", bel) + osc("2", st),
			tokens: []Token{
				{TokenSequence, []byte("1")},
				{TokenSequence, []byte("2")},
			},
		},
		{
			name:   "open sequence",
			input:  "a" + esc + "]52;c;aGk",
			tokens: []Token{{TokenData, []byte("a")}},
			rest:   esc + "]52;c;aGk",
		},
		{
			name:  "complete then open",
			input: osc("1", bel) + "x" + esc + "]2",
			tokens: []Token{
				{TokenSequence, []byte("1")},
				{TokenData, []byte("x")},
			},
			rest: esc + "]2",
		},
		{
			name:   "trailing escape",
			input:  "ab" + esc,
			tokens: []Token{{TokenData, []byte("ab")}},
			rest:   esc,
		},
		{
			name:   "escape then st-like bytes",
			input:  esc + "\\x",
			tokens: []Token{{TokenData, []byte(esc + "\\x")}},
		},
		{
			name:  "nested prefix belongs to payload",
			input: esc + "]1;" + esc + "]2" + bel,
			tokens: []Token{
				{TokenSequence, []byte("1;" + esc + "]2")},
			},
		},
		{
			name:   "empty",
			input:  "",
			tokens: nil,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tokens, rest := Split([]byte(tt.input))
			assert.Equal(t, tt.tokens, tokens)
			assert.Equal(t, tt.rest, string(rest))
		})
	}
}

// sequencePattern matches a complete sequence ending at its earliest
// terminator. It is an independent model of what the framer removes.
var sequencePattern = regexp.MustCompile(`(?s)\x1b\].*?(?:\x07|\x1b\\)`)

// expectedOutput is the stream with complete sequences removed and the
// trailing unresolved part (open prefix or lone ESC) held back.
func expectedOutput(stream []byte) []byte {
	var out []byte
	last := 0
	for _, loc := range sequencePattern.FindAllIndex(stream, -1) {
		out = append(out, stream[last:loc[0]]...)
		last = loc[1]
	}
	tail := stream[last:]
	if i := bytes.Index(tail, Prefix); i >= 0 {
		tail = tail[:i]
	} else if len(tail) > 0 && tail[len(tail)-1] == 0x1b {
		tail = tail[:len(tail)-1]
	}
	return append(out, tail...)
}

var streamPieces = []string{
	"a", "z", "\r\n", ";", "]", "\\", esc, bel, esc + "]", st,
	esc + "[0m",
	osc("1337;CurrentDir=/tmp", bel),
	osc("1337;CurrentDir=~/x", st),
	osc("52;c;aGVsbG8=", bel),
	osc("52;p;aGVsbG8=", bel),
	osc("999;foo", st),
}

func drawStream(t *rapid.T) []byte {
	pieces := rapid.SliceOfN(rapid.SampledFrom(streamPieces), 0, 24).Draw(t, "pieces")
	var stream []byte
	for _, p := range pieces {
		stream = append(stream, p...)
	}
	return stream
}

func drawChunks(t *rapid.T, stream []byte) [][]byte {
	var chunks [][]byte
	for rest := stream; len(rest) > 0; {
		n := rapid.IntRange(1, len(rest)).Draw(t, "chunk")
		chunks = append(chunks, rest[:n])
		rest = rest[n:]
	}
	return chunks
}

func run(chunks [][]byte) ([]byte, []event, int) {
	rec := &recorder{}
	f := NewFramer(&rec.out, Options{
		OnCWD:   func(path string) { rec.events = append(rec.events, event{"cwd", path}) },
		OnCopy:  func(text string) { rec.events = append(rec.events, event{"copy", text}) },
		HomeDir: func() (string, error) { return "/home/user", nil },
	})
	for _, c := range chunks {
		// Feed must not depend on the caller keeping the chunk intact.
		buf := append([]byte(nil), c...)
		_ = f.Feed(buf)
		for i := range buf {
			buf[i] = 0
		}
	}
	return rec.out.Bytes(), rec.events, f.Pending()
}

func TestFeedNoLossNoReorder(t *testing.T) {
	rapid.Check(t, func(t *rapid.T) {
		stream := drawStream(t)
		out, _, _ := run(drawChunks(t, stream))
		if !bytes.Equal(expectedOutput(stream), out) {
			t.Fatalf("output mismatch\nstream: %q\nwant:   %q\ngot:    %q", stream, expectedOutput(stream), out)
		}
	})
}

func TestFeedFragmentationInvariance(t *testing.T) {
	rapid.Check(t, func(t *rapid.T) {
		stream := drawStream(t)

		wantOut, wantEvents, wantPending := run([][]byte{stream})
		gotOut, gotEvents, gotPending := run(drawChunks(t, stream))

		if !bytes.Equal(wantOut, gotOut) {
			t.Fatalf("output differs\nstream: %q\nwhole:  %q\nchunked: %q", stream, wantOut, gotOut)
		}
		if len(wantEvents) != len(gotEvents) {
			t.Fatalf("event count differs: %d vs %d", len(wantEvents), len(gotEvents))
		}
		for i := range wantEvents {
			if wantEvents[i] != gotEvents[i] {
				t.Fatalf("event %d differs: %v vs %v", i, wantEvents[i], gotEvents[i])
			}
		}
		if wantPending != gotPending {
			t.Fatalf("pending differs: %d vs %d", wantPending, gotPending)
		}
	})
}

func TestFeedAccumulatorHoldsOnlyOpenSequence(t *testing.T) {
	rapid.Check(t, func(t *rapid.T) {
		stream := drawStream(t)
		f := NewFramer(&bytes.Buffer{}, Options{})
		for _, c := range drawChunks(t, stream) {
			_ = f.Feed(c)
			acc := f.acc
			switch {
			case len(acc) == 0:
			case len(acc) == 1 && acc[0] == 0x1b:
			case bytes.HasPrefix(acc, Prefix):
				if n, _ := earliestSuffix(acc[len(Prefix):]); n >= 0 {
					t.Fatalf("accumulator holds a complete sequence: %q", acc)
				}
			default:
				t.Fatalf("accumulator holds ordinary data: %q", acc)
			}
		}
	})
}

func BenchmarkFeed(b *testing.B) {
	chunk := bytes.Repeat([]byte("drwxr-xr-x  5 user staff  160 Oct 18 10:00 src\r\n"), 64)
	chunk = append(chunk, osc("1337;CurrentDir=/home/user/src", bel)...)
	f := NewFramer(io.Discard, Options{})

	b.SetBytes(int64(len(chunk)))
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		_ = f.Feed(chunk)
	}
}
