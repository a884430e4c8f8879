package osc

import (
	"bytes"
	"encoding/base64"
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const (
	esc = "\x1b"
	bel = "\x07"
	st  = "\x1b\\"
)

type event struct {
	kind  string
	value string
}

// recorder captures forwarded output and events in arrival order.
type recorder struct {
	out    bytes.Buffer
	events []event
}

func newTestFramer(t *testing.T, home string) (*Framer, *recorder) {
	t.Helper()
	rec := &recorder{}
	f := NewFramer(&rec.out, Options{
		OnCWD:   func(path string) { rec.events = append(rec.events, event{"cwd", path}) },
		OnCopy:  func(text string) { rec.events = append(rec.events, event{"copy", text}) },
		HomeDir: func() (string, error) { return home, nil },
	})
	return f, rec
}

func osc(payload, suffix string) string {
	return esc + "]" + payload + suffix
}

func TestFeedPassthrough(t *testing.T) {
	f, rec := newTestFramer(t, "/home/user")

	require.NoError(t, f.Feed([]byte("hello\r\nworld")))

	assert.Equal(t, "hello\r\nworld", rec.out.String())
	assert.Empty(t, rec.events)
	assert.Equal(t, 0, f.Pending())
}

func TestFeedCurrentDir(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  string
	}{
		{"absolute path", osc("1337;CurrentDir=/home/user", bel), "/home/user"},
		{"tilde expansion", osc("1337;CurrentDir=~/proj", bel), "/home/user/proj"},
		{"bare tilde", osc("1337;CurrentDir=~", st), "/home/user"},
		{"semicolon in path", osc("1337;CurrentDir=/tmp/a;b", bel), "/tmp/a;b"},
		{"equals in path", osc("1337;CurrentDir=/tmp/k=v", bel), "/tmp/k=v"},
		{"string terminator", osc("1337;CurrentDir=/srv", st), "/srv"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f, rec := newTestFramer(t, "/home/user")

			require.NoError(t, f.Feed([]byte(tt.input)))

			assert.Empty(t, rec.out.String())
			assert.Equal(t, []event{{"cwd", tt.want}}, rec.events)
		})
	}
}

func TestFeedCurrentDirHomeFailure(t *testing.T) {
	var got []string
	f := NewFramer(&bytes.Buffer{}, Options{
		OnCWD:   func(path string) { got = append(got, path) },
		HomeDir: func() (string, error) { return "", errors.New("no home") },
	})

	require.NoError(t, f.Feed([]byte(osc("1337;CurrentDir=~/proj", bel))))

	assert.Equal(t, []string{"~/proj"}, got)
}

func TestFeedHomeResolvedOnlyForTilde(t *testing.T) {
	calls := 0
	f := NewFramer(&bytes.Buffer{}, Options{
		HomeDir: func() (string, error) { calls++; return "/root", nil },
	})

	require.NoError(t, f.Feed([]byte(osc("1337;CurrentDir=/a", bel)+osc("1337;CurrentDir=~/b", bel))))

	assert.Equal(t, 1, calls)
}

func TestFeedUnsupportedITermKey(t *testing.T) {
	f, rec := newTestFramer(t, "/home/user")

	require.NoError(t, f.Feed([]byte("a"+osc("1337;SetMark", bel)+"b")))

	assert.Equal(t, "ab", rec.out.String())
	assert.Empty(t, rec.events)
}

func TestFeedClipboard(t *testing.T) {
	hello := base64.StdEncoding.EncodeToString([]byte("hello"))

	tests := []struct {
		name   string
		input  string
		events []event
	}{
		{"clipboard selector", osc("52;c;"+hello, bel), []event{{"copy", "hello"}}},
		{"empty selector", osc("52;;"+hello, st), []event{{"copy", "hello"}}},
		{"unpadded base64", osc("52;c;"+base64.RawStdEncoding.EncodeToString([]byte("hi")), bel), []event{{"copy", "hi"}}},
		{"primary selection", osc("52;p;"+hello, bel), nil},
		{"query", osc("52;c;?", bel), nil},
		{"missing data", osc("52;c", bel), nil},
		{"missing selector", osc("52", bel), nil},
		{"invalid base64", osc("52;c;!!!", bel), nil},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f, rec := newTestFramer(t, "/home/user")

			require.NoError(t, f.Feed([]byte(tt.input)))

			assert.Empty(t, rec.out.String())
			assert.Equal(t, tt.events, rec.events)
		})
	}
}

func TestFeedUnknownCodeConsumed(t *testing.T) {
	f, rec := newTestFramer(t, "/home/user")

	require.NoError(t, f.Feed([]byte("x"+osc("999;foo", bel)+"y"+osc("0;window title", st)+"z")))

	assert.Equal(t, "xyz", rec.out.String())
	assert.Empty(t, rec.events)
}

func TestFeedNonNumericCode(t *testing.T) {
	f, rec := newTestFramer(t, "/home/user")

	require.NoError(t, f.Feed([]byte(osc("abc;CurrentDir=/x", bel)+osc("", bel)+osc("x1337;CurrentDir=/y", bel)+osc("-;x", bel))))

	assert.Empty(t, rec.out.String())
	assert.Empty(t, rec.events)
}

func TestFeedCodeWithTrailingText(t *testing.T) {
	f, rec := newTestFramer(t, "/home/user")

	require.NoError(t, f.Feed([]byte(
		osc("1337abc;CurrentDir=/y", bel) +
			osc(" 52;c;aGk=", bel) +
			osc("52 ;c;aGk=", st))))

	assert.Empty(t, rec.out.String())
	assert.Equal(t, []event{{"cwd", "/y"}, {"copy", "hi"}, {"copy", "hi"}}, rec.events)
}

func TestParseCode(t *testing.T) {
	tests := []struct {
		in      string
		code    int
		numeric bool
	}{
		{"52", 52, true},
		{"1337", 1337, true},
		{"  7", 7, true},
		{"52 ", 52, true},
		{"1337abc", 1337, true},
		{"+52", 52, true},
		{"-1", -1, true},
		{"", 0, false},
		{"abc", 0, false},
		{"-", 0, false},
		{"99999999999999999999999", 0, false},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			code, ok := parseCode(tt.in)
			assert.Equal(t, tt.numeric, ok)
			assert.Equal(t, tt.code, code)
		})
	}
}

func TestFeedSuffixRace(t *testing.T) {
	f, rec := newTestFramer(t, "/home/user")

	require.NoError(t, f.Feed([]byte(esc+"]1337;CurrentDir=/a"+bel+"/b"+st+"tail")))

	assert.Equal(t, []event{{"cwd", "/a"}}, rec.events)
	assert.Equal(t, "/b"+st+"tail", rec.out.String())
}

func TestFeedSplitAcrossChunks(t *testing.T) {
	f, rec := newTestFramer(t, "/home/user")
	stream := "before" + osc("1337;CurrentDir=/work", st) + "after"

	for i := 0; i < len(stream); i++ {
		require.NoError(t, f.Feed([]byte{stream[i]}))
	}

	assert.Equal(t, "beforeafter", rec.out.String())
	assert.Equal(t, []event{{"cwd", "/work"}}, rec.events)
	assert.Equal(t, 0, f.Pending())
}

func TestFeedHoldsIncompleteSequence(t *testing.T) {
	f, rec := newTestFramer(t, "/home/user")

	require.NoError(t, f.Feed([]byte("ls"+esc+"]1337;CurrentDir=/o")))
	assert.Equal(t, "ls", rec.out.String())
	assert.Equal(t, len(esc+"]1337;CurrentDir=/o"), f.Pending())

	require.NoError(t, f.Feed([]byte("pt"+bel+"$ ")))
	assert.Equal(t, "ls$ ", rec.out.String())
	assert.Equal(t, []event{{"cwd", "/opt"}}, rec.events)
	assert.Equal(t, 0, f.Pending())
}

func TestFeedHoldsTrailingEscape(t *testing.T) {
	f, rec := newTestFramer(t, "/home/user")

	require.NoError(t, f.Feed([]byte("abc"+esc)))
	assert.Equal(t, "abc", rec.out.String())
	assert.Equal(t, 1, f.Pending())

	require.NoError(t, f.Feed([]byte("[0m")))
	assert.Equal(t, "abc"+esc+"[0m", rec.out.String())
	assert.Equal(t, 0, f.Pending())
}

func TestFeedEmptyChunks(t *testing.T) {
	f, rec := newTestFramer(t, "/home/user")

	for i := 0; i < 10; i++ {
		require.NoError(t, f.Feed(nil))
		require.NoError(t, f.Feed([]byte{}))
	}

	assert.Zero(t, rec.out.Len())
	assert.Empty(t, rec.events)
	assert.Equal(t, 0, f.Pending())

	require.NoError(t, f.Feed([]byte(esc+"]52;c;")))
	pending := f.Pending()
	require.NoError(t, f.Feed(nil))
	assert.Equal(t, pending, f.Pending())
}

func TestFeedEventOrder(t *testing.T) {
	f, rec := newTestFramer(t, "/h")
	stream := osc("1337;CurrentDir=/one", bel) +
		osc("52;c;"+base64.StdEncoding.EncodeToString([]byte("two")), bel) +
		osc("1337;CurrentDir=~/three", st)

	require.NoError(t, f.Feed([]byte(stream)))

	assert.Equal(t, []event{
		{"cwd", "/one"},
		{"copy", "two"},
		{"cwd", "/h/three"},
	}, rec.events)
}

func TestCloseStopsEvents(t *testing.T) {
	f, rec := newTestFramer(t, "/home/user")

	require.NoError(t, f.Feed([]byte(esc+"]1337;CurrentDir=/pending")))
	require.NoError(t, f.Close())
	require.NoError(t, f.Close())

	assert.ErrorIs(t, f.Feed([]byte(bel)), ErrClosed)
	assert.Empty(t, rec.events)
	assert.Empty(t, rec.out.String())
}

type failingWriter struct{ calls int }

func (w *failingWriter) Write(p []byte) (int, error) {
	w.calls++
	return 0, errors.New("broken pipe")
}

func TestFeedOutputErrorKeepsFraming(t *testing.T) {
	var got []string
	w := &failingWriter{}
	f := NewFramer(w, Options{OnCWD: func(path string) { got = append(got, path) }})

	err := f.Feed([]byte("a" + osc("1337;CurrentDir=/x", bel) + "b"))

	require.Error(t, err)
	assert.Contains(t, err.Error(), "forward output")
	assert.Equal(t, 2, w.calls)
	assert.Equal(t, []string{"/x"}, got)
	assert.Equal(t, 0, f.Pending())
}

func TestWriteImplementsWriter(t *testing.T) {
	f, rec := newTestFramer(t, "/home/user")

	n, err := f.Write([]byte("ok" + osc("7;file:///tmp", bel)))

	require.NoError(t, err)
	assert.Equal(t, len("ok"+osc("7;file:///tmp", bel)), n)
	assert.Equal(t, "ok", rec.out.String())
}

type countingStats struct {
	sequences map[string]int
	forwarded int
}

func (s *countingStats) ObserveSequence(code, outcome string) { s.sequences[code+"/"+outcome]++ }
func (s *countingStats) ObserveForwarded(n int)               { s.forwarded += n }

func TestFeedReportsStats(t *testing.T) {
	stats := &countingStats{sequences: map[string]int{}}
	f := NewFramer(&bytes.Buffer{}, Options{Stats: stats, HomeDir: func() (string, error) { return "/h", nil }})

	require.NoError(t, f.Feed([]byte("abc"+
		osc("1337;CurrentDir=/x", bel)+
		osc("52;c;aGk=", bel)+
		osc("52;c;***", bel)+
		osc("2;title", bel)+
		osc("x", bel))))

	assert.Equal(t, 3, stats.forwarded)
	assert.Equal(t, map[string]int{
		"1337/cwd":    1,
		"52/copy":     1,
		"52/invalid":  1,
		"2/ignored":   1,
		"nan/ignored": 1,
	}, stats.sequences)
}

func TestFeedLargeClipboardAcrossReads(t *testing.T) {
	f, rec := newTestFramer(t, "/home/user")
	text := strings.Repeat("clipboard payload ", 16*1024)
	stream := []byte("a" + osc("52;c;"+base64.StdEncoding.EncodeToString([]byte(text)), bel) + "b")

	for len(stream) > 0 {
		n := min(4096, len(stream))
		require.NoError(t, f.Feed(stream[:n]))
		stream = stream[n:]
	}

	assert.Equal(t, "ab", rec.out.String())
	assert.Equal(t, []event{{"copy", text}}, rec.events)
	assert.Equal(t, 0, f.Pending())
}

func TestFeedStringTerminatorSplitAfterLongPayload(t *testing.T) {
	f, rec := newTestFramer(t, "/home/user")

	require.NoError(t, f.Feed([]byte(esc+"]1337;CurrentDir=/a")))
	require.NoError(t, f.Feed([]byte("/b")))
	require.NoError(t, f.Feed([]byte(esc)))
	require.NoError(t, f.Feed([]byte("\\z")))

	assert.Equal(t, "z", rec.out.String())
	assert.Equal(t, []event{{"cwd", "/a/b"}}, rec.events)
}

func TestFeedFlushesOversizedSequence(t *testing.T) {
	stats := &countingStats{sequences: map[string]int{}}
	rec := &recorder{}
	f := NewFramer(&rec.out, Options{
		OnCWD:      func(path string) { rec.events = append(rec.events, event{"cwd", path}) },
		Stats:      stats,
		MaxPending: 16,
	})

	open := esc + "]52;c;" + strings.Repeat("A", 20)
	require.NoError(t, f.Feed([]byte(open[:10])))
	assert.Empty(t, rec.out.String())
	require.NoError(t, f.Feed([]byte(open[10:])))

	assert.Equal(t, open, rec.out.String())
	assert.Equal(t, 0, f.Pending())
	assert.Equal(t, 1, stats.sequences["unterminated/overflow"])

	require.NoError(t, f.Feed([]byte(osc("1337;CurrentDir=/x", bel)+"ok")))
	assert.Equal(t, open+"ok", rec.out.String())
	assert.Equal(t, []event{{"cwd", "/x"}}, rec.events)
}
