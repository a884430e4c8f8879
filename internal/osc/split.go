package osc

import "bytes"

var (
	// Prefix opens an OSC sequence (ESC ]).
	Prefix = []byte{0x1b, ']'}

	// suffixes in tie-break order: BEL wins over ST at equal offsets.
	suffixes = [][]byte{
		{0x07},       // BEL
		{0x1b, '\\'}, // ST
	}
)

// TokenKind distinguishes forwarded data from framed sequences.
type TokenKind int

const (
	// TokenData is a span of ordinary output.
	TokenData TokenKind = iota
	// TokenSequence is the payload of a complete OSC sequence, without
	// prefix and suffix.
	TokenSequence
)

// Token is one ordered unit produced by Split.
type Token struct {
	Kind  TokenKind
	Bytes []byte
}

// Split frames acc into ordered tokens and returns the incomplete tail that
// must be kept for the next chunk. rest is either empty, a lone ESC, or
// begins with Prefix and contains no terminator. Tokens and rest alias acc.
func Split(acc []byte) (tokens []Token, rest []byte) {
	rest = acc

	// Resolve every complete sequence.
	for len(rest) > 0 {
		start := bytes.Index(rest, Prefix)
		if start < 0 {
			break
		}
		body := start + len(Prefix)
		end, suffix := earliestSuffix(rest[body:])
		if end < 0 {
			break
		}
		if start > 0 {
			tokens = append(tokens, Token{Kind: TokenData, Bytes: rest[:start]})
		}
		tokens = append(tokens, Token{Kind: TokenSequence, Bytes: rest[body : body+end]})
		rest = rest[body+end+len(suffix):]
	}

	// Whatever is left holds no complete sequence. Forward everything ahead
	// of an open prefix and keep the prefix onward. A trailing ESC may be the
	// first half of a prefix split across reads, so it is kept as well.
	open := bytes.Index(rest, Prefix)
	if open < 0 {
		open = len(rest)
		if open > 0 && rest[open-1] == Prefix[0] {
			open--
		}
	}
	if open > 0 {
		tokens = append(tokens, Token{Kind: TokenData, Bytes: rest[:open]})
	}
	return tokens, rest[open:]
}

// earliestSuffix returns the offset of the first terminator in b and the
// terminator itself, or -1 when b holds none.
func earliestSuffix(b []byte) (int, []byte) {
	best, match := -1, []byte(nil)
	for _, s := range suffixes {
		i := bytes.Index(b, s)
		if i < 0 {
			continue
		}
		if best < 0 || i < best {
			best, match = i, s
		}
	}
	return best, match
}
