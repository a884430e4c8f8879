package osc

import (
	"encoding/base64"
	"errors"
	"strconv"
	"strings"
)

// OSC codes the framer turns into events.
const (
	CodeClipboard  = 52
	CodeCurrentDir = 1337
)

const (
	currentDirKey     = "CurrentDir="
	clipboardSelector = "c"
)

var (
	errMissingData = errors.New("missing clipboard data")
	errBadBase64   = errors.New("invalid base64 clipboard data")
)

// Command is a parsed OSC payload.
type Command struct {
	// Code is the numeric OSC code. Only meaningful when Numeric is true.
	Code    int
	Numeric bool
	Params  []string
}

// ParseCommand splits an OSC payload on ';' and parses the leading code.
func ParseCommand(payload []byte) Command {
	fields := strings.Split(string(payload), ";")
	code, ok := parseCode(fields[0])
	return Command{
		Code:    code,
		Numeric: ok,
		Params:  fields[1:],
	}
}

// parseCode reads the decimal integer at the start of s, after optional
// leading whitespace and sign. Anything after the digits is ignored, so
// "52 " and "1337abc" parse as 52 and 1337.
func parseCode(s string) (int, bool) {
	s = strings.TrimLeft(s, " \t\n\r\v\f")

	neg := false
	if s != "" && (s[0] == '+' || s[0] == '-') {
		neg = s[0] == '-'
		s = s[1:]
	}

	n := 0
	for n < len(s) && s[n] >= '0' && s[n] <= '9' {
		n++
	}
	if n == 0 {
		return 0, false
	}

	code, err := strconv.Atoi(s[:n])
	if err != nil {
		return 0, false
	}
	if neg {
		code = -code
	}
	return code, true
}

// Label is the code as used in logs and metric labels.
func (c Command) Label() string {
	if !c.Numeric {
		return "nan"
	}
	return strconv.Itoa(c.Code)
}

// currentDir extracts the path of a 1337 CurrentDir report. The value is
// rejoined so paths containing ';' survive the split.
func currentDir(params []string) (string, bool) {
	value := strings.Join(params, ";")
	if !strings.HasPrefix(value, currentDirKey) {
		return value, false
	}
	return value[strings.IndexByte(value, '=')+1:], true
}

// expandHome replaces a leading '~' with the resolved home directory.
func expandHome(path string, home func() (string, error)) (string, error) {
	if !strings.HasPrefix(path, "~") {
		return path, nil
	}
	dir, err := home()
	if err != nil {
		return path, err
	}
	return dir + path[1:], nil
}

// clipboardTarget reports whether an OSC 52 request addresses the clipboard.
func clipboardTarget(params []string) bool {
	if len(params) == 0 {
		return false
	}
	return params[0] == clipboardSelector || params[0] == ""
}

// clipboardText decodes the base64 data of an OSC 52 request. Padded and
// unpadded encodings are both accepted.
func clipboardText(params []string) (string, error) {
	if len(params) < 2 {
		return "", errMissingData
	}
	data := strings.TrimSpace(params[1])

	raw, err := base64.StdEncoding.DecodeString(data)
	if err != nil {
		raw, err = base64.RawStdEncoding.DecodeString(strings.TrimRight(data, "="))
		if err != nil {
			return "", errBadBase64
		}
	}
	return strings.ToValidUTF8(string(raw), "�"), nil
}
