package utils

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestValidateID(t *testing.T) {
	tests := []struct {
		name     string
		id       string
		required bool
		wantErr  bool
	}{
		{"session id", "sess_01HZX3K8D9W0ABCDEF12345678", true, false},
		{"empty optional", "", false, false},
		{"empty required", "", true, true},
		{"slash", "sess/../x", true, true},
		{"too long", strings.Repeat("a", MaxIDLength+1), true, true},
		{"null byte", "a\x00b", true, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidateID(tt.id, "id", tt.required)
			if tt.wantErr {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestValidateToolID(t *testing.T) {
	assert.NoError(t, ValidateToolID("terminal.create_session", "tool_id", true))
	assert.Error(t, ValidateToolID("terminal create", "tool_id", true))
	assert.Error(t, ValidateToolID("", "tool_id", true))
}

func TestValidateInput(t *testing.T) {
	assert.NoError(t, ValidateInput("ls -la\r"))
	assert.NoError(t, ValidateInput("\x03"))
	assert.Error(t, ValidateInput(""))
	assert.Error(t, ValidateInput(strings.Repeat("x", MaxInputSize+1)))
}

func TestValidatePath(t *testing.T) {
	assert.NoError(t, ValidatePath("", "working_dir"))
	assert.NoError(t, ValidatePath("/home/user", "working_dir"))
	assert.Error(t, ValidatePath("relative/dir", "working_dir"))
}

func TestValidateEnv(t *testing.T) {
	assert.NoError(t, ValidateEnv(map[string]string{"LANG": "C.UTF-8", "_X1": ""}))
	assert.Error(t, ValidateEnv(map[string]string{"A=B": "x"}))
	assert.Error(t, ValidateEnv(map[string]string{"1X": "x"}))
	assert.Error(t, ValidateEnv(map[string]string{"X": "a\x00"}))
}

func TestValidateArgs(t *testing.T) {
	assert.NoError(t, ValidateArgs([]string{"-l", "-c", "echo hi"}))
	assert.Error(t, ValidateArgs([]string{"a\x00"}))
	assert.Error(t, ValidateArgs(make([]string, MaxArgCount+1)))
}
