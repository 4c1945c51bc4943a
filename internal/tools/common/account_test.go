package common

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestGetAccountFromArgs(t *testing.T) {
	tests := []struct {
		name     string
		args     map[string]interface{}
		expected string
	}{
		{
			name:     "no account specified returns fallback",
			args:     map[string]interface{}{},
			expected: "default",
		},
		{
			name: "account specified returns account",
			args: map[string]interface{}{
				"account": "work",
			},
			expected: "work",
		},
		{
			name: "empty account returns fallback",
			args: map[string]interface{}{
				"account": "",
			},
			expected: "default",
		},
		{
			name:     "nil args returns fallback",
			args:     nil,
			expected: "default",
		},
		{
			name: "non-string account type returns fallback",
			args: map[string]interface{}{
				"account": 123,
			},
			expected: "default",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, GetAccountFromArgs(tt.args, "default"))
		})
	}
}

func TestGetStringArg(t *testing.T) {
	args := map[string]interface{}{"path": "a.xls", "n": 3.0}
	assert.Equal(t, "a.xls", GetStringArg(args, "path"))
	assert.Empty(t, GetStringArg(args, "n"))
	assert.Empty(t, GetStringArg(nil, "path"))
}

func TestGetIntArg(t *testing.T) {
	args := map[string]interface{}{"float": 2.0, "int": 5, "text": "7"}
	assert.Equal(t, 2, GetIntArg(args, "float", 0))
	assert.Equal(t, 5, GetIntArg(args, "int", 0))
	assert.Equal(t, -1, GetIntArg(args, "text", -1))
	assert.Equal(t, 9, GetIntArg(args, "missing", 9))
}
