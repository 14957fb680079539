package logging

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zapcore"
)

func TestParseLevel(t *testing.T) {
	tests := []struct {
		input    string
		expected zapcore.Level
	}{
		{input: "debug", expected: zapcore.DebugLevel},
		{input: "INFO", expected: zapcore.InfoLevel},
		{input: " warn ", expected: zapcore.WarnLevel},
		{input: "error", expected: zapcore.ErrorLevel},
	}
	for _, test := range tests {
		t.Run(test.input, func(t *testing.T) {
			level, err := ParseLevel(test.input)
			require.NoError(t, err)
			assert.Equal(t, test.expected, level)
		})
	}

	_, err := ParseLevel("loud")
	assert.Error(t, err)
}
