package prompt

import (
	"errors"
	"fmt"
	"testing"

	"github.com/manifoldco/promptui"
	"github.com/stretchr/testify/assert"
)

func TestIsAborted(t *testing.T) {
	assert.True(t, IsAborted(promptui.ErrInterrupt))
	assert.True(t, IsAborted(promptui.ErrAbort))
	assert.True(t, IsAborted(fmt.Errorf("select: %w", ErrAborted)))
	assert.False(t, IsAborted(errors.New("boom")))
	assert.False(t, IsAborted(nil))
}

func TestWrapError(t *testing.T) {
	assert.NoError(t, wrapError(nil))
	assert.Equal(t, ErrAborted, wrapError(promptui.ErrInterrupt))

	other := errors.New("tty closed")
	assert.Equal(t, other, wrapError(other))
}

func TestValidateJSON(t *testing.T) {
	tests := []struct {
		input   string
		wantErr bool
	}{
		{"", false},
		{"   ", false},
		{`{"Bucket":"data"}`, false},
		{`["a", 1]`, false},
		{`{"Bucket":`, true},
		{`Bucket=data`, true},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			err := ValidateJSON(tt.input)
			if tt.wantErr {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestSelectWithoutOptions(t *testing.T) {
	_, err := Select("Operation", nil)
	assert.Error(t, err)
}
