package errors

import (
	stderrors "errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNew_DerivesCategoryAndRetry(t *testing.T) {
	tests := []struct {
		code      string
		category  Category
		retryable bool
	}{
		{ErrCodeConfigInvalid, CategoryConfig, false},
		{ErrCodeStorageRead, CategoryStorage, false},
		{ErrCodeStorageWrite, CategoryStorage, true},
		{ErrCodeStorageLocked, CategoryStorage, true},
		{ErrCodeExtractFailed, CategorySource, false},
		{ErrCodeInvalidInput, CategoryValidation, false},
		{ErrCodeInternal, CategoryInternal, false},
		{"garbage", CategoryInternal, false},
	}

	for _, tt := range tests {
		t.Run(tt.code, func(t *testing.T) {
			e := New(tt.code, "boom", nil)
			assert.Equal(t, tt.category, e.Category)
			assert.Equal(t, tt.retryable, e.Retryable)
			assert.Equal(t, tt.retryable, IsRetryable(e))
		})
	}
}

func TestWrap_PreservesChain(t *testing.T) {
	cause := stderrors.New("disk on fire")

	e := Wrap(ErrCodeStorageWrite, cause)

	require.NotNil(t, e)
	assert.ErrorIs(t, e, cause)
	assert.Contains(t, e.Error(), ErrCodeStorageWrite)
	assert.Nil(t, Wrap(ErrCodeStorageWrite, nil))
}

func TestIs_MatchesByCode(t *testing.T) {
	a := New(ErrCodeRecordCorrupt, "bad record", nil)
	b := New(ErrCodeRecordCorrupt, "different message", nil)

	assert.ErrorIs(t, a, b)
	assert.NotErrorIs(t, a, New(ErrCodeStorageRead, "other", nil))
}
