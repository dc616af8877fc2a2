package media

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestClassifyError(t *testing.T) {
	cases := []struct {
		in       error
		expected ErrorKind
	}{
		{errors.New("Permission denied by system"), ErrorKindPermissionDenied},
		{errors.New("open /dev/video0: device or resource busy"), ErrorKindBusy},
		{errors.New("failed to find the best driver that fits the constraints"), ErrorKindNotFound},
		{errors.New("width constraint out of range"), ErrorKindOverconstrained},
		{fmt.Errorf("wrapped: %w", context.Canceled), ErrorKindAborted},
		{fmt.Errorf("wrapped: %w", ErrDeviceBusy), ErrorKindBusy},
		{errors.New("something odd"), ErrorKindUnknown},
	}

	for _, c := range cases {
		t.Run(c.in.Error(), func(t *testing.T) {
			var actual *AcquisitionError
			require.True(t, errors.As(ClassifyError(c.in), &actual))
			assert.Equal(t, c.expected, actual.Kind)
			assert.Equal(t, c.in.Error(), actual.Error())
		})
	}
}

func TestClassifyError_keepsAcquisitionErrors(t *testing.T) {
	given := NewAcquisitionError(ErrorKindPermissionDenied, errors.New("nope"))

	assert.Same(t, given, ClassifyError(given))
	assert.Nil(t, ClassifyError(nil))
}

func TestAcquisitionError_Is(t *testing.T) {
	err := fmt.Errorf("cannot acquire: %w", NewAcquisitionError(ErrorKindPermissionDenied, errors.New("NotAllowedError")))

	assert.ErrorIs(t, err, ErrPermissionDenied)
	assert.NotErrorIs(t, err, ErrDeviceBusy)
	assert.Equal(t, "acquisition aborted", NewAcquisitionError(ErrorKindAborted, nil).Error())
	assert.Equal(t, "", NewAcquisitionError(ErrorKindUnknown, nil).Error())
}
