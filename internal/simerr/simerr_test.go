package simerr

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestConfigErr_UnwrapsToCause(t *testing.T) {
	cause := errors.New("file not found")
	err := error(&ConfigErr{Detail: "reading jobs file", Cause: cause})

	assert.ErrorIs(t, err, cause)
	assert.Contains(t, err.Error(), "reading jobs file")
	assert.Contains(t, err.Error(), "file not found")
}

func TestConfigErr_NoCause(t *testing.T) {
	err := &ConfigErr{Detail: "missing required key schedulers.default"}

	assert.Equal(t, "config error: missing required key schedulers.default", err.Error())
}

func TestResourceExhaustedErr_Message(t *testing.T) {
	err := &ResourceExhaustedErr{JobSignature: "3:job", Requested: 64, Capacity: 32}

	assert.Contains(t, err.Error(), "3:job")
	assert.Contains(t, err.Error(), "64")
	assert.Contains(t, err.Error(), "32")
}

func TestDeadlockErr_Message(t *testing.T) {
	err := &DeadlockErr{HeadJobSignature: "1:job", Unmet: "needs 16 processors"}

	assert.Contains(t, err.Error(), "1:job")
	assert.Contains(t, err.Error(), "needs 16 processors")
}

func TestMissingPairingErr_Message(t *testing.T) {
	err := &MissingPairingErr{A: "train", B: "infer"}

	assert.Contains(t, err.Error(), `"train"`)
	assert.Contains(t, err.Error(), `"infer"`)
}

func TestNonconvergentSpeedupErr_Message(t *testing.T) {
	err := &NonconvergentSpeedupErr{JobSignature: "2:job", Speedup: -1.0}

	assert.Contains(t, err.Error(), "2:job")
	assert.Contains(t, err.Error(), "-1")
}

func TestLoggerIOErr_UnwrapsToCause(t *testing.T) {
	cause := fmt.Errorf("disk full")
	err := error(&LoggerIOErr{Cause: cause})

	assert.ErrorIs(t, err, cause)
	assert.Contains(t, err.Error(), "disk full")
}

func TestErrorsAs_DistinguishesKinds(t *testing.T) {
	var err error = &ResourceExhaustedErr{JobSignature: "x", Requested: 1, Capacity: 0}

	var cfgErr *ConfigErr
	assert.False(t, errors.As(err, &cfgErr))

	var resErr *ResourceExhaustedErr
	assert.True(t, errors.As(err, &resErr))
}
