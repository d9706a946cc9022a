package validation_test

import (
	"testing"

	"github.com/attrieng/engine/internal/validation"
	"github.com/stretchr/testify/assert"
)

func TestValidateSessionID(t *testing.T) {
	assert.NoError(t, validation.ValidateSessionID("abc-123"))
	assert.Error(t, validation.ValidateSessionID(""))
	assert.Error(t, validation.ValidateSessionID("../etc/passwd"))
	assert.Error(t, validation.ValidateSessionID("a/b"))
}

func TestValidateRecordID(t *testing.T) {
	assert.NoError(t, validation.ValidateRecordID("1738351200000-a1b2c3d4"))
	assert.Error(t, validation.ValidateRecordID(""))
	assert.Error(t, validation.ValidateRecordID("has a space"))
}

func TestValidateReportID(t *testing.T) {
	assert.NoError(t, validation.ValidateReportID("1738351200000-a1b2c3d4"))
	assert.Error(t, validation.ValidateReportID(""))
}
