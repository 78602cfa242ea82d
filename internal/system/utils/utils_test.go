package utils

import (
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTimeConversions(t *testing.T) {
	ts := time.Date(2026, 3, 15, 10, 30, 0, 0, time.UTC)
	millis := TimeToMillis(ts)
	assert.True(t, MillisToTime(millis).Equal(ts))

	assert.Equal(t, int64(86400000), DaysToMillis(1))
	assert.Equal(t, DaysToMillis(30), MonthsToMillis(1))
	assert.Equal(t, DaysToMillis(360), MonthsToMillis(12))
}

func TestValidateUserID(t *testing.T) {
	assert.NoError(t, ValidateUserID("user-1"))
	assert.Error(t, ValidateUserID(""))
	assert.Error(t, ValidateUserID(strings.Repeat("x", 256)))
}

func TestValidatePagination(t *testing.T) {
	assert.NoError(t, ValidatePagination(30, 0))
	assert.Error(t, ValidatePagination(0, 0))
	assert.Error(t, ValidatePagination(101, 0))
	assert.Error(t, ValidatePagination(30, -1))
}

func TestValidateRequestID(t *testing.T) {
	assert.NoError(t, ValidateRequestID(GenerateUUID()))
	assert.Error(t, ValidateRequestID(""))
	assert.Error(t, ValidateRequestID("not-a-uuid"))
}

func TestGenerateConfirmationToken(t *testing.T) {
	token, err := GenerateConfirmationToken()
	require.NoError(t, err)
	assert.Len(t, token, 64)

	other, err := GenerateConfirmationToken()
	require.NoError(t, err)
	assert.NotEqual(t, token, other)
}

func TestAnonymizedPlaceholder(t *testing.T) {
	assert.True(t, strings.HasPrefix(AnonymizedPlaceholder("firstName"), "anon-"))
	assert.True(t, strings.HasSuffix(AnonymizedPlaceholder("contactEmail"), "@anonymized.invalid"))
}

func TestSanitizeString(t *testing.T) {
	assert.Equal(t, "hello", SanitizeString("  hello\x00  "))
	assert.Equal(t, "&lt;b&gt;bold&lt;/b&gt;", SanitizeString("<b>bold</b>"))
}
