package model

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestExportTransitions(t *testing.T) {
	testCases := []struct {
		from    ExportStatus
		to      ExportStatus
		allowed bool
	}{
		{ExportStatusPending, ExportStatusProcessing, true},
		{ExportStatusProcessing, ExportStatusCompleted, true},
		{ExportStatusProcessing, ExportStatusFailed, true},
		{ExportStatusCompleted, ExportStatusExpired, true},
		{ExportStatusPending, ExportStatusCompleted, false},
		{ExportStatusCompleted, ExportStatusProcessing, false},
		{ExportStatusFailed, ExportStatusProcessing, false},
		{ExportStatusExpired, ExportStatusCompleted, false},
	}

	for _, tc := range testCases {
		assert.Equal(t, tc.allowed, tc.from.CanTransition(tc.to),
			"%s -> %s", tc.from, tc.to)
	}
}

func TestExportFormat(t *testing.T) {
	assert.True(t, ExportFormatJSON.IsValid())
	assert.True(t, ExportFormatCSV.IsValid())
	assert.True(t, ExportFormatPDF.IsValid())
	assert.False(t, ExportFormat("XML").IsValid())

	assert.Equal(t, "json", ExportFormatJSON.Extension())
	assert.Equal(t, "csv", ExportFormatCSV.Extension())
	assert.Equal(t, "pdf", ExportFormatPDF.Extension())

	assert.Equal(t, "application/json", ExportFormatJSON.ContentType())
	assert.Equal(t, "text/csv", ExportFormatCSV.ContentType())
	assert.Equal(t, "application/pdf", ExportFormatPDF.ContentType())
}
