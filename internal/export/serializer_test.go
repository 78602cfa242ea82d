package export

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fittrack/privacy-rights-api/internal/export/model"
	udmodel "github.com/fittrack/privacy-rights-api/internal/userdata/model"
)

func sampleBundle() *udmodel.ExportBundle {
	return &udmodel.ExportBundle{
		UserID: "user-1",
		Profile: map[string]interface{}{
			"USER_ID": "user-1",
			"EMAIL":   "runner@example.com",
		},
		Workouts: []map[string]interface{}{
			{"SESSION_ID": "w-1", "ACTIVITY_TYPE": "RUN", "CALORIES": int64(450)},
			{"SESSION_ID": "w-2", "ACTIVITY_TYPE": "SWIM", "CALORIES": int64(300)},
		},
		HealthMetrics: []map[string]interface{}{},
		NutritionLogs: nil,
		CollectedTime: 1700000000000,
	}
}

func TestSerializeJSON(t *testing.T) {
	payload, err := serializeBundle(sampleBundle(), model.ExportFormatJSON)
	require.NoError(t, err)

	body := string(payload)
	assert.Contains(t, body, `"userId": "user-1"`)
	assert.Contains(t, body, "runner@example.com")
	assert.Contains(t, body, "SWIM")
}

func TestSerializeCSV(t *testing.T) {
	payload, err := serializeBundle(sampleBundle(), model.ExportFormatCSV)
	require.NoError(t, err)

	body := string(payload)
	assert.Contains(t, body, "#,PROFILE")
	assert.Contains(t, body, "#,WORKOUTS")
	// Header columns come out sorted.
	assert.Contains(t, body, "ACTIVITY_TYPE,CALORIES,SESSION_ID")
	assert.Contains(t, body, "RUN,450,w-1")

	// Empty sections emit only their title block.
	lines := strings.Split(strings.TrimSpace(body), "\n")
	assert.Contains(t, lines, "#,HEALTH_METRICS")
	assert.Contains(t, lines, "#,NUTRITION_LOGS")
}

func TestSerializePDF(t *testing.T) {
	payload, err := serializeBundle(sampleBundle(), model.ExportFormatPDF)
	require.NoError(t, err)

	require.NotEmpty(t, payload)
	assert.Equal(t, "%PDF", string(payload[:4]))
}

func TestSerializeUnknownFormat(t *testing.T) {
	_, err := serializeBundle(sampleBundle(), model.ExportFormat("XML"))
	assert.Error(t, err)
}
