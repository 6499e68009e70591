package export

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func sheet() Dataset {
	return Dataset{
		Title:   "Assignments",
		Headers: []string{"tutor", "status"},
		Rows: []map[string]string{
			{"tutor": "T-1", "status": "pending"},
			{"tutor": "T-2"},
		},
	}
}

func TestRenderCSV(t *testing.T) {
	out, err := Render(sheet(), FormatCSV)
	require.NoError(t, err)
	assert.Equal(t, "tutor,status\nT-1,pending\nT-2,\n", string(out))
}

func TestRenderPDF(t *testing.T) {
	out, err := Render(sheet(), FormatPDF)
	require.NoError(t, err)
	assert.True(t, bytes.HasPrefix(out, []byte("%PDF")))
}

func TestRenderRejectsUnknownFormat(t *testing.T) {
	_, err := Render(sheet(), Format("xlsx"))
	require.Error(t, err)

	_, err = Render(Dataset{}, FormatCSV)
	require.Error(t, err)
}
