package export

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestCSVExporterRender(t *testing.T) {
	exporter := NewCSVExporter()
	data := Dataset{
		Headers: []string{"Applicant", "Status"},
		Rows: []map[string]string{
			{"Applicant": "Jamie", "Status": "PENDING"},
			{"Applicant": "Alex"},
		},
	}

	out, err := exporter.Render(data)
	require.NoError(t, err)
	require.Equal(t, "Applicant,Status\nJamie,PENDING\nAlex,\n", string(out))
}

func TestCSVExporterRejectsEmptyHeaders(t *testing.T) {
	exporter := NewCSVExporter()
	_, err := exporter.Render(Dataset{})
	require.Error(t, err)
}

func TestPDFExporterRender(t *testing.T) {
	exporter := NewPDFExporter()
	data := Dataset{
		Headers: []string{"Applicant", "Status"},
		Rows:    []map[string]string{{"Applicant": "Jamie", "Status": "APPROVED"}},
	}

	out, err := exporter.Render(data, "Leave Applications")
	require.NoError(t, err)
	require.True(t, len(out) > 0)
	require.Equal(t, "%PDF", string(out[:4]))
}
