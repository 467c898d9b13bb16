package export

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCSVRender(t *testing.T) {
	data := Dataset{
		Headers: []string{"Name", "Reg No", "Department", "Lab", "System No", "Time In", "Time Out", "Date"},
		Rows: [][]string{
			{"Asha Rao", "20CS101", "CSE", "Computer Lab", "7", "09:00:00", "10:30:00", "2024-03-14"},
			{"Vikram Iyer", "20EC042", "ECE", "Computer Lab", "12", "09:15:00"},
		},
	}

	out, err := NewCSVExporter().Render(data)
	require.NoError(t, err)

	want := "Name,Reg No,Department,Lab,System No,Time In,Time Out,Date\n" +
		"Asha Rao,20CS101,CSE,Computer Lab,7,09:00:00,10:30:00,2024-03-14\n" +
		"Vikram Iyer,20EC042,ECE,Computer Lab,12,09:15:00,,\n"
	assert.Equal(t, want, string(out))
}

func TestCSVRenderRequiresHeaders(t *testing.T) {
	_, err := NewCSVExporter().Render(Dataset{})

	assert.Error(t, err)
}

func TestPDFRender(t *testing.T) {
	data := Dataset{
		Headers: []string{"Name", "Reg No"},
		Rows:    [][]string{{"Asha Rao", "20CS101"}},
	}

	out, err := NewPDFExporter().Render(data, "Lab Entries")
	require.NoError(t, err)

	assert.True(t, len(out) > 0)
	assert.Equal(t, "%PDF", string(out[:4]))
}
