package output

import (
	"bytes"
	"encoding/json"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTable_AlignsNumericColumnsRight(t *testing.T) {
	var buf bytes.Buffer
	f := New(&buf, false)

	err := f.Table(
		[]string{"Symbol", "Price", "Change"},
		[][]string{
			{"AAPL", "$189.75", "+1.25%"},
			{"BRK.B", "$412.10", "-0.40%"},
		},
	)
	require.NoError(t, err)

	lines := strings.Split(strings.TrimRight(buf.String(), "\n"), "\n")
	require.Len(t, lines, 4)
	assert.Equal(t, "Symbol    Price  Change", lines[0])
	assert.Equal(t, "------  -------  ------", lines[1])
	assert.Equal(t, "AAPL    $189.75  +1.25%", lines[2])
	assert.Equal(t, "BRK.B   $412.10  -0.40%", lines[3])
}

func TestTable_TextColumnsStayLeftAligned(t *testing.T) {
	var buf bytes.Buffer
	f := New(&buf, false)

	err := f.Table(
		[]string{"ID", "Status"},
		[][]string{
			{"ord-1", "filled"},
			{"ord-22", "new"},
		},
	)
	require.NoError(t, err)

	lines := strings.Split(strings.TrimRight(buf.String(), "\n"), "\n")
	require.Len(t, lines, 4)
	// Mixed-content columns keep text alignment even when cells shrink.
	assert.Equal(t, "ord-1   filled", lines[2])
	assert.Equal(t, "ord-22  new", lines[3])
}

func TestTable_PlaceholderDoesNotBreakNumericDetection(t *testing.T) {
	var buf bytes.Buffer
	f := New(&buf, false)

	// Zero volume renders as "-"; the column is still numeric.
	err := f.Table(
		[]string{"Symbol", "Volume"},
		[][]string{
			{"AAPL", "52,164,500"},
			{"XYZ", "-"},
		},
	)
	require.NoError(t, err)

	lines := strings.Split(strings.TrimRight(buf.String(), "\n"), "\n")
	assert.Equal(t, "AAPL    52,164,500", lines[2])
	assert.Equal(t, "XYZ              -", lines[3])
}

func TestTable_EmptyRowsStillPrintHeader(t *testing.T) {
	var buf bytes.Buffer
	f := New(&buf, false)

	require.NoError(t, f.Table([]string{"Symbol", "Price"}, nil))

	lines := strings.Split(strings.TrimRight(buf.String(), "\n"), "\n")
	require.Len(t, lines, 2)
	assert.Equal(t, "Symbol  Price", lines[0])
	assert.Equal(t, "------  -----", lines[1])
}

func TestTable_ShortRowPadsMissingCells(t *testing.T) {
	var buf bytes.Buffer
	f := New(&buf, false)

	err := f.Table(
		[]string{"Symbol", "Name", "Region"},
		[][]string{{"AAPL", "Apple Inc"}},
	)
	require.NoError(t, err)
	assert.Contains(t, buf.String(), "AAPL    Apple Inc")
}

func TestTable_JSONModeEmitsRowObjects(t *testing.T) {
	var buf bytes.Buffer
	f := New(&buf, true)

	err := f.Table(
		[]string{"Symbol", "Price"},
		[][]string{
			{"AAPL", "$189.75"},
			{"MSFT"},
		},
	)
	require.NoError(t, err)

	var rows []map[string]string
	require.NoError(t, json.Unmarshal(buf.Bytes(), &rows))
	require.Len(t, rows, 2)
	assert.Equal(t, map[string]string{"Symbol": "AAPL", "Price": "$189.75"}, rows[0])
	assert.Equal(t, map[string]string{"Symbol": "MSFT", "Price": ""}, rows[1])
}

func TestPrint_JSONModeIndents(t *testing.T) {
	var buf bytes.Buffer
	f := New(&buf, true)

	require.NoError(t, f.Print(map[string]string{"symbol": "AAPL"}))
	assert.Equal(t, "{\n  \"symbol\": \"AAPL\"\n}\n", buf.String())
}

func TestPrint_TextModeFallsBackToPlainString(t *testing.T) {
	var buf bytes.Buffer
	f := New(&buf, false)

	require.NoError(t, f.Print("order ord-1 canceled"))
	assert.Equal(t, "order ord-1 canceled\n", buf.String())
}

func TestLooksNumeric(t *testing.T) {
	for _, s := range []string{"42", "-0.5", "$189.75", "+1.25%", "-$12.40", "52,164,500"} {
		assert.True(t, looksNumeric(s), s)
	}
	for _, s := range []string{"AAPL", "$", "", "1.2.3", "n/a"} {
		assert.False(t, looksNumeric(s), s)
	}
}
