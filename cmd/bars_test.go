package cmd

import (
	"bytes"
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/skovera/desk/internal/domain"
)

func TestBarsCmd(t *testing.T) {
	marketSvc, _, _ := testServices(t)

	cmd := newBarsCmd(barsOptions{market: marketSvc, interval: "1d", limit: 10, jsonMode: true})

	var out bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetArgs([]string{"AAPL"})

	err := cmd.Execute()
	require.NoError(t, err)

	var bars []domain.Bar
	require.NoError(t, json.Unmarshal(out.Bytes(), &bars))
	assert.Len(t, bars, 10)
	for i := 1; i < len(bars); i++ {
		assert.True(t, bars[i].Time.After(bars[i-1].Time), "bars should be ascending")
	}
}

func TestMoversCmd(t *testing.T) {
	marketSvc, _, _ := testServices(t)

	cmd := newMoversCmd(moversOptions{market: marketSvc})

	var out bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetArgs([]string{"actives"})

	err := cmd.Execute()
	require.NoError(t, err)
	assert.Contains(t, out.String(), "Symbol")
	assert.Contains(t, out.String(), "AAPL")
}
