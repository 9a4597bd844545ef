package cmd

import (
	"bytes"
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/skovera/desk/internal/domain"
)

func TestQuoteCmd_SingleSymbol(t *testing.T) {
	marketSvc, _, _ := testServices(t)

	cmd := newQuoteCmd(quoteOptions{market: marketSvc})

	var out bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetArgs([]string{"AAPL"})

	err := cmd.Execute()
	require.NoError(t, err)

	output := out.String()
	assert.Contains(t, output, "AAPL")
	assert.Contains(t, output, "mock")
	assert.Contains(t, output, "$")
}

func TestQuoteCmd_MultipleSymbols(t *testing.T) {
	marketSvc, _, _ := testServices(t)

	cmd := newQuoteCmd(quoteOptions{market: marketSvc})

	var out bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetArgs([]string{"aapl", "googl", "msft"})

	err := cmd.Execute()
	require.NoError(t, err)

	output := out.String()
	assert.Contains(t, output, "AAPL")
	assert.Contains(t, output, "GOOGL")
	assert.Contains(t, output, "MSFT")
}

func TestQuoteCmd_JSONOutput(t *testing.T) {
	marketSvc, _, _ := testServices(t)

	cmd := newQuoteCmd(quoteOptions{market: marketSvc, jsonMode: true})

	var out bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetArgs([]string{"AAPL"})

	err := cmd.Execute()
	require.NoError(t, err)

	var quotes []domain.Quote
	require.NoError(t, json.Unmarshal(out.Bytes(), &quotes))
	require.Len(t, quotes, 1)
	assert.Equal(t, "AAPL", quotes[0].Symbol)
	assert.Greater(t, quotes[0].Price, 0.0)
}

func TestQuoteCmd_NoArgs(t *testing.T) {
	marketSvc, _, _ := testServices(t)

	cmd := newQuoteCmd(quoteOptions{market: marketSvc})
	cmd.SetOut(&bytes.Buffer{})
	cmd.SetErr(&bytes.Buffer{})
	cmd.SetArgs([]string{})

	err := cmd.Execute()
	assert.Error(t, err)
}
