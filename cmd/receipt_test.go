package cmd

import (
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewExtractor(t *testing.T) {
	extractor, err := newExtractor("2025-04-05")
	require.NoError(t, err)
	assert.Equal(t, "2025-04-05", extractor.Extract("no date here").TransactionDate)

	_, err = newExtractor("04/05/2025")
	assert.ErrorContains(t, err, "expected yyyy-mm-dd")

	extractor, err = newExtractor("")
	require.NoError(t, err)
	assert.NotNil(t, extractor)
}

func TestReceiptCommandTextInput(t *testing.T) {
	dir := t.TempDir()
	input := filepath.Join(dir, "receipt.txt")
	output := filepath.Join(dir, "receipt.json")
	require.NoError(t, os.WriteFile(input, []byte("QUICKPRINT ENTERPRISES\nOffice Chair 1500.00\nTOTAL AMOUNT DUE: 1,500.00\n"), 0644))

	rootCmd.SetArgs([]string{"receipt", input, "--text", "--today", "2025-04-05", "--raw", "-o", output})
	require.NoError(t, rootCmd.Execute())

	data, err := os.ReadFile(output)
	require.NoError(t, err)

	var got ReceiptOutput
	require.NoError(t, json.Unmarshal(data, &got))

	assert.Equal(t, "QUICKPRINT ENTERPRISES", got.Receipt.Supplier)
	assert.Equal(t, "2025-04-05", got.Receipt.TransactionDate)
	assert.InDelta(t, 1500.0, got.Receipt.TotalAmountDue, 1e-9)
	require.Len(t, got.Receipt.Items, 1)
	assert.Equal(t, "Office Chair", got.Receipt.Items[0].ItemName)
	assert.Empty(t, got.Warnings)
	assert.Contains(t, got.RawText, "QUICKPRINT ENTERPRISES")
	assert.Equal(t, "text", got.Metadata.Source)
	assert.Equal(t, "receipt.txt", got.Metadata.FileName)
	assert.Empty(t, got.Metadata.OCRProvider)
}
