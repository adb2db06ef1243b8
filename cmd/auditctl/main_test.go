package main

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"recibo/internal/model"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeFile(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))
	return path
}

func runApp(t *testing.T, args ...string) (string, string, error) {
	t.Helper()
	var stdout, stderr bytes.Buffer
	app := newApp(&stdout)
	app.ErrWriter = &stderr
	err := app.Run(append([]string{"auditctl"}, args...))
	return stdout.String(), stderr.String(), err
}

func TestVerifyCommand(t *testing.T) {
	cart := `[{"id":1,"name":"Milk","price":"3.00"},{"id":2,"name":"Bread","price":"2.50"}]`

	tests := []struct {
		name          string
		receipt       string
		verified      bool
		discrepancies []model.Discrepancy
	}{
		{
			name:          "Clean receipt",
			receipt:       "MILK 3.00\nBREAD 2.50\nTOTAL 5.50",
			verified:      true,
			discrepancies: []model.Discrepancy{},
		},
		{
			name:     "Double scanned milk",
			receipt:  "MILK 3.00\nMILK 3.00\nBREAD 2.50",
			verified: false,
			discrepancies: []model.Discrepancy{
				{ItemName: "Milk", Issue: "found 2× on receipt, 1× in cart"},
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			out, _, err := runApp(t, "verify",
				"--receipt", writeFile(t, "receipt.txt", tt.receipt),
				"--cart", writeFile(t, "cart.json", cart),
				"--store", "Corner Market")
			require.NoError(t, err)

			var verdict model.Verdict
			require.NoError(t, json.Unmarshal([]byte(out), &verdict))
			assert.Equal(t, tt.verified, verdict.Verified)
			assert.Equal(t, tt.discrepancies, verdict.Discrepancies)
		})
	}
}

func TestVerifyCommand_ShortReceiptDegrades(t *testing.T) {
	out, stderr, err := runApp(t, "verify",
		"--receipt", writeFile(t, "receipt.txt", " "),
		"--cart", writeFile(t, "cart.json", `[]`))
	require.NoError(t, err)

	assert.Contains(t, stderr, "audit degraded")
	var verdict model.Verdict
	require.NoError(t, json.Unmarshal([]byte(out), &verdict))
	assert.False(t, verdict.Verified)
	assert.Empty(t, verdict.Discrepancies)
}

func TestVerifyCommand_Errors(t *testing.T) {
	receipt := writeFile(t, "receipt.txt", "MILK 3.00")

	_, _, err := runApp(t, "verify", "--receipt", receipt, "--cart", filepath.Join(t.TempDir(), "missing.json"))
	assert.ErrorContains(t, err, "failed to read cart")

	_, _, err = runApp(t, "verify", "--receipt", receipt, "--cart", writeFile(t, "cart.json", "{not json"))
	assert.ErrorContains(t, err, "failed to parse cart")

	_, _, err = runApp(t, "verify", "--cart", writeFile(t, "cart.json", "[]"))
	assert.Error(t, err)
}

func TestDatabaseCommands_RequireURL(t *testing.T) {
	t.Setenv("DATABASE_URL", "")

	for _, args := range [][]string{
		{"list"},
		{"ping"},
		{"show", "8f1d2f0e-3c39-4c53-9d55-0f8e2a3a1b7c"},
	} {
		_, _, err := runApp(t, args...)
		assert.ErrorContains(t, err, "database url is required", args[0])
	}
}

func TestShowCommand_InvalidID(t *testing.T) {
	_, _, err := runApp(t, "show", "not-a-uuid")
	assert.ErrorContains(t, err, "invalid audit id")
}
