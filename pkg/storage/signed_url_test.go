package storage

import (
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestSignedURLSignerRoundTrip(t *testing.T) {
	signer := NewSignedURLSigner("download-secret", time.Hour)

	token, expiresAt, err := signer.Generate("job-42", "reports/logbook_20260314.xlsx")
	require.NoError(t, err)
	require.NotEmpty(t, token)

	jobID, path, parsedExpiry, err := signer.Parse(token, false)
	require.NoError(t, err)
	require.Equal(t, "job-42", jobID)
	require.Equal(t, "reports/logbook_20260314.xlsx", path)
	require.WithinDuration(t, expiresAt, parsedExpiry, time.Second)
}

func TestSignedURLSignerRejectsTampering(t *testing.T) {
	signer := NewSignedURLSigner("download-secret", time.Hour)
	token, _, err := signer.Generate("job-42", "reports/attendance_20260314.csv")
	require.NoError(t, err)

	parts := strings.Split(token, ".")
	parts[0] = "job-43"
	_, _, _, err = signer.Parse(strings.Join(parts, "."), false)
	require.Error(t, err)

	_, _, _, err = signer.Parse("not-a-token", false)
	require.Error(t, err)
}

func TestSignedURLSignerExpiry(t *testing.T) {
	signer := NewSignedURLSigner("download-secret", 10*time.Millisecond)
	token, _, err := signer.Generate("job-42", "reports/logbook_20260314.pdf")
	require.NoError(t, err)
	time.Sleep(20 * time.Millisecond)

	_, _, _, err = signer.Parse(token, false)
	require.Error(t, err)

	jobID, path, _, err := signer.Parse(token, true)
	require.NoError(t, err)
	require.Equal(t, "job-42", jobID)
	require.Equal(t, "reports/logbook_20260314.pdf", path)
}
