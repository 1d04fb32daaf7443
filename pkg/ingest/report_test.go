package ingest

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestBuildReport_Histograms(t *testing.T) {
	entries := []Entry{
		{Row: 2, Field: "phone", Kind: KindInvalidFormat, Message: "bad phone"},
		{Row: 4, Field: "phone", Kind: KindDuplicate, Message: "dupe"},
		{Row: 7, Field: "name", Kind: KindTooBig, Message: "long"},
		{Row: SummaryRow, Kind: KindConnection, Message: "lost"},
	}
	r := buildReport(10, 6, 1, entries, &halt{processed: 6, notProcessed: 1})

	require.Equal(t, 10, r.Total)
	require.Equal(t, 6, r.Created)
	require.Equal(t, 3, r.Failed) // sentinel not double-counted
	require.Equal(t, 1, r.Dropped)
	require.Equal(t, 2, r.ErrorsByField["phone"])
	require.Equal(t, 1, r.ErrorsByField["name"])
	require.Equal(t, 1, r.ErrorsByType[KindDuplicate])
	require.Equal(t, 1, r.ErrorsByType[KindConnection])
	require.True(t, r.ConnectionLost)
	require.True(t, r.PartialUpload)
	require.Contains(t, r.Message, "Re-submitting the same file is safe")
}

func TestBuildReport_NoHalt(t *testing.T) {
	r := buildReport(3, 3, 0, nil, nil)
	require.False(t, r.ConnectionLost)
	require.False(t, r.PartialUpload)
	require.Empty(t, r.Message)
	require.Equal(t, 0, r.Failed)
}

func TestSanitize_StripsPathsAndStacks(t *testing.T) {
	msg := "open failed: /usr/local/app/internal/secret.go:42 boom\n\tstack line"
	got := Sanitize(msg)
	require.NotContains(t, got, "/usr/local")
	require.NotContains(t, got, "stack line")
	require.Contains(t, got, "open failed")
}

func TestKindForTag(t *testing.T) {
	cases := map[string]Kind{
		"required":  KindInvalidType,
		"min":       KindTooSmall,
		"max":       KindTooBig,
		"url":       KindInvalidFormat,
		"phone":     KindInvalidFormat,
		"something": KindValidation,
	}
	for tag, want := range cases {
		require.Equal(t, want, KindForTag(tag), "tag %s", tag)
	}
}
