package rag

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestSplitScenario(t *testing.T) {
	text := strings.Repeat("abcdefghij", 250)
	chunks, err := Split(text, 1000, 200)
	require.NoError(t, err)
	require.Len(t, chunks, 3)
	require.Equal(t, text[0:1000], chunks[0])
	require.Equal(t, text[800:1800], chunks[1])
	require.Equal(t, text[1600:2500], chunks[2])
}

func TestSplitReconstruction(t *testing.T) {
	cases := []struct {
		name    string
		length  int
		size    int
		overlap int
	}{
		{"exact_multiple", 3000, 1000, 0},
		{"short_text", 10, 1000, 200},
		{"small_window", 97, 10, 3},
		{"tail_equals_overlap", 1000, 400, 200},
		{"large_overlap", 500, 100, 99},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			text := strings.Repeat("x", tc.length/2) + strings.Repeat("y", tc.length-tc.length/2)
			chunks, err := Split(text, tc.size, tc.overlap)
			require.NoError(t, err)
			require.NotEmpty(t, chunks)
			step := tc.size - tc.overlap
			require.LessOrEqual(t, len(chunks), (tc.length+step-1)/step)

			var sb strings.Builder
			for i, c := range chunks {
				require.LessOrEqual(t, len(c), tc.size)
				if i == len(chunks)-1 {
					sb.WriteString(c)
					continue
				}
				sb.WriteString(c[:step])
			}
			require.Equal(t, text, sb.String())
		})
	}
}

func TestSplitCountsRunes(t *testing.T) {
	text := strings.Repeat("估值", 15)
	chunks, err := Split(text, 10, 2)
	require.NoError(t, err)
	require.Len(t, chunks, 4)
	for _, c := range chunks {
		require.LessOrEqual(t, len([]rune(c)), 10)
	}
	require.Equal(t, []rune(text)[24:30], []rune(chunks[3]))
}

func TestSplitEmpty(t *testing.T) {
	chunks, err := Split("", 1000, 200)
	require.NoError(t, err)
	require.Empty(t, chunks)
}

func TestSplitInvalid(t *testing.T) {
	_, err := Split("text", 200, 200)
	require.ErrorIs(t, err, ErrInvalidChunking)
	_, err = Split("text", 100, -1)
	require.ErrorIs(t, err, ErrInvalidChunking)

	var n int
	for range Windows("text", 0, 0) {
		n++
	}
	require.Zero(t, n)
}

func TestWindowsStopsEarly(t *testing.T) {
	var got []string
	for piece := range Windows(strings.Repeat("a", 100), 10, 0) {
		got = append(got, piece)
		if len(got) == 2 {
			break
		}
	}
	require.Len(t, got, 2)
}
