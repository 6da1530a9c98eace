package chunker

import (
	"strings"
	"testing"
	"unicode/utf8"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSentences(t *testing.T) {
	tests := []struct {
		name string
		text string
		want []string
	}{
		{"empty", "   ", nil},
		{"single without punctuation", "just a phrase", []string{"just a phrase"}},
		{"mixed punctuation", "Is it? Yes! It is.  Done.", []string{"Is it?", "Yes!", "It is.", "Done."}},
		{"newlines count as whitespace", "First line.\nSecond line.", []string{"First line.", "Second line."}},
		{"decimal is not a boundary", "Pi is 3.14 roughly. Ok.", []string{"Pi is 3.14 roughly.", "Ok."}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Sentences(tt.text))
		})
	}
}

func TestSplit_EmptyInput(t *testing.T) {
	for _, in := range []string{"", "  \n\t "} {
		got := Split(in, 800, 150)
		require.NotNil(t, got)
		assert.Empty(t, got)
	}
}

func TestSplit_PacksGreedily(t *testing.T) {
	text := "Aaaa. Bbbb. Cccc. Dddd."
	got := Split(text, 11, 0)
	assert.Equal(t, []string{"Aaaa. Bbbb.", "Cccc. Dddd."}, got)
}

func TestSplit_FitsExactly(t *testing.T) {
	got := Split("Aaaa. Bbbb.", 11, 0)
	assert.Equal(t, []string{"Aaaa. Bbbb."}, got)
}

func TestSplit_Overlap(t *testing.T) {
	got := Split("Aa. Bb. Cc. Dd.", 8, 3)
	assert.Equal(t, []string{"Aa. Bb.", "Bb. Cc.", "Cc. Dd."}, got)
}

func TestSplit_OverlapDisabled(t *testing.T) {
	got := Split("Aa. Bb. Cc. Dd.", 8, 0)
	assert.Equal(t, []string{"Aa. Bb.", "Cc. Dd."}, got)
}

func TestSplit_OverlapNeverOverflows(t *testing.T) {
	// The carried sentence would fit the overlap budget but not the chunk.
	text := "Short one. " + strings.Repeat("x", 15) + "."
	got := Split(text, 18, 15)
	require.Len(t, got, 2)
	assert.Equal(t, "Short one.", got[0])
	assert.Equal(t, strings.Repeat("x", 15)+".", got[1])
}

func TestSplit_LongSentenceKeptWhole(t *testing.T) {
	long := strings.Repeat("word ", 50) + "end."
	text := "Intro. " + long + " Outro."
	got := Split(text, 40, 0)
	require.Len(t, got, 3)
	assert.Equal(t, "Intro.", got[0])
	assert.Equal(t, strings.TrimSpace(long), got[1])
	assert.Equal(t, "Outro.", got[2])
}

func TestSplit_BoundHolds(t *testing.T) {
	var b strings.Builder
	for i := 0; i < 200; i++ {
		b.WriteString(strings.Repeat("lorem ", i%17+1))
		b.WriteString("ipsum. ")
	}
	text := b.String()

	for _, params := range [][2]int{{800, 150}, {100, 30}, {60, 0}} {
		maxChars, overlap := params[0], params[1]
		for _, c := range Split(text, maxChars, overlap) {
			n := utf8.RuneCountInString(c)
			if n > maxChars {
				// Only a single oversized sentence may exceed the bound.
				assert.Len(t, Sentences(c), 1, "chunk of %d chars holds multiple sentences", n)
			}
		}
	}
}

func TestDefault(t *testing.T) {
	text := strings.Repeat("The mitochondria is the powerhouse of the cell. ", 40)
	got := Default(text)
	require.NotEmpty(t, got)
	for _, c := range got {
		assert.LessOrEqual(t, utf8.RuneCountInString(c), DefaultMaxChars)
	}
	// Consecutive chunks share their boundary sentence.
	for i := 1; i < len(got); i++ {
		assert.True(t, strings.HasPrefix(got[i], "The mitochondria"))
	}
}
