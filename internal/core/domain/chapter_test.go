package domain

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestChapterSpan_Label(t *testing.T) {
	tests := []struct {
		number   string
		expected string
	}{
		{"1", "Chapter 1"},
		{"12", "Chapter 12"},
		{"PREFACE", "PREFACE"},
		{"Epilogue", "Epilogue"},
		{"", ""},
		{"3a", "3a"},
	}

	for _, tt := range tests {
		t.Run(tt.number, func(t *testing.T) {
			assert.Equal(t, tt.expected, ChapterSpan{Number: tt.number}.Label())
		})
	}
}

func TestChapterOutcome_Succeeded(t *testing.T) {
	assert.True(t, ChapterOutcome{Output: "ok"}.Succeeded())
	assert.False(t, ChapterOutcome{Failed: true}.Succeeded())
	assert.False(t, ChapterOutcome{Skipped: true}.Succeeded())
}

func TestProgress_Fraction(t *testing.T) {
	assert.InDelta(t, 0.0, Progress{Step: 1, Total: 0}.Fraction(), 1e-9)
	assert.InDelta(t, 0.5, Progress{Step: 2, Total: 4}.Fraction(), 1e-9)
	assert.InDelta(t, 1.0, Progress{Step: 4, Total: 4}.Fraction(), 1e-9)
}
