package validation

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

// TestCheckFilename tests the rejection reasons of [CheckFilename].
func TestCheckFilename(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name     string
		filename string
		expected error
	}{
		{name: "Success_Letters", filename: "report", expected: nil},
		{name: "Success_LettersDigitsSpace", filename: "Report 2024 final.txt", expected: nil},
		{name: "Success_Umlauts_Lower", filename: "übung-ä-ö.pdf", expected: nil},
		{name: "Success_Umlauts_Upper", filename: "ÜBUNG-Ä-Ö.pdf", expected: nil},
		{name: "Success_Latin1", filename: "café-ñ.txt", expected: nil},
		{name: "Success_SingleDot", filename: "a.b.c", expected: nil},
		{name: "Fail_Empty", filename: "", expected: ErrFilenameEmpty},
		{name: "Fail_Traversal", filename: "..", expected: ErrFilenameTraversal},
		{name: "Fail_TraversalInside", filename: "a..b", expected: ErrFilenameTraversal},
		{name: "Fail_NotLatin1", filename: "日本.txt", expected: ErrFilenameNotPrintable},
		{name: "Fail_Control", filename: "a\x01b", expected: ErrFilenameNotPrintable},
		{name: "Fail_Newline", filename: "a\nb", expected: ErrFilenameNotPrintable},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			err := CheckFilename(tt.filename)
			if tt.expected == nil {
				assert.NoError(t, err)
			} else {
				assert.ErrorIs(t, err, tt.expected)
			}
		})
	}
}

// TestValidateFilename_ForbiddenChars tests that every filesystem-hostile
// character is rejected on its own and within a name.
func TestValidateFilename_ForbiddenChars(t *testing.T) {
	t.Parallel()

	for _, r := range []rune{'/', '\n', '\r', '\t', '\f', '`', '?', '*', '\\', '<', '>', '|', '"', ':'} {
		assert.False(t, ValidateFilename(string(r)), "%q must be rejected", r)
		assert.False(t, ValidateFilename("name"+string(r)+"name"), "%q must be rejected", r)
	}
}

// TestValidateFilename_PrintableASCII tests that all ASCII letters and digits
// are accepted.
func TestValidateFilename_PrintableASCII(t *testing.T) {
	t.Parallel()

	for r := 'a'; r <= 'z'; r++ {
		assert.True(t, ValidateFilename(string(r)))
	}
	for r := 'A'; r <= 'Z'; r++ {
		assert.True(t, ValidateFilename(string(r)))
	}
	for r := '0'; r <= '9'; r++ {
		assert.True(t, ValidateFilename(string(r)))
	}
	assert.True(t, ValidateFilename(" "))
}

// TestRuneTablesSorted tests that the lookup tables are sorted once, which
// the binary searches rely on.
func TestRuneTablesSorted(t *testing.T) {
	t.Parallel()

	assert.IsNonDecreasing(t, forbiddenRunes)
	assert.IsNonDecreasing(t, acceptedRunes)
}
