package rawsheet

import (
	"fmt"
	"strconv"
)

// MaxColumns is the widest sheet a workbook can describe (column XFD).
const MaxColumns = 16384

// ColumnIndex converts column letters to a 1-based index: A=1, Z=26, AA=27.
// It returns 0 for an empty or non-letter input.
func ColumnIndex(letters string) int {
	if letters == "" {
		return 0
	}
	n := 0
	for i := 0; i < len(letters); i++ {
		c := letters[i]
		if c >= 'a' && c <= 'z' {
			c -= 'a' - 'A'
		}
		if c < 'A' || c > 'Z' {
			return 0
		}
		n = n*26 + int(c-'A'+1)
		if n > MaxColumns {
			return 0
		}
	}
	return n
}

// ColumnLetters is the inverse of ColumnIndex.
func ColumnLetters(n int) string {
	var b []byte
	for n > 0 {
		n--
		b = append([]byte{byte('A' + n%26)}, b...)
		n /= 26
	}
	return string(b)
}

// SplitRef splits a cell reference such as "C7" into its 1-based row and
// column.
func SplitRef(ref string) (row, col int, err error) {
	i := 0
	for i < len(ref) && ((ref[i] >= 'A' && ref[i] <= 'Z') || (ref[i] >= 'a' && ref[i] <= 'z')) {
		i++
	}
	if i == 0 || i == len(ref) {
		return 0, 0, fmt.Errorf("invalid cell reference %q", ref)
	}
	col = ColumnIndex(ref[:i])
	if col == 0 {
		return 0, 0, fmt.Errorf("invalid column in cell reference %q", ref)
	}
	row, err = strconv.Atoi(ref[i:])
	if err != nil || row < 1 {
		return 0, 0, fmt.Errorf("invalid row in cell reference %q", ref)
	}
	return row, col, nil
}
