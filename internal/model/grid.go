package model

import "strings"

// The auditorium is a fixed grid: rows A through G, seven seats per row.
// Seat codes are the row letter followed by the column number ("A1".."G7").
const (
	SeatRows   = "ABCDEFG" // row letters in display order
	SeatCols   = 7         // seats per row
	TotalSeats = len(SeatRows) * SeatCols
)

// MaxActivePerDate caps how many movies may be active for the same show
// date at once.
const MaxActivePerDate = 3

// ShowTimes lists the only show slots a movie can be activated into.
// Values use the MySQL TIME format.
var ShowTimes = []string{"10:00:00", "13:00:00", "16:00:00", "19:00:00"}

// ValidShowTime reports whether t is one of the fixed show slots.
func ValidShowTime(t string) bool {
	for _, s := range ShowTimes {
		if s == t {
			return true
		}
	}
	return false
}

// NormalizeSeatCode trims and upper-cases a raw seat code.  It returns the
// canonical form and whether the code addresses a seat on the grid.
func NormalizeSeatCode(raw string) (string, bool) {
	code := strings.ToUpper(strings.TrimSpace(raw))
	if len(code) != 2 {
		return "", false
	}
	row := code[0]
	col := code[1]
	if row < 'A' || row > SeatRows[len(SeatRows)-1] {
		return "", false
	}
	if col < '1' || col > '0'+SeatCols {
		return "", false
	}
	return code, true
}

// ValidSeatCode reports whether code is a well-formed seat code in its
// canonical form.
func ValidSeatCode(code string) bool {
	norm, ok := NormalizeSeatCode(code)
	return ok && norm == code
}

// AllSeatCodes returns every seat code on the grid, row by row.
func AllSeatCodes() []string {
	codes := make([]string, 0, TotalSeats)
	for _, row := range SeatRows {
		for col := 1; col <= SeatCols; col++ {
			codes = append(codes, string(row)+string(rune('0'+col)))
		}
	}
	return codes
}
