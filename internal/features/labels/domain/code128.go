package domain

import (
	"errors"
	"fmt"
)

// ErrUnsupportedChar is returned when the input contains a character outside
// Code 128 subset B (printable ASCII 32..126). Rejecting beats silently
// dropping: a label with a mangled barcode is worse than no label.
var ErrUnsupportedChar = errors.New("unsupported character for code 128 subset B")

const (
	// startCodeB is the Code 128 start symbol for subset B.
	startCodeB = 104
	// stopCode is the Code 128 stop symbol.
	stopCode = 106
	// checksumMod is the modulus for the weighted checksum.
	checksumMod = 103
)

// patterns maps each Code 128 symbol value to its bar/space module pattern.
// Symbols 0..107 are 11 modules wide, including the stop symbol (106); entry
// 108 is the stop with its 2-module termination bar for a total of 13.
var patterns = [109]string{
	"11011001100", "11001101100", "11001100110", "10010011000", "10010001100",
	"10001001100", "10011001000", "10011000100", "10001100100", "11001001000",
	"11001000100", "11000100100", "10110011100", "10011011100", "10011001110",
	"10111001100", "10011101100", "10011100110", "11001110010", "11001011100",
	"11001001110", "11011100100", "11001110100", "11101101110", "11101001100",
	"11100101100", "11100100110", "11101100100", "11100110100", "11100110010",
	"11011011000", "11011000110", "11000110110", "10100011000", "10001011000",
	"10001000110", "10110001000", "10001101000", "10001100010", "11010001000",
	"11000101000", "11000100010", "10110111000", "10110001110", "10001101110",
	"10111011000", "10111000110", "10001110110", "11101110110", "11010001110",
	"11000101110", "11011101000", "11011100010", "11011101110", "11101011000",
	"11101000110", "11100010110", "11101101000", "11101100010", "11100011010",
	"11101111010", "11001000010", "11110001010", "10100110000", "10100001100",
	"10010110000", "10010000110", "10000101100", "10000100110", "10110010000",
	"10110000100", "10011010000", "10011000010", "10000110100", "10000110010",
	"11000010010", "11001010000", "11110111010", "11000010100", "10001111010",
	"10100111100", "10010111100", "10010011110", "10111100100", "10011110100",
	"10011110010", "11110100100", "11110010100", "11110010010", "11011011110",
	"11011110110", "11110110110", "10101111000", "10100011110", "10001011110",
	"10111101000", "10111100010", "11110101000", "11110100010", "10111011110",
	"10111101110", "11101011110", "11110101110", "11010000100", "11010010000",
	"11010011100", "11000111010", "11010111000", "1100011101011",
}

// symbolValues maps text to Code 128B symbol values (char code minus 32).
func symbolValues(text string) ([]int, error) {
	vals := make([]int, 0, len(text))
	for _, c := range []byte(text) {
		if c < 32 || c > 126 {
			return nil, fmt.Errorf("%w: %q", ErrUnsupportedChar, rune(c))
		}
		vals = append(vals, int(c)-32)
	}
	return vals, nil
}

// Encode converts text into the full Code 128B symbol sequence:
// start code, data symbols, weighted checksum and stop code.
// The output is purely a function of the input.
func Encode(text string) ([]int, error) {
	vals, err := symbolValues(text)
	if err != nil {
		return nil, err
	}

	full := make([]int, 0, len(vals)+3)
	full = append(full, startCodeB)
	full = append(full, vals...)

	checksum := startCodeB
	for i, v := range vals {
		checksum += v * (i + 1)
	}
	checksum %= checksumMod

	full = append(full, checksum, stopCode)
	return full, nil
}

// Checksum re-derives the weighted checksum from an emitted symbol sequence
// (start code, data symbols, checksum, stop code). The start code counts at
// position 0, each data symbol at its 1-based position.
func Checksum(symbols []int) int {
	if len(symbols) < 3 {
		return -1
	}
	sum := symbols[0]
	for i := 1; i < len(symbols)-2; i++ {
		sum += symbols[i] * i
	}
	return sum % checksumMod
}

// ParcelReference builds the scannable per-parcel code printed on labels:
// the waybill, a zero separator and the 3-digit parcel sequence.
func ParcelReference(waybill string, parcelSeq int) string {
	return fmt.Sprintf("%s0%03d", waybill, parcelSeq)
}
