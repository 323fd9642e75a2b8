package utils

import (
	"fmt"
)

const (
	Kilobyte = 1024
	Megabyte = 1024 * Kilobyte
)

// DataSize pretty prints a byte count in log fields.
type DataSize float64

//nolint:mnd
func (d DataSize) String() string {
	switch {
	case d >= Megabyte:
		return fmt.Sprintf("%.2f MiB", d/Megabyte)
	case d >= Kilobyte:
		return fmt.Sprintf("%.2f KiB", d/Kilobyte)
	}
	return fmt.Sprintf("%.2f B", d)
}
