package utils_test

import (
	"testing"

	"github.com/krupt/go-jsonrpc/utils"
	"github.com/stretchr/testify/assert"
)

func TestDataSize(t *testing.T) {
	tests := map[string]struct {
		size utils.DataSize
		want string
	}{
		"bytes":     {size: 12, want: "12.00 B"},
		"kibibytes": {size: 1536, want: "1.50 KiB"},
		"mebibytes": {size: 3 * utils.Megabyte, want: "3.00 MiB"},
	}

	for desc, test := range tests {
		t.Run(desc, func(t *testing.T) {
			assert.Equal(t, test.want, test.size.String())
		})
	}
}
