// Package pageable decodes page requests sent as method params:
//
//	{"page": 3, "size": "43", "sort": [{"property": "name", "direction": "DESC"}]}
package pageable

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"sync/atomic"
)

const (
	DefaultSize = 20
	MaxSize     = 2000
)

var (
	defaultSize atomic.Int64
	maxSize     atomic.Int64

	ErrNotObject = errors.New("pageable: cannot construct from non-object value")
)

func init() {
	defaultSize.Store(DefaultSize)
	maxSize.Store(MaxSize)
}

// SetLimits configures the size used when a request omits it and the size requests are clamped to.
func SetLimits(defSize, max int) error {
	if defSize < 1 || max < 1 {
		return fmt.Errorf("page sizes must be positive, got default %d and max %d", defSize, max)
	}
	if defSize > max {
		return fmt.Errorf("default page size %d exceeds max page size %d", defSize, max)
	}
	defaultSize.Store(int64(defSize))
	maxSize.Store(int64(max))
	return nil
}

// Limits returns the configured default and max page sizes.
func Limits() (defSize, max int) {
	return int(defaultSize.Load()), int(maxSize.Load())
}

type Direction string

const (
	ASC  Direction = "ASC"
	DESC Direction = "DESC"
)

type Order struct {
	Property  string    `json:"property"`
	Direction Direction `json:"direction"`
}

// Pageable is a page request. A JSON null leaves it zero, as does an absent field, so a Pageable
// nested in params should carry `validate:"required"`. Any decoded object has a positive Size.
type Pageable struct {
	Page int     `json:"page"`
	Size int     `json:"size"`
	Sort []Order `json:"sort"`
}

// Offset is the index of the first element of the page.
func (p Pageable) Offset() int {
	return p.Page * p.Size
}

func (p Pageable) IsSorted() bool {
	return len(p.Sort) > 0
}

func (p *Pageable) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if bytes.Equal(data, []byte("null")) {
		return nil
	}
	if len(data) == 0 || data[0] != '{' {
		return ErrNotObject
	}

	var fields map[string]json.RawMessage
	if err := json.Unmarshal(data, &fields); err != nil {
		return err
	}

	page, err := intField(fields, "page", 0)
	if err != nil {
		return err
	}
	if page < 0 {
		return fmt.Errorf("pageable: page must not be negative, got %d", page)
	}

	def, max := Limits()
	size, err := intField(fields, "size", def)
	if err != nil {
		return err
	}
	if size < 1 {
		return fmt.Errorf("pageable: size must be positive, got %d", size)
	}
	size = min(size, max)

	sort, err := sortField(fields["sort"])
	if err != nil {
		return err
	}

	*p = Pageable{Page: page, Size: size, Sort: sort}
	return nil
}

// intField reads a number or a numeric string.
func intField(fields map[string]json.RawMessage, name string, def int) (int, error) {
	raw, found := fields[name]
	if !found || bytes.Equal(raw, []byte("null")) {
		return def, nil
	}

	var text string
	if raw[0] == '"' {
		if err := json.Unmarshal(raw, &text); err != nil {
			return 0, err
		}
	} else {
		text = string(raw)
	}

	n, err := strconv.Atoi(strings.TrimSpace(text))
	if err != nil {
		return 0, fmt.Errorf("pageable: %s must be an integer, got %s", name, raw)
	}
	return n, nil
}

func sortField(raw json.RawMessage) ([]Order, error) {
	orders := []Order{}
	if raw == nil || bytes.Equal(raw, []byte("null")) {
		return orders, nil
	}
	if raw[0] != '[' {
		return nil, fmt.Errorf("pageable: sort must be an array, got %s", raw)
	}

	var items []struct {
		Property  *string `json:"property"`
		Direction *string `json:"direction"`
	}
	if err := json.Unmarshal(raw, &items); err != nil {
		return nil, fmt.Errorf("pageable: %w", err)
	}

	for _, item := range items {
		// Orders without a property are dropped.
		if item.Property == nil {
			continue
		}
		direction := ASC
		if item.Direction != nil {
			switch d := Direction(strings.ToUpper(*item.Direction)); d {
			case ASC, DESC:
				direction = d
			default:
				return nil, fmt.Errorf("pageable: unknown sort direction %q", *item.Direction)
			}
		}
		orders = append(orders, Order{Property: *item.Property, Direction: direction})
	}
	return orders, nil
}
