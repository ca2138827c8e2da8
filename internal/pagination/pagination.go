// Package pagination holds the page arithmetic and the pagination control model shared by the
// dashboard renderers.
package pagination

import "strconv"

// Kind identifies a pagination control.
type Kind string

const (
	KindPrevious Kind = "previous"
	KindPage     Kind = "page"
	KindEllipsis Kind = "ellipsis"
	KindNext     Kind = "next"
)

// EllipsisLabel is rendered in place of collapsed page numbers.
const EllipsisLabel = "..."

// Control is one rendered pagination element. Target is the page emitted on activation.
type Control struct {
	Kind     Kind   `json:"kind"`
	Label    string `json:"label"`
	Target   int    `json:"target,omitempty"`
	Active   bool   `json:"active,omitempty"`
	Disabled bool   `json:"disabled,omitempty"`
}

// TotalPages returns ceil(count/size). A non-positive size yields zero pages.
func TotalPages(count, size int) int {
	if count <= 0 || size <= 0 {
		return 0
	}
	return (count + size - 1) / size
}

// Offset returns the zero-based offset of the first item on a 1-based page.
func Offset(page, size int) int {
	if page < 1 || size <= 0 {
		return 0
	}
	return (page - 1) * size
}

// InRange reports whether page may be requested given totalPages. An empty collection still has
// page 1.
func InRange(page, totalPages int) bool {
	if totalPages < 1 {
		totalPages = 1
	}
	return page >= 1 && page <= totalPages
}

// Slice returns the items on a 1-based page, preserving order. Pages past the end are empty.
func Slice[T any](items []T, page, size int) []T {
	if page < 1 || size <= 0 {
		return []T{}
	}
	start := Offset(page, size)
	if start >= len(items) {
		return []T{}
	}
	end := start + size
	if end > len(items) {
		end = len(items)
	}
	out := make([]T, end-start)
	copy(out, items[start:end])
	return out
}

// Controls builds the pagination controls for page out of totalPages. Nothing is rendered for a
// single page. Page numbers farther than one from the current page collapse, except the first
// and last; pages 2 and totalPages-1 stand in as the ellipsis markers.
func Controls(page, totalPages int) []Control {
	if totalPages <= 1 {
		return nil
	}

	controls := make([]Control, 0, totalPages+2)
	controls = append(controls, Control{
		Kind:     KindPrevious,
		Label:    "Previous",
		Target:   page - 1,
		Disabled: page == 1,
	})

	for n := 1; n <= totalPages; n++ {
		nearCurrent := abs(n-page) <= 1
		endpoint := n == 1 || n == totalPages

		if !nearCurrent && !endpoint {
			if n == 2 || n == totalPages-1 {
				controls = append(controls, Control{Kind: KindEllipsis, Label: EllipsisLabel})
			}
			continue
		}

		controls = append(controls, Control{
			Kind:   KindPage,
			Label:  strconv.Itoa(n),
			Target: n,
			Active: n == page,
		})
	}

	controls = append(controls, Control{
		Kind:     KindNext,
		Label:    "Next",
		Target:   page + 1,
		Disabled: page == totalPages,
	})
	return controls
}

// Activate invokes onChange with the control's target page. Disabled controls and ellipsis
// markers do nothing. It reports whether onChange was called.
func Activate(c Control, onChange func(page int)) bool {
	if c.Disabled || c.Kind == KindEllipsis || onChange == nil {
		return false
	}
	onChange(c.Target)
	return true
}

func abs(v int) int {
	if v < 0 {
		return -v
	}
	return v
}
