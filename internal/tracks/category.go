package tracks

import (
	"errors"
	"fmt"
	"strings"
)

// Category distinguishes the two rulesets a trial can run under
type Category string

const (
	CategoryShrooms    Category = "shrooms"
	CategoryShroomless Category = "shroomless"
)

// ErrUnknownCategory means the input is neither shrooms nor shroomless
var ErrUnknownCategory = errors.New("category must be 'shrooms' or 'shroomless'")

// ParseCategory validates a category string from user input
func ParseCategory(text string) (Category, error) {
	switch Category(strings.ToLower(strings.TrimSpace(text))) {
	case CategoryShrooms:
		return CategoryShrooms, nil
	case CategoryShroomless:
		return CategoryShroomless, nil
	default:
		return "", fmt.Errorf("'%s': %w", text, ErrUnknownCategory)
	}
}

// Title returns the category capitalized for display
func (c Category) Title() string {
	switch c {
	case CategoryShrooms:
		return "Shrooms"
	case CategoryShroomless:
		return "Shroomless"
	default:
		return string(c)
	}
}
