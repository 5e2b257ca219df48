package dice

import (
	"fmt"
	"regexp"
	"strconv"
)

// expressionPattern is the only accepted notation: a die count, a die size,
// and an optional signed flat modifier. "d20" without a count is rejected.
var expressionPattern = regexp.MustCompile(`^(\d+)d(\d+)([+-]\d+)?$`)

// Expression represents a parsed dice expression ready to be rolled.
// Precondition: Count >= 1, Sides >= 1 after successful Parse.
type Expression struct {
	Raw      string // original input string
	Count    int    // number of dice
	Sides    int    // faces per die; 1 is legal (the die always shows 1)
	Modifier int    // flat modifier (may be negative)
}

// Parse parses a dice expression string into an Expression.
// Supported forms: "1d20", "2d6+3", "4d8-2", "1d1".
//
// Precondition: expr must be a non-empty string.
// Postcondition: Returns a valid Expression or a descriptive error.
func Parse(expr string) (Expression, error) {
	if expr == "" {
		return Expression{}, fmt.Errorf("dice: empty expression")
	}

	m := expressionPattern.FindStringSubmatch(expr)
	if m == nil {
		return Expression{}, fmt.Errorf("dice: invalid expression %q (want NdM or NdM+K)", expr)
	}

	count, err := strconv.Atoi(m[1])
	if err != nil {
		return Expression{}, fmt.Errorf("dice: invalid die count in %q: %w", expr, err)
	}
	if count < 1 {
		return Expression{}, fmt.Errorf("dice: invalid die count in %q: must be >= 1", expr)
	}

	sides, err := strconv.Atoi(m[2])
	if err != nil {
		return Expression{}, fmt.Errorf("dice: invalid die sides in %q: %w", expr, err)
	}
	if sides < 1 {
		return Expression{}, fmt.Errorf("dice: invalid die sides in %q: must be >= 1", expr)
	}

	modifier := 0
	if m[3] != "" {
		modifier, err = strconv.Atoi(m[3])
		if err != nil {
			return Expression{}, fmt.Errorf("dice: invalid modifier in %q: %w", expr, err)
		}
	}

	return Expression{
		Raw:      expr,
		Count:    count,
		Sides:    sides,
		Modifier: modifier,
	}, nil
}
