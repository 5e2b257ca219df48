package dice

// Roll evaluates an Expression using the given Source and returns a RollResult.
//
// Precondition: expr must come from Parse (Count >= 1, Sides >= 1); src must be non-nil.
// Postcondition: len(result.Dice) == expr.Count and
//
//	result.Total() == sum(result.Dice) + result.Modifier.
func Roll(expr Expression, src Source) (RollResult, error) {
	rolled := make([]int, expr.Count)
	for i := range rolled {
		rolled[i] = src.Intn(expr.Sides) + 1
	}

	return RollResult{
		Expression: expr.Raw,
		Dice:       rolled,
		Modifier:   expr.Modifier,
	}, nil
}

// RollExpr parses expr and rolls it using src in a single call.
//
// Precondition: expr must be a valid dice expression string; src must be non-nil.
// Postcondition: Returns a RollResult or a parse/roll error.
func RollExpr(expr string, src Source) (RollResult, error) {
	e, err := Parse(expr)
	if err != nil {
		return RollResult{}, err
	}
	return Roll(e, src)
}

// MustParse parses expr and panics on error. Useful for package-level constants.
//
// Precondition: expr must be a valid dice expression.
func MustParse(expr string) Expression {
	e, err := Parse(expr)
	if err != nil {
		panic("dice: MustParse failed for expression " + expr + ": " + err.Error())
	}
	return e
}

// RollD20 rolls a twenty-sided die with optional advantage or disadvantage.
// Advantage rolls twice and keeps the highest; disadvantage rolls twice and
// keeps the lowest. When both are set they cancel and a single die is rolled.
//
// Precondition: src must be non-nil.
// Postcondition: return value is in [1, 20].
func RollD20(src Source, advantage, disadvantage bool) int {
	first := src.Intn(20) + 1
	if advantage == disadvantage {
		return first
	}
	second := src.Intn(20) + 1
	if advantage {
		if second > first {
			return second
		}
		return first
	}
	if second < first {
		return second
	}
	return first
}
