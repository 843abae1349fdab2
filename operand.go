package planfilter

// classifyOperands splits the operands of a binary comparison into its
// variable and its literal. Source order is irrelevant.
func classifyOperands(c Call) (Variable, Literal, error) {
	if len(c.Operands) != 2 {
		return Variable{}, Literal{}, malformed(c.Operator, "expected 2 operands, got %d", len(c.Operands))
	}

	var (
		variable       Variable
		literal        Literal
		vars, literals int
	)
	for _, o := range c.Operands {
		switch x := o.(type) {
		case Variable:
			variable = x
			vars++
		case Literal:
			literal = x
			literals++
		case Call:
			return Variable{}, Literal{}, malformed(c.Operator, "nested expression %s where a variable or value was expected", x)
		case nil:
			return Variable{}, Literal{}, malformed(c.Operator, "missing operand")
		}
	}

	if vars != 1 || literals != 1 {
		return Variable{}, Literal{}, malformed(c.Operator, "expected one variable and one value, got %d variable(s) and %d value(s)", vars, literals)
	}
	return variable, literal, nil
}
