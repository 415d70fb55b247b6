package calc

// Operation is one of the four supported arithmetic functions.
type Operation uint8

const (
	Add Operation = iota + 1
	Subtract
	Multiply
	Divide
)

var operationNames = map[string]Operation{
	"add":      Add,
	"subtract": Subtract,
	"multiply": Multiply,
	"divide":   Divide,
}

// Operations returns every supported operation in declaration order.
func Operations() []Operation {
	return []Operation{Add, Subtract, Multiply, Divide}
}

// ParseOperation resolves an operation name. Names are case sensitive.
func ParseOperation(name string) (Operation, error) {
	op, ok := operationNames[name]
	if !ok {
		return 0, ErrUnknownOperation
	}
	return op, nil
}

// String returns the wire name of the operation.
func (o Operation) String() string {
	switch o {
	case Add:
		return "add"
	case Subtract:
		return "subtract"
	case Multiply:
		return "multiply"
	case Divide:
		return "divide"
	}
	return "unknown"
}

// Apply evaluates the operation on a and b using plain float64 arithmetic.
// Divide fails with ErrDivisionByZero when b is zero (either sign).
func (o Operation) Apply(a, b float64) (float64, error) {
	switch o {
	case Add:
		return a + b, nil
	case Subtract:
		return a - b, nil
	case Multiply:
		return a * b, nil
	case Divide:
		if b == 0 {
			return 0, ErrDivisionByZero
		}
		return a / b, nil
	}
	return 0, ErrUnknownOperation
}
