package domain

import "fmt"

// Operator identifies a UK mobile network operator whose coverage is
// published as a raster tile layer. The set is closed; tile URLs and cache
// keys embed the operator ID, so new values require a coordinated rollout.
type Operator string

const (
	OperatorEE       Operator = "ee"
	OperatorO2       Operator = "o2"
	OperatorVodafone Operator = "vodafone"
	OperatorThree    Operator = "three"
)

// AllOperators lists every supported operator in stable presentation order.
func AllOperators() []Operator {
	return []Operator{OperatorEE, OperatorO2, OperatorVodafone, OperatorThree}
}

var operatorNames = map[Operator]string{
	OperatorEE:       "EE",
	OperatorO2:       "O2",
	OperatorVodafone: "Vodafone",
	OperatorThree:    "Three",
}

var operatorsByName = func() map[string]Operator {
	m := make(map[string]Operator, len(operatorNames))
	for op, name := range operatorNames {
		m[name] = op
	}
	return m
}()

// DisplayName returns the human-facing operator name.
func (o Operator) DisplayName() string {
	if name, ok := operatorNames[o]; ok {
		return name
	}
	return string(o)
}

// Valid reports whether o is a member of the closed operator set.
func (o Operator) Valid() bool {
	_, ok := operatorNames[o]
	return ok
}

// ParseOperator resolves either an operator ID ("ee") or a display name
// ("EE") to the canonical Operator value.
func ParseOperator(s string) (Operator, error) {
	if op := Operator(s); op.Valid() {
		return op, nil
	}
	if op, ok := operatorsByName[s]; ok {
		return op, nil
	}
	return "", fmt.Errorf("unknown operator %q", s)
}
