// Package filter provides AIP-160 filter expression parsing and SQL translation.
package filter

import (
	"fmt"
	"strings"
	"time"

	"go.einride.tech/aip/filtering"
	expr "google.golang.org/genproto/googleapis/api/expr/v1alpha1"
)

// FieldType describes how a filter field is declared and bound.
type FieldType int

const (
	// String fields compare against quoted string literals.
	String FieldType = iota
	// Timestamp fields compare against timestamp("RFC3339") calls and bind
	// as UTC milliseconds.
	Timestamp
)

// Field maps a filter identifier to a SQL column.
type Field struct {
	Column string
	Type   FieldType
	// Normalize canonicalizes a String literal before it is bound. An error
	// rejects the filter.
	Normalize func(string) (string, error)
}

// Schema lists the filterable fields of one listing.
type Schema map[string]Field

// SQLCondition represents a SQL WHERE clause fragment with parameters.
type SQLCondition struct {
	// Clause is the SQL WHERE clause (e.g., "status = ?").
	Clause string
	// Params are the positional parameters for the clause.
	Params []any
}

// Empty reports whether the condition has no clause.
func (c SQLCondition) Empty() bool {
	return strings.TrimSpace(c.Clause) == ""
}

func (s Schema) declarations() (*filtering.Declarations, error) {
	opts := []filtering.DeclarationOption{filtering.DeclareStandardFunctions()}
	for name, field := range s {
		switch field.Type {
		case Timestamp:
			opts = append(opts, filtering.DeclareIdent(name, filtering.TypeTimestamp))
		default:
			opts = append(opts, filtering.DeclareIdent(name, filtering.TypeString))
		}
	}
	return filtering.NewDeclarations(opts...)
}

// Parse parses an AIP-160 filter expression and returns a SQL condition.
// Returns an empty condition for an empty filter string.
func (s Schema) Parse(filterStr string) (SQLCondition, error) {
	if strings.TrimSpace(filterStr) == "" {
		return SQLCondition{}, nil
	}

	decls, err := s.declarations()
	if err != nil {
		return SQLCondition{}, fmt.Errorf("create declarations: %w", err)
	}

	parsed, err := filtering.ParseFilterString(filterStr, decls)
	if err != nil {
		return SQLCondition{}, fmt.Errorf("parse filter: %w", err)
	}
	if parsed.CheckedExpr == nil {
		return SQLCondition{}, nil
	}
	t := translator{schema: s}
	return t.expr(parsed.CheckedExpr.Expr)
}

type translator struct {
	schema Schema
}

func (t translator) expr(e *expr.Expr) (SQLCondition, error) {
	if e == nil {
		return SQLCondition{}, nil
	}
	switch kind := e.ExprKind.(type) {
	case *expr.Expr_CallExpr:
		return t.call(kind.CallExpr)
	default:
		return SQLCondition{}, fmt.Errorf("unsupported expression type: %T", kind)
	}
}

func (t translator) call(call *expr.Expr_Call) (SQLCondition, error) {
	switch call.Function {
	case filtering.FunctionAnd:
		return t.logical(call.Args, "AND")
	case filtering.FunctionOr:
		return t.logical(call.Args, "OR")
	case filtering.FunctionNot:
		if len(call.Args) != 1 {
			return SQLCondition{}, fmt.Errorf("NOT requires 1 argument")
		}
		inner, err := t.expr(call.Args[0])
		if err != nil {
			return SQLCondition{}, err
		}
		return SQLCondition{Clause: "NOT " + inner.Clause, Params: inner.Params}, nil
	case filtering.FunctionEquals:
		return t.comparison(call.Args, "=")
	case filtering.FunctionNotEquals:
		return t.comparison(call.Args, "!=")
	case filtering.FunctionLessThan:
		return t.comparison(call.Args, "<")
	case filtering.FunctionLessEquals:
		return t.comparison(call.Args, "<=")
	case filtering.FunctionGreaterThan:
		return t.comparison(call.Args, ">")
	case filtering.FunctionGreaterEquals:
		return t.comparison(call.Args, ">=")
	default:
		return SQLCondition{}, fmt.Errorf("unsupported function: %s", call.Function)
	}
}

func (t translator) logical(args []*expr.Expr, op string) (SQLCondition, error) {
	if len(args) < 2 {
		return SQLCondition{}, fmt.Errorf("%s requires at least 2 arguments", op)
	}
	clauses := make([]string, 0, len(args))
	var params []any
	for _, arg := range args {
		cond, err := t.expr(arg)
		if err != nil {
			return SQLCondition{}, err
		}
		clauses = append(clauses, cond.Clause)
		params = append(params, cond.Params...)
	}
	return SQLCondition{
		Clause: "(" + strings.Join(clauses, " "+op+" ") + ")",
		Params: params,
	}, nil
}

func (t translator) comparison(args []*expr.Expr, op string) (SQLCondition, error) {
	if len(args) != 2 {
		return SQLCondition{}, fmt.Errorf("comparison requires 2 arguments")
	}

	name, err := identName(args[0])
	if err != nil {
		return SQLCondition{}, err
	}
	field, ok := t.schema[name]
	if !ok {
		return SQLCondition{}, fmt.Errorf("unknown field: %s", name)
	}

	var value any
	switch field.Type {
	case Timestamp:
		value, err = timestampMillis(args[1])
	default:
		var literal string
		literal, err = stringValue(args[1])
		if err == nil && field.Normalize != nil {
			literal, err = field.Normalize(literal)
		}
		value = literal
	}
	if err != nil {
		return SQLCondition{}, fmt.Errorf("field %s: %w", name, err)
	}

	return SQLCondition{
		Clause: fmt.Sprintf("%s %s ?", field.Column, op),
		Params: []any{value},
	}, nil
}

func identName(e *expr.Expr) (string, error) {
	if e == nil {
		return "", fmt.Errorf("nil expression")
	}
	switch kind := e.ExprKind.(type) {
	case *expr.Expr_IdentExpr:
		return kind.IdentExpr.Name, nil
	default:
		return "", fmt.Errorf("expected identifier, got %T", kind)
	}
}

func stringValue(e *expr.Expr) (string, error) {
	if e == nil {
		return "", fmt.Errorf("nil expression")
	}
	constant, ok := e.ExprKind.(*expr.Expr_ConstExpr)
	if !ok {
		return "", fmt.Errorf("expected string constant, got %T", e.ExprKind)
	}
	value, ok := constant.ConstExpr.ConstantKind.(*expr.Constant_StringValue)
	if !ok {
		return "", fmt.Errorf("expected string constant, got %T", constant.ConstExpr.ConstantKind)
	}
	return value.StringValue, nil
}

func timestampMillis(e *expr.Expr) (int64, error) {
	if e == nil {
		return 0, fmt.Errorf("nil expression")
	}
	call, ok := e.ExprKind.(*expr.Expr_CallExpr)
	if !ok || call.CallExpr.Function != filtering.FunctionTimestamp || len(call.CallExpr.Args) != 1 {
		return 0, fmt.Errorf("expected timestamp(\"RFC3339\")")
	}
	raw, err := stringValue(call.CallExpr.Args[0])
	if err != nil {
		return 0, fmt.Errorf("timestamp argument must be a constant string")
	}
	ts, err := time.Parse(time.RFC3339Nano, raw)
	if err != nil {
		return 0, fmt.Errorf("invalid timestamp format: %s", raw)
	}
	return ts.UTC().UnixMilli(), nil
}
