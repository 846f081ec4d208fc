// Copyright 2015 Auburn University. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package term

// Constructors for unlabeled expressions.  Trees built with these functions
// carry label 0 on every node until Relabel is called.

func Const(n int) *Expression {
	return &Expression{Term: Constant{Value: n}}
}

func Var(x Variable) *Expression {
	return &Expression{Term: Ref{Name: x}}
}

func Fn(x Variable, body *Expression) *Expression {
	return &Expression{Term: &Closure{Param: x, Body: body}}
}

func Fun(f, x Variable, body *Expression) *Expression {
	return &Expression{Term: &RecClosure{Func: f, Param: x, Body: body}}
}

// Apply returns the left-associated application fn arg1 arg2 ...
func Apply(fn *Expression, args ...*Expression) *Expression {
	e := fn
	for _, a := range args {
		e = &Expression{Term: &Application{Fun: e, Arg: a}}
	}
	return e
}

func If(cond, then, els *Expression) *Expression {
	return &Expression{Term: &IfThenElse{Cond: cond, Then: then, Else: els}}
}

func LetIn(x Variable, value, body *Expression) *Expression {
	return &Expression{Term: &Let{Name: x, Value: value, Body: body}}
}

func Binary(left *Expression, op string, right *Expression) *Expression {
	return &Expression{Term: &BinaryOp{Left: left, Op: op, Right: right}}
}
