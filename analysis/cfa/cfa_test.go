// Copyright 2015 Auburn University. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package cfa

import (
	"reflect"
	"strings"
	"testing"

	"github.com/godoctor/cfa/analysis/parser"
	"github.com/godoctor/cfa/analysis/term"
)

// programs used by the property tests
var programs = []string{
	"(fn x -> x) (fn y -> y)",
	"fn x -> x",
	"if 0 then fn x -> x else fn y -> y",
	"let f = fn x -> x in f 5",
	"(fun f n -> f n) 0",
	"let f = fn x -> x in let g = fn x -> x in f 1 + g 2",
	"let compose = fn f -> fn g -> fn x -> f (g x) in compose (fn a -> a) (fn b -> b) 7",
	"let y = fn f -> (fn x -> f (fn v -> x x v)) (fn x -> f (fn v -> x x v)) in " +
		"y (fn self -> fn n -> if n then 1 else n * self (n - 1)) 10",
	"fun loop k -> if k < 1 then k else loop (k - 1) (fn z -> z)",
}

type cfaWrapper struct {
	expr *term.Expression
	cs   []Constraint
	sol  *Solution
}

func analyze(t *testing.T, src string, opts GenerateOptions) *cfaWrapper {
	t.Helper()
	e, err := parser.ParseExpr(src)
	if err != nil {
		t.Fatalf("%q: %v", src, err)
	}
	cs := Generate(e, opts)
	return &cfaWrapper{expr: e, cs: cs, sol: Solve(e, cs, SolveOptions{})}
}

func (c *cfaWrapper) expect(t *testing.T, n Node, exp ...string) {
	t.Helper()
	actual := make(map[string]int)
	for _, v := range c.sol.Value(n) {
		actual[v.String()]++
	}
	for _, e := range exp {
		if actual[e] > 0 {
			actual[e]--
		} else {
			t.Errorf("did not find %s in %s", e, n)
		}
	}
	for v, count := range actual {
		for ; count > 0; count-- {
			t.Errorf("found %s in %s", v, n)
		}
	}
}

func (c *cfaWrapper) expectCache(t *testing.T, l term.Label, exp ...string) {
	t.Helper()
	c.expect(t, Cache(l), exp...)
}

func (c *cfaWrapper) expectEnv(t *testing.T, x term.Variable, exp ...string) {
	t.Helper()
	c.expect(t, Env(x), exp...)
}

func TestIdentityAppliedToIdentity(t *testing.T) {
	c := analyze(t, "(fn x -> x) (fn y -> y)", DefaultGenerateOptions)
	c.expectCache(t, 1, "fn y -> y")
	c.expectCache(t, 2, "fn x -> x")
	c.expectCache(t, 3)
	c.expectCache(t, 4, "fn y -> y")
	c.expectCache(t, 5, "fn y -> y")
	c.expectEnv(t, "x", "fn y -> y")
	c.expectEnv(t, "y")

	// The closures are the terms of the program, not copies.
	app := c.expr.Term.(*term.Application)
	if !c.sol.Contains(Env("x"), app.Arg.Term) {
		t.Errorf("r(x) does not contain the argument closure")
	}
}

func TestUnappliedClosure(t *testing.T) {
	c := analyze(t, "fn x -> x", DefaultGenerateOptions)
	c.expectCache(t, 2, "fn x -> x")
	c.expectCache(t, 1)
	c.expectEnv(t, "x")
	if !c.sol.Contains(Cache(2), c.expr.Term) {
		t.Errorf("C(2) does not contain the closure itself")
	}
}

func TestConditionalUnionsBranches(t *testing.T) {
	for _, test := range []string{"0", "1", "-7", "x"} {
		c := analyze(t, "if "+test+" then fn x -> x else fn y -> y", DefaultGenerateOptions)
		c.expectCache(t, 6, "fn x -> x", "fn y -> y")
		c.expectCache(t, 3, "fn x -> x")
		c.expectCache(t, 5, "fn y -> y")
	}
}

func TestConstantsPropagate(t *testing.T) {
	c := analyze(t, "let f = fn x -> x in f 5", DefaultGenerateOptions)
	c.expectEnv(t, "x", "5")
	c.expectEnv(t, "f", "fn x -> x")
	c.expectCache(t, 6, "5")
	if !reflect.DeepEqual(c.sol.Cache(6), c.sol.Env("x")) {
		t.Errorf("C(6) = %s, r(x) = %s; expected them to be equal",
			c.sol.Cache(6), c.sol.Env("x"))
	}

	// Without constant seeding, only closures flow.
	c = analyze(t, "let f = fn x -> x in f 5", GenerateOptions{Constants: false})
	c.expectEnv(t, "x")
	c.expectEnv(t, "f", "fn x -> x")
	c.expectCache(t, 6)
}

func TestRecursiveClosure(t *testing.T) {
	c := analyze(t, "(fun f n -> f n) 0", DefaultGenerateOptions)
	c.expectEnv(t, "f", "fun f n -> f n")
	c.expectEnv(t, "n", "0")
	c.expectCache(t, 1, "fun f n -> f n")
	c.expectCache(t, 3)
	c.expectCache(t, 6)
}

func TestShadowingSharesEnvironment(t *testing.T) {
	// Two unrelated bindings of x share r(x), so each call appears to
	// return both arguments.
	c := analyze(t, "let f = fn x -> x in let g = fn x -> x in f 1 + g 2", DefaultGenerateOptions)
	c.expectEnv(t, "x", "1", "2")
	c.expectCache(t, 7, "1", "2")
	c.expectCache(t, 10, "1", "2")
	c.expectCache(t, 11)
}

func TestGenerate(t *testing.T) {
	c := analyze(t, "(fn x -> x) (fn y -> y)", DefaultGenerateOptions)
	want := []string{
		"{fn x -> x} ⊆ C(2) ⇒ C(4) ⊆ r(x)",
		"{fn x -> x} ⊆ C(2) ⇒ C(1) ⊆ C(5)",
		"{fn y -> y} ⊆ C(2) ⇒ C(4) ⊆ r(y)",
		"{fn y -> y} ⊆ C(2) ⇒ C(3) ⊆ C(5)",
		"{fn x -> x} ⊆ C(2)",
		"r(x) ⊆ C(1)",
		"{fn y -> y} ⊆ C(4)",
		"r(y) ⊆ C(3)",
	}
	var got []string
	for _, c := range c.cs {
		got = append(got, c.String())
	}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("generated\n\t%s\nexpected\n\t%s",
			strings.Join(got, "\n\t"), strings.Join(want, "\n\t"))
	}
}

func TestGenerateVisitsNestedClosures(t *testing.T) {
	// The applications inside the if condition and the operands of + must
	// still be analyzed.
	c := analyze(t, "if (fn a -> a) 1 then 2 else (fn b -> b) 3 + 4", DefaultGenerateOptions)
	c.expectEnv(t, "a", "1")
	c.expectEnv(t, "b", "3")
}

func TestClosureProperty(t *testing.T) {
	for _, src := range programs {
		for _, opts := range []GenerateOptions{{Constants: true}, {Constants: false}} {
			c := analyze(t, src, opts)
			if v := c.sol.Violations(c.cs); len(v) > 0 {
				t.Errorf("%q: solution violates %v", src, v)
			}
		}
	}
}

func TestMinimality(t *testing.T) {
	for _, src := range programs {
		c := analyze(t, src, DefaultGenerateOptions)
		for i, n := range c.sol.nodes {
			value := c.sol.values[i]
			for b, ok := value.NextSet(0); ok; b, ok = value.NextSet(b + 1) {
				value.Clear(b)
				if len(c.sol.Violations(c.cs)) == 0 {
					t.Errorf("%q: %s still satisfies every constraint without %s",
						src, n, c.sol.universe[b])
				}
				value.Set(b)
			}
		}
	}
}

func TestOrderDoesNotMatter(t *testing.T) {
	for _, src := range programs {
		e, err := parser.ParseExpr(src)
		if err != nil {
			t.Fatal(err)
		}
		cs := Generate(e, DefaultGenerateOptions)
		cache0, env0 := Solve(e, cs, SolveOptions{Order: LIFO}).Results()
		for _, order := range []Order{LIFO, FIFO, Smallest} {
			cache, env := Solve(e, cs, SolveOptions{Order: order}).Results()
			if !reflect.DeepEqual(cache, cache0) || !reflect.DeepEqual(env, env0) {
				t.Errorf("%q: %s order produced a different solution", src, order)
			}
		}
	}
}

func TestStepIsMonotone(t *testing.T) {
	for _, src := range programs {
		e, err := parser.ParseExpr(src)
		if err != nil {
			t.Fatal(err)
		}
		for _, order := range []Order{LIFO, FIFO, Smallest} {
			s := NewSolver(e, Generate(e, DefaultGenerateOptions), SolveOptions{Order: order})
			prev := s.snapshot()
			for s.Step() {
				cur := s.snapshot()
				for i := range cur {
					if !cur[i].IsSuperSet(prev[i]) {
						t.Fatalf("%q: %s shrank during step %d",
							src, s.nodes[i], s.Stats().Steps)
					}
				}
				prev = cur
			}
			if !s.Done() {
				t.Errorf("%q: Step returned false with work pending", src)
			}
			st := s.Stats()
			if st.Changes > st.Merges || st.Steps == 0 {
				t.Errorf("%q: implausible stats %+v", src, st)
			}
		}
	}
}

func TestResultsCoverEveryNode(t *testing.T) {
	c := analyze(t, programs[6], DefaultGenerateOptions)
	cache, env := c.sol.Results()
	labels := term.Labels(c.expr)
	if len(cache) != len(labels) {
		t.Errorf("%d cache entries, expected %d", len(cache), len(labels))
	}
	vars := term.Variables(c.expr)
	if len(env) != len(vars) {
		t.Errorf("%d env entries, expected %d", len(env), len(vars))
	}
}

func TestUnknownNodePanics(t *testing.T) {
	e := term.Fn("x", term.Var("x"))
	term.Relabel(e)
	tests := []struct {
		c    Constraint
		want string
	}{
		{Unconditional{Cache(1), Cache(99)}, "unknown node C(99)"},
		{Unconditional{Env("z"), Cache(1)}, "unknown node r(z)"},
		{Unconditional{Literal(term.Constant{Value: 3}), Cache(1)}, "3 is not a term"},
	}
	for _, tst := range tests {
		func() {
			defer func() {
				r := recover()
				msg, _ := r.(string)
				if !strings.Contains(msg, tst.want) {
					t.Errorf("%s: recovered %v, expected a panic containing %q", tst.c, r, tst.want)
				}
			}()
			NewSolver(e, []Constraint{tst.c}, SolveOptions{})
		}()
	}
}

func TestParseOrder(t *testing.T) {
	for _, o := range []Order{LIFO, FIFO, Smallest} {
		got, err := ParseOrder(strings.ToUpper(o.String()))
		if err != nil || got != o {
			t.Errorf("ParseOrder(%q) = %v, %v", o, got, err)
		}
	}
	if _, err := ParseOrder("random"); err == nil {
		t.Errorf("expected an error for an unknown order")
	}
}
