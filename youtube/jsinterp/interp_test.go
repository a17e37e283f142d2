package jsinterp

import (
	"errors"
	"testing"
)

func mustCall(t *testing.T, fn Func, args ...Value) Value {
	t.Helper()
	v, err := fn(args)
	if err != nil {
		t.Fatalf("call failed: %v", err)
	}
	return v
}

func TestBuildFunctionArithmetic(t *testing.T) {
	itp := New("")

	tests := []struct {
		name   string
		params []string
		body   string
		args   []Value
		want   Value
	}{
		{"add ints", []string{"a", "b"}, "return a+b", []Value{Int(3), Int(4)}, Int(7)},
		{"concat strings", []string{"a", "b"}, "return a+b", []Value{Str("x"), Str("y")}, Str("xy")},
		{"right associative scan", nil, "return 2-3+4", nil, Int(-5)},
		{"chained minus", nil, "return 10-2-3", nil, Int(11)},
		{"plus splits before times", []string{"a"}, "return a*2+1", []Value{Int(3)}, Int(7)},
		{"xor", []string{"a"}, "return a^3", []Value{Int(5)}, Int(6)},
		{"shift", []string{"a"}, "return a<<2", []Value{Int(3)}, Int(12)},
		{"modulo", []string{"a"}, "return a%4", []Value{Int(11)}, Int(3)},
		{"parens first", []string{"a", "b"}, "return (a+b)*2", []Value{Int(2), Int(3)}, Int(10)},
		{"compound assign", []string{"a"}, "a+=2;return a", []Value{Int(5)}, Int(7)},
		{"var statement", []string{"a"}, "var b=a*2;return b+1", []Value{Int(4)}, Int(9)},
		{"return stops body", []string{"a"}, "return a+1;a=100", []Value{Int(1)}, Int(2)},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			fn := itp.BuildFunction(tt.params, tt.body)
			got := mustCall(t, fn, tt.args...)
			if !got.Equal(tt.want) {
				t.Errorf("got %s, want %s", got, tt.want)
			}
		})
	}
}

func TestBuildFunctionListOps(t *testing.T) {
	itp := New("")

	t.Run("split into characters", func(t *testing.T) {
		fn := itp.BuildFunction([]string{"s"}, `return s.split("")`)
		got := mustCall(t, fn, Str("abc"))
		want := List([]Value{Str("a"), Str("b"), Str("c")})
		if !got.Equal(want) {
			t.Errorf("got %s, want %s", got, want)
		}
	})

	t.Run("join", func(t *testing.T) {
		fn := itp.BuildFunction([]string{"a"}, `return a.join("-")`)
		got := mustCall(t, fn, List([]Value{Str("x"), Str("y")}))
		if !got.Equal(Str("x-y")) {
			t.Errorf("got %s", got)
		}
	})

	t.Run("reverse mutates in place", func(t *testing.T) {
		arg := List([]Value{Int(1), Int(2), Int(3)})
		fn := itp.BuildFunction([]string{"a"}, "a.reverse();return a")
		got := mustCall(t, fn, arg)
		want := List([]Value{Int(3), Int(2), Int(1)})
		if !got.Equal(want) {
			t.Errorf("got %s, want %s", got, want)
		}
		if !arg.Equal(want) {
			t.Errorf("caller binding not mutated: %s", arg)
		}
	})

	t.Run("slice", func(t *testing.T) {
		fn := itp.BuildFunction([]string{"a"}, "return a.slice(2)")
		got := mustCall(t, fn, List([]Value{Int(0), Int(1), Int(2), Int(3)}))
		want := List([]Value{Int(2), Int(3)})
		if !got.Equal(want) {
			t.Errorf("got %s, want %s", got, want)
		}
	})

	t.Run("splice returns removed and mutates", func(t *testing.T) {
		arg := List([]Value{Int(0), Int(1), Int(2), Int(3)})
		fn := itp.BuildFunction([]string{"a"}, "return a.splice(1,2)")
		got := mustCall(t, fn, arg)
		if want := List([]Value{Int(1), Int(2)}); !got.Equal(want) {
			t.Errorf("removed = %s, want %s", got, want)
		}
		if want := List([]Value{Int(0), Int(3)}); !arg.Equal(want) {
			t.Errorf("remainder = %s, want %s", arg, want)
		}
	})

	t.Run("length", func(t *testing.T) {
		fn := itp.BuildFunction([]string{"s"}, "return s.length")
		if got := mustCall(t, fn, Str("abcd")); !got.Equal(Int(4)) {
			t.Errorf("got %s", got)
		}
	})
}

func TestIndexedAssignment(t *testing.T) {
	itp := New("")

	t.Run("string write produces new string", func(t *testing.T) {
		fn := itp.BuildFunction([]string{"s"}, `s[0]="Z";return s`)
		if got := mustCall(t, fn, Str("abc")); !got.Equal(Str("Zbc")) {
			t.Errorf("got %s", got)
		}
	})

	t.Run("list write mutates shared backing", func(t *testing.T) {
		arg := List([]Value{Int(1), Int(2), Int(3)})
		fn := itp.BuildFunction([]string{"a"}, "a[1]+=10;return a")
		got := mustCall(t, fn, arg)
		want := List([]Value{Int(1), Int(12), Int(3)})
		if !got.Equal(want) {
			t.Errorf("got %s, want %s", got, want)
		}
		if !arg.Equal(want) {
			t.Errorf("caller binding not mutated: %s", arg)
		}
	})
}

func TestExtractFunctionForms(t *testing.T) {
	code := "function f1(a){return a+1};var f2=function(a){return a*2};f3=function(a){return a-2};"
	itp := New(code)

	tests := []struct {
		fname string
		arg   int
		want  int
	}{
		{"f1", 10, 11},
		{"f2", 10, 20},
		{"f3", 10, 8},
	}
	for _, tt := range tests {
		t.Run(tt.fname, func(t *testing.T) {
			fn, err := itp.ExtractFunction(tt.fname)
			if err != nil {
				t.Fatalf("ExtractFunction(%q): %v", tt.fname, err)
			}
			if got := mustCall(t, fn, Int(tt.arg)); !got.Equal(Int(tt.want)) {
				t.Errorf("%s(%d) = %s, want %d", tt.fname, tt.arg, got, tt.want)
			}
		})
	}

	t.Run("missing function", func(t *testing.T) {
		if _, err := itp.ExtractFunction("nope"); !errors.Is(err, ErrNotFound) {
			t.Errorf("err = %v, want ErrNotFound", err)
		}
	})
}

func TestExtractObject(t *testing.T) {
	code := `this.obj={dup:function(a){return a}};` +
		`var obj={"x":function(a,b){return a+b},y:function(a){a.reverse()}};`
	itp := New(code)

	obj, err := itp.ExtractObject("obj")
	if err != nil {
		t.Fatalf("ExtractObject: %v", err)
	}
	if _, ok := obj["dup"]; ok {
		t.Error("picked up the this.obj property store")
	}
	xfn, ok := obj["x"]
	if !ok {
		t.Fatal("quoted key x not extracted")
	}
	if got := mustCall(t, xfn, Int(2), Int(3)); !got.Equal(Int(5)) {
		t.Errorf("x(2,3) = %s", got)
	}
	if _, ok := obj["y"]; !ok {
		t.Error("key y not extracted")
	}
}

func TestDescrambleEndToEnd(t *testing.T) {
	code := `var kj={reverse:function(a){a.reverse()},` +
		`splice:function(a,b){a.splice(0,b)},` +
		`swap:function(a,b){var c=a[0];a[0]=a[b%a.length];a[b%a.length]=c}};` +
		`function descramble(a){a=a.split("");kj.swap(a,3);a.reverse();kj.splice(a,1);return a.join("")}`
	itp := New(code)

	fn, err := itp.ExtractFunction("descramble")
	if err != nil {
		t.Fatalf("ExtractFunction: %v", err)
	}
	got := mustCall(t, fn, Str("0123456789"))
	if want := Str("876540213"); !got.Equal(want) {
		t.Errorf("descramble = %s, want %s", got, want)
	}
	// A second call through the cached definition must be independent.
	got = mustCall(t, fn, Str("abcdefghij"))
	if want := Str("ihgfeacbd"); !got.Equal(want) {
		t.Errorf("descramble = %s, want %s", got, want)
	}
}

func TestUndefinedIsNull(t *testing.T) {
	itp := New("")
	fn := itp.BuildFunction(nil, "return c+1")
	got := mustCall(t, fn)
	if !got.IsNull() {
		t.Errorf("got %s, want null", got)
	}
}

func TestUnsupportedExpression(t *testing.T) {
	itp := New("")
	fn := itp.BuildFunction(nil, "return window['navigator']")
	if _, err := fn(nil); err == nil {
		t.Error("expected an error for an out-of-grammar expression")
	}
}
