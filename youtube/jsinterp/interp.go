// Package jsinterp evaluates the restricted JavaScript subset found in a
// video player bundle's signature-scrambling functions. It is not a general
// interpreter: functions are located by pattern-matching the raw source,
// statements stay raw text split on ";", and binary operators are scanned in
// a fixed precedence-free order. Values are a closed tagged variant so every
// consumer handles each case explicitly.
package jsinterp

import (
	"errors"
	"fmt"
	"regexp"
	"strconv"
	"strings"
)

// maxRecursion bounds nested expression evaluation; pathological or cyclic
// expressions fail instead of hanging.
const maxRecursion = 100

var (
	// ErrUnsupported marks an expression outside the supported grammar.
	ErrUnsupported = errors.New("unsupported JS expression")
	// ErrRecursionLimit marks evaluation deeper than maxRecursion.
	ErrRecursionLimit = errors.New("recursion limit reached")
	// ErrNotFound marks a function or object missing from the source blob.
	ErrNotFound = errors.New("JS definition not found")
)

const nameRe = `[a-zA-Z_$][a-zA-Z_$0-9]*`

var (
	varStmtRe    = regexp.MustCompile(`^var\s+`)
	returnStmtRe = regexp.MustCompile(`^return(?:\s+|$)`)
	digitsRe     = regexp.MustCompile(`^[0-9]+$`)
	identRe      = regexp.MustCompile(`^` + nameRe + `$`)
	indexRe      = regexp.MustCompile(`^(` + nameRe + `)\[(.+)\]$`)
	memberRe     = regexp.MustCompile(`^(` + nameRe + `)(?:\.([^(\[]+)|\[([^\]]+)\])\s*(\(([^()]*)\))?$`)
	callRe       = regexp.MustCompile(`^(` + nameRe + `)\(([a-zA-Z0-9_$,\s]*)\)$`)

	reservedWords = map[string]bool{"if": true, "return": true, "true": true, "false": true}

	funcNamePat = `(?:[a-zA-Z$0-9]+|"[a-zA-Z$0-9]+"|'[a-zA-Z$0-9]+')`
	objFieldRe  = regexp.MustCompile(`(` + funcNamePat + `)\s*:\s*function\s*\(([a-zA-Z0-9_$,\s]*)\)\s*\{([^}]*)\}`)
)

// Env is a per-invocation variable environment.
type Env map[string]Value

// Interpreter evaluates expressions against one JS source blob. Function and
// object definitions are extracted lazily and cached for the lifetime of the
// instance; an instance is meant to live for one extraction session and is
// not safe for concurrent use.
type Interpreter struct {
	code      string
	functions map[string]Func
	objects   map[string]map[string]Func
}

// New creates an interpreter over the given JS source.
func New(code string) *Interpreter {
	return &Interpreter{
		code:      code,
		functions: make(map[string]Func),
		objects:   make(map[string]map[string]Func),
	}
}

// ExtractFunction locates the named function definition in the source and
// returns a callable for it. Supported declaration forms: function name(..),
// name = function(..), var name = function(..).
func (itp *Interpreter) ExtractFunction(name string) (Func, error) {
	if fn, ok := itp.functions[name]; ok {
		return fn, nil
	}
	esc := regexp.QuoteMeta(name)
	re := regexp.MustCompile(
		`(?s)(?:function\s+` + esc + `|[{;,]\s*` + esc + `\s*=\s*function|var\s+` + esc + `\s*=\s*function)\s*` +
			`\(([^)]*)\)\s*\{(.+?)\}`)
	m := re.FindStringSubmatch(itp.code)
	if m == nil {
		return nil, fmt.Errorf("%w: function %q", ErrNotFound, name)
	}
	fn := itp.BuildFunction(strings.Split(m[1], ","), m[2])
	itp.functions[name] = fn
	return fn, nil
}

// BuildFunction produces a callable that binds args positionally into a
// fresh environment and evaluates the ";"-separated statements of body until
// a return statement aborts, or the last statement's value falls out.
func (itp *Interpreter) BuildFunction(argNames []string, body string) Func {
	params := make([]string, 0, len(argNames))
	for _, a := range argNames {
		params = append(params, strings.TrimSpace(a))
	}
	return func(args []Value) (Value, error) {
		env := make(Env, len(params))
		for i, p := range params {
			if p == "" {
				continue
			}
			if i < len(args) {
				env[p] = args[i]
			} else {
				env[p] = Null()
			}
		}
		result := Null()
		for _, stmt := range strings.Split(body, ";") {
			res, abort, err := itp.interpretStatement(stmt, env, maxRecursion)
			if err != nil {
				return Null(), err
			}
			result = res
			if abort {
				break
			}
		}
		return result, nil
	}
}

// interpretStatement strips a leading var declaration or return prefix and
// evaluates the remaining expression. The bool result reports whether a
// return was hit.
func (itp *Interpreter) interpretStatement(stmt string, env Env, budget int) (Value, bool, error) {
	if budget < 0 {
		return Null(), false, fmt.Errorf("%w while evaluating %q", ErrRecursionLimit, stmt)
	}
	s := strings.TrimLeft(stmt, " \t\n")
	abort := false
	if loc := varStmtRe.FindString(s); loc != "" {
		s = s[len(loc):]
	} else if loc := returnStmtRe.FindString(s); loc != "" {
		s = s[len(loc):]
		abort = true
	}
	v, err := itp.interpretExpression(s, env, budget)
	if err != nil {
		return Null(), false, err
	}
	return v, abort, nil
}

// interpretExpression evaluates one expression by trying each rule of the
// restricted grammar in order. No rule matching is a hard failure.
func (itp *Interpreter) interpretExpression(expr string, env Env, budget int) (Value, error) {
	s := strings.TrimSpace(expr)
	if s == "" {
		return Null(), nil
	}

	// Parenthesized sub-expression: evaluate the interior, then substitute
	// its JSON form into the suffix so forms like (a+b)[0] keep working.
	if strings.HasPrefix(s, "(") {
		depth := 0
		closed := -1
		for i, r := range s {
			if r == '(' {
				depth++
			} else if r == ')' {
				depth--
				if depth == 0 {
					closed = i
					break
				}
			}
		}
		if closed < 0 {
			return Null(), fmt.Errorf("%w: premature end of parens in %q", ErrUnsupported, s)
		}
		sub, err := itp.interpretExpression(s[1:closed], env, budget)
		if err != nil {
			return Null(), err
		}
		rest := strings.TrimSpace(s[closed+1:])
		if rest == "" {
			return sub, nil
		}
		s = sub.JSON() + rest
	}

	// Assignment and compound assignment.
	for _, op := range assignOps {
		re := assignRe(op)
		m := re.FindStringSubmatch(s)
		if m == nil {
			continue
		}
		name, idxExpr, rhs := m[1], m[2], m[3]
		right, err := itp.interpretExpression(rhs, env, budget-1)
		if err != nil {
			return Null(), err
		}
		if idxExpr != "" {
			return itp.assignIndexed(op, name, idxExpr, right, env, budget)
		}
		if op == "=" {
			env[name] = right
			return right, nil
		}
		cur, ok := env[name]
		if !ok {
			continue
		}
		value, err := applyOp(strings.TrimSuffix(op, "="), cur, right)
		if err != nil {
			return Null(), err
		}
		env[name] = value
		return value, nil
	}

	// Bare non-negative integer literal.
	if digitsRe.MatchString(s) {
		n, err := strconv.Atoi(s)
		if err != nil {
			return Null(), fmt.Errorf("%w: integer literal %q", ErrUnsupported, s)
		}
		return Int(n), nil
	}

	// Bare identifier.
	if identRe.MatchString(s) && !reservedWords[s] {
		if v, ok := env[s]; ok {
			return v, nil
		}
		return Null(), nil
	}

	// JSON literal.
	if v, err := parseJSONLiteral(s); err == nil {
		return v, nil
	}

	// Indexed access on a local variable.
	if m := indexRe.FindStringSubmatch(s); m != nil {
		if v, ok := env[m[1]]; ok {
			idxVal, err := itp.interpretExpression(m[2], env, budget-1)
			if err != nil {
				return Null(), err
			}
			if idx, ok := idxVal.AsInt(); ok {
				if el, err := elementAt(v, idx); err == nil {
					return el, nil
				} else if v.Kind() == KindStr || v.Kind() == KindList {
					return Null(), err
				}
			}
		}
	}

	// Member access or method/property call.
	if m := memberRe.FindStringSubmatch(s); m != nil {
		v, matched, err := itp.interpretMember(m, env, budget)
		if matched {
			return v, err
		}
	}

	// Binary operators, fixed precedence-free scan order.
	for _, op := range binaryOps {
		idx := splitIndex(s, op)
		if idx < 0 {
			continue
		}
		left, right := s[:idx], s[idx+len(op):]
		x, abortX, err := itp.interpretStatement(left, env, budget-1)
		if err != nil {
			return Null(), err
		}
		if abortX {
			return Null(), fmt.Errorf("%w: premature left-side return of %q in %q", ErrUnsupported, op, s)
		}
		y, abortY, err := itp.interpretStatement(right, env, budget-1)
		if err != nil {
			return Null(), err
		}
		if abortY {
			return Null(), fmt.Errorf("%w: premature right-side return of %q in %q", ErrUnsupported, op, s)
		}
		if x.IsNull() || y.IsNull() {
			return Null(), nil
		}
		return applyOp(op, x, y)
	}

	// Direct call with bare integer or identifier arguments.
	if m := callRe.FindStringSubmatch(s); m != nil {
		fname, argStr := m[1], m[2]
		var args []Value
		if strings.TrimSpace(argStr) != "" {
			for _, a := range strings.Split(argStr, ",") {
				a = strings.TrimSpace(a)
				if digitsRe.MatchString(a) {
					n, _ := strconv.Atoi(a)
					args = append(args, Int(n))
				} else if v, ok := env[a]; ok {
					args = append(args, v)
				}
			}
		}
		fn, err := itp.ExtractFunction(fname)
		if err != nil {
			return Null(), err
		}
		return fn(args)
	}

	return Null(), fmt.Errorf("%w: %q", ErrUnsupported, expr)
}

// assignIndexed handles name[idx] OP= rhs. String targets produce a new
// string with the indexed character replaced and return the written value;
// list targets mutate the shared backing array in place. The asymmetry is
// deliberate: observed signature functions depend on both behaviors.
func (itp *Interpreter) assignIndexed(op, name, idxExpr string, right Value, env Env, budget int) (Value, error) {
	lvar, ok := env[name]
	if !ok {
		return Null(), fmt.Errorf("%w: assignment to undefined %q", ErrUnsupported, name)
	}
	idxVal, err := itp.interpretExpression(idxExpr, env, budget)
	if err != nil {
		return Null(), err
	}
	idx, ok := idxVal.AsInt()
	if !ok {
		return Null(), fmt.Errorf("%w: non-integer index in %q[%s]", ErrUnsupported, name, idxExpr)
	}
	opCore := strings.TrimSuffix(op, "=")
	if opCore == "" {
		opCore = "="
	}

	switch lvar.Kind() {
	case KindStr:
		str := lvar.s
		if idx < 0 || idx >= len(str) {
			return Null(), fmt.Errorf("string index %d out of range in %q", idx, name)
		}
		cur := Str(string(str[idx]))
		value, err := applyOp(opCore, cur, right)
		if err != nil {
			return Null(), err
		}
		if ch, ok := value.AsStr(); ok {
			env[name] = Str(str[:idx] + ch + str[idx+1:])
		}
		return value, nil
	case KindList:
		elems := *lvar.list
		if idx < 0 || idx >= len(elems) {
			return Null(), fmt.Errorf("list index %d out of range in %q", idx, name)
		}
		value, err := applyOp(opCore, elems[idx], right)
		if err != nil {
			return Null(), err
		}
		elems[idx] = value
		env[name] = lvar
		return value, nil
	}
	return Null(), fmt.Errorf("%w: indexed assignment on %s", ErrUnsupported, lvar.Kind())
}

// interpretMember resolves name.member / name[member], with an optional
// call. The boolean reports whether this rule claims the expression.
func (itp *Interpreter) interpretMember(m []string, env Env, budget int) (Value, bool, error) {
	variable := m[1]
	member := m[2]
	if member == "" {
		member = removeQuotes(m[3])
	}
	member = strings.TrimSpace(member)
	hasCall := m[4] != ""
	argStr := m[5]

	obj, ok := env[variable]
	if !ok {
		methods, err := itp.extractObjectCached(variable)
		if err != nil {
			return Null(), true, err
		}
		wrapped := make(map[string]Value, len(methods))
		for k, fn := range methods {
			wrapped[k] = Function(fn)
		}
		obj = Object(wrapped)
	}

	if !hasCall {
		if member == "length" {
			switch obj.Kind() {
			case KindStr:
				return Int(len(obj.s)), true, nil
			case KindList:
				return Int(len(*obj.list)), true, nil
			case KindObject:
				return Int(len(obj.obj)), true, nil
			}
			return Null(), true, fmt.Errorf("%w: length of %s", ErrUnsupported, obj.Kind())
		}
		if props, ok := obj.AsObject(); ok {
			if v, present := props[member]; present {
				return v, true, nil
			}
			return Null(), true, nil
		}
		return Null(), false, nil
	}

	var args []Value
	if strings.TrimSpace(argStr) != "" {
		for _, a := range splitArgs(argStr) {
			v, err := itp.interpretExpression(a, env, budget)
			if err != nil {
				return Null(), true, err
			}
			args = append(args, v)
		}
	}

	switch member {
	case "split":
		// Only the split-into-characters form, a.split(""), is supported.
		if s, ok := obj.AsStr(); ok && len(args) == 1 {
			if sep, ok := args[0].AsStr(); ok && sep == "" {
				elems := make([]Value, 0, len(s))
				for _, r := range s {
					elems = append(elems, Str(string(r)))
				}
				return List(elems), true, nil
			}
		}
		if list, ok := obj.AsList(); ok {
			cp := make([]Value, len(*list))
			copy(cp, *list)
			return List(cp), true, nil
		}
	case "join":
		if list, ok := obj.AsList(); ok && len(args) == 1 {
			if delim, ok := args[0].AsStr(); ok {
				parts := make([]string, 0, len(*list))
				for _, e := range *list {
					es, ok := e.AsStr()
					if !ok {
						es = e.JSON()
					}
					parts = append(parts, es)
				}
				return Str(strings.Join(parts, delim)), true, nil
			}
		}
	case "reverse":
		if list, ok := obj.AsList(); ok && len(args) == 0 {
			elems := *list
			for i, j := 0, len(elems)-1; i < j; i, j = i+1, j-1 {
				elems[i], elems[j] = elems[j], elems[i]
			}
			return obj, true, nil
		}
	case "slice":
		if list, ok := obj.AsList(); ok && len(args) == 1 {
			if start, ok := args[0].AsInt(); ok {
				elems := *list
				if start < 0 {
					start += len(elems)
				}
				if start < 0 {
					start = 0
				}
				if start > len(elems) {
					start = len(elems)
				}
				cp := make([]Value, len(elems)-start)
				copy(cp, elems[start:])
				return List(cp), true, nil
			}
		}
	case "splice":
		if list, ok := obj.AsList(); ok && len(args) == 2 {
			start, ok1 := args[0].AsInt()
			count, ok2 := args[1].AsInt()
			if ok1 && ok2 {
				elems := *list
				if start < 0 || start > len(elems) {
					return Null(), true, fmt.Errorf("splice start %d out of range", start)
				}
				end := start + count
				if end > len(elems) {
					end = len(elems)
				}
				removed := make([]Value, end-start)
				copy(removed, elems[start:end])
				*list = append(elems[:start], elems[end:]...)
				return List(removed), true, nil
			}
		}
	}

	if props, ok := obj.AsObject(); ok {
		if fn, ok := props[member]; ok {
			if call, ok := fn.AsFunc(); ok {
				v, err := call(args)
				return v, true, err
			}
		}
		return Null(), true, fmt.Errorf("%w: %s.%s is not callable", ErrUnsupported, variable, member)
	}
	return Null(), true, fmt.Errorf("%w: method %s.%s(...)", ErrUnsupported, variable, member)
}

// ExtractObject parses a name = { key: function(..){..}, ... }; literal out
// of the source. Only function-valued properties are collected; anything
// else in the literal is ignored.
func (itp *Interpreter) ExtractObject(name string) (map[string]Func, error) {
	return itp.extractObjectCached(name)
}

func (itp *Interpreter) extractObjectCached(name string) (map[string]Func, error) {
	if obj, ok := itp.objects[name]; ok {
		return obj, nil
	}
	esc := regexp.QuoteMeta(name)
	objRe := regexp.MustCompile(
		`(?s)` + esc + `\s*=\s*\{\s*((?:` + funcNamePat +
			`\s*:\s*function\s*\([^)]*\)\s*\{.*?\}(?:,\s*)?)*)\}\s*;`)

	var fields string
	found := false
	for _, loc := range objRe.FindAllStringSubmatchIndex(itp.code, -1) {
		// Skip property stores like this.name = {...};.
		start := loc[0]
		if start >= 5 && itp.code[start-5:start] == "this." {
			continue
		}
		fields = itp.code[loc[2]:loc[3]]
		found = true
		break
	}
	if !found {
		return nil, fmt.Errorf("%w: object %q", ErrNotFound, name)
	}

	obj := make(map[string]Func)
	for _, fm := range objFieldRe.FindAllStringSubmatch(fields, -1) {
		key := removeQuotes(fm[1])
		obj[key] = itp.BuildFunction(strings.Split(fm[2], ","), fm[3])
	}
	itp.objects[name] = obj
	return obj, nil
}

// assignRe builds the anchored pattern for one assignment operator.
func assignRe(op string) *regexp.Regexp {
	return regexp.MustCompile(`^(` + nameRe + `)(?:\[([^\]]+?)\])?\s*` + regexp.QuoteMeta(op) + `(.*)$`)
}

// splitIndex finds the first viable split point for a binary operator:
// both sides must be non-empty, and for "=" -bearing positions the operator
// must not be part of an assignment (callers try assignments first).
func splitIndex(s, op string) int {
	from := 1
	for {
		i := strings.Index(s[from:], op)
		if i < 0 {
			return -1
		}
		i += from
		if i+len(op) >= len(s) {
			return -1
		}
		// Don't split a compound assignment or comparison on its operator.
		if s[i+len(op)] == '=' && (op == "<<" || op == ">>" || len(op) == 1) {
			from = i + len(op) + 1
			if from >= len(s) {
				return -1
			}
			continue
		}
		return i
	}
}

func elementAt(v Value, idx int) (Value, error) {
	switch v.Kind() {
	case KindStr:
		if idx < 0 || idx >= len(v.s) {
			return Null(), fmt.Errorf("string index %d out of range", idx)
		}
		return Str(string(v.s[idx])), nil
	case KindList:
		elems := *v.list
		if idx < 0 || idx >= len(elems) {
			return Null(), fmt.Errorf("list index %d out of range", idx)
		}
		return elems[idx], nil
	}
	return Null(), fmt.Errorf("%w: indexing %s", ErrUnsupported, v.Kind())
}

func removeQuotes(s string) string {
	if len(s) < 2 {
		return s
	}
	if (s[0] == '"' && s[len(s)-1] == '"') || (s[0] == '\'' && s[len(s)-1] == '\'') {
		return s[1 : len(s)-1]
	}
	return s
}

// splitArgs splits a call argument list on commas. Quoted strings may
// contain commas, so quote state is tracked.
func splitArgs(argStr string) []string {
	var out []string
	var cur strings.Builder
	var quote byte
	for i := 0; i < len(argStr); i++ {
		c := argStr[i]
		switch {
		case quote != 0:
			cur.WriteByte(c)
			if c == quote {
				quote = 0
			}
		case c == '"' || c == '\'':
			quote = c
			cur.WriteByte(c)
		case c == ',':
			out = append(out, cur.String())
			cur.Reset()
		default:
			cur.WriteByte(c)
		}
	}
	out = append(out, cur.String())
	return out
}
