package sigdecode

import (
	"regexp"
	"strconv"
	"strings"

	"github.com/dop251/goja"
)

// nFnRe locates the throttling-parameter transform call site. Group 1 is
// the function name (or an array holding it), group 2 an optional index
// into that array.
var nFnRe = regexp.MustCompile(`\.get\("n"\)\)&&\(b=([a-zA-Z0-9$]+)(?:\[(\d+)\])?\([a-zA-Z0-9]\)`)

// DecodeN applies the player's n-parameter transform. Bundles without the
// transform return the value unchanged; format URLs then work as-is.
func (d *Decoder) DecodeN(playerURL, nval string) (string, error) {
	if playerURL == "" || nval == "" {
		return nval, nil
	}
	playerURL = NormalizePlayerURL(playerURL)

	d.mu.Lock()
	defer d.mu.Unlock()

	body, err := d.playerJS(playerURL)
	if err != nil {
		return "", err
	}

	fname := findNFuncName(body)
	if fname == "" {
		return nval, nil
	}
	src, ok := extractFuncSource(body, fname)
	if !ok {
		return nval, nil
	}

	vm := goja.New()
	if _, err := vm.RunString("var __nf = " + src + ";"); err != nil {
		return "", NewError(ErrCodeJSExecutionFailed, "failed to run n transform", err.Error())
	}
	fn, ok := goja.AssertFunction(vm.Get("__nf"))
	if !ok {
		return "", NewError(ErrCodeJSExecutionFailed, "n transform is not a function", fname)
	}
	res, err := fn(goja.Undefined(), vm.ToValue(nval))
	if err != nil {
		return "", NewError(ErrCodeJSExecutionFailed, "n transform call failed", err.Error())
	}
	out := res.String()
	// Some bundles return an error sentinel instead of throwing.
	if out == "" || strings.HasPrefix(out, "enhanced_except") {
		return nval, nil
	}
	d.log.Debug("transformed n parameter", map[string]interface{}{"player": playerURL})
	return out, nil
}

func findNFuncName(body string) string {
	m := nFnRe.FindStringSubmatch(body)
	if m == nil {
		return ""
	}
	name := m[1]
	if m[2] == "" {
		return name
	}
	// Indirection through an array: var NAME=[realFn];
	idx, err := strconv.Atoi(m[2])
	if err != nil {
		return ""
	}
	arrRe := regexp.MustCompile(`var\s+` + regexp.QuoteMeta(name) + `\s*=\s*\[(.+?)\]\s*[,;]`)
	am := arrRe.FindStringSubmatch(body)
	if am == nil {
		return ""
	}
	parts := strings.Split(am[1], ",")
	if idx < 0 || idx >= len(parts) {
		return ""
	}
	return strings.TrimSpace(parts[idx])
}

// extractFuncSource cuts `function(...){...}` source for fname out of the
// bundle, balancing braces so nested blocks survive.
func extractFuncSource(body, fname string) (string, bool) {
	declRe := regexp.MustCompile(
		`(?:function\s+` + regexp.QuoteMeta(fname) + `|` + regexp.QuoteMeta(fname) + `\s*=\s*function)\s*\(([^)]*)\)\s*\{`)
	loc := declRe.FindStringSubmatchIndex(body)
	if loc == nil {
		return "", false
	}
	params := body[loc[2]:loc[3]]
	open := loc[1] - 1
	depth := 0
	for i := open; i < len(body); i++ {
		switch body[i] {
		case '{':
			depth++
		case '}':
			depth--
			if depth == 0 {
				return "function(" + params + ")" + body[open:i+1], true
			}
		}
	}
	return "", false
}
