package sigdecode

import (
	"github.com/robertkrimen/otto"
)

// engineFunc builds a SigFunc that runs the whole player bundle in otto and
// calls the named function directly. This is the slow path for bundles the
// restricted interpreter cannot handle.
func engineFunc(body, fname string) (SigFunc, error) {
	vm := otto.New()
	if _, err := vm.Run(body); err != nil {
		return nil, NewError(ErrCodeJSExecutionFailed, "failed to run player JS", err.Error())
	}
	return func(sig string) (string, error) {
		value, err := vm.Call(fname, nil, sig)
		if err != nil {
			return "", NewError(ErrCodeJSExecutionFailed, "failed to call signature function", err.Error())
		}
		result, err := value.ToString()
		if err != nil {
			return "", NewError(ErrCodeSigFuncFailed, "signature function did not return a string", err.Error())
		}
		return result, nil
	}, nil
}
