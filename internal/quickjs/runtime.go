//go:build !v8

// Package quickjs is the default engine backend, built on the pure-Go
// QuickJS port.
package quickjs

import (
	"fmt"
	"reflect"
	"unsafe"

	"modernc.org/libc"
	lib "modernc.org/libquickjs"
	"modernc.org/quickjs"

	"github.com/cryguy/zero/internal/core"
)

// Runtime implements core.JSRuntime for the QuickJS engine.
type Runtime struct {
	vm  *quickjs.VM
	tls *libc.TLS // cached from VM internals for direct C API access
	ctx uintptr   // cached JSContext pointer for direct C API access

	// useFallback is set when the C API pointers could not be extracted
	// (e.g. modernc.org/quickjs changed its unexported struct layout).
	// Binary transfer then goes through latin-1 strings.
	useFallback bool
}

var _ core.JSRuntime = (*Runtime)(nil)
var _ core.BinaryTransferer = (*Runtime)(nil)

// New creates a QuickJS VM. A positive memoryLimitMB caps the VM heap.
func New(memoryLimitMB int) (*Runtime, error) {
	vm, err := quickjs.NewVM()
	if err != nil {
		return nil, fmt.Errorf("creating QuickJS VM: %w", err)
	}
	if memoryLimitMB > 0 {
		vm.SetMemoryLimit(uintptr(memoryLimitMB) * 1024 * 1024)
	}
	r := &Runtime{vm: vm}
	r.initBinaryTransfer()
	return r, nil
}

// Close frees the VM.
func (r *Runtime) Close() {
	if r.vm != nil {
		r.vm.Close()
		r.vm = nil
	}
}

// Eval evaluates JavaScript and discards the result.
func (r *Runtime) Eval(js string) error {
	v, err := r.vm.EvalValue(js, quickjs.EvalGlobal)
	if err != nil {
		return err
	}
	v.Free()
	return nil
}

// EvalString evaluates JavaScript and returns the result as a Go string.
func (r *Runtime) EvalString(js string) (string, error) {
	result, err := r.vm.Eval(js, quickjs.EvalGlobal)
	if err != nil {
		return "", err
	}
	if result == nil {
		return "", nil
	}
	return fmt.Sprint(result), nil
}

// EvalBool evaluates JavaScript and returns the result as a Go bool.
func (r *Runtime) EvalBool(js string) (bool, error) {
	result, err := r.vm.Eval(js, quickjs.EvalGlobal)
	if err != nil {
		return false, err
	}
	b, ok := result.(bool)
	if !ok {
		return false, fmt.Errorf("expected bool, got %T", result)
	}
	return b, nil
}

// EvalInt evaluates JavaScript and returns the result as a Go int.
func (r *Runtime) EvalInt(js string) (int, error) {
	result, err := r.vm.Eval(js, quickjs.EvalGlobal)
	if err != nil {
		return 0, err
	}
	switch v := result.(type) {
	case int:
		return v, nil
	case float64:
		return int(v), nil
	default:
		return 0, fmt.Errorf("expected int, got %T", result)
	}
}

// RegisterFunc registers a Go function as a global JavaScript function.
// The QuickJS Go wrapper returns multi-value results as JS arrays, so
// (T, error) returns are unwrapped here: T on success, a TypeError on error.
func (r *Runtime) RegisterFunc(name string, fn any) error {
	rawName := "__raw_" + name
	if err := r.vm.RegisterFunc(rawName, fn, false); err != nil {
		return err
	}
	wrapJS := fmt.Sprintf(`(function() {
		var raw = globalThis[%q];
		globalThis[%q] = function() {
			var r = raw.apply(this, arguments);
			if (Array.isArray(r)) {
				if (r[1] !== null && r[1] !== undefined) throw new TypeError(String(r[1]));
				return r[0];
			}
			return r;
		};
		delete globalThis[%q];
	})()`, rawName, name, rawName)
	return r.Eval(wrapJS)
}

// SetGlobal sets a global property on the VM's global object.
func (r *Runtime) SetGlobal(name string, value any) error {
	atom, err := r.vm.NewAtom(name)
	if err != nil {
		return fmt.Errorf("creating atom %q: %w", name, err)
	}
	glob := r.vm.GlobalObject()
	defer glob.Free()
	return glob.SetProperty(atom, value)
}

// RunMicrotasks pumps the QuickJS microtask queue.
func (r *Runtime) RunMicrotasks() {
	executePendingJobs(r.vm)
}

// initBinaryTransfer caches the VM's tls and JSContext pointers for direct
// C API access, falling back to string transfer when that fails.
func (r *Runtime) initBinaryTransfer() {
	if err := r.tryExtractVMInternals(); err != nil {
		r.useFallback = true
		return
	}
	// Smoke-test: a trivial C API call to verify the pointers are valid.
	glob := lib.XJS_GetGlobalObject(r.tls, r.ctx)
	lib.XFreeValue(r.tls, r.ctx, glob)
}

// tryExtractVMInternals uses reflect+unsafe to cache the VM's tls and ctx.
func (r *Runtime) tryExtractVMInternals() (err error) {
	defer func() {
		if p := recover(); p != nil {
			err = fmt.Errorf("panic extracting VM internals: %v", p)
		}
	}()

	vmType := reflect.TypeOf(r.vm).Elem()
	vmPtr := uintptr(unsafe.Pointer(r.vm))

	// cContext is the first field of VM (offset 0).
	r.ctx = *(*uintptr)(unsafe.Pointer(vmPtr))
	if r.ctx == 0 {
		return fmt.Errorf("JSContext is nil")
	}

	rtField, ok := vmType.FieldByName("runtime")
	if !ok {
		return fmt.Errorf("quickjs.VM missing 'runtime' field")
	}
	rtPtr := *(*uintptr)(unsafe.Pointer(vmPtr + rtField.Offset))
	if rtPtr == 0 {
		return fmt.Errorf("runtime pointer is nil")
	}

	// tls is the second field in runtime (after cRuntime uintptr).
	r.tls = *(**libc.TLS)(unsafe.Pointer(rtPtr + unsafe.Sizeof(uintptr(0))))
	if r.tls == nil {
		return fmt.Errorf("TLS is nil")
	}
	return nil
}

// WriteBinaryToJS stores a copy of data as an ArrayBuffer at
// globalThis[globalName], with a single JS_NewArrayBufferCopy.
func (r *Runtime) WriteBinaryToJS(globalName string, data []byte) error {
	if len(data) == 0 {
		return r.Eval(fmt.Sprintf("globalThis[%q] = new ArrayBuffer(0);", globalName))
	}
	if r.useFallback {
		return r.writeBinaryFallback(globalName, data)
	}

	bufPtr := uintptr(unsafe.Pointer(&data[0]))
	jsVal := lib.XJS_NewArrayBufferCopy(r.tls, r.ctx, bufPtr, lib.Tsize_t(len(data)))

	cName, err := libc.CString(globalName)
	if err != nil {
		lib.XFreeValue(r.tls, r.ctx, jsVal)
		return fmt.Errorf("allocating property name: %w", err)
	}

	glob := lib.XJS_GetGlobalObject(r.tls, r.ctx)
	// JS_SetPropertyStr consumes the val reference; do not free jsVal after.
	ret := lib.XJS_SetPropertyStr(r.tls, r.ctx, glob, cName, jsVal)
	lib.XFreeValue(r.tls, r.ctx, glob)
	libc.Xfree(r.tls, cName)

	if ret < 0 {
		return fmt.Errorf("setting global %q", globalName)
	}
	return nil
}

// ReadBinaryFromJS copies the ArrayBuffer at globalThis[globalName] into Go
// and deletes the global.
func (r *Runtime) ReadBinaryFromJS(globalName string) ([]byte, error) {
	if r.useFallback {
		return r.readBinaryFallback(globalName)
	}

	cName, err := libc.CString(globalName)
	if err != nil {
		return nil, fmt.Errorf("allocating property name: %w", err)
	}

	glob := lib.XJS_GetGlobalObject(r.tls, r.ctx)
	jsVal := lib.XJS_GetPropertyStr(r.tls, r.ctx, glob, cName)
	lib.XFreeValue(r.tls, r.ctx, glob)
	libc.Xfree(r.tls, cName)

	var size lib.Tsize_t
	dataPtr := lib.XJS_GetArrayBuffer(r.tls, r.ctx, uintptr(unsafe.Pointer(&size)), jsVal)

	var result []byte
	if dataPtr != 0 && size != 0 {
		result = make([]byte, size)
		copy(result, unsafe.Slice((*byte)(unsafe.Pointer(dataPtr)), size))
	}

	lib.XFreeValue(r.tls, r.ctx, jsVal)
	_ = r.Eval(fmt.Sprintf("delete globalThis[%q];", globalName))
	return result, nil
}

// writeBinaryFallback hands data over as a latin-1 string and widens it
// into an ArrayBuffer engine-side.
func (r *Runtime) writeBinaryFallback(globalName string, data []byte) error {
	units := make([]rune, len(data))
	for i, b := range data {
		units[i] = rune(b)
	}
	if err := r.SetGlobal("__qjs_bt", string(units)); err != nil {
		return err
	}
	return r.Eval(fmt.Sprintf(`(function() {
		var s = globalThis.__qjs_bt;
		delete globalThis.__qjs_bt;
		var view = new Uint8Array(s.length);
		for (var i = 0; i < s.length; i++) view[i] = s.charCodeAt(i);
		globalThis[%q] = view.buffer;
	})()`, globalName))
}

// readBinaryFallback narrows the buffer into a latin-1 string engine-side.
func (r *Runtime) readBinaryFallback(globalName string) ([]byte, error) {
	s, err := r.EvalString(fmt.Sprintf(`(function() {
		var b = globalThis[%q];
		delete globalThis[%q];
		if (!b) return '';
		var view = new Uint8Array(b);
		var parts = [];
		for (var i = 0; i < view.length; i += 8192) {
			parts.push(String.fromCharCode.apply(null, view.subarray(i, Math.min(i + 8192, view.length))));
		}
		return parts.join('');
	})()`, globalName, globalName))
	if err != nil {
		return nil, fmt.Errorf("reading binary from JS: %w", err)
	}
	if s == "" {
		return nil, nil
	}
	out := make([]byte, 0, len(s))
	for _, c := range s {
		out = append(out, byte(c))
	}
	return out, nil
}
