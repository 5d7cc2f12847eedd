package quickjs

import (
	"bytes"
	"errors"
	"strings"
	"testing"
)

func newTestRuntime(t *testing.T) *Runtime {
	t.Helper()
	rt, err := New(0)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	t.Cleanup(rt.Close)
	return rt
}

func TestRuntime_EvalValues(t *testing.T) {
	rt := newTestRuntime(t)

	if s, err := rt.EvalString("'a' + 'b'"); err != nil || s != "ab" {
		t.Errorf("EvalString = %q, %v", s, err)
	}
	if b, err := rt.EvalBool("1 < 2"); err != nil || !b {
		t.Errorf("EvalBool = %v, %v", b, err)
	}
	if n, err := rt.EvalInt("6 * 7"); err != nil || n != 42 {
		t.Errorf("EvalInt = %d, %v", n, err)
	}
	if err := rt.Eval("throw new Error('x')"); err == nil {
		t.Error("Eval of a throwing script returned nil")
	}
}

func TestRuntime_RegisterFuncUnwrapsErrors(t *testing.T) {
	rt := newTestRuntime(t)
	if err := rt.RegisterFunc("half", func(n int) (int, error) {
		if n%2 != 0 {
			return 0, errors.New("odd input")
		}
		return n / 2, nil
	}); err != nil {
		t.Fatal(err)
	}

	if n, err := rt.EvalInt("half(8)"); err != nil || n != 4 {
		t.Errorf("half(8) = %d, %v", n, err)
	}
	msg, err := rt.EvalString(`(function() {
		try { half(3); return 'no throw'; } catch (e) { return e.name + ': ' + e.message; }
	})()`)
	if err != nil {
		t.Fatal(err)
	}
	if !strings.HasPrefix(msg, "TypeError: ") || !strings.Contains(msg, "odd input") {
		t.Errorf("thrown = %q", msg)
	}
	if ok, _ := rt.EvalBool("typeof __raw_half === 'undefined'"); !ok {
		t.Error("raw function left on the global object")
	}
}

func TestRuntime_MicrotasksDrainPastThrowingJob(t *testing.T) {
	rt := newTestRuntime(t)
	if err := rt.Eval(`
		globalThis.order = [];
		Promise.resolve().then(function() { order.push(1); throw new Error('job'); });
		Promise.resolve().then(function() { order.push(2); });
	`); err != nil {
		t.Fatal(err)
	}
	rt.RunMicrotasks()
	if s, _ := rt.EvalString("order.join(',')"); s != "1,2" {
		t.Errorf("order = %q, want 1,2", s)
	}
}

func TestRuntime_BinaryTransfer(t *testing.T) {
	data := []byte{0, 1, 0x7f, 0x80, 0xfe, 0xff}
	for _, fallback := range []bool{false, true} {
		rt := newTestRuntime(t)
		rt.useFallback = rt.useFallback || fallback

		if err := rt.WriteBinaryToJS("buf", data); err != nil {
			t.Fatalf("WriteBinaryToJS (fallback=%v): %v", fallback, err)
		}
		if n, _ := rt.EvalInt("new Uint8Array(buf)[3]"); n != 0x80 {
			t.Errorf("byte 3 = %#x (fallback=%v)", n, fallback)
		}
		got, err := rt.ReadBinaryFromJS("buf")
		if err != nil {
			t.Fatalf("ReadBinaryFromJS (fallback=%v): %v", fallback, err)
		}
		if !bytes.Equal(got, data) {
			t.Errorf("round trip = %v, want %v (fallback=%v)", got, data, fallback)
		}
		if ok, _ := rt.EvalBool("typeof buf === 'undefined'"); !ok {
			t.Errorf("global left behind (fallback=%v)", fallback)
		}
	}
}
