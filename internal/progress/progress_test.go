package progress

import "testing"

func TestBar_FuncAdvancesCurrent(t *testing.T) {
	b := New(1000, false).Start()
	defer b.Finish()

	fn := b.Func()
	fn(250)
	fn(900)

	if got := b.bar.Current(); got != 900 {
		t.Fatalf("expected current 900, got %d", got)
	}
}

func TestNoopFunc_DoesNotPanic(t *testing.T) {
	NoopFunc(0)
	NoopFunc(12345)
}
