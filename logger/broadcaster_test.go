package logger

import (
	"bytes"
	"fmt"
	"testing"
)

func TestBroadcaster_FanOut(t *testing.T) {
	var console bytes.Buffer
	b := New(&console)

	ch, backlog := b.Subscribe()
	if len(backlog) != 0 {
		t.Fatalf("backlog = %v, want empty", backlog)
	}

	fmt.Fprint(b, "hello\n")
	if got := <-ch; got != "hello\n" {
		t.Errorf("subscriber got %q", got)
	}
	if console.String() != "hello\n" {
		t.Errorf("console got %q", console.String())
	}

	b.Unsubscribe(ch)
	fmt.Fprint(b, "after\n")
}

func TestBroadcaster_BacklogWraps(t *testing.T) {
	b := New(nil)
	for i := 0; i < backlogSize+5; i++ {
		fmt.Fprintf(b, "line %d", i)
	}

	ch, backlog := b.Subscribe()
	defer b.Unsubscribe(ch)

	if len(backlog) != backlogSize {
		t.Fatalf("backlog len = %d, want %d", len(backlog), backlogSize)
	}
	if backlog[0] != "line 5" {
		t.Errorf("oldest = %q, want %q", backlog[0], "line 5")
	}
	if last := backlog[len(backlog)-1]; last != fmt.Sprintf("line %d", backlogSize+4) {
		t.Errorf("newest = %q", last)
	}
}
