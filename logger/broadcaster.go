package logger

import (
	"io"
	"os"
	"sync"
)

const backlogSize = 200

// Broadcaster is an io.Writer that copies log output to the console and to
// every subscribed channel, keeping the last lines for late subscribers.
type Broadcaster struct {
	mu          sync.Mutex
	out         io.Writer
	subscribers map[chan string]bool
	backlog     []string
	next        int
}

var Instance = New(os.Stdout)

func New(out io.Writer) *Broadcaster {
	return &Broadcaster{
		out:         out,
		subscribers: make(map[chan string]bool),
	}
}

func (b *Broadcaster) Write(p []byte) (n int, err error) {
	msg := string(p)

	if b.out != nil {
		b.out.Write(p)
	}

	b.mu.Lock()
	if len(b.backlog) < backlogSize {
		b.backlog = append(b.backlog, msg)
	} else {
		b.backlog[b.next] = msg
		b.next = (b.next + 1) % backlogSize
	}
	for ch := range b.subscribers {
		// slow readers drop lines instead of blocking logging
		select {
		case ch <- msg:
		default:
		}
	}
	b.mu.Unlock()

	return len(p), nil
}

// Subscribe returns a channel of new log lines plus the backlog at the time
// of subscribing, oldest first.
func (b *Broadcaster) Subscribe() (chan string, []string) {
	ch := make(chan string, 100)
	b.mu.Lock()
	defer b.mu.Unlock()
	b.subscribers[ch] = true

	backlog := make([]string, 0, len(b.backlog))
	backlog = append(backlog, b.backlog[b.next:]...)
	backlog = append(backlog, b.backlog[:b.next]...)
	return ch, backlog
}

func (b *Broadcaster) Unsubscribe(ch chan string) {
	b.mu.Lock()
	delete(b.subscribers, ch)
	b.mu.Unlock()
	close(ch)
}

func GetWriter() io.Writer {
	return Instance
}
