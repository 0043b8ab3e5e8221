package logger

import (
	"fmt"
	"io"
	"os"
	"strings"
	"sync"
	"time"

	"github.com/janweinstock/or1kiss/assert"
)

// Entry represents a single line in the log.
type Entry struct {
	Timestamp time.Time
	Tag       string
	Detail    string
	Goroutine uint64
	repeated  int
}

func (e *Entry) String() string {
	s := strings.Builder{}
	s.WriteString(fmt.Sprintf("[g%d] %s: %s", e.Goroutine, e.Tag, e.Detail))
	if e.repeated > 0 {
		s.WriteString(fmt.Sprintf(" (repeat x%d)", e.repeated+1))
	}
	s.WriteString("\n")
	return s.String()
}

type logger struct {
	mu         sync.Mutex
	maxEntries int
	entries    []Entry
	echo       io.Writer
}

func newLogger(maxEntries int) *logger {
	return &logger{
		maxEntries: maxEntries,
		entries:    make([]Entry, 0, maxEntries),
	}
}

func (l *logger) log(tag, detail string) {
	l.mu.Lock()
	defer l.mu.Unlock()

	tag = strings.ReplaceAll(tag, "\n", " ")
	detail = strings.ReplaceAll(detail, "\n", " ")

	if n := len(l.entries); n > 0 {
		e := &l.entries[n-1]
		if e.Tag == tag && e.Detail == detail {
			e.repeated++
			e.Timestamp = time.Now()
			if l.echo != nil {
				io.WriteString(l.echo, e.String())
			}
			return
		}
	}

	e := Entry{Timestamp: time.Now(), Tag: tag, Detail: detail, Goroutine: assert.GetGoRoutineID()}
	l.entries = append(l.entries, e)
	if len(l.entries) > l.maxEntries {
		l.entries = l.entries[len(l.entries)-l.maxEntries:]
	}

	if l.echo != nil {
		io.WriteString(l.echo, e.String())
	}
}

func (l *logger) clear() {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.entries = l.entries[:0]
}

func (l *logger) write(output io.Writer) {
	l.mu.Lock()
	defer l.mu.Unlock()
	for _, e := range l.entries {
		io.WriteString(output, e.String())
	}
}

func (l *logger) tail(output io.Writer, n int) {
	l.mu.Lock()
	defer l.mu.Unlock()
	if n > len(l.entries) {
		n = len(l.entries)
	}
	for _, e := range l.entries[len(l.entries)-n:] {
		io.WriteString(output, e.String())
	}
}

// central is the single logger instance for the process. There is no need
// for more than one: every or1kiss core, MMU, timer and PIC instance shares
// it, distinguished by tag.
var central *logger

const maxCentral = 1024

func init() {
	central = newLogger(maxCentral)
}

// Permission implementations indicate whether the caller's environment is
// allowed to create new log entries. Cores do not implement it: they check
// core.Config.Warnings themselves and then pass Allow.
type Permission interface {
	AllowLogging() bool
}

type allow struct{}

func (allow) AllowLogging() bool { return true }

// Allow indicates that the logging request should always be allowed.
var Allow Permission = allow{}

// Log adds an entry to the central logger.
func Log(perm Permission, tag, detail string) {
	if perm == nil || perm == Allow || perm.AllowLogging() {
		central.log(tag, detail)
	}
}

// Logf adds a formatted entry to the central logger.
func Logf(perm Permission, tag, format string, args ...interface{}) {
	if perm == nil || perm == Allow || perm.AllowLogging() {
		central.log(tag, fmt.Sprintf(format, args...))
	}
}

// Clear removes all entries from the central logger.
func Clear() { central.clear() }

// Write dumps the full log to output.
func Write(output io.Writer) { central.write(output) }

// Tail writes the last n entries to output.
func Tail(output io.Writer, n int) { central.tail(output, n) }

// SetEcho causes every future log entry to also be written to output
// immediately. Passing nil disables echoing. Used by the CLI's -w flag.
func SetEcho(output io.Writer) {
	central.mu.Lock()
	defer central.mu.Unlock()
	central.echo = output
}

// SetEchoStderr is a convenience wrapper around SetEcho(os.Stderr).
func SetEchoStderr() { SetEcho(os.Stderr) }
