package log

import (
	"bytes"
	"strconv"
	"sync"
	"time"
)

// Event is a single structured log entry under construction. Field setters
// return the event to allow chaining: logger.Info().Str("tg", "100").Msg("join").
type Event struct {
	buf     bytes.Buffer
	logger  *Logger
	level   Level
	enabled bool
}

var eventPool = sync.Pool{
	New: func() any { return &Event{} },
}

func newEvent(l *Logger, level Level) *Event {
	e := eventPool.Get().(*Event)
	e.buf.Reset()
	e.logger = l
	e.level = level
	e.enabled = l != nil && level >= l.level
	if e.enabled {
		e.buf.WriteString(time.Now().Format("2006-01-02T15:04:05.000Z07:00"))
		e.buf.WriteByte(' ')
		e.buf.WriteString(level.String())
	}
	return e
}

func (e *Event) field(key, val string) *Event {
	if !e.enabled {
		return e
	}
	e.buf.WriteByte(' ')
	e.buf.WriteString(key)
	e.buf.WriteByte('=')
	e.buf.WriteString(val)
	return e
}

func (e *Event) Str(key, val string) *Event { return e.field(key, val) }

func (e *Event) Int(key string, val int) *Event {
	return e.field(key, strconv.Itoa(val))
}

func (e *Event) Int32(key string, val int32) *Event {
	return e.field(key, strconv.FormatInt(int64(val), 10))
}

func (e *Event) Uint32(key string, val uint32) *Event {
	return e.field(key, strconv.FormatUint(uint64(val), 10))
}

func (e *Event) Uint16(key string, val uint16) *Event {
	return e.field(key, strconv.FormatUint(uint64(val), 10))
}

func (e *Event) Bool(key string, val bool) *Event {
	return e.field(key, strconv.FormatBool(val))
}

func (e *Event) Dur(key string, val time.Duration) *Event {
	return e.field(key, val.String())
}

func (e *Event) Err(err error) *Event {
	if err == nil {
		return e
	}
	return e.field("error", err.Error())
}

// Msg finalizes the event, writes it to the logger's appenders, and releases
// the event back to the pool. It must be the last call in a chain.
func (e *Event) Msg(msg string) {
	if !e.enabled {
		eventPool.Put(e)
		return
	}
	e.buf.WriteString(" msg=\"")
	e.buf.WriteString(msg)
	e.buf.WriteString("\"\n")
	_, _ = e.logger.appender.Write(e.buf.Bytes())
	if e.level == FatalLevel {
		e.logger.onFatal()
	}
	eventPool.Put(e)
}
