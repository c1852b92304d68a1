package logging

import (
	"time"
)

// Field is a key-value pair attached to a log line or event.
type Field struct {
	Key   string
	Value any
}

// F creates a Field.
func F(key string, value any) Field {
	return Field{Key: key, Value: value}
}

func SessionID(id string) Field {
	return F("session_id", id)
}

func RequestID(id string) Field {
	return F("request_id", id)
}

// MessageID identifies a chat message.
func MessageID(id string) Field {
	return F("message_id", id)
}

// Op names a gateway operation: chat, image or speech.
func Op(name string) Field {
	return F("op", name)
}

// Kind is a failure classification.
func Kind(k string) Field {
	return F("kind", k)
}

// Key is a storage key.
func Key(k string) Field {
	return F("key", k)
}

// Duration creates a duration field in milliseconds.
func Duration(d time.Duration) Field {
	return F("duration_ms", d.Milliseconds())
}

func DurationSince(start time.Time) Field {
	return Duration(time.Since(start))
}

func Model(name string) Field {
	return F("model", name)
}

func Provider(name string) Field {
	return F("provider", name)
}

// Root reports whether the session was in root mode.
func Root(on bool) Field {
	return F("root", on)
}

// Prompt creates a prompt field, truncated to 200 characters.
func Prompt(p string) Field {
	r := []rune(p)
	if len(r) > 200 {
		p = string(r[:197]) + "..."
	}
	return F("prompt", p)
}

func Command(c string) Field {
	return F("command", c)
}

func Path(p string) Field {
	return F("path", p)
}

func URL(u string) Field {
	return F("url", u)
}

// Error creates an error field.
func Error(err error) Field {
	if err == nil {
		return F("error", nil)
	}
	return F("error", err.Error())
}

func Success(ok bool) Field {
	return F("success", ok)
}

func Count(n int) Field {
	return F("count", n)
}

func Reason(r string) Field {
	return F("reason", r)
}

// MessageCount creates a message count field.
func MessageCount(n int) Field {
	return F("msg_count", n)
}

// fieldsToMap converts a slice of Fields to a map.
func fieldsToMap(fields []Field) map[string]any {
	if len(fields) == 0 {
		return nil
	}
	m := make(map[string]any, len(fields))
	for _, f := range fields {
		m[f.Key] = f.Value
	}
	return m
}
