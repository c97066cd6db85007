package gelf

import (
	"fmt"
	"strconv"
	"time"
	"unicode/utf8"

	"github.com/vmihailenco/msgpack/v5"
)

// Version is the GELF specification version written into every Message.
const Version = "1.1"

// Message is a GELF 1.1 payload.
//
//	{
//	  "version": "1.1",
//	  "host": "example.org",
//	  "short_message": "A short message",
//	  "full_message": "Backtrace here\n\nmore stuff",
//	  "timestamp": 1385053862.307,
//	  "level": 1,
//	  "_user_id": 9001
//	}
//
// Extra holds the additional fields, sorted by key. Every key starts with an
// underscore and appears once.
type Message struct {
	Version      string
	Host         string
	ShortMessage string
	FullMessage  string
	Timestamp    float64
	Level        int
	Extra        []Field
}

// compile-time check for msgpack CustomEncoder conformance
var _ msgpack.CustomEncoder = (*Message)(nil)

// fixed keys of the GELF payload
const (
	keyVersion      = "version"
	keyHost         = "host"
	keyShortMessage = "short_message"
	keyFullMessage  = "full_message"
	keyTimestamp    = "timestamp"
	keyLevel        = "level"
)

// Field returns the additional field named key. The key includes its
// underscore prefix.
func (m *Message) Field(key string) (Value, bool) {
	for _, f := range m.Extra {
		if f.Key == key {
			return f.Value, true
		}
	}
	return Value{}, false
}

// Time returns the message timestamp as a time.Time, to the millisecond.
func (m *Message) Time() time.Time { return timeFromUnixTimestamp(m.Timestamp) }

// AppendJSON appends the JSON encoding of m to dst. Fixed keys come first,
// then the additional fields in order.
func (m *Message) AppendJSON(dst []byte) []byte {
	dst = append(dst, '{')
	dst = appendJSONKey(dst, keyVersion, true)
	dst = appendJSONString(dst, m.Version)
	dst = appendJSONKey(dst, keyHost, false)
	dst = appendJSONString(dst, m.Host)
	dst = appendJSONKey(dst, keyShortMessage, false)
	dst = appendJSONString(dst, m.ShortMessage)
	dst = appendJSONKey(dst, keyFullMessage, false)
	dst = appendJSONString(dst, m.FullMessage)
	dst = appendJSONKey(dst, keyTimestamp, false)
	dst = strconv.AppendFloat(dst, m.Timestamp, 'f', -1, 64)
	dst = appendJSONKey(dst, keyLevel, false)
	dst = strconv.AppendInt(dst, int64(m.Level), 10)
	for _, f := range m.Extra {
		dst = appendJSONKey(dst, f.Key, false)
		dst = appendJSONValue(dst, f.Value)
	}
	return append(dst, '}')
}

// MarshalJSON implements json.Marshaler.
func (m *Message) MarshalJSON() ([]byte, error) {
	return m.AppendJSON(make([]byte, 0, 512)), nil
}

func appendJSONKey(dst []byte, key string, first bool) []byte {
	if !first {
		dst = append(dst, ',')
	}
	dst = appendJSONString(dst, key)
	return append(dst, ':')
}

func appendJSONValue(dst []byte, v Value) []byte {
	switch v.kind {
	case KindString:
		return appendJSONString(dst, v.str)
	case KindInt:
		return strconv.AppendInt(dst, v.i, 10)
	case KindUint:
		return strconv.AppendUint(dst, v.u, 10)
	case KindFloat:
		s, ok := formatFloat(v.f, v.bits)
		if !ok {
			return appendJSONString(dst, s)
		}
		return append(dst, s...)
	case KindDecimal:
		if !isJSONNumber(v.str) {
			return appendJSONString(dst, v.str)
		}
		return append(dst, v.str...)
	case KindBool:
		return strconv.AppendBool(dst, v.b)
	case KindObject:
		dst = append(dst, '{')
		for i, f := range v.fields {
			dst = appendJSONKey(dst, f.Key, i == 0)
			dst = appendJSONValue(dst, f.Value)
		}
		return append(dst, '}')
	case KindArray:
		dst = append(dst, '[')
		for i, item := range v.items {
			if i > 0 {
				dst = append(dst, ',')
			}
			dst = appendJSONValue(dst, item)
		}
		return append(dst, ']')
	default:
		return append(dst, "null"...)
	}
}

const hexDigits = "0123456789abcdef"

// appendJSONString appends s as a JSON string. Control characters use the
// \u00XX form and invalid UTF-8 becomes U+FFFD.
func appendJSONString(dst []byte, s string) []byte {
	dst = append(dst, '"')
	start := 0
	for i := 0; i < len(s); {
		c := s[i]
		if c < utf8.RuneSelf {
			if c >= 0x20 && c != '"' && c != '\\' {
				i++
				continue
			}
			dst = append(dst, s[start:i]...)
			switch c {
			case '"', '\\':
				dst = append(dst, '\\', c)
			case '\n':
				dst = append(dst, '\\', 'n')
			case '\r':
				dst = append(dst, '\\', 'r')
			case '\t':
				dst = append(dst, '\\', 't')
			default:
				dst = append(dst, '\\', 'u', '0', '0', hexDigits[c>>4], hexDigits[c&0xf])
			}
			i++
			start = i
			continue
		}
		r, size := utf8.DecodeRuneInString(s[i:])
		if r == utf8.RuneError && size == 1 {
			dst = append(dst, s[start:i]...)
			dst = append(dst, `\ufffd`...)
			i++
			start = i
			continue
		}
		i += size
	}
	dst = append(dst, s[start:]...)
	return append(dst, '"')
}

// isJSONNumber reports whether s matches the JSON number grammar.
func isJSONNumber(s string) bool {
	i := 0
	if i < len(s) && s[i] == '-' {
		i++
	}
	switch {
	case i < len(s) && s[i] == '0':
		i++
	case i < len(s) && s[i] >= '1' && s[i] <= '9':
		i = skipDigits(s, i)
	default:
		return false
	}
	if i < len(s) && s[i] == '.' {
		j := skipDigits(s, i+1)
		if j == i+1 {
			return false
		}
		i = j
	}
	if i < len(s) && (s[i] == 'e' || s[i] == 'E') {
		i++
		if i < len(s) && (s[i] == '+' || s[i] == '-') {
			i++
		}
		j := skipDigits(s, i)
		if j == i {
			return false
		}
		i = j
	}
	return i == len(s)
}

func skipDigits(s string, i int) int {
	for i < len(s) && s[i] >= '0' && s[i] <= '9' {
		i++
	}
	return i
}

// EncodeMsgpack serializes the Message as one msgpack map with the same keys
// as the JSON form. Decimals are written as strings.
func (m *Message) EncodeMsgpack(enc *msgpack.Encoder) error {
	errs := new(encErrs)
	errs.join("message map length", enc.EncodeMapLen(6+len(m.Extra)))

	errs.join(keyVersion, enc.EncodeString(keyVersion))
	errs.join(keyVersion, enc.EncodeString(m.Version))
	errs.join(keyHost, enc.EncodeString(keyHost))
	errs.join(keyHost, enc.EncodeString(m.Host))
	errs.join(keyShortMessage, enc.EncodeString(keyShortMessage))
	errs.join(keyShortMessage, enc.EncodeString(m.ShortMessage))
	errs.join(keyFullMessage, enc.EncodeString(keyFullMessage))
	errs.join(keyFullMessage, enc.EncodeString(m.FullMessage))
	errs.join(keyTimestamp, enc.EncodeString(keyTimestamp))
	errs.join(keyTimestamp, enc.EncodeFloat64(m.Timestamp))
	errs.join(keyLevel, enc.EncodeString(keyLevel))
	errs.join(keyLevel, enc.EncodeInt(int64(m.Level)))

	for _, f := range m.Extra {
		errs.join("field key: "+f.Key, enc.EncodeString(f.Key))
		errs.join("field value: "+f.Key, encodeMsgpackValue(enc, f.Value))
	}
	return errs.err
}

func encodeMsgpackValue(enc *msgpack.Encoder, v Value) error {
	switch v.kind {
	case KindString, KindDecimal:
		return enc.EncodeString(v.str)
	case KindInt:
		return enc.EncodeInt(v.i)
	case KindUint:
		return enc.EncodeUint(v.u)
	case KindFloat:
		if v.bits == 32 {
			return enc.EncodeFloat32(float32(v.f))
		}
		return enc.EncodeFloat64(v.f)
	case KindBool:
		return enc.EncodeBool(v.b)
	case KindObject:
		if err := enc.EncodeMapLen(len(v.fields)); err != nil {
			return err
		}
		for _, f := range v.fields {
			if err := enc.EncodeString(f.Key); err != nil {
				return err
			}
			if err := encodeMsgpackValue(enc, f.Value); err != nil {
				return fmt.Errorf("field %s: %w", f.Key, err)
			}
		}
		return nil
	case KindArray:
		if err := enc.EncodeArrayLen(len(v.items)); err != nil {
			return err
		}
		for i, item := range v.items {
			if err := encodeMsgpackValue(enc, item); err != nil {
				return fmt.Errorf("item %d: %w", i, err)
			}
		}
		return nil
	default:
		return enc.EncodeNil()
	}
}
