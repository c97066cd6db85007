package gelf

import (
	"bytes"
	"encoding/json"
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/valyala/fastjson"
	"github.com/vmihailenco/msgpack/v5"
)

func newTestMessage() *Message {
	return &Message{
		Version:      Version,
		Host:         "example.org",
		ShortMessage: "A short message",
		FullMessage:  "Backtrace here\n\nmore stuff",
		Timestamp:    1385053862.307,
		Level:        1,
		Extra: []Field{
			{Key: "_amount", Value: DecimalValue("12.340")},
			{Key: "_nan", Value: FloatValue(math.NaN(), 64)},
			{Key: "_tags", Value: ArrayValue(StringValue("a"), IntValue(-1))},
			{Key: "_user", Value: ObjectValue(
				Field{Key: "id", Value: UintValue(9001)},
				Field{Key: "admin", Value: BoolValue(false)},
			)},
		},
	}
}

func TestMessage_AppendJSON(t *testing.T) {
	m := newTestMessage()

	b := m.AppendJSON(nil)
	assert.True(t, bytes.HasPrefix(b, []byte(`{"version":"1.1","host":"example.org","short_message":`)),
		"fixed keys come first: %s", b)
	assert.True(t, json.Valid(b))

	v, err := fastjson.ParseBytes(b)
	require.NoError(t, err)

	assert.Equal(t, "1.1", fieldString(v, "version"))
	assert.Equal(t, "example.org", fieldString(v, "host"))
	assert.Equal(t, "A short message", fieldString(v, "short_message"))
	assert.Equal(t, "Backtrace here\n\nmore stuff", fieldString(v, "full_message"))
	assert.Equal(t, 1385053862.307, v.GetFloat64("timestamp"))
	assert.Equal(t, 1, v.GetInt("level"))

	assert.Equal(t, fastjson.TypeNumber, v.Get("_amount").Type())
	assert.Equal(t, "12.340", v.Get("_amount").String(), "decimals keep their exact text")
	assert.Equal(t, "NaN", fieldString(v, "_nan"), "non-finite floats become strings")
	assert.Equal(t, "a", string(v.GetStringBytes("_tags", "0")))
	assert.Equal(t, -1, v.GetInt("_tags", "1"))
	assert.Equal(t, uint64(9001), v.GetUint64("_user", "id"))
	assert.False(t, v.GetBool("_user", "admin"))
}

func TestMessage_AppendJSONAppends(t *testing.T) {
	m := newTestMessage()
	prefix := []byte("prefix:")
	b := m.AppendJSON(bytes.Clone(prefix))
	assert.True(t, bytes.HasPrefix(b, prefix))

	assert.Equal(t, b[len(prefix):], m.AppendJSON(nil))
}

func TestMessage_AppendJSONEscapesText(t *testing.T) {
	tests := []struct {
		name   string
		input  string
		expect string
	}{
		{"ansi colour codes", "ansi \x1b[31mred\x1b[0m", "ansi \x1b[31mred\x1b[0m"},
		{"vertical tab", "vtab \v here", "vtab \v here"},
		{"quote and control", "quote \" and \x01", "quote \" and \x01"},
		{"backslash", `C:\logs\app`, `C:\logs\app`},
		{"invalid utf8", "bad utf8 \" \xff", "bad utf8 \" \ufffd"},
		{"truncated rune", "cut \xe2\x82", "cut \ufffd\ufffd"},
		{"multibyte", "naïve 😀", "naïve 😀"},
		{"line separators", "a\u2028b", "a\u2028b"},
	}
	for i := 0; i < len(tests); i++ {
		tt := tests[i]
		t.Run(tt.name, func(t *testing.T) {
			m := &Message{
				Version:      Version,
				ShortMessage: tt.input,
				Extra: []Field{
					{Key: "_" + tt.input, Value: StringValue(tt.input)},
					{Key: "_nested", Value: ObjectValue(Field{Key: tt.input, Value: ArrayValue(StringValue(tt.input))})},
				},
			}
			b := m.AppendJSON(nil)
			require.True(t, json.Valid(b), "%s", b)

			var out map[string]any
			require.NoError(t, json.Unmarshal(b, &out))
			assert.Equal(t, tt.expect, out["short_message"])
			assert.Equal(t, tt.expect, out["_"+tt.expect])
			assert.Equal(t, map[string]any{tt.expect: []any{tt.expect}}, out["_nested"])
		})
	}
}

func TestMessage_AppendJSONDecimalText(t *testing.T) {
	m := &Message{
		Version: Version,
		Extra: []Field{
			{Key: "_exact", Value: DecimalValue("-0.50")},
			{Key: "_exp", Value: DecimalValue("1.5e-7")},
			{Key: "_junk", Value: DecimalValue("12 monkeys")},
		},
	}
	b := m.AppendJSON(nil)
	require.True(t, json.Valid(b), "%s", b)
	assert.Contains(t, string(b), `"_exact":-0.50`)
	assert.Contains(t, string(b), `"_exp":1.5e-7`)
	assert.Contains(t, string(b), `"_junk":"12 monkeys"`, "text that is not a number is quoted")
}

func TestIsJSONNumber(t *testing.T) {
	for _, s := range []string{"0", "-0", "12", "12.340", "-1.5E+3", "1e9"} {
		assert.True(t, isJSONNumber(s), s)
	}
	for _, s := range []string{"", "-", "01", "1.", ".5", "1e", "+1", "NaN", "1.2.3", "0x10"} {
		assert.False(t, isJSONNumber(s), s)
	}
}

func TestMessage_MarshalJSON(t *testing.T) {
	b, err := json.Marshal(newTestMessage())
	require.NoError(t, err)

	var out map[string]any
	require.NoError(t, json.Unmarshal(b, &out))
	assert.Equal(t, "1.1", out["version"])
	assert.Contains(t, out, "_user")
}

func TestMessage_EncodeMsgpack(t *testing.T) {
	b, err := msgpack.Marshal(newTestMessage())
	require.NoError(t, err)

	var out map[string]any
	require.NoError(t, msgpack.Unmarshal(b, &out))

	assert.Len(t, out, 10)
	assert.Equal(t, "1.1", out["version"])
	assert.Equal(t, "example.org", out["host"])
	assert.Equal(t, 1385053862.307, out["timestamp"])
	assert.EqualValues(t, 1, out["level"])
	assert.Equal(t, "12.340", out["_amount"])
	assert.True(t, math.IsNaN(out["_nan"].(float64)))

	user, ok := out["_user"].(map[string]any)
	require.True(t, ok)
	assert.EqualValues(t, 9001, user["id"])
	assert.Equal(t, false, user["admin"])
}

func TestMessage_Field(t *testing.T) {
	m := newTestMessage()

	v, ok := m.Field("_tags")
	require.True(t, ok)
	assert.Equal(t, KindArray, v.Kind())

	_, ok = m.Field("tags")
	assert.False(t, ok)
}

func TestMessage_Time(t *testing.T) {
	m := &Message{Timestamp: unixTimestamp(testTime)}
	assert.Equal(t, testTime.Truncate(1e6), m.Time())
}
