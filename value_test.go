package securecookie_test

import (
	"encoding/json"
	"math"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/oarkflow/securecookie"
)

func TestObjectKeepsInsertionOrder(t *testing.T) {
	v := securecookie.Object(
		securecookie.Field("z", securecookie.Int(1)),
		securecookie.Field("a", securecookie.Int(2)),
		securecookie.Field("m", securecookie.Int(3)),
	)
	require.Equal(t, `{"z":1,"a":2,"m":3}`, v.String())

	parsed, err := securecookie.Parse([]byte(`{"z":1,"a":2,"m":3}`))
	require.NoError(t, err)
	require.True(t, v.Equal(parsed))
	require.Equal(t, v.String(), parsed.String())
}

func TestDuplicateKeyReplacesInPlace(t *testing.T) {
	v, err := securecookie.Parse([]byte(`{"a":1,"b":2,"a":3}`))
	require.NoError(t, err)
	require.Equal(t, `{"a":3,"b":2}`, v.String())

	built := securecookie.Object(
		securecookie.Field("a", securecookie.Int(1)),
		securecookie.Field("b", securecookie.Int(2)),
		securecookie.Field("a", securecookie.Int(3)),
	)
	require.True(t, v.Equal(built))
}

func TestCanonicalStringEscaping(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want string
	}{
		{"slash", "/path/to", `"/path/to"`},
		{"html", "<a href='x'>&</a>", `"<a href='x'>&</a>"`},
		{"quote and backslash", `say "hi" \o/`, `"say \"hi\" \\o/"`},
		{"controls", "a\nb\tc\rd\x01", `"a\nb\tc\rd\u0001"`},
		{"unicode", "héllo 世界", `"héllo 世界"`},
		{"invalid utf8", "a\xffb", "\"a\ufffdb\""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			require.Equal(t, tt.want, securecookie.String(tt.in).String())
		})
	}
}

func TestEmptyContainersStayDistinct(t *testing.T) {
	require.Equal(t, "{}", securecookie.Object().String())
	require.Equal(t, "[]", securecookie.Array().String())
	require.False(t, securecookie.Object().Equal(securecookie.Array()))

	obj, err := securecookie.Parse([]byte(`{}`))
	require.NoError(t, err)
	require.Equal(t, securecookie.KindObject, obj.Kind())

	arr, err := securecookie.Parse([]byte(`[]`))
	require.NoError(t, err)
	require.Equal(t, securecookie.KindArray, arr.Kind())
}

func TestScalars(t *testing.T) {
	require.Equal(t, "null", securecookie.Null().String())
	require.True(t, securecookie.Null().IsNull())
	require.Equal(t, "true", securecookie.Bool(true).String())
	require.Equal(t, "-42", securecookie.Int(-42).String())
	require.Equal(t, "18446744073709551615", securecookie.Uint(math.MaxUint64).String())
	require.Equal(t, "1.5", securecookie.Float(1.5).String())

	n, ok := securecookie.Int(7).AsInt()
	require.True(t, ok)
	require.EqualValues(t, 7, n)

	_, ok = securecookie.String("7").AsInt()
	require.False(t, ok)

	s, ok := securecookie.String("x").AsString()
	require.True(t, ok)
	require.Equal(t, "x", s)
}

func TestNumbersCompareNumerically(t *testing.T) {
	a, err := securecookie.Parse([]byte(`1.0`))
	require.NoError(t, err)
	require.True(t, a.Equal(securecookie.Int(1)))
	require.False(t, a.Equal(securecookie.Int(2)))
	require.False(t, securecookie.Int(1).Equal(securecookie.String("1")))
}

func TestNumberRejectsBadLiteral(t *testing.T) {
	_, err := securecookie.Number(json.Number("12abc"))
	require.ErrorIs(t, err, securecookie.ErrInvalidJSON)

	v, err := securecookie.Number(json.Number("1e3"))
	require.NoError(t, err)
	require.Equal(t, "1e3", v.String())
}

func TestNonFiniteFloatIsUnserializable(t *testing.T) {
	_, err := securecookie.Float(math.NaN()).MarshalJSON()
	require.ErrorIs(t, err, securecookie.ErrUnsupportedNumber)

	_, err = securecookie.Array(securecookie.Float(math.Inf(1))).AppendJSON(nil)
	require.ErrorIs(t, err, securecookie.ErrUnsupportedNumber)

	_, err = securecookie.FromAny(math.NaN())
	require.ErrorIs(t, err, securecookie.ErrUnsupportedNumber)
}

func TestParseRejectsInvalidJSON(t *testing.T) {
	for _, in := range []string{"", "{", `{"a":}`, "[1,]", "nul", `{"a":1} x`, "1 2", `{1:2}`} {
		_, err := securecookie.Parse([]byte(in))
		require.ErrorIs(t, err, securecookie.ErrInvalidJSON, "input %q", in)
	}
}

func TestGetAndIndex(t *testing.T) {
	v, err := securecookie.Parse([]byte(`{"user":{"id":9,"tags":["a","b"]}}`))
	require.NoError(t, err)

	user, ok := v.Get("user")
	require.True(t, ok)
	require.Equal(t, 2, user.Len())

	tags, ok := user.Get("tags")
	require.True(t, ok)
	second, ok := tags.Index(1)
	require.True(t, ok)
	s, _ := second.AsString()
	require.Equal(t, "b", s)

	_, ok = tags.Index(5)
	require.False(t, ok)
	_, ok = v.Get("missing")
	require.False(t, ok)
}

type profile struct {
	Name  string   `json:"name"`
	Admin bool     `json:"admin"`
	Tags  []string `json:"tags"`
	Score float64  `json:"score"`
}

func TestFromAnyStructKeepsFieldOrder(t *testing.T) {
	v, err := securecookie.FromAny(profile{Name: "ann", Admin: true, Tags: []string{"x"}, Score: 2.5})
	require.NoError(t, err)
	require.Equal(t, `{"name":"ann","admin":true,"tags":["x"],"score":2.5}`, v.String())

	var back profile
	require.NoError(t, v.Decode(&back))
	require.Equal(t, "ann", back.Name)
	require.Equal(t, []string{"x"}, back.Tags)
}

func TestFromAnyMapSortsKeys(t *testing.T) {
	v, err := securecookie.FromAny(map[string]any{"b": 1, "a": []any{true, nil, "s"}})
	require.NoError(t, err)
	require.Equal(t, `{"a":[true,null,"s"],"b":1}`, v.String())

	var nilPtr *profile
	n, err := securecookie.FromAny(nilPtr)
	require.NoError(t, err)
	require.True(t, n.IsNull())
}

func TestValueAsJSONField(t *testing.T) {
	type envelope struct {
		Data securecookie.Value `json:"data"`
	}
	var e envelope
	require.NoError(t, json.Unmarshal([]byte(`{"data":{"k":[1,2]}}`), &e))
	require.Equal(t, `{"k":[1,2]}`, e.Data.String())

	out, err := json.Marshal(e)
	require.NoError(t, err)
	require.JSONEq(t, `{"data":{"k":[1,2]}}`, string(out))
}

func TestInterface(t *testing.T) {
	v := securecookie.MustFromAny(map[string]any{"n": 3, "s": "x"})
	m, ok := v.Interface().(map[string]any)
	require.True(t, ok)
	require.Equal(t, json.Number("3"), m["n"])
	require.Equal(t, "x", m["s"])
}
