package odbc

import (
	"bytes"
	"errors"
	"strings"
	"testing"

	"github.com/rs/zerolog"

	"github.com/ruslano69/dmbridge/pkg/core/errs"
	"github.com/ruslano69/dmbridge/pkg/core/types"
)

func cjk(n int) string {
	var b strings.Builder
	for i := 0; i < n; i++ {
		b.WriteRune(rune(0x4E00 + i%2000))
	}
	return b.String()
}

func fetchOne(t *testing.T, st *fakeStmt, f *LongValueFetcher, ctype types.CType) ([]byte, bool, error) {
	t.Helper()
	if _, err := st.Fetch(); err != nil {
		t.Fatalf("fetch: %v", err)
	}
	return f.Fetch(st, 1, ctype)
}

func TestLongFetchRoundTrip(t *testing.T) {
	text := cjk(5000)
	emoji := strings.Repeat("a😀", 3000)

	tests := []struct {
		name     string
		value    string
		dmQuirk  bool
		zeroTail bool
		noTotal  bool
	}{
		{"cjk no total dm", text, true, false, true},
		{"cjk no total dm zero tail", text, true, true, true},
		{"cjk known total dm", text, true, false, false},
		{"cjk no total conformant", text, false, false, true},
		{"four byte chars dm", emoji, true, false, true},
		{"ascii known total", strings.Repeat("x", 4000), false, false, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			st := newFakeStmt([]types.ColumnDescriptor{col("c", types.SQLVarchar, 8188)}, []any{tt.value})
			st.dmQuirk, st.zeroTail, st.noTotal = tt.dmQuirk, tt.zeroTail, tt.noTotal

			f := NewLongValueFetcher(1024, zerolog.Nop())
			got, null, err := fetchOne(t, st, f, types.CChar)
			if err != nil {
				t.Fatal(err)
			}
			if null {
				t.Fatal("unexpected NULL")
			}
			if string(got) != tt.value {
				t.Fatalf("value differs: got %d bytes, want %d", len(got), len(tt.value))
			}
			if tt.noTotal && f.Growths < 2 {
				t.Errorf("growths = %d, want at least 2", f.Growths)
			}
		})
	}
}

func TestLongFetchWide(t *testing.T) {
	text := cjk(5000)
	st := newFakeStmt([]types.ColumnDescriptor{col("w", types.SQLWLongVarchar, 0)}, []any{text})
	st.noTotal = true

	f := NewLongValueFetcher(1024, zerolog.Nop())
	got, _, err := fetchOne(t, st, f, types.CWChar)
	if err != nil {
		t.Fatal(err)
	}
	s, err := decodeWide(got)
	if err != nil {
		t.Fatal(err)
	}
	if s != text {
		t.Errorf("wide value differs: %d runes", len([]rune(s)))
	}
}

func TestLongFetchBinary(t *testing.T) {
	blob := make([]byte, 10000)
	for i := range blob {
		blob[i] = byte(i * 7)
	}
	for _, noTotal := range []bool{true, false} {
		st := newFakeStmt([]types.ColumnDescriptor{col("b", types.SQLLongVarBinary, 0)}, []any{blob})
		st.noTotal = noTotal

		f := NewLongValueFetcher(512, zerolog.Nop())
		got, _, err := fetchOne(t, st, f, types.CBinary)
		if err != nil {
			t.Fatal(err)
		}
		if !bytes.Equal(got, blob) {
			t.Errorf("noTotal=%v: binary differs (%d bytes)", noTotal, len(got))
		}
	}
}

func TestLongFetchNullAndEmpty(t *testing.T) {
	st := newFakeStmt([]types.ColumnDescriptor{col("c", types.SQLLongVarchar, 0)}, []any{nil}, []any{""})
	f := NewLongValueFetcher(64, zerolog.Nop())

	_, null, err := fetchOne(t, st, f, types.CChar)
	if err != nil || !null {
		t.Fatalf("null row: null=%v err=%v", null, err)
	}
	got, null, err := fetchOne(t, st, f, types.CChar)
	if err != nil || null {
		t.Fatalf("empty row: null=%v err=%v", null, err)
	}
	if got == nil || len(got) != 0 {
		t.Errorf("empty value = %v", got)
	}
}

func TestLongFetchDriverFailureAborts(t *testing.T) {
	st := newFakeStmt([]types.ColumnDescriptor{col("c", types.SQLVarchar, 8188)}, []any{cjk(3000)})
	st.noTotal = true
	st.failOnCall = 3

	f := NewLongValueFetcher(1024, zerolog.Nop())
	got, _, err := fetchOne(t, st, f, types.CChar)
	if got != nil {
		t.Errorf("partial value returned: %d bytes", len(got))
	}
	var de *errs.DriverError
	if !errors.As(err, &de) {
		t.Fatalf("expected DriverError, got %v", err)
	}
	if de.State() != "08S01" {
		t.Errorf("State() = %q", de.State())
	}
}

func TestLongFetchReusesBuffer(t *testing.T) {
	// 1024 -> 2048 при чтении первого значения; второе помещается в 2048
	first := strings.Repeat("z", 3000)
	second := strings.Repeat("y", 2000)
	st := newFakeStmt([]types.ColumnDescriptor{col("c", types.SQLLongVarchar, 0)}, []any{first}, []any{second})
	st.noTotal = true

	f := NewLongValueFetcher(1024, zerolog.Nop())
	got, _, err := fetchOne(t, st, f, types.CChar)
	if err != nil {
		t.Fatal(err)
	}
	if string(got) != first {
		t.Error("first value differs")
	}
	if f.Growths != 1 || len(f.buf) != 2048 {
		t.Fatalf("after first value: growths = %d, buffer = %d; want 1, 2048", f.Growths, len(f.buf))
	}

	calls := f.Calls
	got, _, err = fetchOne(t, st, f, types.CChar)
	if err != nil {
		t.Fatal(err)
	}
	if string(got) != second {
		t.Error("second value differs")
	}
	if f.Growths != 1 {
		t.Errorf("buffer grew again: growths = %d", f.Growths)
	}
	if f.Calls-calls != 1 {
		t.Errorf("second value took %d GetData calls, want 1", f.Calls-calls)
	}
	if len(f.buf) != 2048 {
		t.Errorf("buffer = %d, want 2048", len(f.buf))
	}
}

func TestValidLen(t *testing.T) {
	fill := func(n int, data string, tail ...byte) []byte {
		b := bytes.Repeat([]byte{sentinel}, n)
		copy(b, data)
		copy(b[len(data):], tail)
		return b
	}
	tests := []struct {
		name string
		buf  []byte
		term int
		want int
	}{
		{"conformant", fill(8, "abcdefg", 0), 1, 7},
		{"early terminator", fill(8, "abcd", 0), 1, 4},
		{"early terminator zero tail", fill(8, "abcd", 0, 0, 0, 0), 1, 4},
		{"binary", fill(8, "abcdefgh"), 0, 8},
		{"no terminator found", fill(8, "abcdefgh"), 1, 7},
		{"wide conformant", fill(8, "a\x00b\x00c\x00", 0, 0), 2, 6},
		{"wide early", fill(8, "a\x00b\x00", 0, 0), 2, 4},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := validLen(tt.buf, tt.term); got != tt.want {
				t.Errorf("validLen = %d, want %d", got, tt.want)
			}
		})
	}
}
