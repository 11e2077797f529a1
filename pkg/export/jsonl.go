// Package export пишет материализованные результаты запросов в файлы: JSON lines
// (при необходимости со сжатием zstd и контрольной суммой xxh3) и листы XLSX.
package export

import (
	"bufio"
	"bytes"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"io"

	"github.com/klauspost/compress/zstd"
	"github.com/zeebo/xxh3"

	"github.com/ruslano69/dmbridge/pkg/core/types"
	"github.com/ruslano69/dmbridge/pkg/executor"
)

// Options выгрузки JSON lines.
type Options struct {
	Compress bool `yaml:"compress"`
	Level    int  `yaml:"compress_level"` // 1 (быстрее) - 22 (лучше), ноль означает 3
	Checksum bool `yaml:"checksum"`
}

// Summary описывает записанную выгрузку. Bytes - сколько дошло до приемника;
// Checksum - hex xxh3-64 несжатых строк.
type Summary struct {
	Rows       int    `json:"rows"`
	Bytes      int64  `json:"bytes"`
	Compressed bool   `json:"compressed"`
	Checksum   string `json:"checksum,omitempty"`
}

// WriteJSONLines пишет по JSON-объекту на строку с ключами по именам колонок.
// NULL становится null, двоичные значения строками base64, дата и время
// каноническим текстом.
func WriteJSONLines(w io.Writer, res *executor.QueryResult, opts Options) (*Summary, error) {
	cw := &countingWriter{w: w}
	var dst io.Writer = cw

	var enc *zstd.Encoder
	if opts.Compress {
		level := opts.Level
		if level == 0 {
			level = 3
		}
		var err error
		enc, err = zstd.NewWriter(cw, zstd.WithEncoderLevel(zstd.EncoderLevelFromZstd(level)))
		if err != nil {
			return nil, fmt.Errorf("failed to create zstd encoder: %w", err)
		}
		dst = enc
	}

	hasher := xxh3.New()
	if opts.Checksum {
		dst = io.MultiWriter(dst, hasher)
	}
	bw := bufio.NewWriter(dst)

	names := make([]string, len(res.Columns))
	for i, c := range res.Columns {
		names[i] = c.Name
	}
	je := json.NewEncoder(bw)
	je.SetEscapeHTML(false)
	for n, row := range res.Rows {
		obj := make(orderedRow, len(row))
		for i, v := range row {
			obj[i] = field{name: names[i], value: jsonValue(v)}
		}
		if err := je.Encode(obj); err != nil {
			return nil, fmt.Errorf("row %d: %w", n+1, err)
		}
	}

	if err := bw.Flush(); err != nil {
		return nil, err
	}
	if enc != nil {
		if err := enc.Close(); err != nil {
			return nil, fmt.Errorf("failed to finish zstd stream: %w", err)
		}
	}

	s := &Summary{Rows: len(res.Rows), Bytes: cw.n, Compressed: opts.Compress}
	if opts.Checksum {
		s.Checksum = checksumHex(hasher.Sum64())
	}
	return s, nil
}

// ReadJSONLines читает выгрузку обратно как обобщенные объекты. Непустая
// контрольная сумма сверяется с несжатым содержимым.
func ReadJSONLines(r io.Reader, compressed bool, checksum string) ([]map[string]any, error) {
	src := r
	if compressed {
		dec, err := zstd.NewReader(r)
		if err != nil {
			return nil, fmt.Errorf("failed to create zstd decoder: %w", err)
		}
		defer dec.Close()
		src = dec
	}
	hasher := xxh3.New()
	src = io.TeeReader(src, hasher)

	var out []map[string]any
	jd := json.NewDecoder(src)
	jd.UseNumber()
	for {
		var obj map[string]any
		err := jd.Decode(&obj)
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("line %d: %w", len(out)+1, err)
		}
		out = append(out, obj)
	}
	// дочитываем завершающий перевод строки, чтобы хэш покрыл весь поток
	if _, err := io.Copy(io.Discard, src); err != nil {
		return nil, err
	}
	if checksum != "" {
		if actual := checksumHex(hasher.Sum64()); actual != checksum {
			return nil, fmt.Errorf("checksum mismatch: expected %s, got %s (data corruption detected)", checksum, actual)
		}
	}
	return out, nil
}

func jsonValue(v types.ColumnValue) any {
	if v.IsNull() {
		return nil
	}
	switch v.Kind() {
	case types.KindText, types.KindWideText, types.KindDate, types.KindTime, types.KindTimestamp:
		return v.String()
	case types.KindBinary:
		return v.Bytes()
	case types.KindF32, types.KindF64:
		return v.Float()
	case types.KindBit:
		return v.Bool()
	}
	return v.Int()
}

func checksumHex(h uint64) string {
	var b [8]byte
	for i := 7; i >= 0; i-- {
		b[i] = byte(h)
		h >>= 8
	}
	return hex.EncodeToString(b[:])
}

// orderedRow сохраняет порядок колонок результата в закодированном объекте.
type orderedRow []field

type field struct {
	name  string
	value any
}

func (r orderedRow) MarshalJSON() ([]byte, error) {
	buf := []byte{'{'}
	for i, f := range r {
		if i > 0 {
			buf = append(buf, ',')
		}
		var err error
		if buf, err = appendJSON(buf, f.name); err != nil {
			return nil, err
		}
		buf = append(buf, ':')
		if buf, err = appendJSON(buf, f.value); err != nil {
			return nil, err
		}
	}
	return append(buf, '}'), nil
}

// appendJSON кодирует v без HTML-экранирования.
func appendJSON(buf []byte, v any) ([]byte, error) {
	var b bytes.Buffer
	e := json.NewEncoder(&b)
	e.SetEscapeHTML(false)
	if err := e.Encode(v); err != nil {
		return nil, err
	}
	return append(buf, bytes.TrimSuffix(b.Bytes(), []byte{'\n'})...), nil
}

type countingWriter struct {
	w io.Writer
	n int64
}

func (c *countingWriter) Write(p []byte) (int, error) {
	n, err := c.w.Write(p)
	c.n += int64(n)
	return n, err
}
