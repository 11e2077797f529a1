package odbc

import (
	"errors"
	"fmt"

	"github.com/rs/zerolog"

	"github.com/ruslano69/dmbridge/pkg/core/errs"
	"github.com/ruslano69/dmbridge/pkg/core/types"
)

const (
	// sentinel отмечает байты буфера, не записанные драйвером. 0xFF не
	// встречается в тексте UTF-8 и GB18030.
	sentinel = 0xFF

	// truncWindow - насколько раньше конца полного буфера DM может поставить
	// терминатор, не разрывая многобайтовый символ.
	truncWindow = 4

	minLongBuffer = 8
)

// LongValueFetcher читает значения непривязанных колонок по частям через
// GetData. Буфер переиспользуется между значениями и только растет.
// Разделять fetcher между горутинами нельзя.
type LongValueFetcher struct {
	buf []byte
	log zerolog.Logger

	// Calls и Growths считают вызовы GetData и рост буфера с момента создания.
	Calls   int
	Growths int
}

// NewLongValueFetcher создает fetcher с начальным буфером в initial байт.
func NewLongValueFetcher(initial int, log zerolog.Logger) *LongValueFetcher {
	if initial < minLongBuffer {
		initial = minLongBuffer
	}
	return &LongValueFetcher{buf: make([]byte, initial), log: log}
}

// Fetch читает колонку col текущей строки до конца. Возвращает байты
// значения без терминатора или null=true для SQL NULL. Любая ошибка
// драйвера прерывает чтение, ничего не возвращается.
//
// Обработка индикатора:
//   - NullData: значение NULL.
//   - NoTotal: буфер заполнен, длина остатка неизвестна. Значимая часть
//     добавляется, буфер удваивается, цикл продолжается.
//   - n помещается в буфер: последняя часть, ровно n байт.
//   - n не помещается: значимая часть добавляется, буфер увеличивается
//     под оставшиеся n байт, цикл продолжается.
func (f *LongValueFetcher) Fetch(stmt Statement, col int, ctype types.CType) (value []byte, null bool, err error) {
	term := terminatorSize(ctype)
	buf := f.buf
	var out []byte

	for {
		fillSentinel(buf)
		f.Calls++
		ind, err := stmt.GetData(col, ctype, buf)
		if errors.Is(err, ErrNoData) {
			break
		}
		if err != nil {
			return nil, false, errs.NewDriverError(fmt.Sprintf("get data for column %d", col), err)
		}

		switch {
		case ind == NullData:
			f.buf = buf
			return nil, true, nil

		case ind == NoTotal:
			out = append(out, buf[:validLen(buf, term)]...)
			buf = f.grow(len(buf) * 2)
			f.log.Debug().Int("column", col).Int("buffer", len(buf)).Msg("long value: no total, buffer doubled")

		case ind >= 0 && int(ind)+term <= len(buf):
			out = append(out, buf[:ind]...)
			f.buf = buf
			if out == nil {
				out = []byte{}
			}
			return out, false, nil

		case ind >= 0:
			out = append(out, buf[:validLen(buf, term)]...)
			need := int(ind) + max(term, 1)
			if need > len(buf) {
				buf = f.grow(need)
				f.log.Debug().Int("column", col).Int("buffer", len(buf)).Int64("remaining", int64(ind)).Msg("long value: buffer resized")
			}

		default:
			return nil, false, errs.NewDriverDiag(fmt.Sprintf("get data for column %d", col), "HY000",
				fmt.Sprintf("invalid indicator %d", ind))
		}
	}

	f.buf = buf
	if out == nil {
		out = []byte{}
	}
	return out, false, nil
}

func (f *LongValueFetcher) grow(n int) []byte {
	f.Growths++
	return make([]byte, n)
}

func fillSentinel(b []byte) {
	for i := range b {
		b[i] = sentinel
	}
}

// validLen возвращает, сколько начальных байт заполненного буфера
// относятся к значению.
//
// Драйвер по стандарту пишет len-term байт данных и терминатор. DM может
// остановиться до трех байт раньше на границе символа и поставить
// терминатор там, оставив байты за ним нетронутыми или нулевыми. Поэтому
// терминатор ищется в последнем окне: данные заканчивает первый выровненный
// терминатор, за которым только нулевые байты или sentinel.
func validLen(buf []byte, term int) int {
	n := len(buf)
	if term == 0 {
		return n
	}
	start := n - truncWindow - term
	if start < 0 {
		start = 0
	}
	start -= start % term
	for p := start; p+term <= n; p += term {
		if !isZero(buf[p:p+term]) {
			continue
		}
		if onlyFiller(buf[p+term:]) {
			return p
		}
	}
	return n - term
}

func isZero(b []byte) bool {
	for _, c := range b {
		if c != 0 {
			return false
		}
	}
	return true
}

func onlyFiller(b []byte) bool {
	for _, c := range b {
		if c != 0 && c != sentinel {
			return false
		}
	}
	return true
}
