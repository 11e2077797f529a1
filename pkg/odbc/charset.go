package odbc

import (
	"strings"
	"unicode/utf8"

	"golang.org/x/text/encoding"
	"golang.org/x/text/encoding/simplifiedchinese"
	"golang.org/x/text/encoding/unicode"

	"github.com/ruslano69/dmbridge/pkg/core/errs"
)

// Charset - кодировка узкого текста (SQL_C_CHAR) от драйвера.
type Charset string

const (
	CharsetUTF8    Charset = "utf-8"
	CharsetGB18030 Charset = "gb18030"
)

// ParseCharset принимает обычные написания; пустое имя означает UTF-8.
func ParseCharset(name string) (Charset, error) {
	switch strings.ToLower(strings.ReplaceAll(name, "_", "-")) {
	case "", "utf-8", "utf8":
		return CharsetUTF8, nil
	case "gb18030", "gbk", "gb2312":
		return CharsetGB18030, nil
	}
	return "", errs.Errorf("unsupported charset %q", name)
}

var wideDecoder = unicode.UTF16(unicode.LittleEndian, unicode.IgnoreBOM)

// decodeNarrow переводит узкий текст в строку Go.
func decodeNarrow(cs Charset, b []byte) (string, error) {
	if cs == CharsetGB18030 {
		return decodeWith(simplifiedchinese.GB18030, b, string(CharsetGB18030))
	}
	if !utf8.Valid(b) {
		return "", errs.NewTypeConversion(string(b), "UTF-8 text", nil)
	}
	return string(b), nil
}

// decodeWide переводит текст UTF-16LE в строку Go.
func decodeWide(b []byte) (string, error) {
	if len(b)%2 != 0 {
		return "", errs.NewTypeConversion(string(b), "UTF-16 text", nil)
	}
	return decodeWith(wideDecoder, b, "UTF-16 text")
}

func decodeWith(enc encoding.Encoding, b []byte, target string) (string, error) {
	out, err := enc.NewDecoder().Bytes(b)
	if err != nil {
		return "", errs.NewTypeConversion(string(b), target, err)
	}
	return string(out), nil
}

// EncodeWide переводит s в UTF-16LE, как драйвер пишет данные SQL_C_WCHAR.
func EncodeWide(s string) []byte {
	out, _ := wideDecoder.NewEncoder().Bytes([]byte(s))
	return out
}

// EncodeNarrow переводит s в заданную кодировку.
func EncodeNarrow(cs Charset, s string) ([]byte, error) {
	if cs != CharsetGB18030 {
		return []byte(s), nil
	}
	out, err := simplifiedchinese.GB18030.NewEncoder().Bytes([]byte(s))
	if err != nil {
		return nil, errs.NewTypeConversion(s, string(CharsetGB18030), err)
	}
	return out, nil
}
