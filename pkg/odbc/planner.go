package odbc

import (
	"fmt"

	"github.com/ruslano69/dmbridge/pkg/core/errs"
	"github.com/ruslano69/dmbridge/pkg/core/types"
)

// PlanKind - стратегия буфера для колонки.
type PlanKind uint8

const (
	FixedSlot PlanKind = iota + 1
	TextSlot
	BinarySlot
	LongText
	LongBinary
)

func (k PlanKind) String() string {
	switch k {
	case FixedSlot:
		return "FixedSlot"
	case TextSlot:
		return "TextSlot"
	case BinarySlot:
		return "BinarySlot"
	case LongText:
		return "LongText"
	case LongBinary:
		return "LongBinary"
	}
	return fmt.Sprintf("PlanKind(%d)", uint8(k))
}

// Кодировка текстового буфера.
type Encoding uint8

const (
	EncodingNone Encoding = iota
	EncodingNarrow
	EncodingWide
)

// Цифр, которые может занять NUMERIC без заданной точности, без знака и точки.
const maxNumericDigits = 38

// BufferPlan - раскладка памяти колонки. Capacity - ширина привязанного
// слота в байтах с терминатором; для длинных планов ноль,
// их размер определяется при чтении.
type BufferPlan struct {
	Kind     PlanKind
	Capacity int
	Encoding Encoding
	CType    types.CType
	Value    types.Kind
}

// Long сообщает, нужен ли колонке протокол чтения по частям.
func (p BufferPlan) Long() bool { return p.Kind == LongText || p.Kind == LongBinary }

func (p BufferPlan) String() string {
	if p.Long() {
		return p.Kind.String()
	}
	return fmt.Sprintf("%s(%d)", p.Kind, p.Capacity)
}

// Plan выбирает стратегию буфера для колонки.
//
// Типы фиксированной ширины получают слот своего размера. Текст и двоичные
// данные получают слот заявленной длины плюс терминатор, если длина
// не превышает потолка, иначе длинный план. Длина ноль или меньше
// означает, что драйвер ее не знает, и тоже дает длинный план.
// Широкий текст сравнивает длину в символах с maxStrLen и занимает
// два байта на символ.
//
// Plan не имеет состояния; вызывайте его для каждого курсора.
func Plan(desc types.ColumnDescriptor, maxStrLen, maxBinaryLen int) (BufferPlan, error) {
	info, err := types.Lookup(desc.Wire)
	if err != nil {
		return BufferPlan{}, errs.NewTypeConversion(desc.Wire.Code.String(), "buffer plan for column "+desc.Name, err)
	}
	p := BufferPlan{CType: info.CType, Value: info.Kind}

	length := desc.Wire.Length
	switch info.Shape {
	case types.ShapeFixed:
		p.Kind = FixedSlot
		p.Capacity = info.Size
		return p, nil

	case types.ShapeText:
		p.Encoding = EncodingNarrow
		if desc.Wire.Code == types.SQLNumeric || desc.Wire.Code == types.SQLDecimal {
			if length <= 0 {
				length = maxNumericDigits
			}
			length += 2
		}
		if length <= 0 || length > maxStrLen {
			p.Kind = LongText
			return p, nil
		}
		p.Kind = TextSlot
		p.Capacity = length + 1
		return p, nil

	case types.ShapeWideText:
		p.Encoding = EncodingWide
		if length <= 0 || length > maxStrLen {
			p.Kind = LongText
			return p, nil
		}
		p.Kind = TextSlot
		p.Capacity = (length + 1) * 2
		return p, nil

	case types.ShapeBinary:
		if length <= 0 || length > maxBinaryLen {
			p.Kind = LongBinary
			return p, nil
		}
		p.Kind = BinarySlot
		p.Capacity = length + 1
		return p, nil
	}
	return BufferPlan{}, errs.NewTypeConversion(desc.Wire.Code.String(), "buffer plan for column "+desc.Name, nil)
}
