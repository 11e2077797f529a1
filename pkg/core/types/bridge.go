package types

import (
	"fmt"

	"github.com/ruslano69/dmbridge/pkg/core/errs"
)

// SourceToTarget отображает тип DM в тип PostgreSQL.
//
// Семейство NUMERIC/NUMBER/DECIMAL сводится к numeric, точность и масштаб
// живут отдельно в описании колонки. TINYINT и BYTE расширяются до int2,
// так как в PostgreSQL нет однобайтового целого. TIMESTAMP WITH LOCAL TIME ZONE
// сводится к timestamptz с потерей семантики сессионной зоны (см. LossyCollapse).
func SourceToTarget(t SourceType) (TargetType, error) {
	switch t {
	case SourceChar:
		return TargetBpchar, nil
	case SourceVarchar, SourceVarchar2:
		return TargetVarchar, nil
	case SourceText, SourceLongVarchar, SourceClob:
		return TargetText, nil
	case SourceNumeric, SourceNumber, SourceDecimal:
		return TargetNumeric, nil
	case SourceBit:
		return TargetBool, nil
	case SourceTinyint, SourceByte, SourceSmallint:
		return TargetInt2, nil
	case SourceInt:
		return TargetInt4, nil
	case SourceBigint:
		return TargetInt8, nil
	case SourceReal:
		return TargetFloat4, nil
	case SourceFloat, SourceDouble:
		return TargetFloat8, nil
	case SourceBinary, SourceVarbinary, SourceLongVarbinary, SourceImage, SourceBlob, SourceBfile:
		return TargetBytea, nil
	case SourceDate:
		return TargetDate, nil
	case SourceTime:
		return TargetTime, nil
	case SourceTimeTZ:
		return TargetTimeTZ, nil
	case SourceTimestamp, SourceDatetime:
		return TargetTimestamp, nil
	case SourceTimestampTZ, SourceTimestampLTZ:
		return TargetTimestampTZ, nil
	case SourceInterval:
		return TargetInterval, nil
	case SourceUnknown:
		return TargetUnknown, nil
	}
	return "", errs.NewTypeConversion(string(t), "PostgreSQL type", nil)
}

// TargetToSource отображает тип PostgreSQL в канонический тип DM.
// Частичная функция: для uuid, json, jsonb, xml, inet, cidr, macaddr,
// money и oid аналога в DM нет, и возвращается ошибка.
func TargetToSource(t TargetType) (SourceType, error) {
	switch t {
	case TargetBool:
		return SourceBit, nil
	case TargetInt2:
		return SourceSmallint, nil
	case TargetInt4:
		return SourceInt, nil
	case TargetInt8:
		return SourceBigint, nil
	case TargetFloat4:
		return SourceReal, nil
	case TargetFloat8:
		return SourceDouble, nil
	case TargetNumeric:
		return SourceNumeric, nil
	case TargetBpchar:
		return SourceChar, nil
	case TargetVarchar:
		return SourceVarchar, nil
	case TargetText:
		return SourceText, nil
	case TargetBytea:
		return SourceBlob, nil
	case TargetDate:
		return SourceDate, nil
	case TargetTime:
		return SourceTime, nil
	case TargetTimeTZ:
		return SourceTimeTZ, nil
	case TargetTimestamp:
		return SourceTimestamp, nil
	case TargetTimestampTZ:
		return SourceTimestampTZ, nil
	case TargetInterval:
		return SourceInterval, nil
	case TargetUnknown:
		return SourceUnknown, nil
	case TargetUUID, TargetJSON, TargetJSONB, TargetXML, TargetInet, TargetCidr,
		TargetMacaddr, TargetMoney, TargetOID:
		return "", errs.NewTypeConversion(string(t), "DM type",
			fmt.Errorf("%s has no DM equivalent", t))
	}
	return "", errs.NewTypeConversion(string(t), "DM type", nil)
}

// WireToSource отображает wire-тип курсора в тип DM.
func WireToSource(w WireType) (SourceType, error) {
	info, err := Lookup(w)
	if err != nil {
		return "", err
	}
	return info.Source, nil
}

// WireToTarget отображает wire-тип курсора в тип PostgreSQL.
func WireToTarget(w WireType) (TargetType, error) {
	src, err := WireToSource(w)
	if err != nil {
		return "", err
	}
	return SourceToTarget(src)
}

// Canonical возвращает представителя класса типов DM, сводимых к одному
// типу PostgreSQL. Для него TargetToSource(SourceToTarget(t)) == Canonical(t).
func Canonical(t SourceType) SourceType {
	switch t {
	case SourceVarchar2:
		return SourceVarchar
	case SourceLongVarchar, SourceClob:
		return SourceText
	case SourceNumber, SourceDecimal:
		return SourceNumeric
	case SourceTinyint, SourceByte:
		return SourceSmallint
	case SourceFloat:
		return SourceDouble
	case SourceBinary, SourceVarbinary, SourceLongVarbinary, SourceImage, SourceBfile:
		return SourceBlob
	case SourceDatetime:
		return SourceTimestamp
	case SourceTimestampLTZ:
		return SourceTimestampTZ
	}
	return t
}

// LossyCollapse сообщает, теряет ли отображение t в PostgreSQL семантику,
// которую нельзя восстановить обратным отображением.
func LossyCollapse(t SourceType) bool {
	switch t {
	case SourceTimestampLTZ, SourceBfile, SourceUnknown:
		return true
	}
	return false
}
