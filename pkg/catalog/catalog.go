// Package catalog разбирает результат запроса к системному каталогу DM
// в описания колонок таблиц.
package catalog

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/golang-sql/civil"

	"github.com/ruslano69/dmbridge/pkg/core/errs"
	"github.com/ruslano69/dmbridge/pkg/core/types"
)

// ColumnRole - роль колонки результата каталожного запроса.
type ColumnRole int

const (
	RoleName ColumnRole = iota + 1
	RoleID
	RoleColumnIndex
	RoleType
	RoleLength
	RoleScale
	RoleNullable
	RoleIdentity
	RoleDefault
	RoleTableName
	RoleCreated
	RoleSubtype
)

// Словарь заголовков. Сравнение точное, с учётом регистра.
var headerRoles = map[string]ColumnRole{
	"NAME":       RoleName,
	"ID":         RoleID,
	"COLID":      RoleColumnIndex,
	"TYPE$":      RoleType,
	"LENGTH$":    RoleLength,
	"SCALE":      RoleScale,
	"NULLABLE$":  RoleNullable,
	"IDENTITY":   RoleIdentity,
	"DEFVAL":     RoleDefault,
	"TABLE_NAME": RoleTableName,
	"CRTDATE":    RoleCreated,
	"SUBTYPE$":   RoleSubtype,
}

func (r ColumnRole) String() string {
	for h, role := range headerRoles {
		if role == r {
			return h
		}
	}
	return fmt.Sprintf("ColumnRole(%d)", int(r))
}

// Headers возвращает словарь заголовков в порядке DescribeQuery.
func Headers() []string {
	return []string{"NAME", "ID", "COLID", "TYPE$", "LENGTH$", "SCALE", "NULLABLE$",
		"IDENTITY", "DEFVAL", "TABLE_NAME", "CRTDATE", "SUBTYPE$"}
}

// DescribeQuery - запрос к SYSCOLUMNS/SYSOBJECTS. Параметры: имя таблицы, имя схемы.
// Заголовки результата совпадают с Headers().
const DescribeQuery = `SELECT C.NAME AS "NAME", C.ID AS "ID", C.COLID AS "COLID", C.TYPE$ AS "TYPE$",
       C.LENGTH$ AS "LENGTH$", C.SCALE AS "SCALE", C.NULLABLE$ AS "NULLABLE$",
       CASE WHEN C.INFO2 & 1 = 1 THEN '1' ELSE '0' END AS "IDENTITY",
       C.DEFVAL AS "DEFVAL", O.NAME AS "TABLE_NAME", O.CRTDATE AS "CRTDATE", O.SUBTYPE$ AS "SUBTYPE$"
  FROM SYSCOLUMNS C
  JOIN SYSOBJECTS O ON C.ID = O.ID
 WHERE O.NAME = ?
   AND O.SCHID = (SELECT S.ID FROM SYSOBJECTS S WHERE S.NAME = ? AND S.TYPE$ = 'SCH')
 ORDER BY C.COLID`

// TableColumnDescriptor - описание одной колонки физической таблицы.
type TableColumnDescriptor struct {
	Name      string
	TableID   uint64
	Index     uint64
	Type      types.SourceType
	TypeName  string // TYPE$ как есть, с размерами
	Length    uint64
	Scale     uint64
	Nullable  bool
	Identity  bool
	Default   string
	TableName string
	Created   civil.DateTime
	Subtype   string
}

// Description - результат разбора. Data хранит колонки по имени таблицы
// в порядке появления; Tables - порядок появления таблиц.
type Description struct {
	Headers map[int]ColumnRole
	Tables  []string
	Data    map[string][]TableColumnDescriptor
}

// Columns возвращает колонки таблицы или nil.
func (d *Description) Columns(table string) []TableColumnDescriptor {
	return d.Data[table]
}

// Parse разбирает заголовки и строки каталожного запроса.
//
// Незнакомый заголовок или строка с неверным числом полей прерывают разбор
// целиком. Числовые роли разбираются как беззнаковые целые. Для NULLABLE$
// принимаются только "Y"/"N" (без учёта регистра), для IDENTITY - "1"/"0";
// любое другое значение оставляет поле в значении по умолчанию (false).
func Parse(headers []string, rows [][]string) (*Description, error) {
	d := &Description{
		Headers: make(map[int]ColumnRole, len(headers)),
		Data:    make(map[string][]TableColumnDescriptor),
	}
	for i, h := range headers {
		role, ok := headerRoles[h]
		if !ok {
			return nil, errs.NewTypeConversion(h, "catalog header", nil)
		}
		d.Headers[i] = role
	}

	for n, row := range rows {
		if len(row) != len(headers) {
			return nil, errs.NewTypeConversion(strings.Join(row, ","), "catalog row",
				fmt.Errorf("row %d has %d fields, expected %d", n+1, len(row), len(headers)))
		}
		var col TableColumnDescriptor
		for i, field := range row {
			if err := col.set(d.Headers[i], field); err != nil {
				return nil, fmt.Errorf("row %d: %w", n+1, err)
			}
		}
		if _, seen := d.Data[col.TableName]; !seen {
			d.Tables = append(d.Tables, col.TableName)
		}
		d.Data[col.TableName] = append(d.Data[col.TableName], col)
	}
	return d, nil
}

func (c *TableColumnDescriptor) set(role ColumnRole, field string) error {
	var err error
	switch role {
	case RoleName:
		c.Name = field
	case RoleID:
		c.TableID, err = parseUint(field, role)
	case RoleColumnIndex:
		c.Index, err = parseUint(field, role)
	case RoleType:
		c.TypeName = field
		c.Type = types.ParseSourceType(field)
	case RoleLength:
		c.Length, err = parseUint(field, role)
	case RoleScale:
		c.Scale, err = parseUint(field, role)
	case RoleNullable:
		switch strings.ToUpper(field) {
		case "Y":
			c.Nullable = true
		case "N":
			c.Nullable = false
		}
	case RoleIdentity:
		switch field {
		case "1":
			c.Identity = true
		case "0":
			c.Identity = false
		}
	case RoleDefault:
		c.Default = field
	case RoleTableName:
		c.TableName = field
	case RoleCreated:
		c.Created, err = parseCreated(field)
	case RoleSubtype:
		c.Subtype = field
	}
	return err
}

func parseUint(s string, role ColumnRole) (uint64, error) {
	v, err := strconv.ParseUint(strings.TrimSpace(s), 10, 64)
	if err != nil {
		return 0, errs.NewTypeConversion(s, role.String(), err)
	}
	return v, nil
}

var createdLayouts = []string{
	"2006-01-02 15:04:05.999999999",
	"2006-01-02T15:04:05.999999999",
	"2006-01-02 15:04:05.999999999 -07:00",
	"2006-01-02",
}

func parseCreated(s string) (civil.DateTime, error) {
	s = strings.TrimSpace(s)
	for _, layout := range createdLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return civil.DateTimeOf(t), nil
		}
	}
	return civil.DateTime{}, errs.NewTypeConversion(s, RoleCreated.String(), nil)
}
