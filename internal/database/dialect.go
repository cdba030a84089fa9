package database

import (
	"strconv"
	"strings"
)

// Dialect はSQL方言を表す。
type Dialect int

const (
	// DialectPostgres はPostgreSQL方言。プレースホルダは$1, $2, ...
	DialectPostgres Dialect = iota
	// DialectSQLite はSQLite方言。プレースホルダは?
	DialectSQLite
)

// String は方言名を返す。
func (d Dialect) String() string {
	switch d {
	case DialectSQLite:
		return "sqlite"
	default:
		return "postgres"
	}
}

// DialectFromURL はDATABASE_URLから方言を判定する。
// sqlite:// 以外はすべてPostgreSQLとして扱う。
func DialectFromURL(databaseURL string) Dialect {
	if strings.HasPrefix(databaseURL, sqliteScheme) {
		return DialectSQLite
	}
	return DialectPostgres
}

// Rebind は?プレースホルダで書かれたクエリを方言に合わせて書き換える。
// クエリ中の文字列リテラルに?を含めないこと。
func (d Dialect) Rebind(query string) string {
	if d != DialectPostgres {
		return query
	}

	var b strings.Builder
	b.Grow(len(query) + 8)
	n := 0
	for i := 0; i < len(query); i++ {
		if query[i] == '?' {
			n++
			b.WriteByte('$')
			b.WriteString(strconv.Itoa(n))
			continue
		}
		b.WriteByte(query[i])
	}
	return b.String()
}
