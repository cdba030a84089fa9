package database

import (
	"database/sql"
	"fmt"
	"strings"

	_ "github.com/lib/pq"
	_ "modernc.org/sqlite"
)

// sqliteScheme はSQLiteを指すDATABASE_URLのプレフィックス。
// 例: "sqlite://./data/codereview.db", "sqlite://:memory:"
const sqliteScheme = "sqlite://"

// Open はDATABASE_URLに応じたデータベース接続を開く。
// postgres:// / postgresql:// はPostgreSQL（lib/pq）、sqlite:// はSQLite（modernc.org/sqlite）を使用する。
// sql.Openは接続を試行しないため、実際の接続確認にはdb.Ping()を使用すること。
func Open(databaseURL string) (*sql.DB, error) {
	switch DialectFromURL(databaseURL) {
	case DialectSQLite:
		db, err := sql.Open("sqlite", sqliteDSN(databaseURL))
		if err != nil {
			return nil, fmt.Errorf("failed to open database: %w", err)
		}
		// SQLiteは書き込みが直列化されるため接続を1本に固定する。
		// :memory: の場合、接続ごとに別DBになるのを防ぐ意味もある。
		db.SetMaxOpenConns(1)
		return db, nil
	default:
		db, err := sql.Open("postgres", databaseURL)
		if err != nil {
			return nil, fmt.Errorf("failed to open database: %w", err)
		}
		return db, nil
	}
}

// sqliteDSN はsqlite:// URLをmodernc.org/sqlite用のDSNに変換する。
// 外部キー制約を有効化し、時刻はSQLite標準形式で書き込む。
func sqliteDSN(databaseURL string) string {
	path := strings.TrimPrefix(databaseURL, sqliteScheme)
	params := "_pragma=foreign_keys(1)&_time_format=sqlite"
	if strings.Contains(path, "?") {
		return path + "&" + params
	}
	return path + "?" + params
}
