// Command codereview はコードレビューAPIサーバーを起動する。
//
//	codereview [serve]     APIサーバーを起動する（デフォルト）
//	codereview migrate     マイグレーションを適用して終了する
//	codereview healthcheck /health を確認する（Dockerヘルスチェック用）
package main

import (
	"fmt"
	"os"

	"github.com/hitoshi/codereview/internal/app"
)

func main() {
	if err := app.Run(os.Stdout, os.Args[1:]); err != nil {
		fmt.Fprintf(os.Stderr, "codereview: %v\n", err)
		os.Exit(1)
	}
}
