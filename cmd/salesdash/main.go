// salesdash は営業管理バックエンド向けのロール別管理コンソール。
package main

import (
	"fmt"
	"os"

	"github.com/hitoshi/salesdash/internal/app"
)

func main() {
	if err := app.Run(os.Stdout, os.Args[1:]); err != nil {
		fmt.Fprintln(os.Stderr, "error:", err)
		os.Exit(1)
	}
}
