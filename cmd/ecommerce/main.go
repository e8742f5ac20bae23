// Command ecommerce はセッション認証APIサーバーと関連ツールを起動する。
//
//	ecommerce [serve|worker|migrate|healthcheck]
package main

import (
	"fmt"
	"os"

	"github.com/markiiman/ecommerce-app/internal/app"
)

func main() {
	if err := app.Run(os.Stdout, os.Args[1:]); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
