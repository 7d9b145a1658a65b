// Command foodtracker は食事記録サービスのAPIサーバー、ワーカー、マイグレーションを起動する。
//
//	foodtracker [serve|worker|migrate|healthcheck]
package main

import (
	"fmt"
	"os"

	"github.com/hitoshi/foodtracker/internal/app"
)

func main() {
	if err := app.Run(os.Stdout, os.Args[1:]); err != nil {
		fmt.Fprintf(os.Stderr, "foodtracker: %v\n", err)
		os.Exit(1)
	}
}
