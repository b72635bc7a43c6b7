package main

import (
	"fmt"
	"os"

	"github.com/dmitrijs2005/cardkeeper/internal/admin"
)

func main() {
	if err := admin.NewApp(admin.OpenDatabase).Run(os.Args); err != nil {
		fmt.Fprintln(os.Stderr, "error:", err)
		os.Exit(1)
	}
}
