// cmd/mvc/main.go
package main

import (
	"os"

	"mvc-server/cmd/mvc/cmd"

	_ "mvc-server/internal/demo/mvc/action"
	_ "mvc-server/internal/demo/service"
	_ "mvc-server/internal/demo/store"
)

func main() {
	if err := cmd.NewRootCommand().Execute(); err != nil {
		os.Exit(1)
	}
}
