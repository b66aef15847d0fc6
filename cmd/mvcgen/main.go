// cmd/mvcgen/main.go
package main

import (
	"flag"
	"log"

	"mvc-server/internal/component/codegen"
)

func main() {
	var dir, base string
	flag.StringVar(&dir, "dir", ".", "source tree to scan for //mvc: markers")
	flag.StringVar(&base, "base", "", "dotted package name of dir (default: directory name)")
	flag.Parse()

	written, err := codegen.Generate(dir, base)
	if err != nil {
		log.Fatal(err)
	}
	for _, f := range written {
		log.Printf("[mvcgen] wrote %s", f)
	}
}
