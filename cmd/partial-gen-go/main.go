package main

import (
	"context"
	_ "embed"

	"github.com/goaux/headline"
	"github.com/takumakei/partial-gen-go/generator"
)

//go:embed usage.md
var usage string

func main() {
	generator.Main(context.Background(), generator.Config{
		Use:     "partial-gen-go",
		Short:   headline.Get(usage),
		Long:    usage,
		Version: "v0.1.0",

		DefaultSuffix: "Partial",
		DefaultFormat: true,
	})
}
