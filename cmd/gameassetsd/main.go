package main

import (
	_ "embed"
	"os"
	"strings"

	"gameassets/pkg/log"
)

//go:embed VERSION
var Version string

func main() {
	_ = log.Logger

	if err := newRootCmd(strings.TrimSpace(Version)).Execute(); err != nil {
		os.Exit(1)
	}
}
