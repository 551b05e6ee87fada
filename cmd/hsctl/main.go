package main

import (
	"github.com/hideseekgame/hideseekgame-go/internal/cli"
)

func main() {
	cli.Execute()
}
