// cmd/cadastro/main.go
//
// Cadastro – command-line companion to the web server.
//
//	cadastro check  FILE     validate a JSON submission against a form
//	cadastro fill            answer a form interactively in the terminal
//	cadastro options         print the option catalog as JSON
//
// Forms come from the same places the server uses: --forms-dir overrides
// first, then the definitions compiled into each component.
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"

	"go.uber.org/zap"

	"github.com/yanizio/cadastro/internal/logger"
)

func main() {
	zap.ReplaceGlobals(logger.Console("info").Desugar())
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()
	if err := newRootCmd().ExecuteContext(ctx); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
