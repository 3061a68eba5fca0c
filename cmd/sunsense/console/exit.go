package console

import (
	"fmt"

	"github.com/urfave/cli/v2"
)

// Exit formats msg and wraps it into an error carrying the process exit code.
func Exit(code int, msg string, args ...interface{}) cli.ExitCoder {
	return cli.Exit(fmt.Sprintf(msg, args...), code)
}
