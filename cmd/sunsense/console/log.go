package console

import (
	"fmt"
	"io"
	"os"
)

const PictoSun = "☀️"
const PictoInfrared = "🔥"
const PictoCheck = "✅"
const PictoStop = "🚫"

var writer io.Writer = os.Stdout
var errWriter io.Writer = os.Stderr

// SetOutput redirects regular and error output.
func SetOutput(w, errw io.Writer) {
	writer = w
	errWriter = errw
}

func Errorf(msg string, args ...interface{}) {
	_, _ = fmt.Fprintf(errWriter, "%s: %s\n", Red("ERROR"), fmt.Sprintf(msg, args...))
}

func Warnf(msg string, args ...interface{}) {
	_, _ = fmt.Fprintf(errWriter, "%s: %s\n", Yellow("WARN"), fmt.Sprintf(msg, args...))
}

func PInfof(picto, msg string, args ...interface{}) {
	_, _ = fmt.Fprintf(writer, "%s %s\n", picto, fmt.Sprintf(msg, args...))
}

func Printf(msg string, args ...interface{}) {
	_, _ = fmt.Fprintf(writer, msg, args...)
}

// Writer returns the regular output, for encoders.
func Writer() io.Writer {
	return writer
}
