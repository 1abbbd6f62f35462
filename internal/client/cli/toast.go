package cli

import (
	"fmt"
	"io"
)

const (
	okPrefix    = "[ok]"
	errorPrefix = "[error]"
	warnPrefix  = "[warn]"
	infoPrefix  = "[info]"
)

func toastSuccess(w io.Writer, msg string) { fmt.Fprintln(w, okPrefix, msg) }
func toastError(w io.Writer, msg string)   { fmt.Fprintln(w, errorPrefix, msg) }
func toastWarning(w io.Writer, msg string) { fmt.Fprintln(w, warnPrefix, msg) }
func toastInfo(w io.Writer, msg string)    { fmt.Fprintln(w, infoPrefix, msg) }
