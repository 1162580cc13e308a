// Package iojson writes command output as JSON for piping into other
// tools.
package iojson

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
)

// fallbackError hand-builds an error blob for when marshaling itself
// failed. json.Marshal on plain strings cannot fail, so the result is
// always well formed.
func fallbackError(msg string, cause error) string {
	msgBytes, _ := json.Marshal(msg)
	causeBytes, _ := json.Marshal(cause.Error())
	return fmt.Sprintf(`{"message":%s,"data":{"json_error":%s}}`, msgBytes, causeBytes)
}

// WriteWith writes obj to w as indented JSON. A marshal failure is
// reported to ew instead, so consumers of w never see half-written
// output.
func WriteWith(w io.Writer, ew io.Writer, obj any) error {
	bits, err := json.MarshalIndent(obj, "", "  ")
	if err != nil {
		_, werr := fmt.Fprintln(ew, fallbackError("error marshaling in iojson.WriteWith", err))
		if werr != nil {
			return werr
		}
		return err
	}

	_, err = fmt.Fprintln(w, string(bits))
	return err
}

// WriteLine writes obj to w as a single compact JSON line, for
// newline-delimited list output.
func WriteLine(w io.Writer, obj any) error {
	bits, err := json.Marshal(obj)
	if err != nil {
		_, werr := fmt.Fprintln(os.Stderr, fallbackError("error marshaling in iojson.WriteLine", err))
		if werr != nil {
			return werr
		}
		return err
	}

	_, err = fmt.Fprintln(w, string(bits))
	return err
}
