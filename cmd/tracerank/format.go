package main

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
)

// printJSON writes v to stdout as indented JSON.
func printJSON(v interface{}) {
	if err := writeJSON(os.Stdout, v); err != nil {
		fmt.Fprintf(os.Stderr, "Error formatting JSON: %v\n", err)
		os.Exit(1)
	}
}

// writeJSON writes v to w as indented JSON followed by a newline.
func writeJSON(w io.Writer, v interface{}) error {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return err
	}
	_, err = fmt.Fprintln(w, string(data))
	return err
}
