package dev

import (
	"encoding/json"
	"fmt"
	"io"
)

// Dump writes el to w as indented json.
func Dump(w io.Writer, el interface{}) error {
	elJson, err := json.MarshalIndent(el, "", "  ")
	if err != nil {
		return err
	}

	_, err = fmt.Fprintln(w, string(elJson))
	return err
}
