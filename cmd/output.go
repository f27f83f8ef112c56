package main

import (
	"encoding/json"
	"fmt"

	"github.com/rotisserie/eris"
)

// printJSON renders a result record to stdout.
func printJSON(v any) error {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return eris.Wrap(err, "marshal output")
	}
	fmt.Println(string(data))
	return nil
}
