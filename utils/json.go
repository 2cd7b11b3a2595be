package utils

import (
	"encoding/json"
	"io"
)

// Unmarshal JSON to generic struct
func UnmarshalFromJSON[T any](data []byte, output *T) error {
	return json.Unmarshal(data, output)
}

// Pretty-print a struct to the given writer. Used by the CLI harness.
func MarshalIndentToWriter[T any](w io.Writer, input T) error {
	jsonData, err := json.MarshalIndent(input, "", "  ")
	if err != nil {
		return err
	}
	jsonData = append(jsonData, '\n')
	_, err = w.Write(jsonData)
	return err
}
