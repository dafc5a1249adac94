package output

import (
	"encoding/json"
	"fmt"
	"io"
)

// WriteJSON emits v as indented JSON followed by a newline. Key order is
// whatever encoding/json produces, which is sorted for maps, so repeated
// runs over the same document emit identical bytes.
func WriteJSON(w io.Writer, v interface{}) error {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return err
	}
	_, err = fmt.Fprintln(w, string(data))
	return err
}
