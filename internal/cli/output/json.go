package output

import (
	"io"

	"github.com/bytedance/sonic"
)

// JSONFormatter writes one JSON value per line.
type JSONFormatter struct{}

// Format encodes data as compact JSON. Status and Nil map to a string and
// null.
func (f *JSONFormatter) Format(w io.Writer, data any) error {
	switch v := data.(type) {
	case Nil:
		data = nil
	case Status:
		data = string(v)
	}
	b, err := sonic.Marshal(data)
	if err != nil {
		return err
	}
	_, err = w.Write(append(b, '\n'))
	return err
}
