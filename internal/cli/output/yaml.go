package output

import (
	"io"

	"gopkg.in/yaml.v2"
)

// YAMLFormatter writes each result as a YAML document.
type YAMLFormatter struct{}

// Format encodes data as YAML. Status and Nil map to a string and null.
func (f *YAMLFormatter) Format(w io.Writer, data any) error {
	switch v := data.(type) {
	case Nil:
		data = nil
	case Status:
		data = string(v)
	}
	b, err := yaml.Marshal(data)
	if err != nil {
		return err
	}
	_, err = w.Write(b)
	return err
}
