package bundle

import (
	"fmt"
	"strings"
	"unicode/utf8"

	"github.com/magiconair/properties"
)

// Encoding selects how property files are decoded.
type Encoding int

const (
	// EncodingAuto decodes UTF-8 and falls back to ISO-8859-1 for invalid input.
	EncodingAuto Encoding = iota
	EncodingUTF8
	EncodingISO88591
)

func (e Encoding) String() string {
	switch e {
	case EncodingUTF8:
		return "utf-8"
	case EncodingISO88591:
		return "iso-8859-1"
	default:
		return "auto"
	}
}

// ParseEncoding parses the names accepted in configuration.
func ParseEncoding(name string) (Encoding, error) {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "", "auto":
		return EncodingAuto, nil
	case "utf-8", "utf8":
		return EncodingUTF8, nil
	case "iso-8859-1", "iso8859-1", "latin1", "latin-1":
		return EncodingISO88591, nil
	default:
		return EncodingAuto, fmt.Errorf("bundle: unknown encoding %q", name)
	}
}

func (e Encoding) properties(data []byte) properties.Encoding {
	switch e {
	case EncodingUTF8:
		return properties.UTF8
	case EncodingISO88591:
		return properties.ISO_8859_1
	default:
		if utf8.Valid(data) {
			return properties.UTF8
		}
		return properties.ISO_8859_1
	}
}

// Parse decodes the content of a property file. ${} references are kept
// literally.
func Parse(data []byte, enc Encoding) (map[string]string, error) {
	l := &properties.Loader{
		Encoding:         enc.properties(data),
		DisableExpansion: true,
	}
	p, err := l.LoadBytes(data)
	if err != nil {
		return nil, err
	}
	return p.Map(), nil
}
