// internal/csvimport/decode.go
package csvimport

import (
	"bytes"
	"fmt"
	"unicode/utf8"

	"golang.org/x/text/encoding/charmap"
	"golang.org/x/text/encoding/unicode"
	"golang.org/x/text/transform"
)

var (
	bomUTF8    = []byte{0xEF, 0xBB, 0xBF}
	bomUTF16LE = []byte{0xFF, 0xFE}
	bomUTF16BE = []byte{0xFE, 0xFF}
)

// Decode converts export bytes to UTF-8 and strips any byte order mark. It
// reports the detected encoding. Bytes that are not valid UTF-8 and carry no
// BOM are read as Windows-1252, which covers Latin-1 spreadsheets.
func Decode(data []byte) ([]byte, string, error) {
	switch {
	case len(data) == 0:
		return data, "utf-8", nil
	case bytes.HasPrefix(data, bomUTF8):
		return data[len(bomUTF8):], "utf-8-bom", nil
	case bytes.HasPrefix(data, bomUTF16LE):
		decoded, err := decodeWith(data, unicode.UTF16(unicode.LittleEndian, unicode.ExpectBOM).NewDecoder())
		if err != nil {
			return nil, "", fmt.Errorf("UTF-16 LE decode failed: %w", err)
		}
		return decoded, "utf-16le", nil
	case bytes.HasPrefix(data, bomUTF16BE):
		decoded, err := decodeWith(data, unicode.UTF16(unicode.BigEndian, unicode.ExpectBOM).NewDecoder())
		if err != nil {
			return nil, "", fmt.Errorf("UTF-16 BE decode failed: %w", err)
		}
		return decoded, "utf-16be", nil
	case utf8.Valid(data):
		return data, "utf-8", nil
	default:
		decoded, err := decodeWith(data, charmap.Windows1252.NewDecoder())
		if err != nil {
			return nil, "", fmt.Errorf("windows-1252 decode failed: %w", err)
		}
		return decoded, "windows-1252", nil
	}
}

func decodeWith(data []byte, t transform.Transformer) ([]byte, error) {
	out, _, err := transform.Bytes(t, data)
	return out, err
}
