package routeros

import (
	"bufio"
	"fmt"
	"io"
)

// RouterOS API framing: each word is prefixed with a variable-length size,
// a sentence is a run of words terminated by a zero-length word.

func writeLength(w *bufio.Writer, n int) error {
	switch {
	case n < 0x80:
		return w.WriteByte(byte(n))
	case n < 0x4000:
		if err := w.WriteByte(byte(n>>8) | 0x80); err != nil {
			return err
		}
		return w.WriteByte(byte(n))
	case n < 0x200000:
		if err := w.WriteByte(byte(n>>16) | 0xC0); err != nil {
			return err
		}
		if err := w.WriteByte(byte(n >> 8)); err != nil {
			return err
		}
		return w.WriteByte(byte(n))
	case n < 0x10000000:
		if err := w.WriteByte(byte(n>>24) | 0xE0); err != nil {
			return err
		}
		if err := w.WriteByte(byte(n >> 16)); err != nil {
			return err
		}
		if err := w.WriteByte(byte(n >> 8)); err != nil {
			return err
		}
		return w.WriteByte(byte(n))
	default:
		if err := w.WriteByte(0xF0); err != nil {
			return err
		}
		if err := w.WriteByte(byte(n >> 24)); err != nil {
			return err
		}
		if err := w.WriteByte(byte(n >> 16)); err != nil {
			return err
		}
		if err := w.WriteByte(byte(n >> 8)); err != nil {
			return err
		}
		return w.WriteByte(byte(n))
	}
}

func readLength(r *bufio.Reader) (int, error) {
	b, err := r.ReadByte()
	if err != nil {
		return 0, err
	}
	var n int
	var rest int
	switch {
	case b&0x80 == 0:
		return int(b), nil
	case b&0xC0 == 0x80:
		n = int(b & 0x3F)
		rest = 1
	case b&0xE0 == 0xC0:
		n = int(b & 0x1F)
		rest = 2
	case b&0xF0 == 0xE0:
		n = int(b & 0x0F)
		rest = 3
	case b == 0xF0:
		n = 0
		rest = 4
	default:
		return 0, fmt.Errorf("invalid length prefix 0x%02x", b)
	}
	for i := 0; i < rest; i++ {
		b, err = r.ReadByte()
		if err != nil {
			return 0, err
		}
		n = n<<8 | int(b)
	}
	return n, nil
}

func writeWord(w *bufio.Writer, word string) error {
	if err := writeLength(w, len(word)); err != nil {
		return err
	}
	_, err := w.WriteString(word)
	return err
}

func readWord(r *bufio.Reader) (string, error) {
	n, err := readLength(r)
	if err != nil {
		return "", err
	}
	if n == 0 {
		return "", nil
	}
	buf := make([]byte, n)
	if _, err := io.ReadFull(r, buf); err != nil {
		return "", err
	}
	return string(buf), nil
}

// writeSentence sends all words followed by the empty terminator and flushes.
func writeSentence(w *bufio.Writer, words []string) error {
	for _, word := range words {
		if err := writeWord(w, word); err != nil {
			return err
		}
	}
	if err := w.WriteByte(0); err != nil {
		return err
	}
	return w.Flush()
}

// readSentence reads words up to the empty terminator. A sentence that is
// itself empty (lone terminator) returns a nil slice.
func readSentence(r *bufio.Reader) ([]string, error) {
	var words []string
	for {
		word, err := readWord(r)
		if err != nil {
			return nil, err
		}
		if word == "" {
			return words, nil
		}
		words = append(words, word)
	}
}

// parseAttrs splits "=key=value" and ".tag=value" words into a map.
// The leading reply word (e.g. "!re") must already be stripped.
func parseAttrs(words []string) map[string]string {
	attrs := make(map[string]string, len(words))
	for _, word := range words {
		if len(word) == 0 {
			continue
		}
		body := word
		if body[0] == '=' {
			body = body[1:]
		}
		for i := 1; i < len(body); i++ {
			if body[i] == '=' {
				attrs[body[:i]] = body[i+1:]
				body = ""
				break
			}
		}
		if body != "" {
			attrs[body] = ""
		}
	}
	return attrs
}
