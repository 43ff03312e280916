package stream

import (
	"bufio"
	"errors"
	"io"
	"strings"
)

// lineReader yields lines without their terminator. Unlike bufio.Scanner it has
// no line length limit, and a final unterminated line is still returned.
type lineReader struct {
	r *bufio.Reader
}

func newLineReader(r io.Reader) *lineReader {
	return &lineReader{r: bufio.NewReader(r)}
}

func (l *lineReader) next() (string, error) {
	line, err := l.r.ReadString('\n')
	if err != nil {
		if errors.Is(err, io.EOF) && line != "" {
			return strings.TrimRight(line, "\r\n"), nil
		}
		return "", err
	}
	return strings.TrimRight(line, "\r\n"), nil
}
