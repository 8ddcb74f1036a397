package client

import (
	"bufio"
	"io"
)

// MaxMessageLen — предел длины одного текстового сообщения.
const MaxMessageLen = 4096

// ReadChunks читает построчно и накапливает буфер для отправки.
// Как только следующая строка не влезает в лимит, буфер добивается до
// лимита и уходит отдельным сообщением; хвост копится дальше и
// отправляется при конце ввода целиком.
func ReadChunks(r io.Reader, limit int) ([]string, error) {
	if limit <= 0 {
		limit = MaxMessageLen
	}

	var chunks []string
	var buf string

	reader := bufio.NewReader(r)
	for {
		line, err := reader.ReadString('\n')
		if line != "" {
			if len(buf)+len(line) > limit {
				room := limit - len(buf)
				if room < 0 {
					room = 0
				}
				flushed := buf + line[:room]
				if flushed != "" {
					chunks = append(chunks, flushed)
				}
				buf = ""
				line = line[room:]
			}
			buf += line
		}
		if err == io.EOF {
			break
		}
		if err != nil {
			return chunks, err
		}
	}

	if buf != "" {
		chunks = append(chunks, buf)
	}
	return chunks, nil
}
