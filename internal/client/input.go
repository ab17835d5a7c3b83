package client

import (
	"bufio"
	"context"
	"io"
)

// ReadLines scans r line by line until EOF or ctx is done.
// The returned channel is closed when reading stops.
func ReadLines(ctx context.Context, r io.Reader) <-chan string {
	lines := make(chan string)
	go func() {
		defer close(lines)
		scanner := bufio.NewScanner(r)
		for scanner.Scan() {
			select {
			case lines <- scanner.Text():
			case <-ctx.Done():
				return
			}
		}
	}()
	return lines
}
