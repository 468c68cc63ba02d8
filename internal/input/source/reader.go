package source

import (
	"bufio"
	"context"
	"io"

	"github.com/dshills/secretcode/internal/input/key"
)

// Reader is a source that reads key specifications from an io.Reader.
// Tokens are separated by whitespace and parsed with key.ParseCode, so
// "Up Up Down Down" and "#38 #38 #40 #40" are both valid input.
type Reader struct {
	*Feed

	r       io.Reader
	onError func(token string, err error)
}

// ReaderOption configures a Reader.
type ReaderOption func(*Reader)

// WithErrorHandler sets the callback for tokens that fail to parse.
// Bad tokens are skipped either way.
func WithErrorHandler(fn func(token string, err error)) ReaderOption {
	return func(r *Reader) {
		r.onError = fn
	}
}

// NewReader creates a source reading from r.
func NewReader(r io.Reader, opts ...ReaderOption) *Reader {
	rd := &Reader{
		Feed: NewFeed(),
		r:    r,
	}
	for _, opt := range opts {
		opt(rd)
	}
	return rd
}

// Run reads and delivers tokens until EOF or ctx is done.
// It returns nil at EOF and ctx.Err() on cancellation.
func (r *Reader) Run(ctx context.Context) error {
	tokens := make(chan string)
	errc := make(chan error, 1)

	go func() {
		defer close(tokens)
		sc := bufio.NewScanner(r.r)
		sc.Split(bufio.ScanWords)
		for sc.Scan() {
			select {
			case tokens <- sc.Text():
			case <-ctx.Done():
				return
			}
		}
		errc <- sc.Err()
	}()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case tok, ok := <-tokens:
			if !ok {
				select {
				case err := <-errc:
					return err
				default:
					return ctx.Err()
				}
			}
			code, err := key.ParseCode(tok)
			if err != nil {
				if r.onError != nil {
					r.onError(tok, err)
				}
				continue
			}
			r.Press(code)
		}
	}
}
