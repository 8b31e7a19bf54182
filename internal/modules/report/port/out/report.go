package out

import "context"

// DocumentWriter stores a rendered report and returns where it went.
type DocumentWriter interface {
	Write(ctx context.Context, filename string, content []byte) (string, error)
}
