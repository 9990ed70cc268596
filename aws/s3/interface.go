// Package s3 wraps the AWS SDK with a small bucket-scoped client used by the
// stage load pipe.
package s3

import (
	"errors"
	"io"
)

var ErrKeyNotFound = errors.New("key not found")

// BasicClient groups the per-verb interfaces; components depend on the
// narrowest one they need so tests only stub that verb.
type BasicClient interface {
	Lister
	Getter
	Putter
	BufferPutter
	Deleter
}

type Lister interface {
	List(key string) (keys []string, err error)
}

type Getter interface {
	// Get returns ErrKeyNotFound if the given key doesn't exist.
	Get(key string) (data []byte, err error)
}

type Putter interface {
	Put(key string, data []byte) (err error)
}

// BufferPutter accepts a ReadSeeker so an open os.File can be uploaded as is.
type BufferPutter interface {
	BufferPut(key string, buf io.ReadSeeker) (err error)
}

type Deleter interface {
	Delete(key string) error
}
