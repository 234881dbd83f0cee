// Package codec turns subscription requests into stable, comparable keys.
package codec

import (
	"errors"
	"fmt"

	"github.com/cespare/xxhash/v2"
)

var ErrEmptyName = errors.New("empty subscription name")

// Key is the canonical JSON text of a request's name followed by its
// arguments. Two requests share a key exactly when they are equivalent.
type Key string

// Digest is a 64-bit hash of the key, for logs and compact display only.
func (k Key) Digest() uint64 {
	return xxhash.Sum64String(string(k))
}

func (k Key) Short() string {
	return fmt.Sprintf("%016x", k.Digest())
}

func (k Key) String() string {
	return string(k)
}

// Request is a named subscription plus its arguments. Args are kept verbatim
// for the transport; the key is computed once, at construction.
type Request struct {
	name string
	args []any
	key  Key
}

func NewRequest(name string, args ...any) (Request, error) {
	if name == "" {
		return Request{}, ErrEmptyName
	}

	parts := make([]any, 0, len(args)+1)
	parts = append(parts, name)
	parts = append(parts, args...)

	b, err := Canonical(parts)
	if err != nil {
		return Request{}, fmt.Errorf("encode %q: %w", name, err)
	}

	return Request{
		name: name,
		args: args,
		key:  Key(b),
	}, nil
}

// MustRequest is NewRequest for arguments known to encode, it panics otherwise.
func MustRequest(name string, args ...any) Request {
	r, err := NewRequest(name, args...)
	if err != nil {
		panic(err)
	}
	return r
}

func (r Request) Name() string {
	return r.name
}

func (r Request) Args() []any {
	return r.args
}

func (r Request) Key() Key {
	return r.key
}

func (r Request) IsZero() bool {
	return r.key == ""
}

func (r Request) String() string {
	return string(r.key)
}
