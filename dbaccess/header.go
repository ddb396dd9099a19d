package dbaccess

import (
	"encoding/binary"

	"github.com/pkg/errors"
	ldbutil "github.com/syndtr/goleveldb/leveldb/util"
)

// headersBucket prefixes the append-log of accepted headers. Each entry is
// keyed by a big-endian insertion index so that iteration returns headers in
// the exact order they were accepted, which is also a valid replay order.
var headersBucket = []byte("headers/")

func headerKey(index uint64) []byte {
	key := make([]byte, len(headersBucket)+8)
	copy(key, headersBucket)
	binary.BigEndian.PutUint64(key[len(headersBucket):], index)
	return key
}

// initHeaderCursor seeks to the end of the header log and positions the
// cursor after the last stored entry.
func (ctx *DatabaseContext) initHeaderCursor() error {
	iterator := ctx.ldb.NewIterator(ldbutil.BytesPrefix(headersBucket), nil)
	defer iterator.Release()

	if iterator.Last() {
		key := iterator.Key()
		index := binary.BigEndian.Uint64(key[len(headersBucket):])
		ctx.headerCursor = index + 1
	}
	return errors.WithStack(iterator.Error())
}

// StoreHeader appends the given serialized header to the header log.
func StoreHeader(context *DatabaseContext, headerBytes []byte) error {
	err := context.ldb.Put(headerKey(context.headerCursor), headerBytes, nil)
	if err != nil {
		return errors.WithStack(err)
	}
	context.headerCursor++
	return nil
}

// FetchHeaders returns all stored headers in insertion order.
func FetchHeaders(context *DatabaseContext) ([][]byte, error) {
	iterator := context.ldb.NewIterator(ldbutil.BytesPrefix(headersBucket), nil)
	defer iterator.Release()

	var headers [][]byte
	for iterator.Next() {
		headerBytes := make([]byte, len(iterator.Value()))
		copy(headerBytes, iterator.Value())
		headers = append(headers, headerBytes)
	}
	if err := iterator.Error(); err != nil {
		return nil, errors.WithStack(err)
	}
	return headers, nil
}
