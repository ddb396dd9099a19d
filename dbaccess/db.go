package dbaccess

import (
	"github.com/pkg/errors"
	"github.com/syndtr/goleveldb/leveldb"
	"github.com/syndtr/goleveldb/leveldb/opt"
)

var defaultOptions = opt.Options{
	Compression:            opt.NoCompression,
	BlockCacheCapacity:     256 * opt.MiB,
	WriteBuffer:            128 * opt.MiB,
	DisableSeeksCompaction: true,
}

// Options is a function that returns a leveldb opt.Options struct for opening
// a database. It's defined as a variable for the sake of testing.
var Options = func() *opt.Options {
	return &defaultOptions
}

// DatabaseContext represents a context in which all database queries run.
type DatabaseContext struct {
	ldb *leveldb.DB

	// headerCursor is the key index at which the next stored header will
	// be appended. It is initialized from the database on open.
	headerCursor uint64
}

// New creates a new DatabaseContext with the database in the specified path.
// The database is created if it does not yet exist.
func New(path string) (*DatabaseContext, error) {
	ldb, err := leveldb.OpenFile(path, Options())
	if err != nil {
		return nil, errors.WithStack(err)
	}

	context := &DatabaseContext{ldb: ldb}
	err = context.initHeaderCursor()
	if err != nil {
		ldb.Close()
		return nil, err
	}
	return context, nil
}

// Close closes the DatabaseContext's connection, if it's open.
func (ctx *DatabaseContext) Close() error {
	return errors.WithStack(ctx.ldb.Close())
}
