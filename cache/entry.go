package cache

import (
	"time"

	"github.com/gogo/protobuf/proto"
	"github.com/pkg/errors"
)

const entryVersion = 1

// Entry holds the WKB of all geometries of a source and the time they were
// loaded.
type Entry struct {
	Created time.Time
	Wkbs    [][]byte
}

// Marshal encodes the entry as:
// version (varint), number of geometries (varint), each WKB as
// length-prefixed bytes, created as unix nanoseconds (fixed64).
func (e Entry) Marshal() ([]byte, error) {
	size := 16
	for _, wkb := range e.Wkbs {
		size += len(wkb) + 4
	}
	buf := proto.NewBuffer(make([]byte, 0, size))
	if err := buf.EncodeVarint(entryVersion); err != nil {
		return nil, err
	}
	if err := buf.EncodeVarint(uint64(len(e.Wkbs))); err != nil {
		return nil, err
	}
	for _, wkb := range e.Wkbs {
		if err := buf.EncodeRawBytes(wkb); err != nil {
			return nil, err
		}
	}
	if err := buf.EncodeFixed64(uint64(e.Created.UnixNano())); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func UnmarshalEntry(data []byte) (Entry, error) {
	e := Entry{}
	buf := proto.NewBuffer(data)
	version, err := buf.DecodeVarint()
	if err != nil {
		return e, errors.Wrap(err, "decoding cache entry version")
	}
	if version != entryVersion {
		return e, errors.Errorf("unsupported cache entry version %d", version)
	}
	n, err := buf.DecodeVarint()
	if err != nil {
		return e, errors.Wrap(err, "decoding cache entry")
	}
	if n > uint64(len(data)) {
		return e, errors.Errorf("invalid number of geometries %d in cache entry", n)
	}
	e.Wkbs = make([][]byte, 0, n)
	for i := uint64(0); i < n; i++ {
		wkb, err := buf.DecodeRawBytes(true)
		if err != nil {
			return e, errors.Wrapf(err, "decoding geometry %d of cache entry", i)
		}
		e.Wkbs = append(e.Wkbs, wkb)
	}
	created, err := buf.DecodeFixed64()
	if err != nil {
		return e, errors.Wrap(err, "decoding cache entry time")
	}
	e.Created = time.Unix(0, int64(created))
	return e, nil
}
