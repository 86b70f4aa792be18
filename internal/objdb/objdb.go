// Package objdb reads object-graph files.
//
// An object graph lists objects, each with an owner name and properties
// holding 32-bit values. Group assignment only needs the owner name and the
// values, so property identifiers are kept but not interpreted.
//
// Layout (little-endian):
//
//	"KODB" | version "0000" | headerSize u32 | count u32
//	records at headerSize:
//	  recordSize u32 | typeInfoKtid u32 | objectKtid u32 | nameLen u16 | propCount u16
//	  name, padded to 4 bytes from the record start
//	  propCount × (propertyKtid u32 | valueCount u32 | values u32×valueCount)
package objdb

import (
	"encoding/binary"
	"fmt"
	"iter"
	"os"

	"github.com/meigma/fdata/internal/rdbtype"
	"github.com/meigma/fdata/internal/sizing"
)

// Magic is the little-endian value of "KODB".
const Magic uint32 = 0x42444F4B

// minHeaderSize covers magic, version, headerSize and count.
const minHeaderSize = 16

// recordFixedSize covers the fixed fields of a record.
const recordFixedSize = 16

// Property is one record property.
type Property struct {
	Ktid   uint32
	Values []uint32
}

// Record is one object in the graph.
type Record struct {
	TypeInfoKtid uint32
	ObjectKtid   uint32

	// Owner is the object name; it becomes the group folder of every
	// file identifier referenced by the record's properties.
	Owner string

	Properties []Property
}

// Values yields every property value of the record in order.
func (r *Record) Values() iter.Seq[uint32] {
	return func(yield func(uint32) bool) {
		for _, p := range r.Properties {
			for _, v := range p.Values {
				if !yield(v) {
					return
				}
			}
		}
	}
}

// OwnerName returns the record's owner name.
func (r *Record) OwnerName() string {
	return r.Owner
}

// ReferencedIDs yields the record's property values; it is an alias of Values.
func (r *Record) ReferencedIDs() iter.Seq[uint32] {
	return r.Values()
}

// File is a parsed object graph.
type File struct {
	records []Record
}

// Len returns the number of records.
func (f *File) Len() int {
	return len(f.records)
}

// Records yields every record in file order.
func (f *File) Records() iter.Seq[*Record] {
	return func(yield func(*Record) bool) {
		for i := range f.records {
			if !yield(&f.records[i]) {
				return
			}
		}
	}
}

// ReadFile reads and parses the object graph at path.
func ReadFile(path string) (*File, error) {
	data, err := os.ReadFile(path) //nolint:gosec // path comes from directory discovery
	if err != nil {
		return nil, fmt.Errorf("read object graph: %w", err)
	}
	f, err := Parse(data)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return f, nil
}

// Parse parses an object graph held in memory.
func Parse(data []byte) (*File, error) {
	size := int64(len(data))
	if size < minHeaderSize {
		return nil, rdbtype.Formatf(0, "truncated object graph header (%d bytes)", size)
	}
	if magic := binary.LittleEndian.Uint32(data[0:]); magic != Magic {
		return nil, rdbtype.Formatf(0, "bad object graph magic 0x%08X", magic)
	}
	if version := binary.LittleEndian.Uint32(data[4:]); version != rdbtype.Version {
		return nil, rdbtype.Formatf(4, "bad object graph version 0x%08X", version)
	}
	headerSize := int64(binary.LittleEndian.Uint32(data[8:]))
	count := binary.LittleEndian.Uint32(data[12:])
	if headerSize < minHeaderSize || headerSize > size {
		return nil, rdbtype.Formatf(8, "object graph header size 0x%X out of range", headerSize)
	}

	f := &File{records: make([]Record, 0, min(int64(count), size/recordFixedSize))}
	pos := headerSize
	for i := uint32(0); i < count; i++ {
		rec, next, err := parseRecord(data, pos)
		if err != nil {
			return nil, err
		}
		f.records = append(f.records, rec)
		pos = next
	}
	return f, nil
}

func parseRecord(data []byte, base int64) (Record, int64, error) {
	size := int64(len(data))
	if size-base < recordFixedSize {
		return Record{}, 0, rdbtype.Formatf(base, "truncated object record header")
	}
	recordSize := int64(binary.LittleEndian.Uint32(data[base:]))
	if recordSize < recordFixedSize || recordSize > size-base {
		return Record{}, 0, rdbtype.Formatf(base, "object record size 0x%X out of range", recordSize)
	}
	rec := data[base : base+recordSize]

	out := Record{
		TypeInfoKtid: binary.LittleEndian.Uint32(rec[4:]),
		ObjectKtid:   binary.LittleEndian.Uint32(rec[8:]),
	}
	nameLen := int64(binary.LittleEndian.Uint16(rec[12:]))
	propCount := int(binary.LittleEndian.Uint16(rec[14:]))

	pos := int64(recordFixedSize)
	if pos+nameLen > recordSize {
		return Record{}, 0, rdbtype.Formatf(base, "object name of %d bytes overruns record", nameLen)
	}
	out.Owner = string(rec[pos : pos+nameLen])
	pos = sizing.Align4(pos + nameLen)

	out.Properties = make([]Property, 0, propCount)
	for p := 0; p < propCount; p++ {
		if pos+8 > recordSize {
			return Record{}, 0, rdbtype.Formatf(base+pos, "truncated property %d", p)
		}
		prop := Property{Ktid: binary.LittleEndian.Uint32(rec[pos:])}
		n := int64(binary.LittleEndian.Uint32(rec[pos+4:]))
		pos += 8
		if pos+4*n > recordSize {
			return Record{}, 0, rdbtype.Formatf(base+pos, "property %d has %d values, record too short", p, n)
		}
		prop.Values = make([]uint32, n)
		for i := range prop.Values {
			prop.Values[i] = binary.LittleEndian.Uint32(rec[pos:])
			pos += 4
		}
		out.Properties = append(out.Properties, prop)
	}
	return out, base + recordSize, nil
}
