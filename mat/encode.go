package mat

import (
	"encoding/binary"
	"fmt"
	"io"
	"math"
	"os"

	"github.com/klauspost/compress/zlib"

	"github.com/blink1073/octmat/errors"
	matbin "github.com/blink1073/octmat/mat/internal/binary"
)

// WriteOptions control container serialization.
type WriteOptions struct {
	// Compress wraps each top-level matrix in a zlib-compressed element.
	// Octave reads both forms; the uncompressed form matches "save -v6".
	Compress bool
	// Header overrides the descriptive text in the file header.
	Header string
}

const defaultHeader = "MATLAB 5.0 MAT-file, written by octmat"

// WriteFile serializes the variables to a MAT file at the given path.
// The file is written atomically: nothing is left behind on error.
func WriteFile(path string, vars []Var, opts WriteOptions) error {
	tmp := path + ".tmp"
	f, err := os.Create(tmp)
	if err != nil {
		return errors.Wrap(errors.PhaseWrite, errors.KindProcess, err, "create mat file")
	}
	if err := Write(f, vars, opts); err != nil {
		f.Close()
		os.Remove(tmp)
		return err
	}
	if err := f.Close(); err != nil {
		os.Remove(tmp)
		return errors.Wrap(errors.PhaseWrite, errors.KindProcess, err, "close mat file")
	}
	if err := os.Rename(tmp, path); err != nil {
		os.Remove(tmp)
		return errors.Wrap(errors.PhaseWrite, errors.KindProcess, err, "rename mat file")
	}
	return nil
}

// Write serializes the variables to w in Level 5 MAT format.
func Write(w io.Writer, vars []Var, opts WriteOptions) error {
	out := matbin.NewWriter()
	writeHeader(out, opts.Header)

	for _, v := range vars {
		if v.Value == nil {
			return errors.InvalidData(errors.PhaseWrite, []string{v.Name}, "nil array")
		}
		elem := matbin.NewWriter()
		if err := writeMatrix(elem, v.Name, v.Value, []string{v.Name}); err != nil {
			return err
		}
		if opts.Compress {
			if err := writeCompressed(out, elem.Bytes()); err != nil {
				return err
			}
		} else {
			out.WriteBytes(elem.Bytes())
		}
	}

	if _, err := w.Write(out.Bytes()); err != nil {
		return errors.Wrap(errors.PhaseWrite, errors.KindProcess, err, "write mat data")
	}
	return nil
}

func writeHeader(w *matbin.Writer, text string) {
	if text == "" {
		text = defaultHeader
	}
	if len(text) > headerTextLen {
		text = text[:headerTextLen]
	}
	w.WriteString(text)
	for i := len(text); i < headerTextLen; i++ {
		w.Byte(' ')
	}
	// Subsystem data offset, unused.
	w.WriteU64(0)
	w.WriteU16(headerVersion)
	w.WriteU16(headerEndian)
}

func writeCompressed(w *matbin.Writer, element []byte) error {
	body := matbin.NewWriter()
	zw := zlib.NewWriter(writerAdapter{body})
	if _, err := zw.Write(element); err != nil {
		return errors.Wrap(errors.PhaseWrite, errors.KindProcess, err, "compress element")
	}
	if err := zw.Close(); err != nil {
		return errors.Wrap(errors.PhaseWrite, errors.KindProcess, err, "compress element")
	}
	w.WriteTag(miCOMPRESSED, uint32(body.Len()))
	w.WriteBytes(body.Bytes())
	w.Pad8()
	return nil
}

type writerAdapter struct{ w *matbin.Writer }

func (a writerAdapter) Write(p []byte) (int, error) {
	a.w.WriteBytes(p)
	return len(p), nil
}

// writeMatrix emits one complete miMATRIX element, including nested
// matrices for cell, struct and object classes.
func writeMatrix(w *matbin.Writer, name string, a *Array, path []string) error {
	body := matbin.NewWriter()

	flags := uint32(a.Class)
	if a.Complex {
		flags |= flagComplex
	}
	if a.Logical {
		flags |= flagLogical
	}
	if a.Global {
		flags |= flagGlobal
	}
	nzmax := uint32(0)
	if a.Class == ClassSparse {
		nzmax = uint32(a.Nzmax)
		if nzmax == 0 {
			nzmax = uint32(len(a.RowIndex))
		}
	}
	var flagBytes [8]byte
	binary.LittleEndian.PutUint32(flagBytes[0:], flags)
	binary.LittleEndian.PutUint32(flagBytes[4:], nzmax)
	body.WriteTag(miUINT32, 8)
	body.WriteBytes(flagBytes[:])

	dims := a.Dims
	if len(dims) < 2 {
		dims = append(append([]int{}, dims...), 1)
		if len(dims) < 2 {
			dims = []int{0, 0}
		}
	}
	dimBytes := make([]byte, 4*len(dims))
	for i, d := range dims {
		binary.LittleEndian.PutUint32(dimBytes[4*i:], uint32(int32(d)))
	}
	body.WriteElement(miINT32, dimBytes)
	body.WriteElement(miINT8, []byte(name))

	var err error
	switch a.Class {
	case ClassCell:
		err = writeCells(body, a, path)
	case ClassStruct:
		err = writeStruct(body, a, path)
	case ClassObject:
		body.WriteElement(miINT8, []byte(a.ClassName))
		err = writeStruct(body, a, path)
	case ClassChar:
		charBytes := make([]byte, 2*len(a.Chars))
		for i, c := range a.Chars {
			binary.LittleEndian.PutUint16(charBytes[2*i:], c)
		}
		body.WriteElement(miUTF16, charBytes)
	case ClassSparse:
		err = writeSparse(body, a, path)
	default:
		err = writeNumeric(body, a, path)
	}
	if err != nil {
		return err
	}

	w.WriteTag(miMATRIX, uint32(body.Len()))
	w.WriteBytes(body.Bytes())
	return nil
}

func writeCells(w *matbin.Writer, a *Array, path []string) error {
	if len(a.Cells) != a.Size() {
		return errors.InvalidData(errors.PhaseWrite, path,
			fmt.Sprintf("cell count %d does not match dims %v", len(a.Cells), a.Dims))
	}
	for i, c := range a.Cells {
		if err := writeMatrix(w, "", c, childPath(path, fmt.Sprintf("{%d}", i))); err != nil {
			return err
		}
	}
	return nil
}

func writeStruct(w *matbin.Writer, a *Array, path []string) error {
	if len(a.Records) != a.Size() {
		return errors.InvalidData(errors.PhaseWrite, path,
			fmt.Sprintf("record count %d does not match dims %v", len(a.Records), a.Dims))
	}

	var nameLen [4]byte
	binary.LittleEndian.PutUint32(nameLen[:], maxFieldNameLen)
	w.WriteSmallTag(miINT32, 4)
	w.WriteBytes(nameLen[:])

	names := make([]byte, maxFieldNameLen*len(a.Fields))
	for i, f := range a.Fields {
		if len(f) >= maxFieldNameLen {
			return errors.InvalidData(errors.PhaseWrite, path,
				fmt.Sprintf("field name %q exceeds %d characters", f, maxFieldNameLen-1))
		}
		copy(names[maxFieldNameLen*i:], f)
	}
	w.WriteElement(miINT8, names)

	for ri, rec := range a.Records {
		if len(rec) != len(a.Fields) {
			return errors.InvalidData(errors.PhaseWrite, path,
				fmt.Sprintf("record %d has %d values for %d fields", ri, len(rec), len(a.Fields)))
		}
		for fi, val := range rec {
			if err := writeMatrix(w, "", val, childPath(path, a.Fields[fi])); err != nil {
				return err
			}
		}
	}
	return nil
}

func writeSparse(w *matbin.Writer, a *Array, path []string) error {
	ir := make([]byte, 4*len(a.RowIndex))
	for i, v := range a.RowIndex {
		binary.LittleEndian.PutUint32(ir[4*i:], uint32(v))
	}
	w.WriteElement(miINT32, ir)

	jc := make([]byte, 4*len(a.ColPtr))
	for i, v := range a.ColPtr {
		binary.LittleEndian.PutUint32(jc[4*i:], uint32(v))
	}
	w.WriteElement(miINT32, jc)

	return writeNumeric(w, a, path)
}

func writeNumeric(w *matbin.Writer, a *Array, path []string) error {
	mi, data, err := numericBytes(a.Real, path)
	if err != nil {
		return err
	}
	w.WriteElement(mi, data)
	if a.Complex {
		mi, data, err = numericBytes(a.Imag, path)
		if err != nil {
			return err
		}
		w.WriteElement(mi, data)
	}
	return nil
}

// numericBytes packs a typed slice into little-endian bytes alongside its
// storage element type. Data is stored at the full width of its class;
// the narrowing optimizations some writers apply are intentionally not
// used, which keeps the reader's job simple.
func numericBytes(data any, path []string) (uint32, []byte, error) {
	switch d := data.(type) {
	case []float64:
		out := make([]byte, 8*len(d))
		for i, v := range d {
			binary.LittleEndian.PutUint64(out[8*i:], math.Float64bits(v))
		}
		return miDOUBLE, out, nil
	case []float32:
		out := make([]byte, 4*len(d))
		for i, v := range d {
			binary.LittleEndian.PutUint32(out[4*i:], math.Float32bits(v))
		}
		return miSINGLE, out, nil
	case []int8:
		out := make([]byte, len(d))
		for i, v := range d {
			out[i] = byte(v)
		}
		return miINT8, out, nil
	case []uint8:
		out := make([]byte, len(d))
		copy(out, d)
		return miUINT8, out, nil
	case []int16:
		out := make([]byte, 2*len(d))
		for i, v := range d {
			binary.LittleEndian.PutUint16(out[2*i:], uint16(v))
		}
		return miINT16, out, nil
	case []uint16:
		out := make([]byte, 2*len(d))
		for i, v := range d {
			binary.LittleEndian.PutUint16(out[2*i:], v)
		}
		return miUINT16, out, nil
	case []int32:
		out := make([]byte, 4*len(d))
		for i, v := range d {
			binary.LittleEndian.PutUint32(out[4*i:], uint32(v))
		}
		return miINT32, out, nil
	case []uint32:
		out := make([]byte, 4*len(d))
		for i, v := range d {
			binary.LittleEndian.PutUint32(out[4*i:], v)
		}
		return miUINT32, out, nil
	case []int64:
		out := make([]byte, 8*len(d))
		for i, v := range d {
			binary.LittleEndian.PutUint64(out[8*i:], uint64(v))
		}
		return miINT64, out, nil
	case []uint64:
		out := make([]byte, 8*len(d))
		for i, v := range d {
			binary.LittleEndian.PutUint64(out[8*i:], v)
		}
		return miUINT64, out, nil
	case nil:
		return 0, nil, errors.InvalidData(errors.PhaseWrite, path, "missing numeric data")
	default:
		return 0, nil, errors.New(errors.PhaseWrite, errors.KindInvalidData).
			Path(path...).
			GoType(fmt.Sprintf("%T", data)).
			Detail("unsupported numeric storage type").
			Build()
	}
}
