package encoding

import (
	"iter"
	"reflect"
	"unsafe"

	"github.com/modern-go/reflect2"
)

type structData struct {
	handler handler
	offset  int
}

func decodeStruct(typ reflect2.Type, bs int) (handler, layout) {
	t := typ.Type1()
	count := t.NumField()
	size := make(layout, 0, count)
	var offset uintptr
	var needCustom bool
	for field := range rangeField(t) {
		if field.Tag.Get("encoding") == "ignore" {
			needCustom = true
			break
		}
		if needCustom = checkCustom(field.Type, bs); needCustom {
			break
		} else if s := field.Offset - offset; s != 0 {
			size = append(size, int(s))
		}
		offset = field.Offset
	}
	if !needCustom {
		size = append(size, int(t.Size()-offset))
		totalSize := size.total()
		return func(stream Stream, ptr unsafe.Pointer) error {
			_, err := stream.Read(unsafe.Slice((*byte)(ptr), totalSize))
			return err
		}, size
	}
	size = size[:0]
	fields := make([]*structData, 0, count)
	for field := range rangeField(t) {
		if field.Tag.Get("encoding") == "ignore" {
			continue
		}
		unmarshal, fieldSize := decodeFieldAlign(field.Type, bs, size.total())
		size = size.then(fieldSize)
		fields = append(fields, &structData{unmarshal, int(field.Offset)})
	}
	totalSize := size.total()
	pad := align(totalSize, size.widest()) - totalSize
	if pad > 0 {
		size = append(size, pad)
	}
	return func(stream Stream, ptr unsafe.Pointer) error {
		for _, data := range fields {
			err := data.handler(stream, unsafe.Add(ptr, data.offset))
			if err != nil {
				return err
			}
		}
		if pad > 0 {
			return stream.Skip(pad)
		}
		return nil
	}, size
}

func decodeFieldAlign(typ reflect.Type, bs, offset int) (handler, layout) {
	unmarshal, size := decode(typ, bs)
	addr := align(offset, size[0])
	if addr == offset {
		return unmarshal, size
	}
	pad := addr - offset
	return func(stream Stream, ptr unsafe.Pointer) error {
		err := stream.Skip(pad)
		if err != nil {
			return err
		}
		return unmarshal(stream, ptr)
	}, append(layout{pad}, size...)
}

func rangeField(typ reflect.Type) iter.Seq[reflect.StructField] {
	return func(yield func(reflect.StructField) bool) {
		count := typ.NumField()
		for i := 0; i < count; i++ {
			if !yield(typ.Field(i)) {
				break
			}
		}
	}
}

func align(a, b int) int {
	if b == 0 {
		return a
	}
	return (a + b - 1) &^ (b - 1)
}
