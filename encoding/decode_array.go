package encoding

import (
	"reflect"
	"unsafe"
)

type sliceData struct {
	Data unsafe.Pointer
	Len  int
}

func decodeArray(typ reflect.Type, bs int) (handler, layout) {
	count := typ.Len()
	elemType := typ.Elem()
	if !checkCustom(elemType, bs) {
		size := make(layout, count)
		elemSize := int(elemType.Size())
		for i := range size {
			size[i] = elemSize
		}
		totalSize := size.total()
		return func(stream Stream, ptr unsafe.Pointer) error {
			_, err := stream.Read(unsafe.Slice((*byte)(ptr), totalSize))
			return err
		}, size
	}
	unmarshal, elemSize := decode(elemType, bs)
	size := make(layout, 0, count*len(elemSize))
	for i := 0; i < count; i++ {
		size = size.then(elemSize)
	}
	elemHostSize := elemType.Size()
	return func(stream Stream, ptr unsafe.Pointer) error {
		for i := 0; i < count; i++ {
			err := unmarshal(stream, ptr)
			if err != nil {
				return err
			}
			ptr = unsafe.Add(ptr, elemHostSize)
		}
		return nil
	}, size
}

func decodeString(bs int) (handler, layout) {
	return func(stream Stream, ptr unsafe.Pointer) error {
		subStream, err := stream.ReadStream()
		if err != nil {
			return err
		} else if subStream.Offset() == 0 {
			return nil
		}
		str, err := subStream.ReadString()
		if err != nil {
			return err
		}
		slice := (*sliceData)(ptr)
		new := (*sliceData)(unsafe.Pointer(&str))
		*slice, *new = *new, *slice
		return nil
	}, layout{bs}
}

// checkCustom reports whether typ cannot be copied byte for byte.
func checkCustom(typ reflect.Type, bs int) bool {
	switch typ.Kind() {
	case reflect.Bool, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64:
		return false
	case reflect.Int, reflect.Uint, reflect.Uintptr, reflect.UnsafePointer:
		return int(typ.Size()) != bs
	default:
		return true
	}
}
