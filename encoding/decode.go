package encoding

import (
	"reflect"
	"sync"
	"unsafe"

	"github.com/modern-go/reflect2"
)

type handler = func(Stream, unsafe.Pointer) error

type handlerData struct {
	handler handler
	size    int
}

var decodeProcess sync.Map

// DecodeSize returns the number of bytes val occupies in an address space
// whose pointers are blockSize bytes wide.
func DecodeSize(blockSize int, val any) int {
	if getPtr(val) == nil {
		return blockSize
	}
	typ := reflect.TypeOf(val)
	if typ.Kind() == reflect.Pointer {
		typ = typ.Elem()
	}
	return getUnmarshalData(typ, blockSize).size
}

// Decode fills the value val points to from stream. Scalars are copied in
// host byte order; uintptr, int, uint and unsafe.Pointer fields take the
// stream's block size; pointer and string fields are followed.
func Decode(stream Stream, val any) error {
	bs := stream.BlockSize()
	ptr := getPtr(val)
	if ptr == nil {
		return stream.Skip(bs)
	}
	typ := reflect.TypeOf(val)
	if typ.Kind() != reflect.Pointer {
		return ErrNotPointer
	}
	return getUnmarshalData(typ.Elem(), bs).handler(stream, ptr)
}

func getUnmarshalData(typ reflect.Type, bs int) *handlerData {
	key := [2]uintptr{uintptr(bs), getRType(typ)}
	var data *handlerData
	if v, ok := decodeProcess.Load(key); ok {
		data = v.(*handlerData)
	} else {
		unmarshal, size := decode(typ, bs)
		data = &handlerData{unmarshal, size.total()}
		decodeProcess.Store(key, data)
	}
	return data
}

func decode(typ reflect.Type, bs int) (handler, layout) {
	switch typ.Kind() {
	case reflect.Bool, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64:
		size := int(typ.Size())
		return func(stream Stream, ptr unsafe.Pointer) error {
			_, err := stream.Read(unsafe.Slice((*byte)(ptr), size))
			return err
		}, layout{size}
	case reflect.Int, reflect.Uint, reflect.Uintptr, reflect.UnsafePointer:
		size := int(typ.Size())
		var pad int
		if size > bs {
			size = bs
		} else if size < bs {
			pad = bs - size
		}
		return func(stream Stream, ptr unsafe.Pointer) error {
			_, err := stream.Read(unsafe.Slice((*byte)(ptr), size))
			if err != nil {
				return err
			} else if pad > 0 {
				return stream.Skip(pad)
			}
			return nil
		}, layout{bs}
	case reflect.Array:
		return decodeArray(typ, bs)
	case reflect.Pointer:
		return decodePointer(typ.Elem(), bs)
	case reflect.String:
		return decodeString(bs)
	case reflect.Struct:
		return decodeStruct(reflect2.Type2(typ), bs)
	}
	panic("Unsupported Type")
}

func decodePointer(typ reflect.Type, bs int) (handler, layout) {
	unmarshal, _ := decode(typ, bs)
	elemType := reflect2.Type2(typ)
	return func(stream Stream, ptr unsafe.Pointer) error {
		subStream, err := stream.ReadStream()
		if err != nil {
			return err
		} else if subStream.Offset() == 0 {
			return nil
		}
		elemPtr := *(*unsafe.Pointer)(ptr)
		if elemPtr == nil {
			elemPtr = elemType.UnsafeNew()
			*(*unsafe.Pointer)(ptr) = elemPtr
		}
		return unmarshal(subStream, elemPtr)
	}, layout{bs}
}

func getRType(typ reflect.Type) uintptr {
	return (*struct{ _, data uintptr })(unsafe.Pointer(&typ)).data
}

func getPtr(v any) unsafe.Pointer {
	return (*struct{ _, data unsafe.Pointer })(unsafe.Pointer(&v)).data
}
