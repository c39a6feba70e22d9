package jsonpb

import (
	pbjson "github.com/vizee/jsonpb"
	"google.golang.org/protobuf/reflect/protoreflect"
)

// MessageCache converts protobuf descriptors into transcoding schemas.
type MessageCache struct {
	cache map[protoreflect.FullName]*pbjson.Message
}

func (mc *MessageCache) Resolve(md protoreflect.MessageDescriptor) *pbjson.Message {
	if mc.cache == nil {
		mc.cache = make(map[protoreflect.FullName]*pbjson.Message)
	}

	msg := mc.cache[md.FullName()]
	if msg != nil {
		return msg
	}

	fields := md.Fields()
	msg = &pbjson.Message{
		Name:   string(md.FullName()),
		Fields: make([]pbjson.Field, 0, fields.Len()),
	}
	// registered before the fields so recursive messages terminate
	mc.cache[md.FullName()] = msg

	for i := 0; i < fields.Len(); i++ {
		fd := fields.Get(i)
		kind, ok := getTypeKind(fd.Kind())
		if !ok {
			continue
		}
		repeated := fd.Cardinality() == protoreflect.Repeated
		var msgRef *pbjson.Message
		if kind == pbjson.MessageKind {
			msgRef = mc.Resolve(fd.Message())
			if fd.IsMap() {
				kind = pbjson.MapKind
				repeated = false
			}
		}
		msg.Fields = append(msg.Fields, pbjson.Field{
			Name:     fd.JSONName(),
			Kind:     kind,
			Ref:      msgRef,
			Tag:      uint32(fd.Number()),
			Repeated: repeated,
			Omit:     pbjson.OmitProtoEmpty,
		})
	}

	msg.BakeTagIndex()
	msg.BakeNameIndex()
	return msg
}

func getTypeKind(kind protoreflect.Kind) (pbjson.Kind, bool) {
	switch kind {
	case protoreflect.DoubleKind:
		return pbjson.DoubleKind, true
	case protoreflect.FloatKind:
		return pbjson.FloatKind, true
	case protoreflect.Int64Kind:
		return pbjson.Int64Kind, true
	case protoreflect.Uint64Kind:
		return pbjson.Uint64Kind, true
	case protoreflect.Int32Kind, protoreflect.EnumKind:
		return pbjson.Int32Kind, true
	case protoreflect.Fixed64Kind:
		return pbjson.Fixed64Kind, true
	case protoreflect.Fixed32Kind:
		return pbjson.Fixed32Kind, true
	case protoreflect.BoolKind:
		return pbjson.BoolKind, true
	case protoreflect.StringKind:
		return pbjson.StringKind, true
	case protoreflect.MessageKind:
		return pbjson.MessageKind, true
	case protoreflect.BytesKind:
		return pbjson.BytesKind, true
	case protoreflect.Uint32Kind:
		return pbjson.Uint32Kind, true
	case protoreflect.Sfixed32Kind:
		return pbjson.Sfixed32Kind, true
	case protoreflect.Sfixed64Kind:
		return pbjson.Sfixed64Kind, true
	case protoreflect.Sint32Kind:
		return pbjson.Sint32Kind, true
	case protoreflect.Sint64Kind:
		return pbjson.Sint64Kind, true
	}
	return 0, false
}
