package weavev1

import (
	"encoding/json"
	"fmt"

	"google.golang.org/protobuf/encoding/protojson"
	"google.golang.org/protobuf/types/known/structpb"
)

// EncodeStruct converts v, which must marshal to a JSON object, into a Struct.
func EncodeStruct(v any) (*structpb.Struct, error) {
	raw, err := json.Marshal(v)
	if err != nil {
		return nil, fmt.Errorf("encode %T: %w", v, err)
	}
	out := &structpb.Struct{}
	if err := protojson.Unmarshal(raw, out); err != nil {
		return nil, fmt.Errorf("encode %T: %w", v, err)
	}
	return out, nil
}

// DecodeStruct fills v from s using v's JSON field names. It goes through
// AsMap because protojson prints large numbers in exponent form, which
// encoding/json rejects for integer fields.
func DecodeStruct(s *structpb.Struct, v any) error {
	if s == nil {
		return fmt.Errorf("decode %T: empty message", v)
	}
	raw, err := json.Marshal(s.AsMap())
	if err != nil {
		return fmt.Errorf("decode %T: %w", v, err)
	}
	if err := json.Unmarshal(raw, v); err != nil {
		return fmt.Errorf("decode %T: %w", v, err)
	}
	return nil
}

// EncodeList converts a slice into a ListValue.
func EncodeList(v any) (*structpb.ListValue, error) {
	raw, err := json.Marshal(v)
	if err != nil {
		return nil, fmt.Errorf("encode %T: %w", v, err)
	}
	if string(raw) == "null" {
		return &structpb.ListValue{}, nil
	}
	out := &structpb.ListValue{}
	if err := protojson.Unmarshal(raw, out); err != nil {
		return nil, fmt.Errorf("encode %T: %w", v, err)
	}
	return out, nil
}

// DecodeList fills the slice pointed to by v from l.
func DecodeList(l *structpb.ListValue, v any) error {
	if l == nil {
		l = &structpb.ListValue{}
	}
	raw, err := json.Marshal(l.AsSlice())
	if err != nil {
		return fmt.Errorf("decode %T: %w", v, err)
	}
	if err := json.Unmarshal(raw, v); err != nil {
		return fmt.Errorf("decode %T: %w", v, err)
	}
	return nil
}
