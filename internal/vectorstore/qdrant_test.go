package vectorstore

import (
	"testing"

	"github.com/qdrant/go-client/qdrant"
)

func TestConvertValue(t *testing.T) {
	tests := []struct {
		name string
		in   *qdrant.Value
		want any
	}{
		{
			name: "string",
			in:   &qdrant.Value{Kind: &qdrant.Value_StringValue{StringValue: "hello"}},
			want: "hello",
		},
		{
			name: "integer",
			in:   &qdrant.Value{Kind: &qdrant.Value_IntegerValue{IntegerValue: 42}},
			want: int64(42),
		},
		{
			name: "double",
			in:   &qdrant.Value{Kind: &qdrant.Value_DoubleValue{DoubleValue: 3.14}},
			want: 3.14,
		},
		{
			name: "bool",
			in:   &qdrant.Value{Kind: &qdrant.Value_BoolValue{BoolValue: true}},
			want: true,
		},
		{
			name: "nil kind",
			in:   &qdrant.Value{},
			want: nil,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := convertValue(tt.in); got != tt.want {
				t.Errorf("convertValue() = %v (%T), want %v (%T)", got, got, tt.want, tt.want)
			}
		})
	}
}

func TestConvertValue_List(t *testing.T) {
	in := &qdrant.Value{Kind: &qdrant.Value_ListValue{
		ListValue: &qdrant.ListValue{Values: []*qdrant.Value{
			{Kind: &qdrant.Value_StringValue{StringValue: "a"}},
			{Kind: &qdrant.Value_IntegerValue{IntegerValue: 1}},
		}},
	}}

	got, ok := convertValue(in).([]any)
	if !ok {
		t.Fatalf("convertValue() = %T, want []any", convertValue(in))
	}
	if len(got) != 2 || got[0] != "a" || got[1] != int64(1) {
		t.Errorf("list = %v", got)
	}
}

func TestConvertPayloadToMap(t *testing.T) {
	payload := map[string]*qdrant.Value{
		"title":      {Kind: &qdrant.Value_StringValue{StringValue: "Setup"}},
		"word_count": {Kind: &qdrant.Value_IntegerValue{IntegerValue: 120}},
		"nil_entry":  nil,
	}

	got := convertPayloadToMap(payload)
	if got["title"] != "Setup" || got["word_count"] != int64(120) {
		t.Errorf("converted payload = %v", got)
	}
	if _, ok := got["nil_entry"]; ok {
		t.Error("nil values must be skipped")
	}
}
