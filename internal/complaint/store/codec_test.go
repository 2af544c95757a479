package store

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func ptr(s string) *string { return &s }

func TestDecodeList(t *testing.T) {
	tests := []struct {
		name string
		raw  *string
		want []string
	}{
		{"null column", nil, []string{}},
		{"empty text", ptr(""), []string{}},
		{"json null", ptr("null"), []string{}},
		{"malformed", ptr("[\"a\","), []string{}},
		{"not an array", ptr("{\"a\":1}"), []string{}},
		{"ordered values", ptr(`["https://x/1.jpg","https://x/2.jpg"]`), []string{"https://x/1.jpg", "https://x/2.jpg"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, DecodeList(tt.raw))
		})
	}
}

func TestEncodeList(t *testing.T) {
	assert.Equal(t, "[]", EncodeList(nil))
	assert.Equal(t, `["ยา","อาหาร"]`, EncodeList([]string{"ยา", "อาหาร"}))

	encoded := EncodeList([]string{"a", "b"})
	assert.Equal(t, []string{"a", "b"}, DecodeList(&encoded))
}
