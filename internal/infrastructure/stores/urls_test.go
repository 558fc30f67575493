package stores

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestAbsoluteURL(t *testing.T) {
	base := "https://www.example.com.ar/"

	tests := []struct {
		name string
		raw  string
		want string
	}{
		{name: "protocol relative", raw: "//cdn.example.com/a.jpg", want: "https://cdn.example.com/a.jpg"},
		{name: "root relative", raw: "/leche/p", want: "https://www.example.com.ar/leche/p"},
		{name: "absolute unchanged", raw: "http://other.com/x", want: "http://other.com/x"},
		{name: "path relative", raw: "img/a.jpg", want: "https://www.example.com.ar/img/a.jpg"},
		{name: "empty", raw: " ", want: ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, AbsoluteURL(base, tt.raw))
		})
	}
}

func TestEncodeTerm(t *testing.T) {
	assert.Equal(t, "leche%20entera", encodeTerm("leche entera"))
	assert.Equal(t, "caf%C3%A9%20%26%20t%C3%A9", encodeTerm("café & té"))
}
