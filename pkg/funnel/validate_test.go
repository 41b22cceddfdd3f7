package funnel

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestValidatePhone(t *testing.T) {
	tests := []struct {
		in   string
		want bool
	}{
		{"4798888888", true},
		{"47988888888", true},
		{"(47) 98888-8888", true},
		{"(47) 3333-4444", true},
		{"+55 47 98888-8888", false},
		{"479888", false},
		{"", false},
		{"abc", false},
		{"479888888881", false},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, ValidatePhone(tt.in), tt.in)
	}
}

func TestFormatPhone(t *testing.T) {
	tests := []struct {
		in, want string
	}{
		{"", ""},
		{"4", "4"},
		{"47", "47"},
		{"479", "(47) 9"},
		{"479888", "(47) 9888"},
		{"4733334", "(47) 3333-4"},
		{"4733334444", "(47) 3333-4444"},
		{"47988888888", "(47) 98888-8888"},
		{"4798888888812", "(47) 98888-8888"},
		{"47 9.8888-8888", "(47) 98888-8888"},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, FormatPhone(tt.in), tt.in)
	}
}

func TestFormatPhoneIdempotent(t *testing.T) {
	for _, formatted := range []string{"(47) 3333-4444", "(47) 98888-8888", "(11) 91234-5678"} {
		assert.Equal(t, formatted, FormatPhone(formatted))
		assert.Equal(t, formatted, FormatPhone(FormatPhone(formatted)))
	}
}

func TestValidateEmail(t *testing.T) {
	valid := []string{"ana@exemplo.com", "a.b+c@mail.example.com.br", "x@y.z"}
	invalid := []string{"", "ana", "ana@exemplo", "ana.exemplo.com", "ana @exemplo.com", "@exemplo.com", "ana@.com"}
	for _, e := range valid {
		assert.True(t, ValidateEmail(e), e)
	}
	for _, e := range invalid {
		assert.False(t, ValidateEmail(e), e)
	}
}

func TestValidateName(t *testing.T) {
	assert.True(t, ValidateName("Ana"))
	assert.True(t, ValidateName("  Zé Maria "))
	assert.False(t, ValidateName("Jo"))
	assert.False(t, ValidateName("   a  "))
	assert.False(t, ValidateName(""))
}
