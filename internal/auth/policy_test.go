package auth

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNormalizeEmail(t *testing.T) {
	assert.Equal(t, "a@x.com", NormalizeEmail("  A@X.Com "))
	assert.Equal(t, "user@example.org", NormalizeEmail("User@Example.ORG"))
	assert.Equal(t, "", NormalizeEmail("   "))
}

func TestValidEmail(t *testing.T) {
	tests := []struct {
		name  string
		email string
		want  bool
	}{
		{"simple", "a@x.com", true},
		{"dots in local part", "first.last@example.com", true},
		{"plus tag", "user+tag@example.io", true},
		{"uppercase", "USER@EXAMPLE.COM", true},
		{"long tld", "a@x.museum", true},
		{"empty", "", false},
		{"missing at", "plainaddress", false},
		{"empty local part", "@example.com", false},
		{"missing tld", "a@x", false},
		{"one letter tld", "a@x.c", false},
		{"numeric tld", "a@x.c0m", false},
		{"leading dot in local part", ".a@x.com", false},
		{"consecutive dots in local part", "a..b@x.com", false},
		{"consecutive dots in domain", "a@x..com", false},
		{"subdomain", "a@mail.example.com", false},
		{"surrounding space", " a@x.com", false},
		{"missing domain", "a@.com", false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, ValidEmail(tt.email))
		})
	}
}

func TestCheckPasswordStrength(t *testing.T) {
	tests := []struct {
		name     string
		password string
		want     []string
	}{
		{"acceptable", "Str0ng!Pw", nil},
		{"dot counts as symbol", "Passw0rd.", nil},
		{"multibyte runes count toward length", "Pässw0rd!", nil},
		{
			"empty",
			"",
			[]string{
				"must be at least 8 characters long",
				"must contain an uppercase letter",
				"must contain a digit",
				"must contain a special character (" + passwordSymbols + ")",
			},
		},
		{"too short", "Sh0rt!x", []string{"must be at least 8 characters long"}},
		{"missing uppercase", "alllower1!", []string{"must contain an uppercase letter"}},
		{"missing digit", "NoDigits!!", []string{"must contain a digit"}},
		{"missing symbol", "NoSymbol123", []string{"must contain a special character (" + passwordSymbols + ")"}},
		{"dash is not a symbol", "Passw0rd-", []string{"must contain a special character (" + passwordSymbols + ")"}},
		{"accented uppercase does not count", "ääääää1!", []string{"must contain an uppercase letter"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, CheckPasswordStrength(tt.password))
		})
	}
}
