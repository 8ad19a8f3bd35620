package config

import (
	"errors"
	"regexp"
	"strings"
	"unicode"
)

// ErrInvalidCredential indica um valor com caracteres fora do formato do Trello
var ErrInvalidCredential = errors.New("credencial em formato inválido")

// Chaves, tokens e ids do Trello são alfanuméricos; o id do quadro vai no path da URL
var validTrelloID = regexp.MustCompile(`^[a-zA-Z0-9]+$`)

// SanitizeCredential remove espaços, bytes nulos e caracteres de controle
func SanitizeCredential(value string) string {
	value = strings.TrimSpace(value)
	value = strings.ReplaceAll(value, "\x00", "")
	return removeControlChars(value)
}

// ValidateTrelloID valida chave, token ou id de quadro
func ValidateTrelloID(value string) bool {
	return validTrelloID.MatchString(value)
}

// removeControlChars removes control characters from a string
func removeControlChars(s string) string {
	var result strings.Builder
	for _, r := range s {
		if !unicode.IsControl(r) {
			result.WriteRune(r)
		}
	}
	return result.String()
}
