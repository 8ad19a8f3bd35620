package model

import "errors"

var (
	// ErrRateLimited indica que a API do Trello retornou 429
	ErrRateLimited = errors.New("rate limit excedido na API do Trello")

	// ErrUnauthorized indica chave ou token inválidos
	ErrUnauthorized = errors.New("credenciais do Trello inválidas ou expiradas")

	// ErrNotFound indica recurso não encontrado
	ErrNotFound = errors.New("recurso não encontrado no Trello")

	// ErrTimeout indica timeout na requisição
	ErrTimeout = errors.New("timeout na requisição para o Trello")

	// ErrInvalidResponse indica resposta inválida da API
	ErrInvalidResponse = errors.New("resposta inválida da API do Trello")

	// ErrMissingBoard indica que nenhum quadro foi configurado
	ErrMissingBoard = errors.New("quadro do Trello não configurado")
)
