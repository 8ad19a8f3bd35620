package model

// Board representa o quadro do Trello exportado
type Board struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

// List representa uma lista (coluna) do quadro
type List struct {
	ID     string `json:"id"`
	Name   string `json:"name"`
	Closed bool   `json:"closed"`
}

// Label representa uma etiqueta do quadro
type Label struct {
	ID    string `json:"id"`
	Name  string `json:"name"`
	Color string `json:"color"`
}

// Member representa um membro do quadro
type Member struct {
	ID       string `json:"id"`
	FullName string `json:"fullName"`
	Username string `json:"username"`
}

// CardRoleSeparator marca cartões usados apenas como separador visual
const CardRoleSeparator = "separator"

// Card representa um cartão do quadro
type Card struct {
	ID               string            `json:"id"`
	Name             string            `json:"name"`
	IDList           string            `json:"idList"`
	IDLabels         []string          `json:"idLabels"`
	IDMembers        []string          `json:"idMembers"`
	Closed           bool              `json:"closed"`
	CardRole         string            `json:"cardRole,omitempty"`
	CustomFieldItems []CustomFieldItem `json:"customFieldItems"`
}

// CustomFieldItem é o valor de um campo personalizado do tipo lista.
// Só o IDValue importa: ele é traduzido pelas tabelas estáticas de regras.
type CustomFieldItem struct {
	ID            string `json:"id"`
	IDValue       string `json:"idValue"`
	IDCustomField string `json:"idCustomField"`
}

// BoardSnapshot agrupa as coleções de um quadro obtidas numa única coleta
type BoardSnapshot struct {
	Board   Board    `json:"board"`
	Lists   []List   `json:"lists"`
	Labels  []Label  `json:"labels"`
	Members []Member `json:"members"`
	Cards   []Card   `json:"cards"`
}

// MemberResponse representa a resposta de /members/me
type MemberResponse struct {
	ID       string `json:"id"`
	Username string `json:"username"`
}
