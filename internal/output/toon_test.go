package output

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type toonNode struct {
	ID       int        `json:"id"`
	Name     string     `json:"nombre"`
	Children []toonNode `json:"hijos"`
}

func TestEncodeTOON(t *testing.T) {
	type product struct {
		SKU   string  `json:"sku"`
		Price float64 `json:"precio"`
		Name  string  `json:"nombre"`
	}
	doc := struct {
		Metadata struct {
			Version string `json:"version"`
			Total   int    `json:"total"`
		} `json:"metadata"`
		Tags     []string   `json:"tags"`
		Empty    []string   `json:"vacio"`
		Products []product  `json:"productos"`
		Tree     []toonNode `json:"arbol"`
		Note     *string    `json:"nota"`
	}{
		Tags:  []string{"pisos", "a,b", ""},
		Empty: []string{},
		Products: []product{
			{SKU: "A-1", Price: 1500.5, Name: "Chapa lisa"},
			{SKU: "-2", Price: 0, Name: "true"},
		},
		Tree: []toonNode{{ID: 1, Name: "Pisos", Children: []toonNode{{ID: 2, Name: "Porcelanatos", Children: []toonNode{}}}}},
	}
	doc.Metadata.Version = "1.0"
	doc.Metadata.Total = 2

	out, err := EncodeTOON(doc)
	require.NoError(t, err)

	want := `metadata:
  version: "1.0"
  total: 2
tags[3]: pisos,"a,b",""
vacio[0]:
productos[2]{sku,precio,nombre}:
  A-1,1500.5,Chapa lisa
  "-2",0,"true"
arbol[1]:
  - id: 1
    nombre: Pisos
    hijos[1]:
      - id: 2
        nombre: Porcelanatos
        hijos[0]:
nota: null`
	assert.Equal(t, want, string(out))
}

func TestEncodeTOON_ListItems(t *testing.T) {
	out, err := EncodeTOON(map[string]any{
		"mixto": []any{1, "x y", []string{"a", "b"}, map[string]any{}},
		"rutas": []any{
			map[string]any{"ruta": []string{"Pisos", "Porcelanatos"}, "id": 2},
		},
	})
	require.NoError(t, err)

	// map keys come out sorted
	want := `mixto[4]:
  - 1
  - x y
  - [2]: a,b
  -
rutas[1]:
  - id: 2
    ruta[2]: Pisos,Porcelanatos`
	assert.Equal(t, want, string(out))
}

func TestEncodeTOON_QuotesKeysAndEscapes(t *testing.T) {
	out, err := EncodeTOON(map[string]string{
		"con espacio": "línea\nnueva",
		"ok_key.v2":   `dice "hola"`,
	})
	require.NoError(t, err)
	assert.Equal(t, `"con espacio": "línea\nnueva"`+"\n"+`ok_key.v2: "dice \"hola\""`, string(out))
}

func TestEncodeTOON_RootArray(t *testing.T) {
	out, err := EncodeTOON([]map[string]int{{"a": 1, "b": 2}, {"a": 3, "b": 4}})
	require.NoError(t, err)
	assert.Equal(t, "[2]{a,b}:\n  1,2\n  3,4", string(out))
}
