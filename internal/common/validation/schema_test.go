package validation

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const personSchema = `{
  "type": "object",
  "required": ["name", "kind"],
  "additionalProperties": false,
  "properties": {
    "name": {"type": "string", "minLength": 2},
    "kind": {"type": "string", "enum": ["a", "b"]}
  }
}`

func TestSchema_ValidateBytes(t *testing.T) {
	s := MustCompile(personSchema)

	res, err := s.ValidateBytes([]byte(`{"name":"Ana","kind":"a"}`))
	require.NoError(t, err)
	assert.True(t, res.Valid)
	assert.Empty(t, res.Errors)

	res, err = s.ValidateBytes([]byte(`{"name":"A","extra":1}`))
	require.NoError(t, err)
	assert.False(t, res.Valid)
	assert.True(t, res.HasErrors("kind"))
	assert.True(t, res.HasErrors("name"))

	codes := map[string]bool{}
	for _, e := range res.Errors {
		codes[e.Code] = true
	}
	assert.True(t, codes["REQUIRED_FIELD_MISSING"])
	assert.True(t, codes["EXTRA_FIELD"])
	assert.True(t, codes["MIN_LENGTH_VIOLATION"])
	assert.Len(t, res.GetErrorMessages(), len(res.Errors))
}

func TestSchema_ValidateInput(t *testing.T) {
	s := MustCompile(personSchema)

	res, err := s.ValidateInput(map[string]interface{}{"name": "Bia", "kind": "z"})
	require.NoError(t, err)
	assert.False(t, res.Valid)
	assert.Equal(t, "INVALID_ENUM_VALUE", res.Errors[0].Code)
}

func TestSchema_MalformedDocument(t *testing.T) {
	_, err := MustCompile(personSchema).ValidateBytes([]byte(`{"name":`))
	assert.Error(t, err)
}

func TestCompile_RejectsBadSchema(t *testing.T) {
	_, err := Compile(`{"type": 12}`)
	assert.Error(t, err)
	assert.Panics(t, func() { MustCompile(`not json`) })
}

func TestNormalizers(t *testing.T) {
	assert.Equal(t, "51999999999", NormalizePhone("(51) 99999-9999"))
	assert.Equal(t, "@ana.silva", NormalizeInstagram("Ana.Silva"))
	assert.Equal(t, "@ana", NormalizeInstagram(" @ANA "))
	assert.Equal(t, "https://x", NormalizeInstagram("https://x"))
	assert.True(t, ValidateEmail("a@a.com"))
	assert.False(t, ValidateEmail("a@a"))
}
