package converters

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/feichai0017/ticket-extractor/internal/models"
)

func TestFromResult(t *testing.T) {
	structured := &models.Result{Kind: models.Structured, JSON: []byte(`{"b":1,"a":2}`), Warnings: []string{"w"}}
	resp := FromResult(structured)
	require.Equal(t, ContentTypeJSON, resp.ContentType)
	require.Equal(t, `{"b":1,"a":2}`, string(resp.Body))
	require.Equal(t, []string{"w"}, resp.Warnings)

	plain := &models.Result{Kind: models.PlainText, Text: "no json here"}
	resp = FromResult(plain)
	require.Equal(t, ContentTypeText, resp.ContentType)
	require.Equal(t, "no json here", string(resp.Body))
}

func TestPrettyKeepsKeyOrder(t *testing.T) {
	r := &models.Result{Kind: models.Structured, JSON: []byte(`{"zeta":null,"alpha":"x"}`)}
	require.Equal(t, "{\n  \"zeta\": null,\n  \"alpha\": \"x\"\n}", Pretty(r))

	require.Equal(t, "plain", Pretty(&models.Result{Kind: models.PlainText, Text: "plain"}))
}
