package llm

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/feichai0017/ticket-extractor/internal/models"
)

func TestSanitizeCleanJSON(t *testing.T) {
	raw := `{"airline": "Air France", "flight_number": "AF1234", "seat_number": null}`

	res := Sanitize(raw)

	require.Equal(t, models.Structured, res.Kind)
	require.JSONEq(t, raw, string(res.JSON))
	// bytes kept so key order survives
	require.Equal(t, raw, string(res.JSON))
}

func TestSanitizeArray(t *testing.T) {
	res := Sanitize(` [{"airline": "KLM"}] `)

	require.Equal(t, models.Structured, res.Kind)
	require.Equal(t, `[{"airline": "KLM"}]`, string(res.JSON))
}

func TestSanitizeFencedJSON(t *testing.T) {
	cases := []string{
		"```json\n{\"airline\": null, \"flight_number\": null}\n```",
		"```JSON {\"airline\": null, \"flight_number\": null}```",
		"```\n{\"airline\": null, \"flight_number\": null}\n```\n",
		"\n\n```json\n{\"airline\": null, \"flight_number\": null}\n```",
	}

	for _, raw := range cases {
		res := Sanitize(raw)
		require.Equal(t, models.Structured, res.Kind, raw)
		require.Equal(t, `{"airline": null, "flight_number": null}`, string(res.JSON), raw)
	}
}

func TestSanitizeProseIsReturnedUntouched(t *testing.T) {
	raw := "  Sorry, I could not find a ticket in this text.\n"

	res := Sanitize(raw)

	require.Equal(t, models.PlainText, res.Kind)
	require.Equal(t, raw, res.Text)
	require.Nil(t, res.JSON)
}

func TestSanitizeFencedNonJSON(t *testing.T) {
	res := Sanitize("```json\nairline: Air France\n```")

	require.Equal(t, models.PlainText, res.Kind)
	require.Equal(t, "airline: Air France", res.Text)
}

func TestSanitizeScalarsAreNotStructured(t *testing.T) {
	for _, raw := range []string{"null", "42", `"text"`, "", "{broken"} {
		res := Sanitize(raw)
		require.Equal(t, models.PlainText, res.Kind, raw)
		require.Equal(t, raw, res.Text)
	}
}
