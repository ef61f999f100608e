package validate

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestIBAN(t *testing.T) {
	t.Run("valid", func(t *testing.T) {
		require.NoError(t, IBAN("TR330006100519786457841326"))
	})

	t.Run("too short", func(t *testing.T) {
		require.Error(t, IBAN("TR33000610051978645784132"))
	})

	t.Run("too long", func(t *testing.T) {
		require.Error(t, IBAN("TR3300061005197864578413260"))
	})

	t.Run("lowercase country code", func(t *testing.T) {
		require.Error(t, IBAN("tr330006100519786457841326"))
	})

	t.Run("letters in body", func(t *testing.T) {
		require.Error(t, IBAN("TR33000610051978645784132A"))
	})

	t.Run("empty", func(t *testing.T) {
		require.Error(t, IBAN(""))
	})
}
