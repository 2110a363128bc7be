package enum

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestNew(t *testing.T) {
	t.Run("create a enum of string", func(t *testing.T) {
		type EnumString string

		bar := New(EnumString("bar"))
		require.Equal(t, bar, EnumString("bar"))

		v, err := ToEnum[EnumString]("bar")
		require.NoError(t, err)
		require.Equal(t, v, bar)

		_, err = ToEnum[EnumString]("baz")
		require.Error(t, err)
	})

	t.Run("unregistered type", func(t *testing.T) {
		type EnumUnknown string

		_, err := ToEnum[EnumUnknown]("anything")
		require.Error(t, err)
	})
}
