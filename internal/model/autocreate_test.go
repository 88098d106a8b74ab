package model

import (
	"go/token"
	"testing"

	"github.com/cockroachdb/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseFlags(t *testing.T) {
	tests := []struct {
		in      string
		want    Flags
		wantErr bool
	}{
		{"", 0, false},
		{"None", 0, false},
		{"PublicObservable|PrivateReactiveProperty", PublicObservable | PrivateReactiveProperty, false},
		{"privatecommand, publicobservable", PrivateCommand | PublicObservable, false},
		{"PublicObservable|Bogus", 0, true},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := ParseFlags(tt.in)
			if tt.wantErr {
				require.Error(t, err)
				assert.True(t, errors.Is(err, ErrConfiguration))
				assert.NotEmpty(t, errors.GetAllHints(err))
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestCreationRoundTrip(t *testing.T) {
	for f := Flags(1); f < 16; f++ {
		c, err := CreationFor(f, "X")
		if err != nil {
			assert.True(t, errors.Is(err, ErrConfiguration))
			continue
		}
		assert.Equal(t, f, c.Flags(), "creation %s", c)
	}
}

func TestEmptySpecSplitsOnName(t *testing.T) {
	none, err := NewAutoCreation("", 0, "")
	require.NoError(t, err)
	assert.True(t, none.IsNone())

	existing, err := NewAutoCreation("Score", 0, "int")
	require.NoError(t, err)
	assert.Equal(t, CreationExisting, existing.Creation)
	assert.False(t, existing.HasPrivateCreation())
	assert.False(t, existing.HasPublicCreation())

	_, err = NewAutoCreation("", PrivateCommand, "")
	assert.True(t, errors.Is(err, ErrConfiguration))
}

func TestPredicates(t *testing.T) {
	s, err := NewAutoCreation("Score", PublicObservable|PrivateReactiveProperty, "Unit")
	require.NoError(t, err)
	assert.False(t, s.HasArgument())
	assert.True(t, s.HasPrivateCreation())
	assert.True(t, s.HasPublicCreation())
	assert.Equal(t, PublicObservable|PrivateReactiveProperty, s.Flags())
}

func TestLocate(t *testing.T) {
	err := Locate(Unsupportedf("cannot invert Color"), "HudView", "Tint", "observe", token.Position{})
	var ce *ConfigurationError
	require.True(t, errors.As(err, &ce))
	assert.Equal(t, "HudView", ce.View)
	assert.True(t, errors.Is(err, ErrUnsupportedOperation))
	assert.True(t, errors.Is(err, ErrConfiguration))
	assert.Contains(t, err.Error(), "HudView.Tint [observe]")

	var d Diagnostics
	d.Add(err)
	d.Add(nil)
	require.Len(t, d, 1)
	assert.Error(t, d.Err())
	assert.NoError(t, Diagnostics(nil).Err())
}

func TestLocateFillsMissingIdentity(t *testing.T) {
	inner := Locate(Configf("argument %q given twice", "as"), "", "", "observe", token.Position{})
	pos := token.Position{Filename: "hud.go", Line: 12, Column: 2}
	err := Locate(inner, "HudView", "Score", "call", pos)

	ce, ok := err.(*ConfigurationError)
	require.True(t, ok)
	assert.Equal(t, "HudView", ce.View)
	assert.Equal(t, "Score", ce.Member)
	assert.Equal(t, "observe", ce.Directive)
	assert.Equal(t, pos, ce.Pos)
	assert.True(t, errors.Is(err, ErrConfiguration))
	assert.Equal(t, `hud.go:12:2: HudView.Score [observe]: argument "as" given twice`, err.Error())
}
