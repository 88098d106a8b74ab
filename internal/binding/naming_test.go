package binding

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/cmmoran/viewbindgen/internal/model"
)

func TestNamingPrivate(t *testing.T) {
	tests := []struct {
		name   string
		prefix string
		spec   model.AutoCreation
		want   string
	}{
		{"property", "", model.AutoCreation{Name: "Score", Creation: model.CreationPrivateProperty}, "score"},
		{"command suffix", "", model.AutoCreation{Name: "Play", Creation: model.CreationCommandStream}, "playCmd"},
		{"command suffix not doubled", "", model.AutoCreation{Name: "PlayCmd", Creation: model.CreationPrivateCommand}, "playCmd"},
		{"prefix", "_", model.AutoCreation{Name: "Score", Creation: model.CreationReadOnlyProperty}, "_score"},
		{"keyword", "", model.AutoCreation{Name: "Type", Creation: model.CreationPrivateProperty}, "type_"},
		{"first letter only", "", model.AutoCreation{Name: "HPBar", Creation: model.CreationPropertyStream}, "hPBar"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			n := Naming{PrivatePrefix: tt.prefix}
			assert.Equal(t, tt.want, n.Private(tt.spec))
			assert.Equal(t, n.Private(tt.spec), n.Private(tt.spec))
		})
	}
}

func TestElement(t *testing.T) {
	assert.Equal(t, "label", Element("Labels"))
	assert.Equal(t, "child", Element("Children"))
	assert.Equal(t, "sheepItem", Element("Sheep"))
	assert.Equal(t, "valuesItem", Element("Values"))
	assert.Equal(t, "iconItem", Element("Icon"))
}
