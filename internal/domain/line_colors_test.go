package domain

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestResolveColor(t *testing.T) {
	tests := []struct {
		name          string
		lineName      string
		mode          TransportType
		providerColor string
		expected      string
	}{
		{"table value", "R4", TransportTypeRodalies, "", "F6A22D"},
		{"provider color wins", "R4", TransportTypeRodalies, "#112233", "112233"},
		{"provider color without hash", "L1", TransportTypeMetro, "ABCDEF", "ABCDEF"},
		{"lookup is case-insensitive", "l3", TransportTypeMetro, "", "1EB53A"},
		{"bus family", "H12", TransportTypeBus, "", "2D3E8C"},
		{"bus numeric falls back to mode default", "7", TransportTypeBus, "", "DC241F"},
		{"unknown line uses mode default", "R99", TransportTypeRodalies, "", "E30613"},
		{"whitespace provider color ignored", "S1", TransportTypeFGC, "  ", "F58220"},
		{"unknown mode", "X", TransportType("ferry"), "", "808080"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, ResolveColor(tt.lineName, tt.mode, tt.providerColor))
		})
	}
}

func TestBuildDisplayName(t *testing.T) {
	assert.Equal(t, "🚇 L1", BuildDisplayName(TransportTypeMetro, "L1"))
	assert.Equal(t, "R2N", BuildDisplayName(TransportType("unknown"), " R2N "))
}
