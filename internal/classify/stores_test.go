package classify

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestStores(t *testing.T) {
	tests := []struct {
		name      string
		storeHint string
		brand     string
		want      []string
	}{
		{
			name:      "single chain in store hint",
			storeHint: "Tesco Express",
			want:      []string{"Tesco"},
		},
		{
			name:      "multiple chains comma separated",
			storeHint: "Tesco,Asda,Morrisons",
			want:      []string{"Tesco", "Asda", "Morrisons"},
		},
		{
			name:      "chain name in brand",
			brand:     "Sainsburys Taste the Difference",
			want:      []string{"Sainsburys"},
		},
		{
			name:      "case insensitive",
			storeHint: "LIDL gb",
			want:      []string{"Lidl"},
		},
		{
			name:  "unknown brand falls back to big four",
			brand: "Heinz",
			want:  []string{"Tesco", "Sainsburys", "Asda", "Morrisons"},
		},
		{
			name: "no hints yields nothing",
			want: []string{},
		},
		{
			name:      "whitespace brand does not trigger fallback",
			storeHint: "corner shop",
			brand:     "   ",
			want:      []string{},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Stores(tt.storeHint, tt.brand))
		})
	}
}
