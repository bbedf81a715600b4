package geo_test

import (
	"testing"

	"github.com/Shade1269/atlannew-sub000/internal/geo"
	"github.com/stretchr/testify/assert"
)

func TestLookupCityID_ArabicAndLatinAliases(t *testing.T) {
	d := geo.NewDirectory()

	tests := []struct {
		name string
		want string
	}{
		{"الرياض", "59"},
		{"Riyadh", "59"},
		{"riyadh", "59"},
		{"  جدة  ", "3"},
		{"جده", "3"},
		{"Jeddah", "3"},
		{"مكة المكرمة", "14"},
		{"Mecca", "14"},
	}

	for _, tt := range tests {
		id, ok := d.LookupCityID(tt.name)
		assert.True(t, ok, "expected %q to resolve", tt.name)
		assert.Equal(t, tt.want, id, "city %q", tt.name)
	}
}

func TestLookupCityID_DefiniteArticleVariants(t *testing.T) {
	d := geo.NewDirectory()

	withArticle, ok := d.LookupCityID("الرياض")
	assert.True(t, ok)

	withoutArticle, ok := d.LookupCityID("رياض")
	assert.True(t, ok)

	assert.Equal(t, withArticle, withoutArticle)
}

func TestLookupCityID_UnknownFailsSoft(t *testing.T) {
	d := geo.NewDirectory()

	id, ok := d.LookupCityID("Atlantis")
	assert.False(t, ok)
	assert.Empty(t, id)

	_, ok = d.LookupCityID("")
	assert.False(t, ok)
}
