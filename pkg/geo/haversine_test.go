package geo

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

var (
	paris = Point{Latitude: 48.8566, Longitude: 2.3522}
	lyon  = Point{Latitude: 45.7640, Longitude: 4.8357}
)

func TestDistanceKm(t *testing.T) {
	t.Run("zero distance for identical points", func(t *testing.T) {
		assert.Zero(t, DistanceKm(paris, paris))
	})

	t.Run("paris to lyon is roughly 392km", func(t *testing.T) {
		d := DistanceKm(paris, lyon)
		assert.InDelta(t, 392, d, 5)
	})

	t.Run("symmetric", func(t *testing.T) {
		assert.InDelta(t, DistanceKm(paris, lyon), DistanceKm(lyon, paris), 1e-9)
	})
}

func TestWithinRadius(t *testing.T) {
	assert.True(t, WithinRadius(paris, lyon, 400))
	assert.False(t, WithinRadius(paris, lyon, 300))
}
