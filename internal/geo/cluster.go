package geo

import (
	"fmt"
	"sort"

	"github.com/mmcloughlin/geohash"

	"propnest/internal/model"
)

const (
	MinPrecision     = 1
	MaxPrecision     = 9
	DefaultPrecision = 6 // roughly a 1.2km x 0.6km cell
)

// Cluster groups buildings with coordinates into geohash cells of the given
// precision. Clusters are ordered by size, largest first, then by hash.
// The reported position is the mean of the member coordinates.
func Cluster(buildings []model.Building, precision uint) ([]model.MapCluster, error) {
	if precision < MinPrecision || precision > MaxPrecision {
		return nil, fmt.Errorf("geohash precision must be between %d and %d", MinPrecision, MaxPrecision)
	}

	type acc struct {
		latSum, lngSum float64
		ids            []string
	}
	cells := make(map[string]*acc)

	for _, b := range buildings {
		if !b.HasCoordinates() {
			continue
		}
		hash := geohash.EncodeWithPrecision(*b.Latitude, *b.Longitude, precision)
		a, ok := cells[hash]
		if !ok {
			a = &acc{}
			cells[hash] = a
		}
		a.latSum += *b.Latitude
		a.lngSum += *b.Longitude
		a.ids = append(a.ids, b.ID)
	}

	clusters := make([]model.MapCluster, 0, len(cells))
	for hash, a := range cells {
		n := float64(len(a.ids))
		clusters = append(clusters, model.MapCluster{
			Geohash:     hash,
			Latitude:    a.latSum / n,
			Longitude:   a.lngSum / n,
			Count:       len(a.ids),
			BuildingIDs: a.ids,
		})
	}

	sort.Slice(clusters, func(i, j int) bool {
		if clusters[i].Count != clusters[j].Count {
			return clusters[i].Count > clusters[j].Count
		}
		return clusters[i].Geohash < clusters[j].Geohash
	})
	return clusters, nil
}

// Encode returns the geohash cell of a coordinate
func Encode(lat, lng float64, precision uint) string {
	return geohash.EncodeWithPrecision(lat, lng, precision)
}
