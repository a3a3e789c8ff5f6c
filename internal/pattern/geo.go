// Retrospect - Photo Memory Analytics and Story Generation
// Copyright 2026 Retrospect Labs
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/retrospect-labs/retrospect

package pattern

import (
	"fmt"
	"math"
	"sort"
)

const earthRadiusKM = 6371.0

// HaversineKM calculates the great-circle distance between two points
// on Earth using the Haversine formula. Returns distance in kilometers.
// Euclidean distance on raw lat/lon is invalid away from the equator,
// so all neighborhood and radius computations go through this.
func HaversineKM(lat1, lon1, lat2, lon2 float64) float64 {
	lat1Rad := lat1 * math.Pi / 180.0
	lon1Rad := lon1 * math.Pi / 180.0
	lat2Rad := lat2 * math.Pi / 180.0
	lon2Rad := lon2 * math.Pi / 180.0

	dLat := lat2Rad - lat1Rad
	dLon := lon2Rad - lon1Rad

	a := math.Sin(dLat/2)*math.Sin(dLat/2) +
		math.Cos(lat1Rad)*math.Cos(lat2Rad)*
			math.Sin(dLon/2)*math.Sin(dLon/2)

	c := 2 * math.Atan2(math.Sqrt(a), math.Sqrt(1-a))

	return earthRadiusKM * c
}

// ClusterLocations partitions geotagged points into spatial clusters
// with DBSCAN semantics over Haversine distance: a point is a core
// point if at least minSamples points (itself included) lie within
// epsKM of it; clusters form by transitively connecting core points and
// their neighbors; everything unreachable from a core point is noise.
//
// The caller filters out photos without coordinates beforehand. Points
// with out-of-range coordinates or duplicate ids fail the whole call
// with ErrInvalidInput. Fewer than minSamples points is not an error:
// every point is labeled noise and zero clusters are returned.
//
// DETERMINISM: points are processed in a stable id order, so labels and
// cluster membership are identical across runs for the same input.
func ClusterLocations(points []GeoPoint, epsKM float64, minSamples int) (*GeoClusterResult, error) {
	if epsKM <= 0 {
		return nil, fmt.Errorf("%w: eps_km must be positive, got %v", ErrConfiguration, epsKM)
	}
	if minSamples <= 0 {
		return nil, fmt.Errorf("%w: min_samples must be positive, got %d", ErrConfiguration, minSamples)
	}

	seen := make(map[string]struct{}, len(points))
	for _, p := range points {
		if _, dup := seen[p.ID]; dup {
			return nil, fmt.Errorf("%w: duplicate photo id %q", ErrInvalidInput, p.ID)
		}
		seen[p.ID] = struct{}{}
		if err := (Coordinate{Latitude: p.Latitude, Longitude: p.Longitude}).Validate(); err != nil {
			return nil, fmt.Errorf("point %q: %w", p.ID, err)
		}
	}

	// Work on an id-sorted copy so cluster numbering does not depend on
	// input order.
	ordered := make([]GeoPoint, len(points))
	copy(ordered, points)
	sort.SliceStable(ordered, func(i, j int) bool { return ordered[i].ID < ordered[j].ID })

	result := &GeoClusterResult{Labels: make(map[string]int, len(points))}

	if len(ordered) < minSamples {
		for _, p := range points {
			result.Labels[p.ID] = NoiseLabel
			result.Noise = append(result.Noise, p.ID)
		}
		return result, nil
	}

	const (
		labelUnvisited = -2
		labelNoise     = NoiseLabel
	)
	labels := make([]int, len(ordered))
	for i := range labels {
		labels[i] = labelUnvisited
	}

	neighborsOf := func(i int) []int {
		var out []int
		for j := range ordered {
			if HaversineKM(ordered[i].Latitude, ordered[i].Longitude,
				ordered[j].Latitude, ordered[j].Longitude) <= epsKM {
				out = append(out, j)
			}
		}
		return out
	}

	nextLabel := 0
	for i := range ordered {
		if labels[i] != labelUnvisited {
			continue
		}
		neighbors := neighborsOf(i)
		if len(neighbors) < minSamples {
			labels[i] = labelNoise
			continue
		}

		label := nextLabel
		nextLabel++
		labels[i] = label

		// Expand the cluster breadth-first from the seed neighborhood.
		queue := append([]int(nil), neighbors...)
		for qi := 0; qi < len(queue); qi++ {
			j := queue[qi]
			if labels[j] == labelNoise {
				// Border point: density-reachable but not core.
				labels[j] = label
			}
			if labels[j] != labelUnvisited {
				continue
			}
			labels[j] = label
			jNeighbors := neighborsOf(j)
			if len(jNeighbors) >= minSamples {
				queue = append(queue, jNeighbors...)
			}
		}
	}

	members := make(map[int][]int)
	for i, p := range ordered {
		result.Labels[p.ID] = labels[i]
		if labels[i] == labelNoise {
			continue
		}
		members[labels[i]] = append(members[labels[i]], i)
	}

	// Noise ids in original input order.
	for _, p := range points {
		if result.Labels[p.ID] == labelNoise {
			result.Noise = append(result.Noise, p.ID)
		}
	}

	for label := 0; label < nextLabel; label++ {
		idx := members[label]
		cluster := GeoCluster{Label: label, PhotoIDs: make([]string, 0, len(idx))}

		var sumLat, sumLon float64
		for _, i := range idx {
			cluster.PhotoIDs = append(cluster.PhotoIDs, ordered[i].ID)
			sumLat += ordered[i].Latitude
			sumLon += ordered[i].Longitude
		}
		// Arithmetic-mean centroid is an acceptable approximation at
		// the small eps values used for photo clustering.
		cluster.Centroid = Coordinate{
			Latitude:  sumLat / float64(len(idx)),
			Longitude: sumLon / float64(len(idx)),
		}
		for _, i := range idx {
			d := HaversineKM(cluster.Centroid.Latitude, cluster.Centroid.Longitude,
				ordered[i].Latitude, ordered[i].Longitude)
			if d > cluster.RadiusKM {
				cluster.RadiusKM = d
			}
		}
		result.Clusters = append(result.Clusters, cluster)
	}

	return result, nil
}
