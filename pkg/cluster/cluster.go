// Package cluster groups the vector index into thematic clusters using
// k-means over cosine distance. Clustering reads the whole index and never
// writes, so it is safe to run against a live store.
package cluster

import (
	"context"
	"fmt"
	"math"
	"sort"

	"github.com/wjcornelius/VECTOR-Biographer/pkg/vector"
)

const (
	// DefaultClusters is used when a caller does not specify a cluster count.
	DefaultClusters = 8

	// maxIterations bounds the k-means refinement loop.
	maxIterations = 50

	// maxSamples caps how many member documents a cluster reports.
	maxSamples = 5
)

// Cluster describes one thematic group of memory entries.
type Cluster struct {
	// Size is the number of entries in the cluster.
	Size int `json:"size"`

	// Representative is the document nearest the cluster centroid.
	Representative string `json:"representative"`

	// Samples holds up to five member documents.
	Samples []string `json:"samples"`

	// Tables lists the distinct source tables of the members, sorted.
	Tables []string `json:"tables"`
}

// Clusters partitions every embedded entry into at most n clusters, largest
// first. n is capped at the entry count; an empty index yields an empty
// slice. Seeding is deterministic, so repeated runs over an unchanged index
// return the same grouping.
func Clusters(ctx context.Context, driver vector.Driver, n int) ([]Cluster, error) {
	all, err := driver.All(ctx)
	if err != nil {
		return nil, fmt.Errorf("reading vector entries: %w", err)
	}

	entries := make([]vector.Entry, 0, len(all))
	for _, entry := range all {
		if len(entry.Embedding) > 0 {
			entries = append(entries, entry)
		}
	}

	if len(entries) == 0 {
		return []Cluster{}, nil
	}

	if n <= 0 {
		n = DefaultClusters
	}
	if n > len(entries) {
		n = len(entries)
	}

	sort.Slice(entries, func(i, j int) bool { return entries[i].ID < entries[j].ID })

	assignments, centroids, err := kmeans(ctx, entries, n)
	if err != nil {
		return nil, err
	}

	return buildClusters(entries, assignments, centroids, n), nil
}

// kmeans runs Lloyd's algorithm with centroids seeded from evenly spaced
// entries in ID order.
func kmeans(ctx context.Context, entries []vector.Entry, n int) ([]int, [][]float32, error) {
	dims := len(entries[0].Embedding)

	centroids := make([][]float32, n)
	for i := 0; i < n; i++ {
		seed := entries[i*len(entries)/n].Embedding
		centroids[i] = append([]float32(nil), seed...)
	}

	assignments := make([]int, len(entries))

	for iter := 0; iter < maxIterations; iter++ {
		if err := ctx.Err(); err != nil {
			return nil, nil, err
		}

		changed := false
		for i, entry := range entries {
			nearest := nearestCentroid(entry.Embedding, centroids)
			if assignments[i] != nearest {
				assignments[i] = nearest
				changed = true
			}
		}
		if !changed && iter > 0 {
			break
		}

		sums := make([][]float64, n)
		counts := make([]int, n)
		for i := range sums {
			sums[i] = make([]float64, dims)
		}
		for i, entry := range entries {
			c := assignments[i]
			counts[c]++
			for j, v := range entry.Embedding {
				sums[c][j] += float64(v)
			}
		}
		for c := 0; c < n; c++ {
			if counts[c] == 0 {
				// An emptied cluster keeps its previous centroid.
				continue
			}
			for j := 0; j < dims; j++ {
				centroids[c][j] = float32(sums[c][j] / float64(counts[c]))
			}
		}
	}

	return assignments, centroids, nil
}

func buildClusters(entries []vector.Entry, assignments []int, centroids [][]float32, n int) []Cluster {
	clusters := make([]Cluster, 0, n)

	for c := 0; c < n; c++ {
		var (
			members  []vector.Entry
			best     string
			bestDist = math.MaxFloat64
		)

		for i, entry := range entries {
			if assignments[i] != c {
				continue
			}
			members = append(members, entry)

			if dist := cosineDistance(entry.Embedding, centroids[c]); dist < bestDist {
				bestDist = dist
				best = entry.Document
			}
		}

		if len(members) == 0 {
			continue
		}

		tables := map[string]bool{}
		var samples []string
		for _, member := range members {
			if table := member.Metadata["source_table"]; table != "" {
				tables[table] = true
			}
			if len(samples) < maxSamples && member.Document != "" {
				samples = append(samples, member.Document)
			}
		}

		sortedTables := make([]string, 0, len(tables))
		for table := range tables {
			sortedTables = append(sortedTables, table)
		}
		sort.Strings(sortedTables)

		clusters = append(clusters, Cluster{
			Size:           len(members),
			Representative: best,
			Samples:        samples,
			Tables:         sortedTables,
		})
	}

	sort.SliceStable(clusters, func(i, j int) bool { return clusters[i].Size > clusters[j].Size })

	return clusters
}

func nearestCentroid(embedding []float32, centroids [][]float32) int {
	nearest := 0
	nearestDist := math.MaxFloat64
	for c, centroid := range centroids {
		if dist := cosineDistance(embedding, centroid); dist < nearestDist {
			nearestDist = dist
			nearest = c
		}
	}
	return nearest
}

// cosineDistance returns 1 - cosine similarity, in [0, 2]. Zero vectors are
// treated as maximally distant from everything.
func cosineDistance(a, b []float32) float64 {
	var dot, normA, normB float64
	for i := range a {
		if i >= len(b) {
			break
		}
		dot += float64(a[i]) * float64(b[i])
		normA += float64(a[i]) * float64(a[i])
		normB += float64(b[i]) * float64(b[i])
	}
	if normA == 0 || normB == 0 {
		return 1
	}
	return 1 - dot/(math.Sqrt(normA)*math.Sqrt(normB))
}
