package cache

import (
	"fmt"
	"math/rand"
	"path/filepath"
	"testing"
)

const (
	smallTileSize = 1024      // 1KB
	largeTileSize = 50 * 1024 // 50KB
)

func generateTileData(size int) []byte {
	data := make([]byte, size)
	rand.Read(data)
	return data
}

func tilePath(root string, i int) string {
	return filepath.Join(root, "osm", fmt.Sprint(i%20), fmt.Sprint(i%1000), fmt.Sprintf("%d.png", i%1000))
}

func benchmarkWrite(b *testing.B, size int) {
	c := NewFilesystemCache()
	root := b.TempDir()
	data := generateTileData(size)

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		path := tilePath(root, i)
		if err := c.Prepare(path); err != nil {
			b.Fatalf("Prepare failed: %v", err)
		}
		if err := c.Write(path, data); err != nil {
			b.Fatalf("Write failed: %v", err)
		}
	}
}

func BenchmarkWrite_Small(b *testing.B) {
	benchmarkWrite(b, smallTileSize)
}

func BenchmarkWrite_Large(b *testing.B) {
	benchmarkWrite(b, largeTileSize)
}

func BenchmarkExists(b *testing.B) {
	c := NewFilesystemCache()
	root := b.TempDir()
	data := generateTileData(smallTileSize)

	// Populate half of the probed paths
	for i := 0; i < 100; i += 2 {
		path := tilePath(root, i)
		c.Prepare(path)
		c.Write(path, data)
	}

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		c.Exists(tilePath(root, i%100))
	}
}

func BenchmarkConcurrentExists(b *testing.B) {
	c := NewFilesystemCache()
	root := b.TempDir()
	data := generateTileData(smallTileSize)

	for i := 0; i < 100; i++ {
		path := tilePath(root, i)
		c.Prepare(path)
		c.Write(path, data)
	}

	b.RunParallel(func(pb *testing.PB) {
		i := 0
		for pb.Next() {
			c.Exists(tilePath(root, i%100))
			i++
		}
	})
}
