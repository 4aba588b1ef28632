package cache

// TileStore persists tile images at resolved local paths. Content is never
// validated: whatever sits at a path counts as the cached tile.
type TileStore interface {
	Exists(path string) bool
	Prepare(path string) error
	Write(path string, data []byte) error
}
