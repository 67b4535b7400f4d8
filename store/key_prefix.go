package store

// Declare database key prefix for objects
const (
	PrefixBlock     = "blocks:"
	PrefixBlockMeta = "blk_meta:"

	BlockMetaKeyCount = "count"
)
