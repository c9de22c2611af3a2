package sharding

import "hash/fnv"

type ShardRouter struct {
	ShardCount int // Number of shards
}

func NewShardRouter(shardCount int) *ShardRouter {
	if shardCount < 1 {
		shardCount = 1
	}
	return &ShardRouter{ShardCount: shardCount}
}

// GetShard maps a record key to a shard index. The same key always lands on
// the same shard for a fixed ShardCount.
func (r *ShardRouter) GetShard(key string) int {
	h := fnv.New32a()
	h.Write([]byte(key))
	return int(h.Sum32() % uint32(r.ShardCount))
}
