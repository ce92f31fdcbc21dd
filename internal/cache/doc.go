// Package cache holds decompressed archive clusters and remote blob blocks
// in memory.
//
// ShardedLRUBlockCache spreads entries over 64 LRU shards so concurrent
// article workers rarely contend on the same lock. Every shard may be bound
// to a resource.Controller, in which case cached bytes count against the
// process-wide memory budget and a denied reservation simply skips caching.
package cache
