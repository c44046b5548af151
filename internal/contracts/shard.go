package contracts

import (
	"errors"
	"fmt"
)

var ErrInvalidShard = errors.New("shard index must be between 0 and shard total - 1")

// Shard returns the contracts at positions i where i % total == index.
// A total of one or less returns every contract.
func Shard(ids []int64, index, total int) ([]int64, error) {
	if total <= 1 {
		return ids, nil
	}
	if index < 0 || index >= total {
		return nil, fmt.Errorf("%w: index=%d total=%d", ErrInvalidShard, index, total)
	}
	out := make([]int64, 0, len(ids)/total+1)
	for i, id := range ids {
		if i%total == index {
			out = append(out, id)
		}
	}
	return out, nil
}
