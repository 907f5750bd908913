package cache

import "fmt"

// Key pattern: packly:{module}:{operation}:{identifier}

func BagDetailKey(bagID string) string {
	return fmt.Sprintf("packly:bags:detail:%s", bagID)
}

func BagListKey(ownerID string) string {
	return fmt.Sprintf("packly:bags:list:%s", ownerID)
}
