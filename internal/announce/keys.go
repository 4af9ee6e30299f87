package announce

import "strings"

// Partition keys live in two disjoint namespaces: train partitions are
// bounded and keep-window trimmed on write, line partitions are unbounded
// and only display-filtered on read.
const (
	trainKeyPrefix = "train:"
	lineKeyPrefix  = "line:"
)

// TrainKey returns the partition key for a train identifier (e.g. "5421").
func TrainKey(trainID string) string {
	return trainKeyPrefix + trainID
}

// LineKey returns the partition key for a transit-line identifier (e.g. "4").
func LineKey(lineID string) string {
	return lineKeyPrefix + lineID
}

func isTrainKey(key string) bool {
	return strings.HasPrefix(key, trainKeyPrefix)
}
