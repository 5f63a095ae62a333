package store

import "fmt"

// Key encoding for the typed records persisted over the raw KV substrate. Prefixes are chosen so
// that a single prefix-bounded range scan serves every listing operation the engine needs.

func bucketKey(name string) string {
	return "bucket::" + name
}

const bucketScanPrefix = "bucket::"

func bucketConfigKey(bucket string, kind BucketConfigKind) string {
	return fmt.Sprintf("config::%s::%s", kind, bucket)
}

func objectKey(bucket, key string) string {
	return "object::" + bucket + "::" + key
}

func objectPrefix(bucket string) string {
	return "object::" + bucket + "::"
}

func versionKey(bucket, key, versionID string) string {
	return "version::" + bucket + "::" + key + "::" + versionID
}

func versionKeyPrefix(bucket, key string) string {
	return "version::" + bucket + "::" + key + "::"
}

func versionBucketPrefix(bucket string) string {
	return "version::" + bucket + "::"
}

func uploadKey(uploadID string) string {
	return "upload::" + uploadID
}

const uploadScanPrefix = "upload::"

func partKey(uploadID string, partNumber int) string {
	return fmt.Sprintf("part::%s::%05d", uploadID, partNumber)
}

func partPrefix(uploadID string) string {
	return fmt.Sprintf("part::%s::", uploadID)
}

// prefixUpperBound returns the exclusive upper bound for a prefix-bounded scan: the prefix with
// its last byte incremented. Mirrors the teacher's prefixEnd helper in pebble_store.go.
func prefixUpperBound(prefix []byte) []byte {
	if len(prefix) == 0 {
		return nil
	}
	end := make([]byte, len(prefix))
	copy(end, prefix)
	for i := len(end) - 1; i >= 0; i-- {
		end[i]++
		if end[i] != 0 {
			return end[:i+1]
		}
	}
	// All 0xFF bytes: no finite upper bound: the caller should scan unbounded.
	return nil
}
