package store

import (
	"context"
	"encoding/json"
	"sort"
)

// rawKV is the minimal raw-KV contract a concrete substrate must provide. typedStore builds the
// full Store interface's typed document operations on top of it, so PebbleStore and BadgerStore
// only need to implement this plus lifecycle methods.
type rawKV interface {
	rawGet(key string) ([]byte, bool, error)
	RawBatch(ctx context.Context, sets map[string][]byte, deletes []string) error
	RawScan(ctx context.Context, prefix, startKey string, fn func(key string, val []byte) bool) error
}

// typedStore implements every typed Store method generically over a rawKV substrate. Embedding it
// is how PebbleStore and BadgerStore share identical bucket/object/version/multipart encoding
// logic while differing only in their raw get/batch/scan primitives.
type typedStore struct {
	kv rawKV
}

func (t *typedStore) RawBatch(ctx context.Context, sets map[string][]byte, deletes []string) error {
	return t.kv.RawBatch(ctx, sets, deletes)
}

func (t *typedStore) RawScan(ctx context.Context, prefix, startKey string, fn func(key string, val []byte) bool) error {
	return t.kv.RawScan(ctx, prefix, startKey, fn)
}

func (t *typedStore) CreateBucket(ctx context.Context, b *Bucket) error {
	if _, found, err := t.kv.rawGet(bucketKey(b.Name)); err != nil {
		return err
	} else if found {
		return ErrBucketAlreadyExists
	}
	data, err := json.Marshal(b)
	if err != nil {
		return err
	}
	return t.kv.RawBatch(ctx, map[string][]byte{bucketKey(b.Name): data}, nil)
}

func (t *typedStore) GetBucket(ctx context.Context, name string) (*Bucket, error) {
	data, found, err := t.kv.rawGet(bucketKey(name))
	if err != nil {
		return nil, err
	}
	if !found {
		return nil, ErrBucketNotFound
	}
	var b Bucket
	if err := json.Unmarshal(data, &b); err != nil {
		return nil, err
	}
	return &b, nil
}

func (t *typedStore) UpdateBucket(ctx context.Context, b *Bucket) error {
	if _, found, err := t.kv.rawGet(bucketKey(b.Name)); err != nil {
		return err
	} else if !found {
		return ErrBucketNotFound
	}
	data, err := json.Marshal(b)
	if err != nil {
		return err
	}
	return t.kv.RawBatch(ctx, map[string][]byte{bucketKey(b.Name): data}, nil)
}

func (t *typedStore) DeleteBucket(ctx context.Context, name string) error {
	if _, found, err := t.kv.rawGet(bucketKey(name)); err != nil {
		return err
	} else if !found {
		return ErrBucketNotFound
	}
	return t.kv.RawBatch(ctx, nil, []string{bucketKey(name)})
}

func (t *typedStore) ListBuckets(ctx context.Context) ([]*Bucket, error) {
	var out []*Bucket
	err := t.kv.RawScan(ctx, bucketScanPrefix, "", func(_ string, val []byte) bool {
		var b Bucket
		if jerr := json.Unmarshal(val, &b); jerr == nil {
			out = append(out, &b)
		}
		return true
	})
	if err != nil {
		return nil, err
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out, nil
}

func (t *typedStore) GetBucketConfig(ctx context.Context, bucket string, kind BucketConfigKind) ([]byte, bool, error) {
	return t.kv.rawGet(bucketConfigKey(bucket, kind))
}

func (t *typedStore) PutBucketConfig(ctx context.Context, bucket string, kind BucketConfigKind, blob []byte) error {
	return t.kv.RawBatch(ctx, map[string][]byte{bucketConfigKey(bucket, kind): blob}, nil)
}

func (t *typedStore) DeleteBucketConfig(ctx context.Context, bucket string, kind BucketConfigKind) error {
	return t.kv.RawBatch(ctx, nil, []string{bucketConfigKey(bucket, kind)})
}

func (t *typedStore) GetObject(ctx context.Context, bucket, key string) (*ObjectRecord, error) {
	data, found, err := t.kv.rawGet(objectKey(bucket, key))
	if err != nil {
		return nil, err
	}
	if !found {
		return nil, ErrObjectNotFound
	}
	var rec ObjectRecord
	if err := json.Unmarshal(data, &rec); err != nil {
		return nil, err
	}
	return &rec, nil
}

func (t *typedStore) DeleteObjectKey(ctx context.Context, bucket, key string) error {
	return t.kv.RawBatch(ctx, nil, []string{objectKey(bucket, key)})
}

func (t *typedStore) PutHeadAndArchive(ctx context.Context, head *ObjectRecord, archive *ObjectRecord) error {
	sets := map[string][]byte{}
	headData, err := json.Marshal(head)
	if err != nil {
		return err
	}
	sets[objectKey(head.Bucket, head.Key)] = headData

	if archive != nil {
		archiveData, err := json.Marshal(archive)
		if err != nil {
			return err
		}
		sets[versionKey(archive.Bucket, archive.Key, archive.VersionID)] = archiveData
	}
	return t.kv.RawBatch(ctx, sets, nil)
}

func (t *typedStore) GetVersion(ctx context.Context, bucket, key, versionID string) (*ObjectRecord, error) {
	if head, err := t.GetObject(ctx, bucket, key); err == nil && head.VersionID == versionID {
		return head, nil
	} else if err != nil && err != ErrObjectNotFound {
		return nil, err
	}

	data, found, err := t.kv.rawGet(versionKey(bucket, key, versionID))
	if err != nil {
		return nil, err
	}
	if !found {
		return nil, ErrVersionNotFound
	}
	var rec ObjectRecord
	if err := json.Unmarshal(data, &rec); err != nil {
		return nil, err
	}
	return &rec, nil
}

// UpdateRecord loads the record at (bucket,key,versionID) — whether it is currently the head or
// an archived VersionRecord — applies mutate to it, and writes it back in place under the same
// key it was read from. Used by LockEnforcer to set retention/legal-hold on a specific version
// without needing to know in advance whether that version is the current head.
func (t *typedStore) UpdateRecord(ctx context.Context, bucket, key, versionID string, mutate func(*ObjectRecord)) error {
	head, err := t.GetObject(ctx, bucket, key)
	isHead := err == nil && head != nil && head.VersionID == versionID
	if err != nil && err != ErrObjectNotFound {
		return err
	}

	if isHead {
		mutate(head)
		data, jerr := json.Marshal(head)
		if jerr != nil {
			return jerr
		}
		return t.kv.RawBatch(ctx, map[string][]byte{objectKey(bucket, key): data}, nil)
	}

	data, found, rerr := t.kv.rawGet(versionKey(bucket, key, versionID))
	if rerr != nil {
		return rerr
	}
	if !found {
		return ErrVersionNotFound
	}
	var rec ObjectRecord
	if jerr := json.Unmarshal(data, &rec); jerr != nil {
		return jerr
	}
	mutate(&rec)
	out, jerr := json.Marshal(&rec)
	if jerr != nil {
		return jerr
	}
	return t.kv.RawBatch(ctx, map[string][]byte{versionKey(bucket, key, versionID): out}, nil)
}

func (t *typedStore) ListVersions(ctx context.Context, bucket, key string) ([]*ObjectRecord, error) {
	var out []*ObjectRecord
	err := t.kv.RawScan(ctx, versionKeyPrefix(bucket, key), "", func(_ string, val []byte) bool {
		var rec ObjectRecord
		if jerr := json.Unmarshal(val, &rec); jerr == nil {
			out = append(out, &rec)
		}
		return true
	})
	if err != nil {
		return nil, err
	}
	sort.Slice(out, func(i, j int) bool { return out[i].VersionID > out[j].VersionID })
	return out, nil
}

func (t *typedStore) DeleteVersionRecord(ctx context.Context, bucket, key, versionID string) error {
	return t.kv.RawBatch(ctx, nil, []string{versionKey(bucket, key, versionID)})
}

func (t *typedStore) UpdateVersionRecord(ctx context.Context, rec *ObjectRecord) error {
	data, err := json.Marshal(rec)
	if err != nil {
		return err
	}
	return t.kv.RawBatch(ctx, map[string][]byte{versionKey(rec.Bucket, rec.Key, rec.VersionID): data}, nil)
}

func (t *typedStore) ScanObjects(ctx context.Context, bucket, prefix, startAfter string, fn func(*ObjectRecord) bool) error {
	scanPrefix := objectPrefix(bucket) + prefix
	start := ""
	if startAfter != "" {
		start = objectKey(bucket, startAfter) + "\x00"
	}
	return t.kv.RawScan(ctx, scanPrefix, start, func(k string, val []byte) bool {
		var rec ObjectRecord
		if jerr := json.Unmarshal(val, &rec); jerr != nil {
			return true
		}
		return fn(&rec)
	})
}

func (t *typedStore) ScanAllVersions(ctx context.Context, bucket, prefix string, fn func(*ObjectRecord) bool) error {
	var all []*ObjectRecord

	if err := t.kv.RawScan(ctx, objectPrefix(bucket)+prefix, "", func(_ string, val []byte) bool {
		var rec ObjectRecord
		if jerr := json.Unmarshal(val, &rec); jerr == nil {
			all = append(all, &rec)
		}
		return true
	}); err != nil {
		return err
	}

	if err := t.kv.RawScan(ctx, versionBucketPrefix(bucket), "", func(_ string, val []byte) bool {
		var rec ObjectRecord
		if jerr := json.Unmarshal(val, &rec); jerr == nil && len(rec.Key) >= len(prefix) && rec.Key[:len(prefix)] == prefix {
			all = append(all, &rec)
		}
		return true
	}); err != nil {
		return err
	}

	sort.Slice(all, func(i, j int) bool {
		if all[i].Key != all[j].Key {
			return all[i].Key < all[j].Key
		}
		return all[i].VersionID > all[j].VersionID
	})

	for _, rec := range all {
		if !fn(rec) {
			break
		}
	}
	return nil
}

func (t *typedStore) CreateUpload(ctx context.Context, u *Upload) error {
	data, err := json.Marshal(u)
	if err != nil {
		return err
	}
	return t.kv.RawBatch(ctx, map[string][]byte{uploadKey(u.UploadID): data}, nil)
}

func (t *typedStore) GetUpload(ctx context.Context, uploadID string) (*Upload, error) {
	data, found, err := t.kv.rawGet(uploadKey(uploadID))
	if err != nil {
		return nil, err
	}
	if !found {
		return nil, ErrUploadNotFound
	}
	var u Upload
	if err := json.Unmarshal(data, &u); err != nil {
		return nil, err
	}
	return &u, nil
}

func (t *typedStore) DeleteUpload(ctx context.Context, uploadID string) error {
	return t.kv.RawBatch(ctx, nil, []string{uploadKey(uploadID)})
}

func (t *typedStore) ListUploads(ctx context.Context, bucket, prefix string, maxUploads int) ([]*Upload, error) {
	var out []*Upload
	err := t.kv.RawScan(ctx, uploadScanPrefix, "", func(_ string, val []byte) bool {
		var u Upload
		if jerr := json.Unmarshal(val, &u); jerr == nil && u.Bucket == bucket {
			if prefix == "" || (len(u.Key) >= len(prefix) && u.Key[:len(prefix)] == prefix) {
				out = append(out, &u)
			}
		}
		return true
	})
	if err != nil {
		return nil, err
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Key < out[j].Key })
	if maxUploads > 0 && len(out) > maxUploads {
		out = out[:maxUploads]
	}
	return out, nil
}

func (t *typedStore) PutPart(ctx context.Context, p *Part) error {
	data, err := json.Marshal(p)
	if err != nil {
		return err
	}
	return t.kv.RawBatch(ctx, map[string][]byte{partKey(p.UploadID, p.PartNumber): data}, nil)
}

func (t *typedStore) GetPart(ctx context.Context, uploadID string, partNumber int) (*Part, error) {
	data, found, err := t.kv.rawGet(partKey(uploadID, partNumber))
	if err != nil {
		return nil, err
	}
	if !found {
		return nil, ErrPartNotFound
	}
	var p Part
	if err := json.Unmarshal(data, &p); err != nil {
		return nil, err
	}
	return &p, nil
}

func (t *typedStore) ListParts(ctx context.Context, uploadID string) ([]*Part, error) {
	var out []*Part
	err := t.kv.RawScan(ctx, partPrefix(uploadID), "", func(_ string, val []byte) bool {
		var p Part
		if jerr := json.Unmarshal(val, &p); jerr == nil {
			out = append(out, &p)
		}
		return true
	})
	if err != nil {
		return nil, err
	}
	sort.Slice(out, func(i, j int) bool { return out[i].PartNumber < out[j].PartNumber })
	return out, nil
}

func (t *typedStore) DeleteParts(ctx context.Context, uploadID string) error {
	var keys []string
	err := t.kv.RawScan(ctx, partPrefix(uploadID), "", func(k string, _ []byte) bool {
		keys = append(keys, k)
		return true
	})
	if err != nil {
		return err
	}
	if len(keys) == 0 {
		return nil
	}
	return t.kv.RawBatch(ctx, nil, keys)
}
