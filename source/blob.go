package source

import (
	"context"
	"errors"
	"fmt"
	"io"
	"sort"
	"strings"

	"gocloud.dev/blob"
	_ "gocloud.dev/blob/fileblob" // file:// buckets
	_ "gocloud.dev/blob/memblob"  // mem:// buckets
	"gocloud.dev/gcerrors"
)

// BlobModule is a module backed by a blob bucket.
type BlobModule struct {
	name   string
	root   string
	bucket *blob.Bucket
}

// NewBlob creates a module reading from bucket. The module owns the bucket
// and closes it on Close.
func NewBlob(name, root string, bucket *blob.Bucket) *BlobModule {
	return &BlobModule{name: name, root: strings.TrimSuffix(root, "/"), bucket: bucket}
}

// OpenBlob opens the bucket at url, e.g. "file:///srv/resources" or "mem://".
func OpenBlob(ctx context.Context, name, root, url string) (*BlobModule, error) {
	bucket, err := blob.OpenBucket(ctx, url)
	if err != nil {
		return nil, fmt.Errorf("module %s: open bucket %q: %w", name, url, err)
	}
	return NewBlob(name, root, bucket), nil
}

func (m *BlobModule) Name() string {
	return m.name
}

func (m *BlobModule) Root() string {
	return m.root
}

func (m *BlobModule) String() string {
	return "blob module " + m.name
}

// Bucket returns the underlying bucket.
func (m *BlobModule) Bucket() *blob.Bucket {
	return m.bucket
}

func (m *BlobModule) Open(ctx context.Context, name string) (io.ReadCloser, error) {
	key := strings.TrimPrefix(name, "/")
	r, err := m.bucket.NewReader(ctx, key, nil)
	if err != nil {
		if gcerrors.Code(err) == gcerrors.NotFound {
			return nil, fmt.Errorf("module %s: open %s: %w", m.name, key, ErrNotExist)
		}
		return nil, fmt.Errorf("module %s: open %s: %w", m.name, key, err)
	}
	return r, nil
}

func (m *BlobModule) List(ctx context.Context, dir string) ([]string, error) {
	prefix := strings.Trim(dir, "/")
	if prefix != "" {
		prefix += "/"
	}
	var names []string
	iter := m.bucket.List(&blob.ListOptions{Prefix: prefix})
	for {
		obj, err := iter.Next(ctx)
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("module %s: list %s: %w", m.name, prefix, err)
		}
		if !obj.IsDir {
			names = append(names, obj.Key)
		}
	}
	sort.Strings(names)
	return names, nil
}

func (m *BlobModule) Close() error {
	return m.bucket.Close()
}
