// Package s3 implements fs.Filesystem on an S3-compatible object store.
//
// Files map to objects under a configurable key prefix; directories are
// zero-byte marker objects whose key ends in "/". The bucket must already
// exist. Object stores have no real hierarchy, so Mkdir never requires
// the parent to exist and listings rely on the "/" delimiter.
package s3

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"sort"
	"strings"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	awss3 "github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/aws-sdk-go-v2/service/s3/types"

	"github.com/mcufs/mcufs/pkg/fs"
)

// DefaultCapacity is the reported total size when none is configured.
const DefaultCapacity uint32 = 256 << 20

// Config configures the backend.
type Config struct {
	// Client is the S3 API client to use. Required.
	Client *awss3.Client

	// Bucket is the bucket holding the tree. Required.
	Bucket string

	// KeyPrefix namespaces all keys, letting several trees share one
	// bucket. Optional; normalized to end in "/" when non-empty.
	KeyPrefix string

	// Capacity is the reported total size; zero selects DefaultCapacity.
	Capacity uint32
}

// Filesystem is an S3-backed filesystem.
type Filesystem struct {
	client   *awss3.Client
	bucket   string
	prefix   string
	capacity uint32
	ctx      context.Context
}

// New validates the configuration and verifies the bucket is reachable.
func New(ctx context.Context, cfg Config) (*Filesystem, error) {
	if cfg.Client == nil {
		return nil, fmt.Errorf("s3: client is required")
	}
	if cfg.Bucket == "" {
		return nil, fmt.Errorf("s3: bucket is required")
	}
	prefix := cfg.KeyPrefix
	if prefix != "" && !strings.HasSuffix(prefix, "/") {
		prefix += "/"
	}
	capacity := cfg.Capacity
	if capacity == 0 {
		capacity = DefaultCapacity
	}

	_, err := cfg.Client.HeadBucket(ctx, &awss3.HeadBucketInput{
		Bucket: aws.String(cfg.Bucket),
	})
	if err != nil {
		return nil, fmt.Errorf("s3: bucket %q not accessible: %w", cfg.Bucket, err)
	}

	return &Filesystem{
		client:   cfg.Client,
		bucket:   cfg.Bucket,
		prefix:   prefix,
		capacity: capacity,
		ctx:      ctx,
	}, nil
}

// fileKey maps a cleaned absolute path to an object key.
func (s *Filesystem) fileKey(path string) string {
	return s.prefix + strings.TrimPrefix(path, "/")
}

// dirKey maps a cleaned absolute path to a directory marker key. The
// root maps to the bare prefix and never has a marker object.
func (s *Filesystem) dirKey(path string) string {
	if path == "/" {
		return s.prefix
	}
	return s.prefix + strings.TrimPrefix(path, "/") + "/"
}

func isNotFound(err error) bool {
	var noKey *types.NoSuchKey
	if errors.As(err, &noKey) {
		return true
	}
	var notFound *types.NotFound
	return errors.As(err, &notFound)
}

// Open implements fs.Filesystem. Reads buffer the whole object; writes
// buffer locally and upload on Close. Appends read-modify-write, which
// is the only append object stores offer.
func (s *Filesystem) Open(path string, mode fs.OpenMode) (fs.File, error) {
	key := s.fileKey(path)

	switch mode {
	case fs.ModeRead:
		out, err := s.client.GetObject(s.ctx, &awss3.GetObjectInput{
			Bucket: aws.String(s.bucket),
			Key:    aws.String(key),
		})
		if err != nil {
			if isNotFound(err) {
				return nil, fmt.Errorf("s3: %q: %w", path, fs.ErrNotExist)
			}
			return nil, fmt.Errorf("s3: get %q: %w", path, err)
		}
		defer out.Body.Close()
		data, err := io.ReadAll(out.Body)
		if err != nil {
			return nil, fmt.Errorf("s3: read %q: %w", path, err)
		}
		mtime := time.Now()
		if out.LastModified != nil {
			mtime = *out.LastModified
		}
		return &file{fs: s, key: key, mode: mode, data: data, mtime: mtime}, nil

	case fs.ModeWrite:
		return &file{fs: s, key: key, mode: mode, mtime: time.Now()}, nil

	case fs.ModeAppend:
		var data []byte
		out, err := s.client.GetObject(s.ctx, &awss3.GetObjectInput{
			Bucket: aws.String(s.bucket),
			Key:    aws.String(key),
		})
		if err == nil {
			defer out.Body.Close()
			data, err = io.ReadAll(out.Body)
			if err != nil {
				return nil, fmt.Errorf("s3: read %q: %w", path, err)
			}
		} else if !isNotFound(err) {
			return nil, fmt.Errorf("s3: get %q: %w", path, err)
		}
		return &file{fs: s, key: key, mode: mode, data: data, pos: len(data), mtime: time.Now()}, nil
	}
	return nil, fmt.Errorf("s3: open %q: unknown mode %d", path, mode)
}

// OpenDir implements fs.Filesystem, listing one level with the "/"
// delimiter. Common prefixes become directory entries; the directory's
// own marker object is skipped.
func (s *Filesystem) OpenDir(path string) (fs.Dir, error) {
	base := s.dirKey(path)

	if path != "/" {
		_, err := s.client.HeadObject(s.ctx, &awss3.HeadObjectInput{
			Bucket: aws.String(s.bucket),
			Key:    aws.String(base),
		})
		if err != nil {
			if isNotFound(err) {
				return nil, fmt.Errorf("s3: %q: %w", path, fs.ErrNotExist)
			}
			return nil, fmt.Errorf("s3: head %q: %w", path, err)
		}
	}

	var entries []fs.Entry
	input := &awss3.ListObjectsV2Input{
		Bucket:    aws.String(s.bucket),
		Prefix:    aws.String(base),
		Delimiter: aws.String("/"),
	}
	for {
		out, err := s.client.ListObjectsV2(s.ctx, input)
		if err != nil {
			return nil, fmt.Errorf("s3: list %q: %w", path, err)
		}
		for _, cp := range out.CommonPrefixes {
			name := strings.TrimSuffix(strings.TrimPrefix(aws.ToString(cp.Prefix), base), "/")
			if name == "" {
				continue
			}
			entries = append(entries, fs.Entry{Name: name, IsDir: true, ModTime: time.Now()})
		}
		for _, obj := range out.Contents {
			key := aws.ToString(obj.Key)
			if key == base {
				continue
			}
			name := strings.TrimPrefix(key, base)
			mtime := time.Now()
			if obj.LastModified != nil {
				mtime = *obj.LastModified
			}
			entries = append(entries, fs.Entry{
				Name:    name,
				Size:    uint32(aws.ToInt64(obj.Size)),
				ModTime: mtime,
			})
		}
		if !aws.ToBool(out.IsTruncated) {
			break
		}
		input.ContinuationToken = out.NextContinuationToken
	}

	sort.Slice(entries, func(i, j int) bool { return entries[i].Name < entries[j].Name })
	return &dir{entries: entries}, nil
}

// Mkdir implements fs.Filesystem by writing a zero-byte marker object.
func (s *Filesystem) Mkdir(path string) error {
	if path == "/" {
		return fmt.Errorf("s3: mkdir %q: %w", path, fs.ErrExist)
	}
	key := s.dirKey(path)
	_, err := s.client.HeadObject(s.ctx, &awss3.HeadObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(key),
	})
	if err == nil {
		return fmt.Errorf("s3: mkdir %q: %w", path, fs.ErrExist)
	}
	if !isNotFound(err) {
		return fmt.Errorf("s3: head %q: %w", path, err)
	}
	_, err = s.client.PutObject(s.ctx, &awss3.PutObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(key),
		Body:   bytes.NewReader(nil),
	})
	if err != nil {
		return fmt.Errorf("s3: mkdir %q: %w", path, err)
	}
	return nil
}

// Rmdir implements fs.Filesystem.
func (s *Filesystem) Rmdir(path string) error {
	if path == "/" {
		return fmt.Errorf("s3: rmdir %q: %w", path, fs.ErrInvalidPath)
	}
	base := s.dirKey(path)

	out, err := s.client.ListObjectsV2(s.ctx, &awss3.ListObjectsV2Input{
		Bucket:  aws.String(s.bucket),
		Prefix:  aws.String(base),
		MaxKeys: aws.Int32(2),
	})
	if err != nil {
		return fmt.Errorf("s3: list %q: %w", path, err)
	}
	found := false
	for _, obj := range out.Contents {
		if aws.ToString(obj.Key) == base {
			found = true
			continue
		}
		return fmt.Errorf("s3: rmdir %q: %w", path, fs.ErrNotEmpty)
	}
	if !found {
		return fmt.Errorf("s3: %q: %w", path, fs.ErrNotExist)
	}

	_, err = s.client.DeleteObject(s.ctx, &awss3.DeleteObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(base),
	})
	if err != nil {
		return fmt.Errorf("s3: rmdir %q: %w", path, err)
	}
	return nil
}

// Remove implements fs.Filesystem.
func (s *Filesystem) Remove(path string) error {
	key := s.fileKey(path)
	_, err := s.client.HeadObject(s.ctx, &awss3.HeadObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(key),
	})
	if err != nil {
		if isNotFound(err) {
			return fmt.Errorf("s3: %q: %w", path, fs.ErrNotExist)
		}
		return fmt.Errorf("s3: head %q: %w", path, err)
	}
	_, err = s.client.DeleteObject(s.ctx, &awss3.DeleteObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(key),
	})
	if err != nil {
		return fmt.Errorf("s3: remove %q: %w", path, err)
	}
	return nil
}

// Format implements fs.Filesystem by deleting every object under the
// key prefix in batches.
func (s *Filesystem) Format() error {
	input := &awss3.ListObjectsV2Input{
		Bucket: aws.String(s.bucket),
		Prefix: aws.String(s.prefix),
	}
	for {
		out, err := s.client.ListObjectsV2(s.ctx, input)
		if err != nil {
			return fmt.Errorf("s3: format: list: %w", err)
		}
		if len(out.Contents) == 0 {
			return nil
		}
		objects := make([]types.ObjectIdentifier, 0, len(out.Contents))
		for _, obj := range out.Contents {
			objects = append(objects, types.ObjectIdentifier{Key: obj.Key})
		}
		_, err = s.client.DeleteObjects(s.ctx, &awss3.DeleteObjectsInput{
			Bucket: aws.String(s.bucket),
			Delete: &types.Delete{Objects: objects, Quiet: aws.Bool(true)},
		})
		if err != nil {
			return fmt.Errorf("s3: format: delete: %w", err)
		}
		if !aws.ToBool(out.IsTruncated) {
			return nil
		}
		input.ContinuationToken = out.NextContinuationToken
	}
}

// Stats implements fs.Filesystem by summing object sizes under the key
// prefix.
func (s *Filesystem) Stats() (fs.UsageInfo, error) {
	var used uint64
	input := &awss3.ListObjectsV2Input{
		Bucket: aws.String(s.bucket),
		Prefix: aws.String(s.prefix),
	}
	for {
		out, err := s.client.ListObjectsV2(s.ctx, input)
		if err != nil {
			return fs.UsageInfo{}, fmt.Errorf("s3: stats: %w", err)
		}
		for _, obj := range out.Contents {
			used += uint64(aws.ToInt64(obj.Size))
		}
		if !aws.ToBool(out.IsTruncated) {
			break
		}
		input.ContinuationToken = out.NextContinuationToken
	}
	if used > uint64(s.capacity) {
		used = uint64(s.capacity)
	}
	return fs.UsageInfo{TotalBytes: s.capacity, UsedBytes: uint32(used)}, nil
}

type file struct {
	fs     *Filesystem
	key    string
	mode   fs.OpenMode
	data   []byte
	pos    int
	mtime  time.Time
	closed bool
}

func (f *file) Read(p []byte) (int, error) {
	if f.closed {
		return 0, fs.ErrClosed
	}
	if f.mode != fs.ModeRead {
		return 0, fs.ErrReadOnly
	}
	if f.pos >= len(f.data) {
		return 0, io.EOF
	}
	n := copy(p, f.data[f.pos:])
	f.pos += n
	return n, nil
}

func (f *file) Write(p []byte) (int, error) {
	if f.closed {
		return 0, fs.ErrClosed
	}
	if f.mode == fs.ModeRead {
		return 0, fs.ErrReadOnly
	}
	if f.pos > len(f.data) {
		f.data = append(f.data, make([]byte, f.pos-len(f.data))...)
	}
	n := copy(f.data[f.pos:], p)
	if n < len(p) {
		f.data = append(f.data, p[n:]...)
	}
	f.pos += len(p)
	f.mtime = time.Now()
	return len(p), nil
}

func (f *file) Seek(offset uint32) error {
	if f.closed {
		return fs.ErrClosed
	}
	f.pos = int(offset)
	return nil
}

// Close uploads the buffered content for writable handles.
func (f *file) Close() error {
	if f.closed {
		return fs.ErrClosed
	}
	f.closed = true
	if f.mode == fs.ModeRead {
		return nil
	}
	_, err := f.fs.client.PutObject(f.fs.ctx, &awss3.PutObjectInput{
		Bucket: aws.String(f.fs.bucket),
		Key:    aws.String(f.key),
		Body:   bytes.NewReader(f.data),
	})
	if err != nil {
		return fmt.Errorf("s3: put %q: %w", f.key, err)
	}
	return nil
}

func (f *file) Size() uint32 { return uint32(len(f.data)) }

func (f *file) ModTime() time.Time { return f.mtime }

type dir struct {
	entries []fs.Entry
	next    int
}

func (d *dir) Next() (fs.Entry, error) {
	if d.next >= len(d.entries) {
		return fs.Entry{}, io.EOF
	}
	e := d.entries[d.next]
	d.next++
	return e, nil
}

func (d *dir) Close() error { return nil }
