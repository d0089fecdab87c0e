package storage

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"

	"github.com/google/uuid"
)

const metaSuffix = ".meta.json"

type diskStore struct {
	root string
}

// NewDiskStore keeps payloads as files under root/<namespace>.
func NewDiskStore(root, namespace string) (ObjectStore, error) {
	dir := filepath.Join(root, namespace)
	if err := os.MkdirAll(dir, 0o750); err != nil {
		return nil, fmt.Errorf("storage: create %s: %w", dir, err)
	}
	return &diskStore{root: dir}, nil
}

func (s *diskStore) path(handle string) (string, error) {
	if _, err := uuid.Parse(handle); err != nil {
		return "", ErrInvalidHandle
	}
	return filepath.Join(s.root, handle), nil
}

func (s *diskStore) Put(ctx context.Context, r io.Reader, info ObjectInfo) (string, int64, error) {
	handle := uuid.NewString()
	dst, _ := s.path(handle)

	tmp, err := os.CreateTemp(s.root, ".upload-*")
	if err != nil {
		return "", 0, err
	}
	defer os.Remove(tmp.Name())

	size, err := io.Copy(tmp, readerWithContext(ctx, r))
	if closeErr := tmp.Close(); err == nil {
		err = closeErr
	}
	if err != nil {
		return "", 0, err
	}

	meta, err := json.Marshal(info)
	if err != nil {
		return "", 0, err
	}
	if err := os.WriteFile(dst+metaSuffix, meta, 0o640); err != nil {
		return "", 0, err
	}
	if err := os.Rename(tmp.Name(), dst); err != nil {
		os.Remove(dst + metaSuffix)
		return "", 0, err
	}

	return handle, size, nil
}

func (s *diskStore) Open(_ context.Context, handle string) (*Object, error) {
	p, err := s.path(handle)
	if err != nil {
		return nil, ErrNotFound
	}

	f, err := os.Open(p)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, ErrNotFound
		}
		return nil, err
	}

	st, err := f.Stat()
	if err != nil {
		f.Close()
		return nil, err
	}

	obj := &Object{Body: f, Size: st.Size()}
	if b, err := os.ReadFile(p + metaSuffix); err == nil {
		var info ObjectInfo
		if json.Unmarshal(b, &info) == nil {
			obj.Name = info.Name
			obj.ContentType = info.ContentType
		}
	}
	return obj, nil
}

func (s *diskStore) Delete(_ context.Context, handle string) error {
	p, err := s.path(handle)
	if err != nil {
		return ErrNotFound
	}

	if err := os.Remove(p); err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return ErrNotFound
		}
		return err
	}
	if err := os.Remove(p + metaSuffix); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return err
	}
	return nil
}

type ctxReader struct {
	ctx context.Context
	r   io.Reader
}

func (c ctxReader) Read(p []byte) (int, error) {
	if err := c.ctx.Err(); err != nil {
		return 0, err
	}
	return c.r.Read(p)
}

func readerWithContext(ctx context.Context, r io.Reader) io.Reader {
	return ctxReader{ctx: ctx, r: r}
}
