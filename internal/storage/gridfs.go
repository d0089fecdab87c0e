package storage

import (
	"context"
	"errors"
	"io"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/gridfs"
	"go.mongodb.org/mongo-driver/mongo/options"
)

type gridFSStore struct {
	bucket *gridfs.Bucket
}

// NewGridFSStore stores payloads in the named GridFS bucket of db.
func NewGridFSStore(db *mongo.Database, bucketName string) (ObjectStore, error) {
	bucket, err := gridfs.NewBucket(db, options.GridFSBucket().SetName(bucketName))
	if err != nil {
		return nil, err
	}
	return &gridFSStore{bucket: bucket}, nil
}

func (s *gridFSStore) Put(ctx context.Context, r io.Reader, info ObjectInfo) (string, int64, error) {
	meta := bson.D{{Key: "contentType", Value: info.ContentType}}
	for k, v := range info.Metadata {
		meta = append(meta, bson.E{Key: k, Value: v})
	}

	id := primitive.NewObjectID()
	counter := &countingReader{r: readerWithContext(ctx, r)}
	if err := s.bucket.UploadFromStreamWithID(id, info.Name, counter, options.GridFSUpload().SetMetadata(meta)); err != nil {
		return "", 0, err
	}

	return id.Hex(), counter.n, nil
}

func (s *gridFSStore) Open(_ context.Context, handle string) (*Object, error) {
	id, err := primitive.ObjectIDFromHex(handle)
	if err != nil {
		return nil, ErrNotFound
	}

	stream, err := s.bucket.OpenDownloadStream(id)
	if err != nil {
		if errors.Is(err, gridfs.ErrFileNotFound) {
			return nil, ErrNotFound
		}
		return nil, err
	}

	file := stream.GetFile()
	obj := &Object{Body: stream, Size: file.Length, Name: file.Name}
	if len(file.Metadata) > 0 {
		if ct, ok := file.Metadata.Lookup("contentType").StringValueOK(); ok {
			obj.ContentType = ct
		}
	}
	return obj, nil
}

func (s *gridFSStore) Delete(_ context.Context, handle string) error {
	id, err := primitive.ObjectIDFromHex(handle)
	if err != nil {
		return ErrNotFound
	}

	if err := s.bucket.Delete(id); err != nil {
		if errors.Is(err, gridfs.ErrFileNotFound) {
			return ErrNotFound
		}
		return err
	}
	return nil
}

type countingReader struct {
	r io.Reader
	n int64
}

func (c *countingReader) Read(p []byte) (int, error) {
	n, err := c.r.Read(p)
	c.n += int64(n)
	return n, err
}
