package metagenomisc

import (
	"context"
	"fmt"
	"io"
	"os"
	"strings"

	"cloud.google.com/go/storage"
	"github.com/carbocation/pfx"
	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"
)

const (
	gsScheme = "gs://"
	s3Scheme = "s3://"
)

// S3Endpoint is the host that s3:// paths are fetched from.
var S3Endpoint = "s3.amazonaws.com"

// Opener opens input paths for reading. Paths may be local, gs://bucket/key
// or s3://bucket/key. Cloud clients are only created for the schemes that
// the paths handed to NewOpener actually use.
type Opener struct {
	GS *storage.Client
	S3 *minio.Client
}

// NewOpener prepares an Opener able to read every one of paths.
func NewOpener(paths ...string) (*Opener, error) {
	o := &Opener{}

	for _, path := range paths {
		switch {
		case strings.HasPrefix(path, gsScheme) && o.GS == nil:
			client, err := storage.NewClient(context.Background())
			if err != nil {
				return nil, pfx.Err(err)
			}
			o.GS = client

		case strings.HasPrefix(path, s3Scheme) && o.S3 == nil:
			// Falls back to anonymous access when no credentials are found,
			// which is enough for public buckets.
			creds := credentials.NewChainCredentials([]credentials.Provider{
				&credentials.EnvAWS{},
				&credentials.FileAWSCredentials{},
			})
			client, err := minio.New(S3Endpoint, &minio.Options{
				Creds:  creds,
				Secure: true,
			})
			if err != nil {
				return nil, pfx.Err(err)
			}
			o.S3 = client
		}
	}

	return o, nil
}

// Close releases the Google Storage client, if one was created.
func (o *Opener) Close() error {
	if o.GS != nil {
		return o.GS.Close()
	}

	return nil
}

// Open returns the contents of path, transparently decompressed.
func (o *Opener) Open(path string) (io.ReadCloser, error) {
	rc, err := o.openRaw(path)
	if err != nil {
		return nil, err
	}

	return MaybeDecompress(rc)
}

// ReadFile reads the whole (decompressed) contents of path.
func (o *Opener) ReadFile(path string) ([]byte, error) {
	rc, err := o.Open(path)
	if err != nil {
		return nil, err
	}
	defer rc.Close()

	data, err := io.ReadAll(rc)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}

	return data, nil
}

func (o *Opener) openRaw(path string) (io.ReadCloser, error) {
	ctx := context.Background()

	switch {
	case strings.HasPrefix(path, gsScheme):
		if o.GS == nil {
			return nil, fmt.Errorf("%s: no Google Storage client was initialized", path)
		}
		bucketName, pathName, err := splitBucketPath(path, gsScheme)
		if err != nil {
			return nil, err
		}

		r, err := o.GS.Bucket(bucketName).Object(pathName).NewReader(ctx)
		if err != nil {
			return nil, pfx.Err(fmt.Errorf("%s: %w", path, err))
		}
		return r, nil

	case strings.HasPrefix(path, s3Scheme):
		if o.S3 == nil {
			return nil, fmt.Errorf("%s: no S3 client was initialized", path)
		}
		bucketName, pathName, err := splitBucketPath(path, s3Scheme)
		if err != nil {
			return nil, err
		}

		obj, err := o.S3.GetObject(ctx, bucketName, pathName, minio.GetObjectOptions{})
		if err != nil {
			return nil, pfx.Err(fmt.Errorf("%s: %w", path, err))
		}

		// GetObject is lazy; a missing object only shows up on first access.
		if _, err := obj.Stat(); err != nil {
			obj.Close()
			return nil, pfx.Err(fmt.Errorf("%s: %w", path, err))
		}
		return obj, nil
	}

	return os.Open(ExpandHome(path))
}

// splitBucketPath splits scheme://bucket/key into its bucket and key.
func splitBucketPath(path, scheme string) (bucket, key string, err error) {
	pathParts := strings.SplitN(strings.TrimPrefix(path, scheme), "/", 2)
	if len(pathParts) != 2 || pathParts[0] == "" || pathParts[1] == "" {
		return "", "", fmt.Errorf("Tried to split %s into a bucket and an object path, but got %d parts: %v", path, len(pathParts), pathParts)
	}

	return pathParts[0], pathParts[1], nil
}
