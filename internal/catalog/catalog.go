// Package catalog builds the remote inventory of a bucket: the set of
// object keys (and their ETags) already uploaded, used to filter the
// backup plan down to work that hasn't happened yet.
package catalog

import (
	"context"
	"fmt"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/s3"
)

// Object is one object already present in the bucket.
type Object struct {
	Key  string
	ETag string
}

// S3Lister is the subset of *s3.Client the catalog needs, narrowed so tests
// can substitute a fake paginated lister.
type S3Lister interface {
	ListObjectsV2(ctx context.Context, params *s3.ListObjectsV2Input, optFns ...func(*s3.Options)) (*s3.ListObjectsV2Output, error)
}

// ListAll pages through every object in bucket and returns the full set.
// Buckets with more backups than fit in one ListObjectsV2 response (1000
// keys) are handled transparently via the continuation token.
func ListAll(ctx context.Context, client S3Lister, bucket string) (map[string]Object, error) {
	result := make(map[string]Object)

	paginator := s3.NewListObjectsV2Paginator(client, &s3.ListObjectsV2Input{
		Bucket: aws.String(bucket),
	})

	for paginator.HasMorePages() {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		page, err := paginator.NextPage(ctx)
		if err != nil {
			return nil, fmt.Errorf("catalog: failed to list objects in %q: %w", bucket, err)
		}

		for _, entry := range page.Contents {
			if entry.Key == nil {
				continue
			}
			obj := Object{Key: *entry.Key}
			if entry.ETag != nil {
				obj.ETag = *entry.ETag
			}
			result[obj.Key] = obj
		}
	}

	return result, nil
}
