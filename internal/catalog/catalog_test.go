package catalog

import (
	"context"
	"testing"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/aws-sdk-go-v2/service/s3/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeLister struct {
	pages []*s3.ListObjectsV2Output
	calls int
}

func (f *fakeLister) ListObjectsV2(_ context.Context, _ *s3.ListObjectsV2Input, _ ...func(*s3.Options)) (*s3.ListObjectsV2Output, error) {
	page := f.pages[f.calls]
	f.calls++
	return page, nil
}

func TestListAll_SinglePage(t *testing.T) {
	lister := &fakeLister{pages: []*s3.ListObjectsV2Output{
		{
			IsTruncated: aws.Bool(false),
			Contents: []types.Object{
				{Key: aws.String("full/rpool_data@1_AT_monthly"), ETag: aws.String(`"abc"`)},
			},
		},
	}}

	objs, err := ListAll(context.Background(), lister, "bucket")
	require.NoError(t, err)
	require.Len(t, objs, 1)
	assert.Equal(t, `"abc"`, objs["full/rpool_data@1_AT_monthly"].ETag)
}

func TestListAll_FollowsContinuationToken(t *testing.T) {
	lister := &fakeLister{pages: []*s3.ListObjectsV2Output{
		{
			IsTruncated:           aws.Bool(true),
			NextContinuationToken: aws.String("token-1"),
			Contents: []types.Object{
				{Key: aws.String("full/a"), ETag: aws.String("etag-a")},
			},
		},
		{
			IsTruncated: aws.Bool(false),
			Contents: []types.Object{
				{Key: aws.String("full/b"), ETag: aws.String("etag-b")},
			},
		},
	}}

	objs, err := ListAll(context.Background(), lister, "bucket")
	require.NoError(t, err)
	assert.Len(t, objs, 2)
	assert.Contains(t, objs, "full/a")
	assert.Contains(t, objs, "full/b")
}

func TestListAll_EmptyBucket(t *testing.T) {
	lister := &fakeLister{pages: []*s3.ListObjectsV2Output{
		{IsTruncated: aws.Bool(false)},
	}}

	objs, err := ListAll(context.Background(), lister, "bucket")
	require.NoError(t, err)
	assert.Empty(t, objs)
}
