package storage

import (
	"context"
	"errors"
	"io"
	"strings"
	"testing"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/aws-sdk-go-v2/service/s3/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jordanlanch/fieldsales/pkg/domain"
	"github.com/jordanlanch/fieldsales/pkg/logger"
)

type fakeS3 struct {
	objects map[string]string
	sizes   map[string]int64
	err     error
	lastIn  *s3.GetObjectInput
}

func (f *fakeS3) GetObject(_ context.Context, in *s3.GetObjectInput, _ ...func(*s3.Options)) (*s3.GetObjectOutput, error) {
	f.lastIn = in
	if f.err != nil {
		return nil, f.err
	}
	body, ok := f.objects[aws.ToString(in.Key)]
	if !ok {
		return nil, &types.NoSuchKey{}
	}
	size := int64(len(body))
	if s, ok := f.sizes[aws.ToString(in.Key)]; ok {
		size = s
	}
	return &s3.GetObjectOutput{
		Body:          io.NopCloser(strings.NewReader(body)),
		ContentLength: aws.Int64(size),
	}, nil
}

func TestS3Source_Open(t *testing.T) {
	fake := &fakeS3{
		objects: map[string]string{
			"imports/outlets.csv": "uid,name\n",
			"huge.csv":            "",
		},
		sizes: map[string]int64{"huge.csv": MaxObjectSize + 1},
	}
	src := NewS3SourceWithClient(fake, "field-imports", logger.Nop())
	ctx := context.Background()

	t.Run("Success", func(t *testing.T) {
		obj, err := src.Open(ctx, "/imports/outlets.csv")
		require.NoError(t, err)
		defer obj.Body.Close()

		assert.Equal(t, "field-imports", aws.ToString(fake.lastIn.Bucket))
		assert.Equal(t, "imports/outlets.csv", obj.Key)
		assert.Equal(t, ".csv", obj.Ext())

		data, err := io.ReadAll(obj.Body)
		require.NoError(t, err)
		assert.Equal(t, "uid,name\n", string(data))
	})

	t.Run("error_missing_key", func(t *testing.T) {
		_, err := src.Open(ctx, "nope.csv")
		assert.True(t, domain.IsNotFound(err))
	})

	t.Run("error_empty_key", func(t *testing.T) {
		_, err := src.Open(ctx, "  ")
		assert.True(t, domain.IsValidation(err))
	})

	t.Run("error_too_large", func(t *testing.T) {
		_, err := src.Open(ctx, "huge.csv")
		assert.True(t, domain.IsValidation(err))
	})
}

func TestS3Source_TransportError(t *testing.T) {
	src := NewS3SourceWithClient(&fakeS3{err: errors.New("dial tcp: timeout")}, "b", logger.Nop())

	_, err := src.Open(context.Background(), "x.csv")
	require.Error(t, err)
	assert.False(t, domain.IsNotFound(err))
}

func TestNewS3Source_RequiresBucket(t *testing.T) {
	_, err := NewS3Source(context.Background(), Config{AWSRegion: "us-east-1"}, logger.Nop())
	assert.Error(t, err)
}
