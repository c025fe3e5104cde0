package objectstore

import (
	"context"
	"errors"
	"io"
	"testing"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"Newsroom/internal/config"
)

type fakePutter struct {
	input *s3.PutObjectInput
	body  []byte
	err   error
}

func (f *fakePutter) PutObject(_ context.Context, in *s3.PutObjectInput, _ ...func(*s3.Options)) (*s3.PutObjectOutput, error) {
	f.input = in
	f.body, _ = io.ReadAll(in.Body)
	return &s3.PutObjectOutput{}, f.err
}

func TestS3StorePut(t *testing.T) {
	t.Parallel()

	fake := &fakePutter{}
	store := NewS3StoreWithClient(fake, config.ObjectStoreConfig{Bucket: "media", Region: "sa-east-1"})

	url, err := store.Put(context.Background(), "covers/1-abc.jpg", []byte("img"), "image/jpeg")
	require.NoError(t, err)
	assert.Equal(t, "https://media.s3.sa-east-1.amazonaws.com/covers/1-abc.jpg", url)
	assert.Equal(t, "media", aws.ToString(fake.input.Bucket))
	assert.Equal(t, "covers/1-abc.jpg", aws.ToString(fake.input.Key))
	assert.Equal(t, "image/jpeg", aws.ToString(fake.input.ContentType))
	assert.Equal(t, []byte("img"), fake.body)
}

func TestS3StorePutError(t *testing.T) {
	t.Parallel()

	boom := errors.New("access denied")
	store := NewS3StoreWithClient(&fakePutter{err: boom}, config.ObjectStoreConfig{Bucket: "media"})
	_, err := store.Put(context.Background(), "k.png", nil, "image/png")
	require.ErrorIs(t, err, boom)
}

func TestPublicBaseURL(t *testing.T) {
	t.Parallel()

	cases := []struct {
		name string
		cfg  config.ObjectStoreConfig
		want string
	}{
		{"default region", config.ObjectStoreConfig{Bucket: "b"}, "https://b.s3.us-east-1.amazonaws.com"},
		{"cdn", config.ObjectStoreConfig{Bucket: "b", PublicBaseURL: "https://cdn.example.com/"}, "https://cdn.example.com"},
		{"path style", config.ObjectStoreConfig{Bucket: "b", Endpoint: "http://minio:9000", UsePathStyle: true}, "http://minio:9000/b"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.want, PublicBaseURL(tc.cfg))
		})
	}
}

func TestMemory(t *testing.T) {
	t.Parallel()

	m := NewMemory("memory://covers/")
	url, err := m.Put(context.Background(), "a.png", []byte{1}, "image/png")
	require.NoError(t, err)
	assert.Equal(t, "memory://covers/a.png", url)
	data, ok := m.Object("a.png")
	require.True(t, ok)
	assert.Equal(t, []byte{1}, data)
}
