package s3infra

import (
	"context"
	"errors"
	"io"
	"strings"
	"testing"
	"time"

	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

type mockObjectAPI struct{ mock.Mock }

func (m *mockObjectAPI) PutObject(ctx context.Context, in *s3.PutObjectInput, _ ...func(*s3.Options)) (*s3.PutObjectOutput, error) {
	args := m.Called(ctx, in)
	if out, _ := args.Get(0).(*s3.PutObjectOutput); out != nil {
		return out, args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *mockObjectAPI) DeleteObject(ctx context.Context, in *s3.DeleteObjectInput, _ ...func(*s3.Options)) (*s3.DeleteObjectOutput, error) {
	args := m.Called(ctx, in)
	if out, _ := args.Get(0).(*s3.DeleteObjectOutput); out != nil {
		return out, args.Error(1)
	}
	return nil, args.Error(1)
}

func newTestStore(api *mockObjectAPI) *Store {
	return &Store{
		client: api,
		bucket: "avatars-bucket",
		presigner: func(_ context.Context, bucket, key string, ttl time.Duration) (string, error) {
			return "https://signed.example/" + bucket + "/" + key + "?ttl=" + ttl.String(), nil
		},
	}
}

func TestAvatarStore_SaveUploadsWithContentType(t *testing.T) {
	api := &mockObjectAPI{}
	var body []byte
	api.On("PutObject", mock.Anything, mock.MatchedBy(func(in *s3.PutObjectInput) bool {
		return *in.Bucket == "avatars-bucket" &&
			strings.HasPrefix(*in.Key, "avatars/p1/") &&
			strings.HasSuffix(*in.Key, ".png") &&
			*in.ContentType == "image/png"
	})).Run(func(args mock.Arguments) {
		body, _ = io.ReadAll(args.Get(1).(*s3.PutObjectInput).Body)
	}).Return(&s3.PutObjectOutput{}, nil)

	ref, err := NewAvatarStore(newTestStore(api)).Save(context.Background(), "p1", "me.PNG", []byte("pngbytes"))
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(ref, "s3://avatars-bucket/avatars/p1/"))
	assert.Equal(t, []byte("pngbytes"), body)
}

func TestAvatarStore_SaveSniffsUnknownExtension(t *testing.T) {
	api := &mockObjectAPI{}
	jpeg := []byte{0xFF, 0xD8, 0xFF, 0xE0, 0, 0x10, 'J', 'F', 'I', 'F'}
	api.On("PutObject", mock.Anything, mock.MatchedBy(func(in *s3.PutObjectInput) bool {
		return *in.ContentType == "image/jpeg" && strings.HasSuffix(*in.Key, ".jpg")
	})).Return(&s3.PutObjectOutput{}, nil)

	_, err := NewAvatarStore(newTestStore(api)).Save(context.Background(), "p1", "blob", jpeg)
	require.NoError(t, err)
	api.AssertExpectations(t)
}

func TestAvatarStore_SaveError(t *testing.T) {
	api := &mockObjectAPI{}
	api.On("PutObject", mock.Anything, mock.Anything).Return(nil, errors.New("denied"))

	_, err := NewAvatarStore(newTestStore(api)).Save(context.Background(), "p1", "a.png", []byte("x"))
	assert.ErrorContains(t, err, "s3 put object: denied")
}

func TestAvatarStore_URL(t *testing.T) {
	a := NewAvatarStore(newTestStore(&mockObjectAPI{}))

	u, err := a.URL(context.Background(), "s3://avatars-bucket/avatars/p1/x.png")
	require.NoError(t, err)
	assert.Equal(t, "https://signed.example/avatars-bucket/avatars/p1/x.png?ttl=1h0m0s", u)

	u, err = a.URL(context.Background(), "data:image/png;base64,AAAA")
	require.NoError(t, err)
	assert.Equal(t, "data:image/png;base64,AAAA", u)
}

func TestAvatarStore_RemoveDeletesOwnObjectsOnly(t *testing.T) {
	api := &mockObjectAPI{}
	api.On("DeleteObject", mock.Anything, mock.MatchedBy(func(in *s3.DeleteObjectInput) bool {
		return *in.Key == "avatars/p1/x.png"
	})).Return(&s3.DeleteObjectOutput{}, nil)

	a := NewAvatarStore(newTestStore(api))
	require.NoError(t, a.Remove(context.Background(), "s3://avatars-bucket/avatars/p1/x.png"))
	require.NoError(t, a.Remove(context.Background(), "s3://other-bucket/avatars/p1/x.png"))
	api.AssertNumberOfCalls(t, "DeleteObject", 1)
}
