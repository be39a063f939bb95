package snapshot

import (
	"bytes"
	"context"
	"errors"
	"io"
	"testing"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/aws-sdk-go-v2/service/s3/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vango-dev/selsync/pkg/selection"
)

type fakeS3 struct {
	objects map[string][]byte
	gets    int
	putErr  error
}

func newFakeS3() *fakeS3 {
	return &fakeS3{objects: make(map[string][]byte)}
}

func (f *fakeS3) GetObject(_ context.Context, in *s3.GetObjectInput, _ ...func(*s3.Options)) (*s3.GetObjectOutput, error) {
	f.gets++
	body, ok := f.objects[aws.ToString(in.Bucket)+"/"+aws.ToString(in.Key)]
	if !ok {
		return nil, &types.NoSuchKey{}
	}
	return &s3.GetObjectOutput{Body: io.NopCloser(bytes.NewReader(body))}, nil
}

func (f *fakeS3) PutObject(_ context.Context, in *s3.PutObjectInput, _ ...func(*s3.Options)) (*s3.PutObjectOutput, error) {
	if f.putErr != nil {
		return nil, f.putErr
	}
	body, err := io.ReadAll(in.Body)
	if err != nil {
		return nil, err
	}
	f.objects[aws.ToString(in.Bucket)+"/"+aws.ToString(in.Key)] = body
	return &s3.PutObjectOutput{}, nil
}

func TestMemoryStore(t *testing.T) {
	ctx := context.Background()
	s := NewMemoryStore()

	_, err := s.Load(ctx, "k")
	assert.ErrorIs(t, err, ErrNotFound)

	items := []string{"a", "b"}
	require.NoError(t, s.Save(ctx, "k", items))
	items[0] = "z"

	got, err := s.Load(ctx, "k")
	require.NoError(t, err)
	assert.Equal(t, []string{"a", "b"}, got)
	assert.Equal(t, 1, s.Saves())
}

func TestS3Store(t *testing.T) {
	ctx := context.Background()
	fake := newFakeS3()
	s := newS3Store(fake, "bucket", "selections")

	_, err := s.Load(ctx, "main")
	assert.ErrorIs(t, err, ErrNotFound)

	require.NoError(t, s.Save(ctx, "main", []string{"x", "y"}))
	assert.Contains(t, fake.objects, "bucket/selections/main.json")
	assert.Contains(t, string(fake.objects["bucket/selections/main.json"]), `"items":["x","y"]`)

	got, err := s.Load(ctx, "main")
	require.NoError(t, err)
	assert.Equal(t, []string{"x", "y"}, got)

	require.NoError(t, s.Save(ctx, "empty", nil))
	got, err = s.Load(ctx, "empty")
	require.NoError(t, err)
	assert.Empty(t, got)

	fake.putErr = errors.New("denied")
	err = s.Save(ctx, "main", []string{"z"})
	assert.ErrorIs(t, err, fake.putErr)
}

func TestS3StoreCorruptObject(t *testing.T) {
	fake := newFakeS3()
	fake.objects["b/p/k.json"] = []byte("not json")
	s := newS3Store(fake, "b", "p")

	_, err := s.Load(context.Background(), "k")
	assert.Error(t, err)
	assert.NotErrorIs(t, err, ErrNotFound)
}

func TestNewS3Client(t *testing.T) {
	client := NewS3Client(S3Config{Region: "us-east-1", Endpoint: "http://localhost:9000", UsePathStyle: true})
	require.NotNil(t, client)
	assert.NotNil(t, NewS3Store(client, "b", "p"))
}

func TestCachedStore(t *testing.T) {
	ctx := context.Background()
	fake := newFakeS3()
	inner := newS3Store(fake, "b", "p")
	s, err := NewCachedStore(inner, 8)
	require.NoError(t, err)

	require.NoError(t, s.Save(ctx, "k", []string{"a"}))
	require.NoError(t, s.Save(ctx, "k", []string{"a"}))

	got, err := s.Load(ctx, "k")
	require.NoError(t, err)
	assert.Equal(t, []string{"a"}, got)
	assert.Zero(t, fake.gets, "loads after a save are served from cache")

	s.Purge()
	_, err = s.Load(ctx, "k")
	require.NoError(t, err)
	_, err = s.Load(ctx, "k")
	require.NoError(t, err)
	assert.Equal(t, 1, fake.gets)

	_, err = s.Load(ctx, "missing")
	assert.ErrorIs(t, err, ErrNotFound)

	_, err = NewCachedStore(inner, 0)
	assert.Error(t, err)
}

func TestCachedStoreSkipsIdenticalSaves(t *testing.T) {
	ctx := context.Background()
	inner := NewMemoryStore()
	s, err := NewCachedStore(inner, 2)
	require.NoError(t, err)

	require.NoError(t, s.Save(ctx, "k", []string{"a"}))
	require.NoError(t, s.Save(ctx, "k", []string{"a"}))
	require.NoError(t, s.Save(ctx, "k", []string{"b"}))
	assert.Equal(t, 2, inner.Saves())
}

func TestPersisterLatestWins(t *testing.T) {
	store := NewMemoryStore()
	p := NewPersister(store, "k")

	p.Offer([]string{"a"})
	p.Offer([]string{"a", "b"})
	p.Offer([]string{"c"})

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	require.NoError(t, p.Run(ctx))

	got, err := store.Load(context.Background(), "k")
	require.NoError(t, err)
	assert.Equal(t, []string{"c"}, got)
	assert.Equal(t, 1, store.Saves())
	assert.Equal(t, uint64(1), p.Saved())
}

func TestPersisterWatch(t *testing.T) {
	store := NewMemoryStore()
	p := NewPersister(store, "k", WithSaveTimeout(time.Second))

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		defer close(done)
		_ = p.Run(ctx)
	}()

	sel := selection.NewList[string]()
	sub := p.Watch(sel)
	defer sub.Dispose()

	require.NoError(t, sel.Update("x", "y"))

	require.Eventually(t, func() bool {
		got, err := store.Load(context.Background(), "k")
		return err == nil && assert.ObjectsAreEqual([]string{"x", "y"}, got)
	}, 2*time.Second, 5*time.Millisecond)

	cancel()
	<-done
}

type failingStore struct{ Store }

func (failingStore) Save(context.Context, string, []string) error {
	return errors.New("disk full")
}

func TestPersisterCountsFailures(t *testing.T) {
	p := NewPersister(failingStore{NewMemoryStore()}, "k")
	p.Offer([]string{"a"})

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	require.NoError(t, p.Run(ctx))
	assert.Equal(t, uint64(1), p.Failed())
}

func TestRestore(t *testing.T) {
	ctx := context.Background()
	store := NewMemoryStore()
	sel := selection.NewList("keep")

	ok, err := Restore(ctx, store, "k", sel)
	require.NoError(t, err)
	assert.False(t, ok)
	assert.Equal(t, []string{"keep"}, sel.Items())

	require.NoError(t, store.Save(ctx, "k", []string{"a", "b"}))
	ok, err = Restore(ctx, store, "k", sel)
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, []string{"a", "b"}, sel.Items())

	sel.Dispose()
	_, err = Restore(ctx, store, "k", sel)
	assert.ErrorIs(t, err, selection.ErrDisposed)
}
