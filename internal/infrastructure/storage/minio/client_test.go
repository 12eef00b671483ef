package minio

import (
	"bytes"
	"context"
	"errors"
	"io"
	"sort"
	"strings"
	"sync"
	"testing"

	"github.com/minio/minio-go/v7"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/suite"

	"github.com/turtacn/chemenv/internal/config"
	"github.com/turtacn/chemenv/internal/infrastructure/monitoring/logging"
	pkgerrors "github.com/turtacn/chemenv/pkg/errors"
)

// MockObjectAPI covers failure paths.
type MockObjectAPI struct {
	mock.Mock
}

func (m *MockObjectAPI) BucketExists(ctx context.Context, bucketName string) (bool, error) {
	args := m.Called(ctx, bucketName)
	return args.Bool(0), args.Error(1)
}

func (m *MockObjectAPI) MakeBucket(ctx context.Context, bucketName string, opts minio.MakeBucketOptions) error {
	return m.Called(ctx, bucketName, opts).Error(0)
}

func (m *MockObjectAPI) PutObject(ctx context.Context, bucketName, objectName string, reader io.Reader, objectSize int64, opts minio.PutObjectOptions) (minio.UploadInfo, error) {
	args := m.Called(ctx, bucketName, objectName, reader, objectSize, opts)
	return args.Get(0).(minio.UploadInfo), args.Error(1)
}

func (m *MockObjectAPI) GetObject(ctx context.Context, bucketName, objectName string, opts minio.GetObjectOptions) (io.ReadCloser, error) {
	args := m.Called(ctx, bucketName, objectName, opts)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(io.ReadCloser), args.Error(1)
}

func (m *MockObjectAPI) StatObject(ctx context.Context, bucketName, objectName string, opts minio.StatObjectOptions) (minio.ObjectInfo, error) {
	args := m.Called(ctx, bucketName, objectName, opts)
	return args.Get(0).(minio.ObjectInfo), args.Error(1)
}

func (m *MockObjectAPI) ListObjects(ctx context.Context, bucketName string, opts minio.ListObjectsOptions) <-chan minio.ObjectInfo {
	args := m.Called(ctx, bucketName, opts)
	return args.Get(0).(<-chan minio.ObjectInfo)
}

// fakeObjectAPI is an in-memory bucket set.
type fakeObjectAPI struct {
	mu      sync.Mutex
	buckets map[string]map[string][]byte
	puts    int
}

func newFakeObjectAPI() *fakeObjectAPI {
	return &fakeObjectAPI{buckets: make(map[string]map[string][]byte)}
}

func noSuchKey(name string) error {
	return minio.ErrorResponse{Code: "NoSuchKey", Key: name, Message: "The specified key does not exist."}
}

func (f *fakeObjectAPI) BucketExists(_ context.Context, bucketName string) (bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	_, ok := f.buckets[bucketName]
	return ok, nil
}

func (f *fakeObjectAPI) MakeBucket(_ context.Context, bucketName string, _ minio.MakeBucketOptions) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.buckets[bucketName] = make(map[string][]byte)
	return nil
}

func (f *fakeObjectAPI) PutObject(_ context.Context, bucketName, objectName string, reader io.Reader, _ int64, _ minio.PutObjectOptions) (minio.UploadInfo, error) {
	data, err := io.ReadAll(reader)
	if err != nil {
		return minio.UploadInfo{}, err
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	f.buckets[bucketName][objectName] = data
	f.puts++
	return minio.UploadInfo{Bucket: bucketName, Key: objectName, Size: int64(len(data))}, nil
}

func (f *fakeObjectAPI) GetObject(_ context.Context, bucketName, objectName string, _ minio.GetObjectOptions) (io.ReadCloser, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	data, ok := f.buckets[bucketName][objectName]
	if !ok {
		return nil, noSuchKey(objectName)
	}
	return io.NopCloser(bytes.NewReader(data)), nil
}

func (f *fakeObjectAPI) StatObject(_ context.Context, bucketName, objectName string, _ minio.StatObjectOptions) (minio.ObjectInfo, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	data, ok := f.buckets[bucketName][objectName]
	if !ok {
		return minio.ObjectInfo{}, noSuchKey(objectName)
	}
	return minio.ObjectInfo{Key: objectName, Size: int64(len(data))}, nil
}

func (f *fakeObjectAPI) ListObjects(_ context.Context, bucketName string, opts minio.ListObjectsOptions) <-chan minio.ObjectInfo {
	f.mu.Lock()
	var keys []string
	for k := range f.buckets[bucketName] {
		if strings.HasPrefix(k, opts.Prefix) {
			keys = append(keys, k)
		}
	}
	f.mu.Unlock()
	sort.Strings(keys)
	ch := make(chan minio.ObjectInfo, len(keys))
	for _, k := range keys {
		ch <- minio.ObjectInfo{Key: k}
	}
	close(ch)
	return ch
}

type ClientTestSuite struct {
	suite.Suite
	log logging.Logger
	cfg config.MinIOConfig
}

func (s *ClientTestSuite) SetupTest() {
	s.log = logging.NewNopLogger()
	s.cfg = config.MinIOConfig{Endpoint: "localhost:9000", Bucket: "revisions"}
}

func (s *ClientTestSuite) TestEnsureBucket_CreatesMissing() {
	api := newFakeObjectAPI()
	c := newClient(api, s.cfg, s.log)

	s.Require().NoError(c.EnsureBucket(context.Background()))
	exists, _ := api.BucketExists(context.Background(), "revisions")
	s.True(exists)
	// Idempotent.
	s.Require().NoError(c.EnsureBucket(context.Background()))
	s.NoError(c.HealthCheck(context.Background()))
	s.Equal("revisions", c.Bucket())
}

func (s *ClientTestSuite) TestEnsureBucket_Unreachable() {
	api := new(MockObjectAPI)
	api.On("BucketExists", mock.Anything, "revisions").Return(false, errors.New("dial tcp: connection refused"))
	c := newClient(api, s.cfg, s.log)

	err := c.EnsureBucket(context.Background())
	s.True(pkgerrors.IsCode(err, pkgerrors.ErrCodeServiceUnavailable))
	s.Error(c.HealthCheck(context.Background()))
}

func (s *ClientTestSuite) TestEnsureBucket_MakeFails() {
	api := new(MockObjectAPI)
	api.On("BucketExists", mock.Anything, "revisions").Return(false, nil)
	api.On("MakeBucket", mock.Anything, "revisions", minio.MakeBucketOptions{Region: defaultRegion}).Return(errors.New("access denied"))
	c := newClient(api, s.cfg, s.log)

	err := c.EnsureBucket(context.Background())
	s.True(pkgerrors.IsCode(err, pkgerrors.ErrCodeExternalService))
	api.AssertExpectations(s.T())
}

func (s *ClientTestSuite) TestHealthCheck_MissingBucket() {
	c := newClient(newFakeObjectAPI(), s.cfg, s.log)
	s.Error(c.HealthCheck(context.Background()))
}

func TestClientSuite(t *testing.T) {
	suite.Run(t, new(ClientTestSuite))
}

func TestIsNoSuchKey(t *testing.T) {
	assert.True(t, isNoSuchKey(noSuchKey("k")))
	assert.True(t, isNoSuchKey(pkgerrors.Wrap(noSuchKey("k"), pkgerrors.ErrCodeExternalService, "wrapped")))
	assert.False(t, isNoSuchKey(minio.ErrorResponse{Code: "AccessDenied"}))
	assert.False(t, isNoSuchKey(errors.New("boom")))
	assert.False(t, isNoSuchKey(nil))
}

//Personal.AI order the ending
