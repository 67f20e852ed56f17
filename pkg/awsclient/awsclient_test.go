package awsclient

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"reflect"
	"strings"
	"sync/atomic"
	"testing"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/aws-sdk-go-v2/service/sts"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/marmos91/awsasync/pkg/augment"
	"github.com/marmos91/awsasync/pkg/offload"
)

const listBucketsXML = `<?xml version="1.0" encoding="UTF-8"?>
<ListAllMyBucketsResult xmlns="http://s3.amazonaws.com/doc/2006-03-01/">
  <Owner><ID>owner</ID><DisplayName>test</DisplayName></Owner>
  <Buckets>
    <Bucket><Name>alpha</Name><CreationDate>2024-01-01T00:00:00.000Z</CreationDate></Bucket>
    <Bucket><Name>beta</Name><CreationDate>2024-01-02T00:00:00.000Z</CreationDate></Bucket>
  </Buckets>
</ListAllMyBucketsResult>`

const noSuchKeyXML = `<?xml version="1.0" encoding="UTF-8"?>
<Error><Code>NoSuchKey</Code><Message>The specified key does not exist.</Message><Key>missing</Key><RequestId>r1</RequestId></Error>`

const callerIdentityXML = `<GetCallerIdentityResponse xmlns="https://sts.amazonaws.com/doc/2011-06-15/">
  <GetCallerIdentityResult>
    <Arn>arn:aws:iam::123456789012:user/test</Arn>
    <UserId>AIDATEST</UserId>
    <Account>123456789012</Account>
  </GetCallerIdentityResult>
  <ResponseMetadata><RequestId>r2</RequestId></ResponseMetadata>
</GetCallerIdentityResponse>`

// isolateAWSEnv keeps the developer's shared config out of the tests.
func isolateAWSEnv(t *testing.T) {
	t.Helper()
	dir := t.TempDir()
	t.Setenv("AWS_CONFIG_FILE", filepath.Join(dir, "config"))
	t.Setenv("AWS_SHARED_CREDENTIALS_FILE", filepath.Join(dir, "credentials"))
	t.Setenv("AWS_PROFILE", "")
	t.Setenv("AWS_ACCESS_KEY_ID", "")
	t.Setenv("AWS_SECRET_ACCESS_KEY", "")
}

// fakeAWS serves the handful of S3 and STS responses the tests need.
func fakeAWS(t *testing.T) (*httptest.Server, *atomic.Int32) {
	t.Helper()
	var requests atomic.Int32

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		requests.Add(1)
		w.Header().Set("Content-Type", "application/xml")

		switch {
		case r.Method == http.MethodPost:
			_, _ = w.Write([]byte(callerIdentityXML))
		case r.URL.Path == "/":
			_, _ = w.Write([]byte(listBucketsXML))
		case strings.HasSuffix(r.URL.Path, "/missing"):
			w.WriteHeader(http.StatusNotFound)
			_, _ = w.Write([]byte(noSuchKeyXML))
		default:
			w.WriteHeader(http.StatusBadRequest)
		}
	}))
	t.Cleanup(srv.Close)

	return srv, &requests
}

func testConfig(endpoint string) Config {
	return Config{
		Region:          "us-east-1",
		Endpoint:        endpoint,
		AccessKeyID:     "test",
		SecretAccessKey: "test",
		ForcePathStyle:  true,
		MaxAttempts:     1,
	}
}

// ============================================================================
// Calling convention
// ============================================================================

func TestSDKConvention(t *testing.T) {
	typ := reflect.TypeOf(&s3.Client{})

	listBuckets, ok := typ.MethodByName("ListBuckets")
	require.True(t, ok)
	assert.True(t, SDKConvention(listBuckets))

	options, ok := typ.MethodByName("Options")
	require.True(t, ok)
	assert.False(t, SDKConvention(options))
}

func TestS3Enumeration(t *testing.T) {
	isolateAWSEnv(t)

	c, err := NewS3(context.Background(), testConfig("http://127.0.0.1:1"))
	require.NoError(t, err)

	counterparts := c.Counterparts()
	assert.Contains(t, counterparts, "ListBucketsAsync")
	assert.Contains(t, counterparts, "GetObjectAsync")
	assert.Contains(t, counterparts, "PutObjectAsync")
	assert.NotContains(t, counterparts, "OptionsAsync")
	assert.Empty(t, c.Skipped())

	for _, name := range counterparts {
		assert.False(t, strings.HasSuffix(name, "AsyncAsync"), name)
	}

	cp, ok := c.Counterpart("ListBucketsAsync")
	require.True(t, ok)
	in, ok := InputType(cp.Operation())
	require.True(t, ok)
	assert.Equal(t, reflect.TypeOf(&s3.ListBucketsInput{}), in)
}

// ============================================================================
// Counterparts against a fake endpoint
// ============================================================================

func TestListBucketsAsync(t *testing.T) {
	isolateAWSEnv(t)
	srv, requests := fakeAWS(t)

	pool, err := offload.NewPool(offload.Config{Workers: 4, Executor: offload.ExecutorQueue}, nil)
	require.NoError(t, err)
	defer pool.Close()

	c, err := NewS3(context.Background(), testConfig(srv.URL), augment.WithPool(pool))
	require.NoError(t, err)

	ctx := context.Background()
	out, err := augment.As[*s3.ListBucketsOutput](
		c.Call("ListBucketsAsync", ctx, &s3.ListBucketsInput{}),
	).Await(ctx)
	require.NoError(t, err)
	require.Len(t, out.Buckets, 2)
	assert.Equal(t, "alpha", aws.ToString(out.Buckets[0].Name))
	assert.Equal(t, "beta", aws.ToString(out.Buckets[1].Name))

	syncOut, err := c.Sync().ListBuckets(ctx, &s3.ListBucketsInput{})
	require.NoError(t, err)
	assert.Equal(t, len(syncOut.Buckets), len(out.Buckets))
	assert.Equal(t, int32(2), requests.Load())
}

func TestGetObjectAsyncNotFound(t *testing.T) {
	isolateAWSEnv(t)
	srv, _ := fakeAWS(t)

	c, err := NewS3(context.Background(), testConfig(srv.URL))
	require.NoError(t, err)

	ctx := context.Background()
	_, err = c.Call("GetObjectAsync", ctx, &s3.GetObjectInput{
		Bucket: aws.String("alpha"),
		Key:    aws.String("missing"),
	}).Await(ctx)
	require.Error(t, err)

	code, msg, ok := APIError(err)
	require.True(t, ok)
	assert.Equal(t, "NoSuchKey", code)
	assert.Equal(t, "The specified key does not exist.", msg)
	assert.True(t, IsNotFound(err))
}

func TestNewAsyncByServiceName(t *testing.T) {
	isolateAWSEnv(t)
	srv, _ := fakeAWS(t)
	ctx := context.Background()

	c, err := NewAsync(ctx, ServiceSTS, testConfig(srv.URL))
	require.NoError(t, err)
	assert.IsType(t, &sts.Client{}, c.Sync())

	input, err := DecodeInput(mustOp(t, c, "GetCallerIdentityAsync"), []byte(`{}`))
	require.NoError(t, err)

	out, err := augment.As[*sts.GetCallerIdentityOutput](
		c.Call("GetCallerIdentityAsync", ctx, input),
	).Await(ctx)
	require.NoError(t, err)
	assert.Equal(t, "123456789012", aws.ToString(out.Account))

	_, err = NewAsync(ctx, "dynamodb", testConfig(srv.URL))
	assert.ErrorIs(t, err, ErrUnknownService)
}

func mustOp(t *testing.T, c *augment.Client[any], name string) augment.Operation {
	t.Helper()
	cp, ok := c.Counterpart(name)
	require.True(t, ok, name)
	return cp.Operation()
}

// ============================================================================
// Registry and inputs
// ============================================================================

func TestServices(t *testing.T) {
	assert.Contains(t, Services(), ServiceS3)
	assert.Contains(t, Services(), ServiceSTS)

	Register("fake", func(context.Context, Config) (any, error) {
		return nil, errors.New("offline")
	})
	assert.Contains(t, Services(), "fake")

	_, err := New(context.Background(), "fake", Config{})
	assert.ErrorContains(t, err, "offline")

	assert.Panics(t, func() { Register("nil", nil) })
}

func TestDecodeInput(t *testing.T) {
	isolateAWSEnv(t)

	c, err := NewAsync(context.Background(), ServiceS3, testConfig("http://127.0.0.1:1"))
	require.NoError(t, err)
	op := mustOp(t, c, "GetObjectAsync")

	in, err := DecodeInput(op, []byte(`{"Bucket":"alpha","Key":"a/b.txt"}`))
	require.NoError(t, err)
	get := in.(*s3.GetObjectInput)
	assert.Equal(t, "alpha", aws.ToString(get.Bucket))
	assert.Equal(t, "a/b.txt", aws.ToString(get.Key))

	in, err = DecodeInput(op, nil)
	require.NoError(t, err)
	assert.IsType(t, &s3.GetObjectInput{}, in)

	_, err = DecodeInput(op, []byte(`{"Bucket":`))
	assert.Error(t, err)

	_, err = DecodeInput(op, []byte(`{"NoSuchField":1}`))
	assert.Error(t, err)

	_, err = DecodeInput(augment.Operation{Method: "Echo", Type: reflect.TypeOf(func(...string) []string { return nil })}, nil)
	assert.Error(t, err)
}

func TestIsNotFound(t *testing.T) {
	assert.False(t, IsNotFound(nil))
	assert.False(t, IsNotFound(errors.New("access denied")))
	assert.True(t, IsNotFound(errors.New("operation error S3: HeadObject, NotFound")))
}
