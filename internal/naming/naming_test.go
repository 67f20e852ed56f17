package naming

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestCamelToSnake(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"TestVariable", "test_variable"},
		{"Test123Variable", "test123_variable"},
		{"testVariable", "test_variable"},
		{"testHTTPMethod", "test_http_method"},
		{"ListBuckets", "list_buckets"},
		{"GetObjectACL", "get_object_acl"},
		{"already_snake", "already_snake"},
		{"", ""},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			assert.Equal(t, tt.want, CamelToSnake(tt.in))
		})
	}
}

func TestSnakeToPascal(t *testing.T) {
	assert.Equal(t, "ListBuckets", SnakeToPascal("list_buckets"))
	assert.Equal(t, "GetHttpStatus", SnakeToPascal("get_http_status"))
	assert.Equal(t, "Echo", SnakeToPascal("_echo_"))
	assert.Equal(t, "", SnakeToPascal(""))
}

func TestSnakeToGo(t *testing.T) {
	assert.Equal(t, "GetHTTPStatus", SnakeToGo("get_http_status"))
	assert.Equal(t, "PutBucketACL", SnakeToGo("put_bucket_acl"))
	assert.Equal(t, "AssumeRoleWithSAML", SnakeToGo("assume_role_with_saml"))
	assert.Equal(t, "ListBuckets", SnakeToGo("list_buckets"))
}

func TestMethodCandidates(t *testing.T) {
	tests := []struct {
		name string
		id   string
		want []string
	}{
		{"PascalIdentifier", "ListBuckets", []string{"ListBuckets"}},
		{"SnakeIdentifier", "list_buckets", []string{"ListBuckets"}},
		{"LowerCamelIdentifier", "listBuckets", []string{"ListBuckets"}},
		{"SnakeWithInitialism", "get_http_status", []string{"GetHttpStatus", "GetHTTPStatus"}},
		{"CamelWithInitialism", "getHTTPStatus", []string{"GetHTTPStatus", "GetHttpStatus"}},
		{"TrailingInitialism", "GetObjectACL", []string{"GetObjectACL", "GetObjectAcl"}},
		{"Empty", "", nil},
		{"Blank", "   ", nil},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, MethodCandidates(tt.id))
		})
	}
}

func TestCounterpartNaming(t *testing.T) {
	assert.Equal(t, "ListBucketsAsync", CounterpartName("ListBuckets", "Async"))

	assert.True(t, HasSuffix("ListBucketsAsync", "Async"))
	assert.False(t, HasSuffix("Async", "Async"), "the bare suffix is not a counterpart")
	assert.False(t, HasSuffix("ListBuckets", "Async"))
	assert.False(t, HasSuffix("ListBuckets", ""))
}
