package artifacts_test

import (
	"bytes"
	"context"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"

	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/bsc-digital-identity/zk-compliance/pkg/artifacts"
	"github.com/bsc-digital-identity/zk-compliance/pkg/logger"
	reasoncodes "github.com/bsc-digital-identity/zk-compliance/pkg/reason_codes"
)

type fakeS3 struct {
	objects map[string][]byte
}

func (f fakeS3) GetObject(_ context.Context, in *s3.GetObjectInput, _ ...func(*s3.Options)) (*s3.GetObjectOutput, error) {
	data, ok := f.objects[*in.Bucket+"/"+*in.Key]
	if !ok {
		return nil, errors.New("NoSuchKey")
	}
	return &s3.GetObjectOutput{Body: io.NopCloser(bytes.NewReader(data))}, nil
}

func newFetcher(opts ...artifacts.Option) *artifacts.Fetcher {
	opts = append(opts, artifacts.WithLogger(logger.New().WithOutput(&bytes.Buffer{})))
	return artifacts.NewFetcher(opts...)
}

func writeFile(t *testing.T, name string, data []byte) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, data, 0o600))
	return path
}

func TestFetchFile(t *testing.T) {
	ctx := context.Background()
	data := []byte("verifying key bytes")
	path := writeFile(t, "age.vk", data)
	f := newFetcher()

	for _, uri := range []string{path, "file://" + path, artifacts.Pin("file://"+path, data)} {
		got, err := f.Fetch(ctx, uri)
		require.NoError(t, err, uri)
		assert.Equal(t, data, got)
	}

	_, err := f.Fetch(ctx, artifacts.Pin("file://"+path, []byte("other")))
	assert.True(t, errors.Is(err, reasoncodes.ErrArtifactDigestMismatch))

	_, err = f.Fetch(ctx, "file://"+path+"#md5=abcd")
	assert.Error(t, err)
	_, err = f.Fetch(ctx, "file://"+path+"#sha256=zz")
	assert.Error(t, err)
}

func TestFetchHTTP(t *testing.T) {
	data := []byte("proving key bytes")
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/age.pk" {
			http.NotFound(w, r)
			return
		}
		_, _ = w.Write(data)
	}))
	defer srv.Close()
	f := newFetcher()

	got, err := f.Fetch(context.Background(), artifacts.Pin(srv.URL+"/age.pk", data))
	require.NoError(t, err)
	assert.Equal(t, data, got)

	_, err = f.Fetch(context.Background(), srv.URL+"/missing")
	assert.Error(t, err)
}

func TestFetchS3(t *testing.T) {
	data := []byte("symbols")
	s3src := artifacts.NewS3SourceWithClient(fakeS3{objects: map[string][]byte{"circuits/age/age.sym": data}})
	f := newFetcher(artifacts.WithSource("s3", s3src))

	got, err := f.Fetch(context.Background(), "s3://circuits/age/age.sym")
	require.NoError(t, err)
	assert.Equal(t, data, got)

	_, err = f.Fetch(context.Background(), "s3://circuits/")
	assert.Error(t, err)
	_, err = f.Fetch(context.Background(), "s3://circuits/nope")
	assert.Error(t, err)
}

func TestFetchLimits(t *testing.T) {
	path := writeFile(t, "big", bytes.Repeat([]byte{1}, 64))

	_, err := newFetcher(artifacts.WithMaxBytes(32)).Fetch(context.Background(), path)
	assert.Error(t, err)

	_, err = newFetcher().Fetch(context.Background(), "gs://bucket/object")
	assert.Error(t, err, "gs needs a registered source")
}

func TestLoadCircuit(t *testing.T) {
	syms := []byte("1,1,0,main.out\n2,2,0,main.minAge\n3,3,0,main.birthDate[0]\n4,4,0,main.birthDate[1]\n5,5,0,main.birthDate[2]\n")
	vk := []byte("vk")
	src := artifacts.CircuitSourceJson{
		ID:            "age",
		Symbols:       artifacts.Pin("file://"+writeFile(t, "age.sym", syms), syms),
		Outputs:       1,
		PublicInputs:  1,
		PrivateInputs: 3,
		VerifyingKey:  "file://" + writeFile(t, "age.vk", vk),
		Constraints:   "file://" + writeFile(t, "age.json", []byte(`[{"type":"comparison","fields":["out"],"operator":"eq","value":1}]`)),
	}.ConvertToDomain()

	a, err := newFetcher().LoadCircuit(context.Background(), src)
	require.NoError(t, err)
	assert.Equal(t, "age", a.Circuit.ID)
	assert.Equal(t, 2, a.Circuit.PublicSize())
	assert.Equal(t, vk, a.VerifyingKey)
	assert.Empty(t, a.ProvingKey)
	require.Len(t, a.Constraints, 1)
	assert.Equal(t, "birthDate[3]", a.Circuit.PrivateSignals[0].String())
}
