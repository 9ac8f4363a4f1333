package metagenomisc

import (
	"bufio"
	"bytes"
	"compress/gzip"
	"compress/zlib"
	"io"
	"os"
	"path/filepath"
	"testing"
)

const sampleCSV = "acc,name\nSRR1,alpha\nSRR2,beta\n"

func writeTemp(t *testing.T, name string, data []byte) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	if err := os.WriteFile(path, data, 0644); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestOpenPlainAndCompressed(t *testing.T) {
	var gz bytes.Buffer
	gzw := gzip.NewWriter(&gz)
	gzw.Write([]byte(sampleCSV))
	gzw.Close()

	var zl bytes.Buffer
	zlw := zlib.NewWriter(&zl)
	zlw.Write([]byte(sampleCSV))
	zlw.Close()

	for _, v := range []struct {
		name string
		data []byte
	}{
		{"plain.csv", []byte(sampleCSV)},
		{"table.csv.gz", gz.Bytes()},
		{"table.csv.z", zl.Bytes()},
	} {
		path := writeTemp(t, v.name, v.data)

		o, err := NewOpener(path)
		if err != nil {
			t.Fatal(err)
		}

		got, err := o.ReadFile(path)
		if err != nil {
			t.Fatalf("%s: %v", v.name, err)
		}
		if string(got) != sampleCSV {
			t.Errorf("%s: got %q, expected %q", v.name, got, sampleCSV)
		}
	}
}

func TestOpenEmptyFile(t *testing.T) {
	path := writeTemp(t, "empty.csv", nil)

	o := &Opener{}
	rc, err := o.Open(path)
	if err != nil {
		t.Fatal(err)
	}
	defer rc.Close()

	got, err := io.ReadAll(rc)
	if err != nil {
		t.Fatal(err)
	}
	if len(got) != 0 {
		t.Errorf("Expected no bytes, got %q", got)
	}
}

func TestOpenMissingFile(t *testing.T) {
	o := &Opener{}
	if _, err := o.Open(filepath.Join(t.TempDir(), "nope.csv")); err == nil {
		t.Error("Expected an error for a missing file")
	}
}

func TestOpenCloudWithoutClient(t *testing.T) {
	o := &Opener{}
	for _, path := range []string{"gs://bucket/key.csv", "s3://bucket/key.csv"} {
		if _, err := o.Open(path); err == nil {
			t.Errorf("%s: expected an error without a client", path)
		}
	}
}

func TestSplitBucketPath(t *testing.T) {
	for _, v := range []struct {
		path, bucket, key string
		ok                bool
	}{
		{"gs://bucket/dir/file.csv", "bucket", "dir/file.csv", true},
		{"gs://bucket", "", "", false},
		{"gs:///file.csv", "", "", false},
		{"gs://bucket/", "", "", false},
	} {
		bucket, key, err := splitBucketPath(v.path, gsScheme)
		if (err == nil) != v.ok {
			t.Errorf("%s: unexpected error state %v", v.path, err)
			continue
		}
		if bucket != v.bucket || key != v.key {
			t.Errorf("%s: got %q %q, expected %q %q", v.path, bucket, key, v.bucket, v.key)
		}
	}
}

func TestDetectDataType(t *testing.T) {
	var gz bytes.Buffer
	gzw := gzip.NewWriter(&gz)
	gzw.Write([]byte("x"))
	gzw.Close()

	for _, v := range []struct {
		data     []byte
		expected DataType
	}{
		{gz.Bytes(), DataTypeGzip},
		{[]byte{0x42, 0x5a, 0x68, 0x39}, DataTypeBZip2},
		{[]byte{0xfd, 0x37, 0x7a, 0x58, 0x5a, 0x00, 0x00}, DataTypeXZ},
		{[]byte{0x78, 0x9c, 0x4a}, DataTypeZ},
		{[]byte("a,b"), DataTypeNoCompression},
		{nil, DataTypeNoCompression},
	} {
		dt, err := DetectDataType(bufioReader(v.data))
		if err != nil {
			t.Fatal(err)
		}
		if dt != v.expected {
			t.Errorf("%x: got %v, expected %v", v.data, dt, v.expected)
		}
	}
}

func TestExpandHome(t *testing.T) {
	if got := ExpandHome("/data/x.csv"); got != "/data/x.csv" {
		t.Errorf("Absolute path changed to %s", got)
	}

	home, err := os.UserHomeDir()
	if err != nil {
		t.Skip("no home directory")
	}
	if got, expected := ExpandHome("~/x.csv"), filepath.Join(home, "x.csv"); got != expected {
		t.Errorf("Got %s, expected %s", got, expected)
	}
}

func bufioReader(data []byte) *bufio.Reader {
	return bufio.NewReader(bytes.NewReader(data))
}
