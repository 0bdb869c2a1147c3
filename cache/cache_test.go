package cache

import (
	"bytes"
	"io/ioutil"
	"os"
	"testing"
	"time"
)

func TestCreateCache(t *testing.T) {
	cacheDir, _ := ioutil.TempDir("", "geosprep_test")
	defer os.RemoveAll(cacheDir)

	cache, err := Open(cacheDir + "/limitto")
	if err != nil {
		t.Fatal(err)
	}
	defer cache.Close()

	if stat, err := os.Stat(cacheDir + "/limitto"); err != nil || !stat.IsDir() {
		t.Error("cache dir not created")
	}
}

func TestReadWriteEntry(t *testing.T) {
	cacheDir, _ := ioutil.TempDir("", "geosprep_test")
	defer os.RemoveAll(cacheDir)

	key := Key("postgis://localhost/gis", "SELECT geometry FROM limits")

	cache, err := Open(cacheDir)
	if err != nil {
		t.Fatal(err)
	}
	if _, ok, err := cache.Get(key); ok || err != nil {
		t.Fatal("unexpected entry", ok, err)
	}
	created := time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)
	entry := Entry{Created: created, Wkbs: [][]byte{{1, 2, 3}, {}, {4}}}
	if err := cache.Put(key, entry); err != nil {
		t.Fatal(err)
	}
	cache.Close()

	cache, err = Open(cacheDir)
	if err != nil {
		t.Fatal(err)
	}
	defer cache.Close()

	data, ok, err := cache.Get(key)
	if err != nil || !ok {
		t.Fatal(ok, err)
	}
	if !data.Created.Equal(created) || len(data.Wkbs) != 3 {
		t.Fatalf("unexpected result of Get: %v", data)
	}
	if !bytes.Equal(data.Wkbs[0], []byte{1, 2, 3}) || len(data.Wkbs[1]) != 0 || !bytes.Equal(data.Wkbs[2], []byte{4}) {
		t.Fatalf("unexpected result of Get: %v", data)
	}

	if err := cache.Delete(key); err != nil {
		t.Fatal(err)
	}
	if _, ok, err := cache.Get(key); ok || err != nil {
		t.Fatal("entry not deleted", ok, err)
	}
}

func TestKey(t *testing.T) {
	if bytes.Equal(Key("ab", "c"), Key("a", "bc")) {
		t.Fatal("key parts not separated")
	}
	if !bytes.Equal(Key("a", "b"), Key("a", "b")) {
		t.Fatal("key not stable")
	}
}

func TestUnmarshalInvalidEntry(t *testing.T) {
	for _, data := range [][]byte{
		nil,
		{2, 0},
		{1, 5, 1},
		{1, 1, 2, 1, 1},
		{1, 200, 1, 0, 0, 0, 0},
	} {
		if _, err := UnmarshalEntry(data); err == nil {
			t.Errorf("%v decoded", data)
		}
	}
}
