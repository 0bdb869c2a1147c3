package proj

import (
	"math"
	"testing"
)

func TestWgsToMerc(t *testing.T) {
	x, y := WgsToMerc(0, 0)
	if x != 0 || y != 0 {
		t.Fatalf("%v %v", x, y)
	}

	x, y = WgsToMerc(8, 53)
	if math.Abs(x-890555.9263461898) > 1e-6 || math.Abs(y-6982997.920389788) > 1e-6 {
		t.Fatalf("%v %v", x, y)
	}
}

func TestMercToWgs(t *testing.T) {
	long, lat := MercToWgs(0, 0)
	if long != 0 || lat != 0 {
		t.Fatalf("%v %v", long, lat)
	}
	long, lat = MercToWgs(890555.9263461898, 6982997.920389788)
	if math.Abs(long-8) > 1e-6 || math.Abs(lat-53) > 1e-6 {
		t.Fatalf("%v %v", long, lat)
	}
}

func TestTransform(t *testing.T) {
	f, ok := Transform(3857)
	if !ok {
		t.Fatal("3857 not supported")
	}
	if x, y := f(8, 53); math.Abs(x-890555.9263461898) > 1e-6 || math.Abs(y-6982997.920389788) > 1e-6 {
		t.Fatalf("%v %v", x, y)
	}
	f, ok = Transform(4326)
	if !ok {
		t.Fatal("4326 not supported")
	}
	if x, y := f(8, 53); x != 8 || y != 53 {
		t.Fatalf("%v %v", x, y)
	}
	if _, ok := Transform(25832); ok {
		t.Fatal("25832 supported")
	}
}
