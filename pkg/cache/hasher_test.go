package cache

import "testing"

func TestMatrixFingerprint(t *testing.T) {
	t.Run("same inputs produce same fingerprint", func(t *testing.T) {
		origins := []Waypoint{{Lat: 1, Lon: 1}, {Lat: 2, Lon: 2}}
		fp1 := MatrixFingerprint("euclidean", origins, nil, nil)
		fp2 := MatrixFingerprint("euclidean", origins, nil, nil)

		if fp1 != fp2 {
			t.Errorf("same inputs should produce same fingerprint: %v != %v", fp1, fp2)
		}
	})

	t.Run("different adapters produce different fingerprints", func(t *testing.T) {
		origins := []Waypoint{{Lat: 1, Lon: 1}}
		fp1 := MatrixFingerprint("euclidean", origins, nil, nil)
		fp2 := MatrixFingerprint("haversine", origins, nil, nil)

		if fp1 == fp2 {
			t.Error("different adapters should produce different fingerprints")
		}
	})

	t.Run("coordinate order affects fingerprint", func(t *testing.T) {
		a := []Waypoint{{Lat: 1, Lon: 1}, {Lat: 2, Lon: 2}}
		b := []Waypoint{{Lat: 2, Lon: 2}, {Lat: 1, Lon: 1}}

		fp1 := MatrixFingerprint("euclidean", a, nil, nil)
		fp2 := MatrixFingerprint("euclidean", b, nil, nil)

		if fp1 == fp2 {
			t.Error("waypoint order is significant and should change the fingerprint")
		}
	})

	t.Run("param order does not affect fingerprint", func(t *testing.T) {
		origins := []Waypoint{{Lat: 1, Lon: 1}}
		p1 := map[string]string{"a": "1", "b": "2"}
		p2 := map[string]string{"b": "2", "a": "1"}

		fp1 := MatrixFingerprint("local_graph", origins, nil, p1)
		fp2 := MatrixFingerprint("local_graph", origins, nil, p2)

		if fp1 != fp2 {
			t.Error("map iteration order should not affect the fingerprint")
		}
	})
}

func TestBuildMatrixKey(t *testing.T) {
	key := BuildMatrixKey("abc123")
	expected := "matrix:abc123"
	if key != expected {
		t.Errorf("BuildMatrixKey() = %v, want %v", key, expected)
	}
}

func TestQuickHash(t *testing.T) {
	data := []byte("test data")
	hash := QuickHash(data)

	if len(hash) != 64 { // SHA256 hex = 64 chars
		t.Errorf("QuickHash length = %d, want 64", len(hash))
	}

	hash2 := QuickHash(data)
	if hash != hash2 {
		t.Error("same data should produce same hash")
	}
}

func TestShortHash(t *testing.T) {
	data := []byte("test data")
	hash := ShortHash(data)

	if len(hash) != 16 {
		t.Errorf("ShortHash length = %d, want 16", len(hash))
	}
}
