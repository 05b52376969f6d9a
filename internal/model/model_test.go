package model

import "testing"

func TestNewFileIDCanonicalises(t *testing.T) {
	cases := []struct {
		name string
		in   string
		want FileID
	}{
		{"empty", "", ""},
		{"already canonical", "/d/a.txt", "/d/a.txt"},
		{"dot dot", "/d/x/../a", "/d/a"},
		{"dot segment", "/d/./a", "/d/a"},
		{"doubled slash", "/d//a", "/d/a"},
		{"trailing slash", "/d/a/", "/d/a"},
		{"decomposed accent", "/d/e\u0301", "/d/\u00e9"},
		{"composed accent", "/d/\u00e9", "/d/\u00e9"},
	}
	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			if got := NewFileID(c.in); got != c.want {
				t.Fatalf("NewFileID(%q) = %q, want %q", c.in, got, c.want)
			}
		})
	}
}

func TestNewFileIDSpellingsCollide(t *testing.T) {
	nfd := NewFileID("/data/cafe\u0301.txt")
	nfc := NewFileID("/data/caf\u00e9.txt")
	if nfd != nfc {
		t.Fatalf("NFD %q and NFC %q should be the same id", nfd, nfc)
	}
	if again := NewFileID(nfd.String()); again != nfd {
		t.Fatalf("NewFileID is not idempotent: %q -> %q", nfd, again)
	}

	s := Snapshot{nfd: "aaaa"}
	if _, ok := s[nfc]; !ok {
		t.Fatal("snapshot lookup by the other spelling failed")
	}
}

func TestJoinFileID(t *testing.T) {
	cases := []struct {
		root, rel string
		want      FileID
	}{
		{"/data", "a.txt", "/data/a.txt"},
		{"/data", "sub/x.txt", "/data/sub/x.txt"},
		{"/data/", "./a/../b.txt", "/data/b.txt"},
		{"/data", "", "/data"},
		{"/data", "e\u0301.txt", "/data/\u00e9.txt"},
	}
	for _, c := range cases {
		if got := JoinFileID(c.root, c.rel); got != c.want {
			t.Errorf("JoinFileID(%q, %q) = %q, want %q", c.root, c.rel, got, c.want)
		}
	}
}

func TestFileIDBase(t *testing.T) {
	cases := map[FileID]string{
		"/data/a.txt":    "a.txt",
		"/data/sub/b.go": "b.go",
		"a.txt":          "a.txt",
		"/":              "/",
		"":               "",
	}
	for id, want := range cases {
		if got := id.Base(); got != want {
			t.Errorf("FileID(%q).Base() = %q, want %q", id, got, want)
		}
	}
}

func TestSnapshotPathsSorted(t *testing.T) {
	s := Snapshot{"/d/b": "2", "/d/a": "1", "/d/c": "3"}
	got := s.Paths()
	want := []FileID{"/d/a", "/d/b", "/d/c"}
	if len(got) != len(want) {
		t.Fatalf("Paths() = %v, want %v", got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("Paths() = %v, want %v", got, want)
		}
	}
}

func TestSnapshotCloneIsIndependent(t *testing.T) {
	var nilSnap Snapshot
	if c := nilSnap.Clone(); c == nil || len(c) != 0 {
		t.Fatalf("Clone of nil = %v, want empty non-nil", c)
	}

	s := Snapshot{"/d/a": "1"}
	c := s.Clone()
	c["/d/b"] = "2"
	if len(s) != 1 {
		t.Fatal("mutating the clone changed the original")
	}
	if !s.Equal(Snapshot{"/d/a": "1"}) || s.Equal(c) {
		t.Fatal("Equal gave the wrong answer")
	}
}
