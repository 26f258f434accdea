package hls

import (
	"strings"
	"testing"
)

const fixtureManifest = `#EXTM3U
#EXT-X-VERSION:3
#EXT-X-TARGETDURATION:10
#EXT-X-MEDIA-SEQUENCE:0
#EXT-X-KEY:METHOD=AES-128,URI="key.bin"
#EXTINF:10.0,
segment001.ts
#EXTINF:8.5,
segment002.ts
#EXT-X-ENDLIST`

func TestRewrite_Fixture(t *testing.T) {
	iv := "0123456789abcdef0123456789abcdef"
	got := string(Rewrite([]byte(fixtureManifest), iv, "abc123", "https://h"))

	keyLines := 0
	for _, line := range strings.Split(got, "\n") {
		if strings.HasPrefix(line, "#EXT-X-KEY") {
			keyLines++
			if !strings.Contains(line, `URI="https://h/media/keys/abc123"`) {
				t.Errorf("key line URI not rewritten: %s", line)
			}
			if !strings.Contains(line, "IV=0x"+iv) {
				t.Errorf("key line missing IV attribute: %s", line)
			}
		}
	}
	if keyLines != 1 {
		t.Errorf("expected exactly one key line, got %d", keyLines)
	}

	if !strings.Contains(got, "https://h/media/segment/abc123/1\n") {
		t.Errorf("segment001 not rewritten:\n%s", got)
	}
	if !strings.Contains(got, "https://h/media/segment/abc123/2\n") {
		t.Errorf("segment002 not rewritten:\n%s", got)
	}
	if strings.Contains(got, "segment001.ts") || strings.Contains(got, "segment002.ts") {
		t.Errorf("original segment names still present:\n%s", got)
	}
}

func TestRewrite_OtherLinesUntouched(t *testing.T) {
	got := string(Rewrite([]byte(fixtureManifest), "00", "abc123", "https://h"))

	for _, line := range []string{
		"#EXTM3U",
		"#EXT-X-VERSION:3",
		"#EXT-X-TARGETDURATION:10",
		"#EXT-X-MEDIA-SEQUENCE:0",
		"#EXTINF:10.0,",
		"#EXTINF:8.5,",
		"#EXT-X-ENDLIST",
	} {
		if !strings.Contains(got, line) {
			t.Errorf("line %q was altered", line)
		}
	}
}

func TestRewrite_TrailingSlashBase(t *testing.T) {
	got := string(Rewrite([]byte(fixtureManifest), "00", "abc123", "https://h/"))

	if strings.Contains(got, "https://h//") {
		t.Errorf("double slash in rewritten URLs:\n%s", got)
	}
}

func TestRewrite_KeyLineWithExistingIV(t *testing.T) {
	manifest := `#EXT-X-KEY:METHOD=AES-128,URI="key.bin",IV=0xdeadbeefdeadbeefdeadbeefdeadbeef
segment007.ts`
	iv := "00000000000000000000000000000001"
	got := string(Rewrite([]byte(manifest), iv, "m1", "https://h"))

	if strings.Contains(got, "deadbeef") {
		t.Errorf("stale IV left in place:\n%s", got)
	}
	if !strings.Contains(got, "IV=0x"+iv) {
		t.Errorf("IV not replaced:\n%s", got)
	}
	if !strings.Contains(got, "https://h/media/segment/m1/7") {
		t.Errorf("segment007 should map to segment number 7:\n%s", got)
	}
}

func TestTrailingDigits(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"segment001", "001"},
		{"segment123", "123"},
		{"segment", ""},
		{"007", "007"},
	}
	for _, tt := range tests {
		if got := trailingDigits(tt.in); got != tt.want {
			t.Errorf("trailingDigits(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}
