package docs

import (
	"reflect"
	"strings"
	"testing"
)

func TestTopics(t *testing.T) {
	want := []string{"boards", "items", "matches", "tui"}
	if got := Topics(); !reflect.DeepEqual(got, want) {
		t.Fatalf("Topics() = %v, want %v", got, want)
	}
}

func TestGet(t *testing.T) {
	body, ok := Get(" Items ")
	if !ok || !strings.HasPrefix(body, "# Items") {
		t.Fatalf("Get(Items) = %q, %v", body, ok)
	}
	for _, bad := range []string{"", "nope", "../docs", `content\items`} {
		if _, ok := Get(bad); ok {
			t.Fatalf("Get(%q) should miss", bad)
		}
	}
}
