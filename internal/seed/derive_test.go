package seed

import (
	"strings"
	"testing"
)

func TestDerivedValues(t *testing.T) {
	if got := Prefix(1); got != "c4ca4238" {
		t.Fatalf("Prefix(1) = %q", got)
	}
	if got := Login(1); got != "c4ca4238.bench2.1" {
		t.Fatalf("Login(1) = %q", got)
	}
	if got := Email(2); got != "c81e728d@bench2.com" {
		t.Fatalf("Email(2) = %q", got)
	}
	if got := PostTitle(1); got != "c4ca4238: A Bench2 Test Post" {
		t.Fatalf("PostTitle(1) = %q", got)
	}
	if got := PageTitle(2); got != "c81e728d: A Bench2 Test Page" {
		t.Fatalf("PageTitle(2) = %q", got)
	}
	if got := MediaName(250); got != "6c9882bb.media.250.jpg" {
		t.Fatalf("MediaName(250) = %q", got)
	}
	if got := MediaAsset(250); got != "0.jpg" {
		t.Fatalf("MediaAsset(250) = %q", got)
	}
	if got := formatCents(ProductPrice(1)); got != "12.45" {
		t.Fatalf("price of product 1 = %q", got)
	}
}

func TestLoremIsRotation(t *testing.T) {
	cases := map[int]string{
		1:   "labore et dolore mag",
		2:   ", sed do eiusmod tem",
		250: "ea commodo consequat",
	}
	for i, prefix := range cases {
		got := Lorem(i)
		if !strings.HasPrefix(got, prefix) {
			t.Fatalf("Lorem(%d) starts with %q, want %q", i, got[:20], prefix)
		}
		if len(got) != len(lorem) || !strings.Contains(got+got, lorem) {
			t.Fatalf("Lorem(%d) is not a rotation of the source text", i)
		}
		if Lorem(i) != got {
			t.Fatalf("Lorem(%d) is not deterministic", i)
		}
	}
}

func TestWrap(t *testing.T) {
	for i, want := range map[int]int{1: 1, 3: 3, 4: 1, 7: 1, 6: 3} {
		if got := wrap(i, 3); got != want {
			t.Fatalf("wrap(%d, 3) = %d, want %d", i, got, want)
		}
	}
}
