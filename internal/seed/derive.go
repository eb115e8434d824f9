package seed

import (
	"crypto/md5"
	"encoding/hex"
	"strconv"
)

// EmailDomain is the domain of every generated account. Teardown removes
// accounts by this suffix.
const EmailDomain = "bench2.com"

const lorem = "Lorem ipsum dolor sit amet, consectetur adipiscing elit, sed do eiusmod tempor incididunt ut labore et dolore magna aliqua. Ut enim ad minim veniam, quis nostrud exercitation ullamco laboris nisi ut aliquip ex ea commodo consequat. Duis aute irure dolor in reprehenderit in voluptate velit esse cillum dolore eu fugiat nulla pariatur. Excepteur sint occaecat cupidatat non proident, sunt in culpa qui officia deserunt mollit anim id est laborum."

// Every value below is a pure function of the item index so re-running a
// range yields the same rows.

func digest(i int) string {
	sum := md5.Sum([]byte(strconv.Itoa(i)))
	return hex.EncodeToString(sum[:])
}

// Prefix returns the first eight hex digits of md5(i).
func Prefix(i int) string {
	return digest(i)[:8]
}

func Login(i int) string {
	return Prefix(i) + ".bench2." + strconv.Itoa(i)
}

func Email(i int) string {
	return Prefix(i) + "@" + EmailDomain
}

// Lorem returns the lorem text rotated by md5(i)[:4] read as hex.
func Lorem(i int) string {
	n, _ := strconv.ParseUint(digest(i)[:4], 16, 32)
	offset := int(n % uint64(len(lorem)))
	return lorem[offset:] + lorem[:offset]
}

func PostTitle(i int) string {
	return Prefix(i) + ": A Bench2 Test Post"
}

func PageTitle(i int) string {
	return Prefix(i) + ": A Bench2 Test Page"
}

// MediaName is the uploaded file name of attachment i.
func MediaName(i int) string {
	return Prefix(i) + ".media." + strconv.Itoa(i) + ".jpg"
}

// MediaAsset is the bundled source image attachment i is copied from.
func MediaAsset(i int) string {
	return strconv.Itoa(i%10) + ".jpg"
}

// Slug returns the stable slug of item i of a content kind.
func Slug(kind string, i int) string {
	return Prefix(i) + "-bench2-" + kind + "-" + strconv.Itoa(i)
}

// ProductPrice returns a price in cents between 1.00 and 100.99.
func ProductPrice(i int) int {
	n, _ := strconv.ParseUint(digest(i)[8:12], 16, 32)
	return 100 + int(n%10000)
}

// wrap maps item i onto 1..n, cycling.
func wrap(i, n int) int {
	return (i-1)%n + 1
}
