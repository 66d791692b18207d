// Package naming builds storage-safe file names out of whatever senders put
// in attachment headers.
package naming

import (
	"crypto/md5"
	"encoding/hex"
	"regexp"
	"strings"

	"github.com/mozillazg/go-pinyin"
	"golang.org/x/text/unicode/norm"
)

const maxNameLength = 80

var (
	illegalNameChars = regexp.MustCompile(`[^\w.-]`)
	illegalExtChars  = regexp.MustCompile(`[^\w]`)
)

// SafeStorageName sanitizes a filename for use inside a storage key. The
// result contains only [A-Za-z0-9_.-]; CJK runs are transliterated to pinyin
// and over-long names are truncated with a stable hash suffix so distinct
// inputs stay distinct.
func SafeStorageName(filename string) string {
	filename = norm.NFKC.String(filename)

	namePart, ext := splitExt(filename)

	namePart = transliterate(namePart)
	namePart = illegalNameChars.ReplaceAllString(namePart, "_")
	ext = illegalExtChars.ReplaceAllString(ext, "")

	if len(namePart) > maxNameLength {
		sum := md5.Sum([]byte(filename))
		namePart = namePart[:70] + "_" + hex.EncodeToString(sum[:])[:8]
	}

	if ext != "" {
		return namePart + "." + ext
	}
	return namePart
}

func splitExt(filename string) (string, string) {
	if idx := strings.LastIndex(filename, "."); idx >= 0 {
		return filename[:idx], filename[idx+1:]
	}
	return filename, ""
}

// transliterate renders Han runs as pinyin joined with underscores and keeps
// everything else as-is.
func transliterate(s string) string {
	args := pinyin.NewArgs()
	var b strings.Builder
	var han []rune
	flush := func() {
		if len(han) == 0 {
			return
		}
		parts := pinyin.LazyPinyin(string(han), args)
		if b.Len() > 0 {
			b.WriteByte('_')
		}
		b.WriteString(strings.Join(parts, "_"))
		han = han[:0]
	}
	for _, r := range s {
		if isHan(r) {
			han = append(han, r)
			continue
		}
		flush()
		b.WriteRune(r)
	}
	flush()
	return b.String()
}

func isHan(r rune) bool {
	return r >= 0x4E00 && r <= 0x9FFF
}
