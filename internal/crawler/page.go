package crawler

import (
	"bytes"
	"encoding/hex"
	"hash"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"golang.org/x/crypto/sha3"
)

// titlePrefixSize bounds how much of the scanned body is kept for title
// extraction. The extractor stops reading at the first usable link, so the
// title is only found when it appears before that point.
const titlePrefixSize = 64 * 1024

// pageRecorder observes the bytes the extractor consumes from a body.
// It keeps a bounded prefix for the title, a running fingerprint and a byte count.
type pageRecorder struct {
	prefix bytes.Buffer
	limit  int
	digest hash.Hash
	n      int64
}

func newPageRecorder() *pageRecorder {
	return &pageRecorder{
		limit:  titlePrefixSize,
		digest: sha3.New256(),
	}
}

// Write implements io.Writer. It never fails.
func (p *pageRecorder) Write(b []byte) (int, error) {
	p.n += int64(len(b))
	p.digest.Write(b) //nolint:errcheck // hash.Hash.Write never returns an error
	if room := p.limit - p.prefix.Len(); room > 0 {
		if len(b) > room {
			p.prefix.Write(b[:room])
		} else {
			p.prefix.Write(b)
		}
	}
	return len(b), nil
}

// Fingerprint returns the hex SHA3-256 digest of everything consumed,
// or "" when nothing was read.
func (p *pageRecorder) Fingerprint() string {
	if p.n == 0 {
		return ""
	}
	return hex.EncodeToString(p.digest.Sum(nil))
}

// BytesRead returns the number of bytes consumed.
func (p *pageRecorder) BytesRead() int64 {
	return p.n
}

// Title returns the text of the first <title> element in the recorded prefix.
func (p *pageRecorder) Title() string {
	return extractTitle(p.prefix.Bytes())
}

// extractTitle parses a possibly truncated HTML fragment and returns its
// <title> text with whitespace collapsed.
func extractTitle(fragment []byte) string {
	if len(fragment) == 0 {
		return ""
	}
	doc, err := goquery.NewDocumentFromReader(bytes.NewReader(fragment))
	if err != nil {
		return ""
	}
	return strings.Join(strings.Fields(doc.Find("title").First().Text()), " ")
}
