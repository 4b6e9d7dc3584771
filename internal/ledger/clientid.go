package ledger

import (
	"fmt"
	"strconv"
	"strings"
)

// Client order ids are the correlation tokens sent with every submission so
// an order can be re-identified at the broker even when the in-process
// ledger has not seen it. The encoding is deterministic and invertible:
//
//	ZORRO_<tag>_<tradeID>
//
// The tag is the session's order-tag text, sanitised so it cannot collide
// with the field separators. An empty tag yields "ZORRO__<tradeID>".
const clientIDPrefix = "ZORRO"

// EncodeClientID builds the client order id for a trade id and tag.
func EncodeClientID(tradeID int, tag string) string {
	return fmt.Sprintf("%s_%s_%d", clientIDPrefix, SanitizeTag(tag), tradeID)
}

// DecodeClientID inverts EncodeClientID. ok is false for tokens not
// produced by this scheme.
func DecodeClientID(s string) (tradeID int, tag string, ok bool) {
	rest, found := strings.CutPrefix(s, clientIDPrefix+"_")
	if !found {
		return 0, "", false
	}
	sep := strings.LastIndexByte(rest, '_')
	if sep < 0 {
		return 0, "", false
	}
	id, err := strconv.Atoi(rest[sep+1:])
	if err != nil || id <= 0 {
		return 0, "", false
	}
	return id, rest[:sep], true
}

// SanitizeTag strips everything but letters, digits, and '-' from an
// order-tag so the encoded id stays parseable.
func SanitizeTag(tag string) string {
	var b strings.Builder
	for _, r := range tag {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9', r == '-':
			b.WriteRune(r)
		}
	}
	return b.String()
}
